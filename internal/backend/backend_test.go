package backend

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAcceptsTelemetryPacket(t *testing.T) {
	srv := httptest.NewServer(NewMux())
	defer srv.Close()

	body := `{"lat":51.5,"long":-0.12,"sats":7,"alt":30,"time":"2026-07-04 12:00:00","voltage":3.9,"current":-0.5,"soc":80,"temp":41.2}`
	resp, err := http.Post(srv.URL+"/isopod", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("got %d, want 200", resp.StatusCode)
	}
}

func TestRejectsOversizedPacket(t *testing.T) {
	srv := httptest.NewServer(NewMux())
	defer srv.Close()

	big := bytes.Repeat([]byte("x"), maxPacketBytes+1)
	resp, err := http.Post(srv.URL+"/isopod", "application/json", bytes.NewReader(big))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("got %d, want 413", resp.StatusCode)
	}
}

func TestRejectsMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(NewMux())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/isopod", "application/json", strings.NewReader("{not json"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("got %d, want 400", resp.StatusCode)
	}
}

func TestRejectsGet(t *testing.T) {
	srv := httptest.NewServer(NewMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/isopod")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("got %d, want 405", resp.StatusCode)
	}
}
