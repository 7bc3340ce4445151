package controlserver

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dwt27/isopod/internal/control"
)

func newTestControls() *control.Controls {
	return control.NewControls(100, "starfield", []string{"starfield", "zoom", "beans"})
}

func postCommand(t *testing.T, srv *httptest.Server, form url.Values) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/command", "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("POST /command: %v", err)
	}
	resp.Body.Close()
}

func TestCommandCommitsValidValues(t *testing.T) {
	controls := newTestControls()
	srv := httptest.NewServer(NewMux(controls, t.TempDir()))
	defer srv.Close()

	postCommand(t, srv, url.Values{"brightness": {"50"}, "pattern": {"zoom"}})

	b, name := controls.Snapshot()
	if b != 50 || name != "zoom" {
		t.Errorf("got (%d, %q), want (50, \"zoom\")", b, name)
	}
}

func TestCommandRejectsInvalidBrightness(t *testing.T) {
	controls := newTestControls()
	srv := httptest.NewServer(NewMux(controls, t.TempDir()))
	defer srv.Close()

	postCommand(t, srv, url.Values{"brightness": {"101"}})
	if got := controls.Brightness(); got != 100 {
		t.Errorf("brightness=101 should be rejected, got %d", got)
	}

	postCommand(t, srv, url.Values{"brightness": {"banana"}})
	if got := controls.Brightness(); got != 100 {
		t.Errorf("non-numeric brightness should be rejected, got %d", got)
	}
}

func TestCommandRejectsUnknownPattern(t *testing.T) {
	controls := newTestControls()
	srv := httptest.NewServer(NewMux(controls, t.TempDir()))
	defer srv.Close()

	postCommand(t, srv, url.Values{"pattern": {"not_a_pattern"}})
	if got := controls.PatternName(); got != "starfield" {
		t.Errorf("unknown pattern should be rejected, got %q", got)
	}
}

func TestUnknownPathIs404(t *testing.T) {
	srv := httptest.NewServer(NewMux(newTestControls(), t.TempDir()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/secret")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /secret = %d, want 404", resp.StatusCode)
	}
}
