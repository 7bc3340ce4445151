package reporter

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dwt27/isopod/internal/config"
	"github.com/dwt27/isopod/internal/control"
)

func TestBuildReportSubstitutesDefaultFix(t *testing.T) {
	rep := buildReport(Sample{
		Battery: control.BatteryReadings{Voltage: 3.9, Current: -0.4, StateOfCharge: 81},
	})
	if rep.Lat != 0 || rep.Long != 0 || rep.Alt != 0 || rep.Sats != 0 {
		t.Errorf("missing fix should report the zero fix, got %+v", rep)
	}
	if rep.Time != "1970-01-01 00:00:00" {
		t.Errorf("missing fix should report epoch time, got %q", rep.Time)
	}
	if rep.Voltage != 3.9 || rep.Current != -0.4 || rep.SoC != 81 {
		t.Errorf("battery readings not carried through: %+v", rep)
	}
}

func TestBuildReportWithFix(t *testing.T) {
	fix := &control.GpsFix{
		Latitude:   51.5,
		Longitude:  -0.12,
		Altitude:   33,
		Satellites: 9,
		Time:       time.Date(2026, 7, 4, 12, 30, 5, 0, time.UTC),
	}
	rep := buildReport(Sample{Fix: fix})
	if rep.Lat != 51.5 || rep.Long != -0.12 || rep.Sats != 9 || rep.Alt != 33 {
		t.Errorf("fix fields not carried through: %+v", rep)
	}
	if rep.Time != "2026-07-04 12:30:05" {
		t.Errorf("wrong time format: %q", rep.Time)
	}
}

func TestRunPostsJSON(t *testing.T) {
	received := make(chan report, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var rep report
		if err := json.Unmarshal(body, &rep); err != nil {
			t.Errorf("backend received invalid JSON: %v", err)
		}
		received <- rep
	}))
	defer srv.Close()

	cfg := &config.Config{ReporterURL: srv.URL}
	rep := New(cfg)
	go rep.Run()

	rep.Send(Sample{
		Fix:     &control.GpsFix{Latitude: 1, Longitude: 2, Satellites: 4, Time: time.Unix(0, 0).UTC()},
		Battery: control.BatteryReadings{Voltage: 4.1},
	})

	select {
	case got := <-received:
		if got.Lat != 1 || got.Long != 2 || got.Sats != 4 || got.Voltage != 4.1 {
			t.Errorf("unexpected report: %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("backend never received a report")
	}
}

func TestSendNeverBlocks(t *testing.T) {
	rep := New(&config.Config{ReporterURL: "http://127.0.0.1:0"})
	// No Run goroutine: the channel fills and Send must still return.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			rep.Send(Sample{})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked with no consumer")
	}
}
