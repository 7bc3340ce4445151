package leddriver

import (
	"testing"

	"github.com/dwt27/isopod/internal/config"
	"github.com/dwt27/isopod/internal/control"
)

func testConfig() *config.Config {
	cfg := &config.Config{
		LEDPhysicalCount:   2 * control.LedsPerSpine,
		LEDCurrentLimitAmp: 4.0,
	}
	for i := range cfg.LEDSpineMapping {
		cfg.LEDSpineMapping[i] = i + 1
	}
	return cfg
}

func TestWriteWiredPixelByteOrder(t *testing.T) {
	buf := make([]byte, 8)
	writeWiredPixel(buf, 0, 1, 2, 3) // b, g, r
	if buf[0] != 1 || buf[1] != 2 || buf[2] != 3 || buf[3] != 0 {
		t.Fatalf("pixel 0 bytes = %v, want [B G R 0] = [1 2 3 0]", buf[:4])
	}
	writeWiredPixel(buf, 1, 4, 5, 6)
	if buf[4] != 4 || buf[5] != 5 || buf[6] != 6 || buf[7] != 0 {
		t.Fatalf("pixel 1 bytes = %v, want [4 5 6 0]", buf[4:])
	}
}

func TestSubmitKeepsOnlyLatestFrame(t *testing.T) {
	d, err := New(testConfig(), control.NewControls(100, "zoom", []string{"zoom"}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first := control.NewFrame()
	first[0][0] = control.RGB{R: 1}
	second := control.NewFrame()
	second[0][0] = control.RGB{R: 2}
	third := control.NewFrame()
	third[0][0] = control.RGB{R: 3}

	// No driver goroutine is draining the channel: the middle frame
	// must be discarded, the newest kept.
	d.Submit(first)
	d.Submit(second)
	d.Submit(third)

	got := <-d.frameCh
	if got[0][0].R != 3 {
		t.Errorf("pending frame pixel = %d, want the newest (3)", got[0][0].R)
	}
	select {
	case extra := <-d.frameCh:
		t.Errorf("unexpected second pending frame: %v", extra[0][0])
	default:
	}
}

func TestNewRejectsBadMapping(t *testing.T) {
	cfg := testConfig()
	cfg.LEDSpineMapping[0] = 13
	if _, err := New(cfg, control.NewControls(100, "zoom", []string{"zoom"})); err == nil {
		t.Fatal("New should reject a non-permutation spine mapping")
	}
}
