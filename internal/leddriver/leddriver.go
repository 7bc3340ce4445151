// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package leddriver owns the physical LED strip controller and the LED
// bus enable line. It receives frames from the render loop by
// single-slot, most-recent-wins delivery, applies brightness and
// current-limit scaling, power-gates the controller during sustained
// blackout, and performs a graceful blackout on SIGTERM/SIGINT.
package leddriver

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"sync/atomic"
	"syscall"

	"github.com/dwt27/isopod/internal/config"
	"github.com/dwt27/isopod/internal/control"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// consecutiveBlackFrames is the number of all-black frames that must be
// observed in a row before the controller is torn down and bus power is
// cut.
const consecutiveBlackFrames = 3

// Driver runs the LED output thread. The zero value is not usable; build
// one with New.
type Driver struct {
	cfg      *config.Config
	controls *control.Controls
	frameCh  chan control.Frame

	// powered mirrors the controller's power state for Submit, which
	// runs on the render thread. Dropped frames are only worth a log
	// line while the bus is powered; during the cut-power idle state
	// the render thread legitimately outpaces a driver that has nothing
	// to do.
	powered       atomic.Bool
	droppedFrames atomic.Uint64
}

// New validates the spine mapping and returns a Driver ready to Run.
// An invalid mapping is a configuration error and is fatal at startup.
// config.Load already enforces this, but leddriver re-checks so it never
// trusts a hand-built Config from a test or future caller.
func New(cfg *config.Config, controls *control.Controls) (*Driver, error) {
	if err := validateMapping(cfg.LEDSpineMapping); err != nil {
		return nil, err
	}
	return &Driver{
		cfg:      cfg,
		controls: controls,
		frameCh:  make(chan control.Frame, 1),
	}, nil
}

func validateMapping(mapping [config.NumSpines]int) error {
	sorted := append([]int(nil), mapping[:]...)
	sort.Ints(sorted)
	for i, v := range sorted {
		if v != i+1 {
			return fmt.Errorf("leddriver: spine mapping %v is not a permutation of 1..%d", mapping, config.NumSpines)
		}
	}
	return nil
}

// Submit hands f to the driver thread without blocking. If the driver is
// still processing a previous frame, f replaces whatever frame was
// waiting (drop-intermediate delivery).
func (d *Driver) Submit(f control.Frame) {
	select {
	case d.frameCh <- f:
		return
	default:
	}
	select {
	case <-d.frameCh:
		if d.powered.Load() {
			n := d.droppedFrames.Add(1)
			log.Printf("leddriver: driver behind, dropped frame (%d total)", n)
		}
	default:
	}
	select {
	case d.frameCh <- f:
	default:
	}
}

// Test brings the controller up and tears it straight back down. Used
// by the opt-in startup self-test: an unreachable SPI port or a bad
// configuration fails here, before the render loop starts, and exits
// the process non-zero.
func (d *Driver) Test() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("leddriver: periph host init: %w", err)
	}
	strip, err := newController(d.cfg)
	if err != nil {
		return fmt.Errorf("leddriver: controller test: %w", err)
	}
	strip.renderBlack()
	strip.close()
	return nil
}

// Run owns the physical controller and the enable GPIO for as long as
// the process lives. It blocks until a SIGTERM/SIGINT is handled, at
// which point it performs the blackout sequence and returns nil.
func (d *Driver) Run() error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("leddriver: periph host init: %w", err)
	}

	enablePin := gpioreg.ByName(d.cfg.LEDEnableGPIOPin)
	if enablePin == nil {
		return fmt.Errorf("leddriver: enable GPIO pin %q not found", d.cfg.LEDEnableGPIOPin)
	}
	if err := enablePin.Out(gpio.Low); err != nil {
		return fmt.Errorf("leddriver: failed to set enable pin low: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	var strip *controller
	blackFrames := 0

	for {
		select {
		case <-sigCh:
			log.Println("leddriver: received shutdown signal, blacking out")
			return d.shutdown(strip, enablePin)

		case frame := <-d.frameCh:
			frame = drainLatest(d.frameCh, frame)

			if allBlack(&frame) {
				if blackFrames < consecutiveBlackFrames {
					blackFrames++
				}
			} else {
				blackFrames = 0
			}
			powered := blackFrames < consecutiveBlackFrames

			if powered && strip == nil {
				s, err := newController(d.cfg)
				if err != nil {
					log.Printf("leddriver: failed to bring up controller: %v", err)
					continue
				}
				strip = s
				if err := enablePin.Out(gpio.High); err != nil {
					log.Printf("leddriver: failed to raise enable pin: %v", err)
				}
				d.powered.Store(true)
				log.Println("leddriver: LED bus powered on")
			} else if !powered && strip != nil {
				strip.renderBlack()
				strip.close()
				strip = nil
				d.powered.Store(false)
				if err := enablePin.Out(gpio.Low); err != nil {
					log.Printf("leddriver: failed to lower enable pin: %v", err)
				}
				if err := parkDataPinsHigh(d.cfg); err != nil {
					log.Printf("leddriver: failed to park data pins: %v", err)
				}
				log.Println("leddriver: LED bus powered off")
			}

			if strip != nil {
				brightness, _ := d.controls.Snapshot()
				scale := powerScale(&frame, d.cfg.LEDCurrentLimitAmp, brightness)
				if err := strip.render(d.cfg, &frame, scale); err != nil {
					log.Printf("leddriver: render error: %v", err)
				}
			}
		}
	}
}

// drainLatest discards any further frames already queued behind frame,
// keeping only the most recent.
func drainLatest(ch chan control.Frame, frame control.Frame) control.Frame {
	for {
		select {
		case next := <-ch:
			frame = next
		default:
			return frame
		}
	}
}

func (d *Driver) shutdown(strip *controller, enablePin gpio.PinIO) error {
	if strip != nil {
		strip.renderBlack()
		strip.close()
	}
	_ = enablePin.Out(gpio.Low)
	_ = parkDataPinsHigh(d.cfg)
	return nil
}

// parkDataPinsHigh drives both data lines high after the controller is
// torn down. After the level shifter this idles the data pins at +5V,
// preventing parasitic powering of the LEDs through their data-to-ground
// protection diodes.
func parkDataPinsHigh(cfg *config.Config) error {
	for _, name := range []string{cfg.LEDDataPin0, cfg.LEDDataPin1} {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return fmt.Errorf("data pin %q not found", name)
		}
		if err := pin.Out(gpio.High); err != nil {
			return fmt.Errorf("data pin %q: %w", name, err)
		}
	}
	return nil
}

// controller wraps the two SPI-driven LED channels, one per half of the
// spine set. The strips are WS2812B-protocol devices driven through
// periph.io's NRZ encoder at 800 kHz, four bytes per pixel.
type controller struct {
	channels  [2]*nrzled.Dev
	closers   [2]func() error
	numPixels int
}

func newController(cfg *config.Config) (*controller, error) {
	c := &controller{}
	ports := [2]string{cfg.LEDDataPin0, cfg.LEDDataPin1}
	ledsPerChannel := (config.NumSpines * cfg.LEDPhysicalCount) / 2
	c.numPixels = ledsPerChannel

	for i, portName := range ports {
		port, err := spireg.Open(portName)
		if err != nil {
			c.closePartial(i)
			return nil, fmt.Errorf("spi port %q: %w", portName, err)
		}
		// 800 kHz on the wire; nrzled clocks the SPI port at three times
		// this rate, three SPI bits encoding one NRZ symbol.
		opts := nrzled.Opts{
			NumPixels: ledsPerChannel,
			Channels:  4,
			Freq:      800 * physic.KiloHertz,
		}
		dev, err := nrzled.NewSPI(port, &opts)
		if err != nil {
			port.Close()
			c.closePartial(i)
			return nil, fmt.Errorf("nrzled device on %q: %w", portName, err)
		}
		c.channels[i] = dev
		c.closers[i] = port.Close
	}
	return c, nil
}

func (c *controller) closePartial(upTo int) {
	for i := 0; i < upTo; i++ {
		if c.closers[i] != nil {
			c.closers[i]()
		}
	}
}

func (c *controller) close() {
	for i, dev := range c.channels {
		if dev != nil {
			dev.Halt()
		}
		if c.closers[i] != nil {
			c.closers[i]()
		}
	}
}

// render maps logical spines onto physical connectors via the
// configured permutation, applies power scale, converts to [B,G,R,W=0]
// wire order, and writes both channels.
func (c *controller) render(cfg *config.Config, frame *control.Frame, scale float64) error {
	ledsPerSpine := cfg.LEDPhysicalCount
	perChannel := (config.NumSpines / 2) * ledsPerSpine

	buf := [2][]byte{
		make([]byte, perChannel*4),
		make([]byte, perChannel*4),
	}

	for connector := 0; connector < config.NumSpines; connector++ {
		logicalSpine := cfg.LEDSpineMapping[connector] - 1
		channel := 0
		localConnector := connector
		if connector >= config.NumSpines/2 {
			channel = 1
			localConnector = connector - config.NumSpines/2
		}
		for led := 0; led < control.LedsPerSpine && led < ledsPerSpine; led++ {
			px := frame[logicalSpine][led]
			b := scaleByte(px.B, scale)
			g := scaleByte(px.G, scale)
			r := scaleByte(px.R, scale)
			writeWiredPixel(buf[channel], localConnector*ledsPerSpine+led, b, g, r)
			if ledsPerSpine == 2*control.LedsPerSpine {
				mirror := 2*control.LedsPerSpine - 1 - led
				writeWiredPixel(buf[channel], localConnector*ledsPerSpine+mirror, b, g, r)
			}
		}
	}

	if _, err := c.channels[0].Write(buf[0]); err != nil {
		return fmt.Errorf("channel 0 write: %w", err)
	}
	if _, err := c.channels[1].Write(buf[1]); err != nil {
		return fmt.Errorf("channel 1 write: %w", err)
	}
	return nil
}

func writeWiredPixel(buf []byte, idx int, b, g, r byte) {
	off := idx * 4
	buf[off+0] = b
	buf[off+1] = g
	buf[off+2] = r
	buf[off+3] = 0
}

func (c *controller) renderBlack() {
	blank := make([]byte, c.numPixels*4)
	for _, dev := range c.channels {
		if dev == nil {
			continue
		}
		_, _ = dev.Write(blank)
	}
}
