// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package app wires the Isopod process together: it starts the sensor,
// GPS, reporter, and server goroutines, runs the render loop, and hands
// the LED driver the main thread until shutdown.
package app

import (
	"fmt"
	"log"
	"time"

	"github.com/dwt27/isopod/internal/config"
	"github.com/dwt27/isopod/internal/control"
	"github.com/dwt27/isopod/internal/controlserver"
	"github.com/dwt27/isopod/internal/gpsingest"
	"github.com/dwt27/isopod/internal/leddriver"
	"github.com/dwt27/isopod/internal/motion"
	"github.com/dwt27/isopod/internal/patternmanager"
	"github.com/dwt27/isopod/internal/patterns"
	"github.com/dwt27/isopod/internal/reporter"
	"github.com/dwt27/isopod/internal/sensors"
	"github.com/dwt27/isopod/internal/visualiser"
)

// gpsRetryDelay is how long to wait before reopening the GPS serial
// port after a read error.
const gpsRetryDelay = 5 * time.Second

// Run starts every thread and blocks until the LED driver completes its
// shutdown sequence. The returned error is nil on a clean SIGTERM path.
func Run() error {
	cfg := config.Get()

	periphs := sensors.New(cfg)

	initialPattern := cfg.StaticPattern
	if initialPattern == "" || initialPattern == "jukebox" {
		initialPattern = patterns.NameStarfield
	}
	controls := control.NewControls(cfg.LEDBrightness, initialPattern, patterns.Names())

	driver, err := leddriver.New(cfg, controls)
	if err != nil {
		return err
	}

	if cfg.DoStartupTests {
		log.Println("app: running startup self-tests")
		if err := periphs.Test(); err != nil {
			return fmt.Errorf("startup test: %w", err)
		}
		if err := driver.Test(); err != nil {
			return fmt.Errorf("startup test: %w", err)
		}
		log.Println("app: startup self-tests passed")
	}

	manager, err := patternmanager.New(cfg, controls)
	if err != nil {
		return err
	}

	gps := gpsingest.New(cfg)
	go func() {
		for {
			if err := gps.Run(); err != nil {
				log.Printf("app: gps ingest stopped: %v (retrying in %v)", err, gpsRetryDelay)
			}
			time.Sleep(gpsRetryDelay)
		}
	}()

	go func() {
		if err := periphs.Run(); err != nil {
			log.Printf("app: sensor thread stopped: %v", err)
		}
	}()

	vis := visualiser.New()
	go func() {
		if err := vis.Run(cfg.VisualiserListenAddr); err != nil {
			log.Printf("app: visualiser stopped: %v", err)
		}
	}()

	go func() {
		if err := controlserver.Run(cfg.ControlListenAddr, cfg.ControlStaticDir, controls); err != nil {
			log.Printf("app: control server stopped: %v", err)
		}
	}()

	if cfg.ReporterInterval > 0 {
		rep := reporter.New(cfg)
		go rep.Run()
		go func() {
			ticker := time.NewTicker(time.Duration(cfg.ReporterInterval) * time.Second)
			defer ticker.Stop()
			for range ticker.C {
				var fix *control.GpsFix
				if f, ok := gps.LatestFix(); ok {
					fix = &f
				}
				rep.Send(reporter.Sample{Fix: fix, Battery: periphs.LatestBattery()})
			}
		}()
	}

	go renderLoop(cfg, periphs, gps, manager, vis, driver)

	// The LED driver holds the calling goroutine: it owns the shutdown
	// signal and the blackout sequence, and returns on SIGTERM/SIGINT.
	return driver.Run()
}

// renderLoop is the fixed-period frame clock: read the latest sensor
// snapshots, advance the pattern state machine, and ship the frame to
// the visualiser and the LED driver.
func renderLoop(
	cfg *config.Config,
	periphs *sensors.Periphs,
	gps *gpsingest.Source,
	manager *patternmanager.Manager,
	vis *visualiser.Server,
	driver *leddriver.Driver,
) {
	sensor := motion.New()
	period := time.Second / time.Duration(cfg.FPS)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	log.Printf("app: render loop at %d fps (%v period)", cfg.FPS, period)

	for range ticker.C {
		imu := periphs.LatestImu()
		var fix *control.GpsFix
		if f, ok := gps.LatestFix(); ok {
			fix = &f
		}

		sensor.Push(imu)
		frame := manager.Step(sensor, fix, imu)

		vis.Broadcast(frame)
		driver.Submit(*frame)
	}
}
