// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package sensors owns the IMU (SPI) and the battery fuel gauge (I2C).
// A single polling goroutine reads both devices and publishes the most
// recent readings under a short mutex for the render and reporter
// threads to copy out.
package sensors

import (
	"fmt"
	"log"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/dwt27/isopod/internal/config"
	"github.com/dwt27/isopod/internal/control"
)

// Periphs holds both sensor devices and their latest readings. Build one
// with New, then call Run in its own goroutine.
type Periphs struct {
	cfg *config.Config

	mu      sync.RWMutex
	imu     control.ImuReadings
	battery control.BatteryReadings
}

// New returns a Periphs with zero readings. No hardware is touched until
// Run or Test is called.
func New(cfg *config.Config) *Periphs {
	return &Periphs{cfg: cfg}
}

// LatestImu returns a copy of the most recent IMU sample.
func (p *Periphs) LatestImu() control.ImuReadings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.imu
}

// LatestBattery returns a copy of the most recent fuel-gauge sample.
func (p *Periphs) LatestBattery() control.BatteryReadings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.battery
}

// Test probes the IMU and fuel gauge once and returns an error if either
// is unreachable. Used by the opt-in startup self-test; a failure here
// exits the process non-zero before any other thread starts.
func (p *Periphs) Test() error {
	imu, gauge, err := p.open()
	if err != nil {
		return err
	}
	defer imu.close()
	defer gauge.close()

	for i := 0; i < 3; i++ {
		r, err := imu.readSample()
		if err != nil {
			return fmt.Errorf("sensors: IMU test read: %w", err)
		}
		log.Printf("sensors: IMU test sample: accel (%.2f, %.2f, %.2f) m/s² gyro (%.2f, %.2f, %.2f) rad/s",
			r.AX, r.AY, r.AZ, r.GX, r.GY, r.GZ)
		time.Sleep(300 * time.Millisecond)
	}

	b, err := gauge.read()
	if err != nil {
		return fmt.Errorf("sensors: fuel gauge test read: %w", err)
	}
	log.Printf("sensors: battery test sample: %.2f V, %.3f A, %.1f%%", b.Voltage, b.Current, b.StateOfCharge)
	return nil
}

// Run opens both devices and polls them forever at the configured
// interval. Individual read failures are transient (a NACK from a loose
// bodge-wire is an expected field condition): the stale value is kept
// and the next tick retries. Only failure to open the devices at all is
// returned to the caller.
func (p *Periphs) Run() error {
	imu, gauge, err := p.open()
	if err != nil {
		return err
	}

	interval := time.Duration(p.cfg.SensorPollIntervalMS) * time.Millisecond
	log.Printf("sensors: polling IMU and fuel gauge every %v", interval)

	for {
		if r, err := imu.readSample(); err == nil {
			p.mu.Lock()
			p.imu = r
			p.mu.Unlock()
		}

		if b, err := gauge.read(); err == nil {
			p.mu.Lock()
			p.battery = b
			p.mu.Unlock()
		}

		time.Sleep(interval)
	}
}

func (p *Periphs) open() (*mpu9250, *max1720x, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("sensors: periph host init: %w", err)
	}

	cs := gpioreg.ByName(p.cfg.IMUCSPin)
	if cs == nil {
		return nil, nil, fmt.Errorf("sensors: IMU CS pin %q not found", p.cfg.IMUCSPin)
	}
	imu, err := newMPU9250(p.cfg.IMUSPIDevice, cs)
	if err != nil {
		return nil, nil, fmt.Errorf("sensors: IMU init: %w", err)
	}

	bus, err := i2creg.Open(p.cfg.I2CBus)
	if err != nil {
		return nil, nil, fmt.Errorf("sensors: I2C bus %q: %w", p.cfg.I2CBus, err)
	}
	gauge := newMAX1720x(bus, p.cfg.FuelGaugeI2CAddr)

	return imu, gauge, nil
}
