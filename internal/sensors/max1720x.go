// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"

	"github.com/dwt27/isopod/internal/control"
)

// MAX1720x fuel-gauge registers (16-bit, little-endian on the wire).
const (
	regRepSOC  = 0x06
	regVCell   = 0x09
	regCurrent = 0x0A
)

// Conversion factors from the MAX17205 datasheet. Current scaling
// depends on the sense resistor; the board carries a 10 mΩ shunt.
const (
	vcellVoltsPerLSB  = 78.125e-6
	socPercentPerLSB  = 1.0 / 256.0
	senseResistorOhms = 0.010
	currentAmpsPerLSB = 1.5625e-6 / senseResistorOhms
)

// max1720x reads the battery fuel gauge over I2C.
type max1720x struct {
	dev i2c.Dev
	bus i2c.BusCloser
}

func newMAX1720x(bus i2c.BusCloser, addr uint16) *max1720x {
	return &max1720x{
		dev: i2c.Dev{Bus: bus, Addr: addr},
		bus: bus,
	}
}

func (g *max1720x) close() {
	g.bus.Close()
}

// read fetches voltage, current, and state of charge in one pass.
func (g *max1720x) read() (control.BatteryReadings, error) {
	vcell, err := g.readRegister(regVCell)
	if err != nil {
		return control.BatteryReadings{}, fmt.Errorf("VCell: %w", err)
	}
	current, err := g.readRegister(regCurrent)
	if err != nil {
		return control.BatteryReadings{}, fmt.Errorf("Current: %w", err)
	}
	soc, err := g.readRegister(regRepSOC)
	if err != nil {
		return control.BatteryReadings{}, fmt.Errorf("RepSOC: %w", err)
	}

	return control.BatteryReadings{
		Voltage: float64(vcell) * vcellVoltsPerLSB,
		// Current is a signed register: negative while discharging.
		Current:       float64(int16(current)) * currentAmpsPerLSB,
		StateOfCharge: float64(soc) * socPercentPerLSB,
	}, nil
}

func (g *max1720x) readRegister(addr byte) (uint16, error) {
	var rx [2]byte
	if err := g.dev.Tx([]byte{addr}, rx[:]); err != nil {
		return 0, err
	}
	return uint16(rx[0]) | uint16(rx[1])<<8, nil
}
