// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"math"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"

	"github.com/dwt27/isopod/internal/control"
)

// MPU-9250 register subset used by this driver.
const (
	regSmplrtDiv   = 0x19
	regConfig      = 0x1A
	regGyroConfig  = 0x1B
	regAccelConfig = 0x1C
	regAccelXOutH  = 0x3B // start of the 14-byte accel/temp/gyro burst
	regPwrMgmt1    = 0x6B
	regWhoAmI      = 0x75

	whoAmIValue = 0x71

	pwrMgmt1Reset   = 0x80
	pwrMgmt1ClkAuto = 0x01 // auto-select best available clock source

	// Full-scale ranges: ±2 g and ±250 °/s, the most sensitive settings.
	// The shock detector only needs to see deviations of a fraction of a
	// g, so headroom matters less than resolution.
	accelLSBPerG     = 16384.0
	gyroLSBPerDegSec = 131.0

	standardGravity = 9.80665
)

// mpu9250 is a register-level driver for the MPU-9250 over SPI. Reads
// set the MSB of the register address; the chip-select line is asserted
// manually around each transaction.
type mpu9250 struct {
	conn spi.Conn
	cs   gpio.PinOut
	port spi.PortCloser
}

func newMPU9250(spiDev string, cs gpio.PinOut) (*mpu9250, error) {
	port, err := spireg.Open(spiDev)
	if err != nil {
		return nil, fmt.Errorf("SPI port %q: %w", spiDev, err)
	}
	conn, err := port.Connect(1*physic.MegaHertz, spi.Mode3, 8)
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("SPI connect: %w", err)
	}
	m := &mpu9250{conn: conn, cs: cs, port: port}

	if err := m.init(); err != nil {
		port.Close()
		return nil, err
	}
	return m, nil
}

func (m *mpu9250) init() error {
	// Reset, then wake with the auto clock source.
	if err := m.writeRegister(regPwrMgmt1, pwrMgmt1Reset); err != nil {
		return fmt.Errorf("device reset: %w", err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := m.writeRegister(regPwrMgmt1, pwrMgmt1ClkAuto); err != nil {
		return fmt.Errorf("clock select: %w", err)
	}

	id, err := m.readRegister(regWhoAmI)
	if err != nil {
		return fmt.Errorf("WHO_AM_I read: %w", err)
	}
	if id != whoAmIValue {
		return fmt.Errorf("WHO_AM_I mismatch: got 0x%02X, want 0x%02X", id, whoAmIValue)
	}

	// DLPF at 41 Hz and a sample-rate divider of 9 give a 100 Hz output
	// rate, comfortably above the 10 Hz poll.
	if err := m.writeRegister(regConfig, 0x03); err != nil {
		return fmt.Errorf("DLPF config: %w", err)
	}
	if err := m.writeRegister(regSmplrtDiv, 0x09); err != nil {
		return fmt.Errorf("sample rate divider: %w", err)
	}
	// FS_SEL = 0 on both: ±250 °/s, ±2 g.
	if err := m.writeRegister(regGyroConfig, 0x00); err != nil {
		return fmt.Errorf("gyro range: %w", err)
	}
	if err := m.writeRegister(regAccelConfig, 0x00); err != nil {
		return fmt.Errorf("accel range: %w", err)
	}
	return nil
}

// readSample burst-reads the accel/temp/gyro block and converts it to SI
// units.
func (m *mpu9250) readSample() (control.ImuReadings, error) {
	var raw [14]byte
	if err := m.readBurst(regAccelXOutH, raw[:]); err != nil {
		return control.ImuReadings{}, err
	}
	ax := int16(uint16(raw[0])<<8 | uint16(raw[1]))
	ay := int16(uint16(raw[2])<<8 | uint16(raw[3]))
	az := int16(uint16(raw[4])<<8 | uint16(raw[5]))
	// raw[6:8] is the die temperature; unused.
	gx := int16(uint16(raw[8])<<8 | uint16(raw[9]))
	gy := int16(uint16(raw[10])<<8 | uint16(raw[11]))
	gz := int16(uint16(raw[12])<<8 | uint16(raw[13]))

	return control.ImuReadings{
		AX: accelToSI(ax), AY: accelToSI(ay), AZ: accelToSI(az),
		GX: gyroToSI(gx), GY: gyroToSI(gy), GZ: gyroToSI(gz),
	}, nil
}

func accelToSI(raw int16) float64 {
	return float64(raw) / accelLSBPerG * standardGravity
}

func gyroToSI(raw int16) float64 {
	return float64(raw) / gyroLSBPerDegSec * math.Pi / 180.0
}

func (m *mpu9250) close() {
	m.port.Close()
}

func (m *mpu9250) writeRegister(addr, value byte) error {
	if err := m.cs.Out(gpio.Low); err != nil {
		return err
	}
	defer m.cs.Out(gpio.High)
	return m.conn.Tx([]byte{addr, value}, nil)
}

func (m *mpu9250) readRegister(addr byte) (byte, error) {
	var rx [2]byte
	if err := m.cs.Out(gpio.Low); err != nil {
		return 0, err
	}
	defer m.cs.Out(gpio.High)
	if err := m.conn.Tx([]byte{addr | 0x80, 0x00}, rx[:]); err != nil {
		return 0, err
	}
	return rx[1], nil
}

func (m *mpu9250) readBurst(addr byte, dst []byte) error {
	tx := make([]byte, len(dst)+1)
	rx := make([]byte, len(dst)+1)
	tx[0] = addr | 0x80
	if err := m.cs.Out(gpio.Low); err != nil {
		return err
	}
	defer m.cs.Out(gpio.High)
	if err := m.conn.Tx(tx, rx); err != nil {
		return err
	}
	copy(dst, rx[1:])
	return nil
}
