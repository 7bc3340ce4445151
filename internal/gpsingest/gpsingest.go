// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gpsingest owns the GPS serial port and NMEA parsing thread.
// It exposes the most recently assembled fix (and richer diagnostic
// sub-structs) under a short mutex for the render and reporter threads
// to read.
package gpsingest

import (
	"bufio"
	"log"
	"strings"
	"sync"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/dwt27/isopod/internal/config"
	"github.com/dwt27/isopod/internal/control"
)

// Satellite is one entry of a GSV sentence.
type Satellite struct {
	SVNumber  int64
	Elevation int64
	Azimuth   int64
	SNR       int64
}

// Quality holds the dilution-of-precision and fix-quality diagnostics
// from GGA/GSA, supplementing the bare control.GpsFix the render loop
// consumes.
type Quality struct {
	FixType    string // "2D", "3D", "no fix"
	FixQuality string // "invalid", "GPS", "DGPS", "RTK fixed", "RTK float"
	HDOP       float64
	PDOP       float64
	VDOP       float64
}

// Velocity holds speed/course diagnostics from RMC/VTG.
type Velocity struct {
	SpeedKnots float64
	SpeedKmh   float64
	CourseDeg  float64
}

// Source owns the serial port and the latest-fix state. The zero value
// is not usable; build one with New.
type Source struct {
	cfg *config.Config

	mu         sync.RWMutex
	fix        control.GpsFix
	haveFix    bool
	quality    Quality
	velocity   Velocity
	satellites []Satellite

	// gsvBuffer accumulates satellites across a multi-sentence GSV
	// burst; reset when a sequence's first message arrives.
	gsvBuffer []Satellite
}

// New builds a Source. Call Run in its own goroutine to start ingesting.
func New(cfg *config.Config) *Source {
	return &Source{cfg: cfg}
}

// LatestFix returns the most recently assembled fix, or false if no RMC
// sentence with a valid fix has been seen yet.
func (s *Source) LatestFix() (control.GpsFix, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fix, s.haveFix
}

// LatestQuality returns the latest GGA/GSA diagnostics.
func (s *Source) LatestQuality() Quality {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.quality
}

// LatestVelocity returns the latest RMC/VTG diagnostics.
func (s *Source) LatestVelocity() Velocity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.velocity
}

// LatestSatellites returns the most recently completed GSV burst.
func (s *Source) LatestSatellites() []Satellite {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Satellite(nil), s.satellites...)
}

// Run opens the configured serial port and blocks forever, parsing NMEA
// sentences one line at a time. A read error (device unplugged, etc.)
// is transient: it is logged and Run returns so the
// caller can retry after a backoff, rather than taking down the process.
func (s *Source) Run() error {
	opts := serial.OpenOptions{
		PortName:              s.cfg.GPSSerialPort,
		BaudRate:              uint(s.cfg.GPSBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(opts)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("gpsingest: serial port opened on %s at %d baud", opts.PortName, opts.BaudRate)

	reader := bufio.NewReader(port)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("gpsingest: serial read error: %v", err)
			return err
		}
		s.ingestLine(line)
	}
}

func (s *Source) ingestLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "$") {
		return
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		return // malformed or unsupported sentence; swallow and retry next line
	}

	switch sentence.DataType() {
	case nmea.TypeRMC:
		s.applyRMC(sentence.(nmea.RMC))
	case nmea.TypeGGA:
		s.applyGGA(sentence.(nmea.GGA))
	case nmea.TypeGSA:
		s.applyGSA(sentence.(nmea.GSA))
	case nmea.TypeVTG:
		s.applyVTG(sentence.(nmea.VTG))
	case nmea.TypeGSV:
		s.applyGSV(sentence.(nmea.GSV))
	}
}

// applyRMC commits a new fix only when time, date, latitude, and
// longitude are all present and the sentence reports a valid fix
// (sentences lacking required fields are silently ignored).
func (s *Source) applyRMC(m nmea.RMC) {
	if m.Validity != "A" {
		return
	}
	ts, ok := combineTimeDate(m)
	if !ok {
		return
	}

	s.mu.Lock()
	s.fix.Latitude = m.Latitude
	s.fix.Longitude = m.Longitude
	s.fix.Time = ts
	s.haveFix = true
	s.velocity.SpeedKnots = m.Speed
	s.velocity.CourseDeg = m.Course
	s.mu.Unlock()
}

func combineTimeDate(m nmea.RMC) (time.Time, bool) {
	if !m.Time.Valid || !m.Date.Valid {
		return time.Time{}, false
	}
	year := 2000 + m.Date.YY
	ts := time.Date(year, time.Month(m.Date.MM), m.Date.DD,
		m.Time.Hour, m.Time.Minute, m.Time.Second, 0, time.UTC)
	return ts, true
}

func (s *Source) applyGGA(m nmea.GGA) {
	s.mu.Lock()
	s.fix.Altitude = m.Altitude
	s.fix.Satellites = int(m.NumSatellites)
	s.quality.FixQuality = fixQualityString(m.FixQuality)
	s.quality.HDOP = m.HDOP
	s.mu.Unlock()
}

func fixQualityString(code string) string {
	switch code {
	case "0":
		return "invalid"
	case "1":
		return "GPS"
	case "2":
		return "DGPS"
	case "4":
		return "RTK fixed"
	case "5":
		return "RTK float"
	default:
		return code
	}
}

func (s *Source) applyGSA(m nmea.GSA) {
	s.mu.Lock()
	switch m.FixType {
	case "1":
		s.quality.FixType = "no fix"
	case "2":
		s.quality.FixType = "2D"
	case "3":
		s.quality.FixType = "3D"
	default:
		s.quality.FixType = m.FixType
	}
	s.quality.PDOP = m.PDOP
	s.quality.VDOP = m.VDOP
	s.mu.Unlock()
}

func (s *Source) applyVTG(m nmea.VTG) {
	s.mu.Lock()
	s.velocity.SpeedKmh = m.GroundSpeedKPH
	s.mu.Unlock()
}

// applyGSV accumulates satellites across a multi-part GSV burst and
// commits the full list once the final part arrives.
func (s *Source) applyGSV(m nmea.GSV) {
	if m.MessageNumber == 1 {
		s.gsvBuffer = s.gsvBuffer[:0]
	}
	for _, sv := range m.Info {
		s.gsvBuffer = append(s.gsvBuffer, Satellite{
			SVNumber:  sv.SVPRNNumber,
			Elevation: sv.Elevation,
			Azimuth:   sv.Azimuth,
			SNR:       sv.SNR,
		})
	}
	if m.MessageNumber == m.TotalMessages {
		s.mu.Lock()
		s.satellites = append([]Satellite(nil), s.gsvBuffer...)
		s.mu.Unlock()
	}
}
