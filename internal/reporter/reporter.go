// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package reporter posts periodic location and battery telemetry to the
// backend over HTTP, and optionally mirrors the same payload to an MQTT
// topic for live dashboards.
package reporter

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/dwt27/isopod/internal/config"
	"github.com/dwt27/isopod/internal/control"
)

const httpTimeout = 5 * time.Second

// Sample is one telemetry snapshot handed to the reporter thread. A nil
// Fix is normal indoors; the report substitutes a null-island, epoch
// default so the backend still receives battery state.
type Sample struct {
	Fix     *control.GpsFix
	Battery control.BatteryReadings
}

// report is the JSON body posted to the backend.
type report struct {
	Lat     float64 `json:"lat"`
	Long    float64 `json:"long"`
	Sats    int     `json:"sats"`
	Alt     float64 `json:"alt"`
	Time    string  `json:"time"`
	Voltage float64 `json:"voltage"`
	Current float64 `json:"current"`
	SoC     float64 `json:"soc"`
	Temp    float64 `json:"temp"`
}

// Reporter owns the outbound HTTP client and the optional MQTT mirror.
type Reporter struct {
	cfg    *config.Config
	ch     chan Sample
	client *http.Client
}

// New builds a Reporter. Call Run in its own goroutine, then hand it
// samples with Send.
func New(cfg *config.Config) *Reporter {
	return &Reporter{
		cfg: cfg,
		ch:  make(chan Sample, 8),
		client: &http.Client{
			Timeout: httpTimeout,
		},
	}
}

// Send hands a sample to the reporter thread without blocking. If the
// reporter is wedged on a slow network the oldest queued sample is
// dropped; telemetry has no retry queue.
func (r *Reporter) Send(s Sample) {
	select {
	case r.ch <- s:
		return
	default:
	}
	select {
	case <-r.ch:
	default:
	}
	select {
	case r.ch <- s:
	default:
	}
}

// Run blocks on the sample channel forever, posting one report per
// sample. Network errors are logged and forgotten.
func (r *Reporter) Run() error {
	var mirror mqtt.Client
	if r.cfg.MQTTBroker != "" {
		opts := mqtt.NewClientOptions().
			AddBroker(r.cfg.MQTTBroker).
			SetClientID(r.cfg.MQTTClientID).
			SetAutoReconnect(true)
		mirror = mqtt.NewClient(opts)
		if token := mirror.Connect(); token.Wait() && token.Error() != nil {
			// The mirror is best-effort; keep reporting over HTTP.
			log.Printf("reporter: MQTT connect failed, mirror disabled: %v", token.Error())
			mirror = nil
		} else {
			log.Printf("reporter: mirroring telemetry to %s (%s)", r.cfg.MQTTBroker, r.cfg.MQTTTopicTelemetry)
		}
	}

	log.Println("reporter: thread started")
	for sample := range r.ch {
		body := buildReport(sample)
		payload, err := json.Marshal(body)
		if err != nil {
			log.Printf("reporter: marshal error: %v", err)
			continue
		}

		resp, err := r.client.Post(r.cfg.ReporterURL, "application/json", bytes.NewReader(payload))
		if err != nil {
			log.Printf("reporter: post failed: %v", err)
		} else {
			resp.Body.Close()
		}

		if mirror != nil {
			mirror.Publish(r.cfg.MQTTTopicTelemetry, 0, false, payload)
		}
	}
	return nil
}

func buildReport(s Sample) report {
	fix := control.DefaultGpsFix()
	if s.Fix != nil {
		fix = *s.Fix
	}
	rep := report{
		Lat:     fix.Latitude,
		Long:    fix.Longitude,
		Sats:    fix.Satellites,
		Alt:     fix.Altitude,
		Time:    fix.Time.Format("2006-01-02 15:04:05"),
		Voltage: s.Battery.Voltage,
		Current: s.Battery.Current,
		SoC:     s.Battery.StateOfCharge,
	}
	if temp, ok := cpuTemperature(); ok {
		rep.Temp = temp
	}
	return rep
}

const temperaturePath = "/sys/class/thermal/thermal_zone0/temp"

// cpuTemperature reads the SoC temperature in °C. Running on a machine
// without the thermal sysfs node (a development PC) is an expected
// use-case, so failure is reported through ok rather than an error.
func cpuTemperature() (float64, bool) {
	buf, err := os.ReadFile(temperaturePath)
	if err != nil {
		return 0, false
	}
	millideg, err := strconv.Atoi(strings.TrimSpace(string(buf)))
	if err != nil {
		return 0, false
	}
	return float64(millideg) / 1000.0, true
}
