// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package config loads the Isopod configuration file: a flat KEY=VALUE
// text format, one setting per line, `#`-prefixed comments allowed.
package config

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// NumSpines is the fixed spine count, S in the data model.
const NumSpines = 12

// Config holds all application configuration values.
type Config struct {
	// Render loop
	FPS              uint64
	ReporterInterval uint64 // seconds; 0 disables the reporter
	DoStartupTests   bool
	StaticPattern    string // "" = reactive state machine, "jukebox" = Jukebox, else a pattern name

	// LED output
	LEDBrightness      uint8 // hardware default setpoint, 0..100
	LEDSpineMapping    [NumSpines]int
	LEDPhysicalCount   int     // L_phys; logical pixels per spine mapped onto this many physical ones
	LEDCurrentLimitAmp float64 // hard compressor limit in amps
	LEDEnableGPIOPin   string
	LEDDataPin0        string // PWM channel driving spines 0..5
	LEDDataPin1        string // PWM channel driving spines 6..11

	// Pattern tunables
	RainbowSwirlRadialSmear float64
	RainbowSwirlSpeed       float64

	// IMU + fuel gauge (I2C sensor thread)
	IMUSPIDevice         string
	IMUCSPin             string
	I2CBus               string
	FuelGaugeI2CAddr     uint16
	SensorPollIntervalMS int

	// GPS thread
	GPSSerialPort string
	GPSBaudRate   int

	// MQTT telemetry mirror (optional; empty broker disables it)
	MQTTBroker         string
	MQTTClientID       string
	MQTTTopicTelemetry string

	// HTTP/WebSocket adapters
	ReporterURL          string
	ControlListenAddr    string
	ControlStaticDir     string
	VisualiserListenAddr string
	BackendListenAddr    string
}

// Package-level singleton: InitGlobal sets it once, Get reads it from any
// goroutine. globalConfig is unexported so callers cannot bypass the lock.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a validated Config.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := defaults()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaults returns a Config pre-populated so a minimal config file only
// needs to override what's deployment-specific.
func defaults() *Config {
	cfg := &Config{
		FPS:                     60,
		LEDBrightness:           100,
		LEDCurrentLimitAmp:      4.0,
		RainbowSwirlRadialSmear: 1.0,
		RainbowSwirlSpeed:       2.0,
		SensorPollIntervalMS:    100, // 10 Hz
		ControlListenAddr:       ":8080",
		ControlStaticDir:        "web",
		VisualiserListenAddr:    ":3030",
		BackendListenAddr:       ":1309",
		MQTTClientID:            "isopod",
		MQTTTopicTelemetry:      "isopod/telemetry",
	}
	for i := range cfg.LEDSpineMapping {
		cfg.LEDSpineMapping[i] = i + 1
	}
	return cfg
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	case "FPS":
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid FPS %q: %w", value, err)
		}
		c.FPS = v
	case "REPORTER_INTERVAL":
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid REPORTER_INTERVAL %q: %w", value, err)
		}
		c.ReporterInterval = v
	case "DO_STARTUP_TESTS":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid DO_STARTUP_TESTS %q: %w", value, err)
		}
		c.DoStartupTests = v
	case "STATIC_PATTERN":
		c.StaticPattern = value

	case "LED_BRIGHTNESS":
		v, err := strconv.ParseUint(value, 10, 8)
		if err != nil {
			return fmt.Errorf("invalid LED_BRIGHTNESS %q: %w", value, err)
		}
		if v > 100 {
			return fmt.Errorf("LED_BRIGHTNESS must be 0-100, got %d", v)
		}
		c.LEDBrightness = uint8(v)
	case "LED_SPINE_MAPPING":
		fields := strings.Split(value, ",")
		if len(fields) != NumSpines {
			return fmt.Errorf("LED_SPINE_MAPPING must have %d comma-separated entries, got %d", NumSpines, len(fields))
		}
		var mapping [NumSpines]int
		for i, f := range fields {
			v, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil {
				return fmt.Errorf("invalid LED_SPINE_MAPPING entry %q: %w", f, err)
			}
			mapping[i] = v
		}
		c.LEDSpineMapping = mapping
	case "LED_PHYSICAL_COUNT":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid LED_PHYSICAL_COUNT %q: %w", value, err)
		}
		c.LEDPhysicalCount = v
	case "LED_CURRENT_LIMIT":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid LED_CURRENT_LIMIT %q: %w", value, err)
		}
		c.LEDCurrentLimitAmp = v
	case "LED_ENABLE_GPIO_PIN":
		c.LEDEnableGPIOPin = value
	case "LED_DATA_PIN_0":
		c.LEDDataPin0 = value
	case "LED_DATA_PIN_1":
		c.LEDDataPin1 = value

	case "RAINBOW_SWIRL_RADIAL_SMEAR":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid RAINBOW_SWIRL_RADIAL_SMEAR %q: %w", value, err)
		}
		c.RainbowSwirlRadialSmear = v
	case "RAINBOW_SWIRL_SPEED":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid RAINBOW_SWIRL_SPEED %q: %w", value, err)
		}
		c.RainbowSwirlSpeed = v

	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value
	case "I2C_BUS":
		c.I2CBus = value
	case "FUEL_GAUGE_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid FUEL_GAUGE_I2C_ADDR %q: %w", value, err)
		}
		c.FuelGaugeI2CAddr = uint16(addr)
	case "SENSOR_POLL_INTERVAL_MS":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid SENSOR_POLL_INTERVAL_MS %q: %w", value, err)
		}
		c.SensorPollIntervalMS = v

	case "GPS_SERIAL_PORT":
		c.GPSSerialPort = value
	case "GPS_BAUD_RATE":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid GPS_BAUD_RATE %q: %w", value, err)
		}
		c.GPSBaudRate = v

	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID":
		c.MQTTClientID = value
	case "MQTT_TOPIC_TELEMETRY":
		c.MQTTTopicTelemetry = value

	case "REPORTER_URL":
		c.ReporterURL = value
	case "CONTROL_LISTEN_ADDR":
		c.ControlListenAddr = value
	case "CONTROL_STATIC_DIR":
		c.ControlStaticDir = value
	case "VISUALISER_LISTEN_ADDR":
		c.VisualiserListenAddr = value
	case "BACKEND_LISTEN_ADDR":
		c.BackendListenAddr = value

	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// validate checks required fields and the spine-mapping invariant:
// sorted(mapping) must equal 1..12.
func (c *Config) validate() error {
	if c.FPS == 0 {
		return fmt.Errorf("FPS is required and must be nonzero")
	}
	if c.GPSSerialPort == "" {
		return fmt.Errorf("GPS_SERIAL_PORT is required")
	}
	if c.GPSBaudRate == 0 {
		return fmt.Errorf("GPS_BAUD_RATE is required")
	}
	if c.IMUSPIDevice == "" {
		return fmt.Errorf("IMU_SPI_DEVICE is required")
	}
	if c.LEDEnableGPIOPin == "" {
		return fmt.Errorf("LED_ENABLE_GPIO_PIN is required")
	}
	if c.LEDDataPin0 == "" || c.LEDDataPin1 == "" {
		return fmt.Errorf("LED_DATA_PIN_0 and LED_DATA_PIN_1 are required")
	}
	if c.LEDPhysicalCount <= 0 {
		return fmt.Errorf("LED_PHYSICAL_COUNT is required and must be positive")
	}

	sorted := make([]int, NumSpines)
	copy(sorted, c.LEDSpineMapping[:])
	sort.Ints(sorted)
	for i, v := range sorted {
		if v != i+1 {
			return fmt.Errorf("LED_SPINE_MAPPING must be a permutation of 1..%d, got %v", NumSpines, c.LEDSpineMapping)
		}
	}

	return nil
}

// InitGlobal initializes the global configuration from file. Only the
// first call takes effect; subsequent calls are no-ops.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance. InitGlobal must be
// called first, or this returns nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
