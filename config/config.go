package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"bluepill/core"

	"periph.io/x/conn/v3/physic"
)

// BoardConfig describes a Blue Pill style board: clock tree, status LED,
// console and, for host tools, where the console is attached.
type BoardConfig struct {
	HSEHz   uint32 `json:"hse_hz"`
	PLLMul  uint32 `json:"pll_mul"`
	APB1Div uint32 `json:"apb1_div"`
	APB2Div uint32 `json:"apb2_div"`

	LEDPin       string `json:"led_pin"`
	LEDActiveLow *bool  `json:"led_active_low,omitempty"`

	Console     string `json:"console"` // usart1, usart2 or usart3
	Baud        uint32 `json:"baud"`
	TxSpinLimit uint32 `json:"tx_spin_limit"`

	DebugPort      string `json:"debug_port"` // full, nojntrst, swd or none
	PollIntervalUs uint32 `json:"poll_interval_us"`
	HeartbeatPolls uint32 `json:"heartbeat_polls"`
	Banner         string `json:"banner"`

	// Debug prints firmware diagnostics on the console after the banner
	Debug bool `json:"debug"`

	// Host side: serial device the board's console is attached to
	Device string `json:"device"`
}

// LoadConfig parses a JSON configuration and fills in missing values
func LoadConfig(jsonData []byte) (*BoardConfig, error) {
	var config BoardConfig

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, err
	}

	// Apply defaults
	applyDefaults(&config)

	return &config, nil
}

// LoadFile reads and parses a configuration file
func LoadFile(path string) (*BoardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	config, err := LoadConfig(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return config, nil
}

// applyDefaults fills in missing configuration values with the Blue Pill defaults
func applyDefaults(config *BoardConfig) {
	// Default clock tree: 8MHz crystal to 72MHz
	if config.HSEHz == 0 {
		config.HSEHz = 8000000
	}
	if config.PLLMul == 0 {
		config.PLLMul = 9
	}
	if config.APB1Div == 0 {
		config.APB1Div = 2
	}
	if config.APB2Div == 0 {
		config.APB2Div = 1
	}

	// Onboard LED lights when PC13 is low
	if config.LEDPin == "" {
		config.LEDPin = "PC13"
	}
	if config.LEDActiveLow == nil {
		activeLow := true
		config.LEDActiveLow = &activeLow
	}

	if config.Console == "" {
		config.Console = "usart1"
	}
	if config.Baud == 0 {
		config.Baud = core.DefaultBaudRate
	}
	if config.DebugPort == "" {
		config.DebugPort = "swd"
	}
	if config.PollIntervalUs == 0 {
		config.PollIntervalUs = 200
	}
	if config.Banner == "" {
		name := config.Console
		if u, err := core.ParseUSART(name); err == nil {
			name = u.String()
		}
		config.Banner = "STM32F103C8T6 serial test in " + name
	}
	if config.Device == "" {
		config.Device = "/dev/ttyUSB0"
	}
}

// Default returns the configuration of a stock Blue Pill
func Default() *BoardConfig {
	config := &BoardConfig{}
	applyDefaults(config)
	return config
}

// AppConfig resolves names and units into the firmware's configuration
func (c *BoardConfig) AppConfig() (core.AppConfig, error) {
	led, err := core.ParsePin(c.LEDPin)
	if err != nil {
		return core.AppConfig{}, fmt.Errorf("led_pin %q: %w", c.LEDPin, err)
	}
	usart, err := core.ParseUSART(c.Console)
	if err != nil {
		return core.AppConfig{}, fmt.Errorf("console %q: %w", c.Console, err)
	}
	debugPort, err := core.ParseDebugPort(c.DebugPort)
	if err != nil {
		return core.AppConfig{}, fmt.Errorf("debug_port %q: %w", c.DebugPort, err)
	}

	plan := core.ClockPlan{
		HSE:     physic.Frequency(c.HSEHz) * physic.Hertz,
		PLLMul:  c.PLLMul,
		APB1Div: c.APB1Div,
		APB2Div: c.APB2Div,
	}
	if err := plan.Validate(); err != nil {
		return core.AppConfig{}, fmt.Errorf("clock: %w", err)
	}

	activeLow := c.LEDActiveLow == nil || *c.LEDActiveLow
	return core.AppConfig{
		Clock:        plan,
		LED:          led,
		LEDActiveLow: activeLow,
		Console: core.SerialConfig{
			USART:       usart,
			BaudRate:    c.Baud,
			ClockHz:     usart.BusClock(plan.Clocks()),
			TxSpinLimit: c.TxSpinLimit,
		},
		DebugPort:      debugPort,
		Banner:         c.Banner,
		DebugConsole:   c.Debug,
		HeartbeatPolls: c.HeartbeatPolls,
		PollInterval:   time.Duration(c.PollIntervalUs) * time.Microsecond,
	}, nil
}
