// Package config loads and validates the declarative Lasso host
// configuration, spec.md 6 "Configuration (recognized options)".
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Encoding names a framing codec as written in YAML.
type Encoding string

const (
	EncodingNone Encoding = "none"
	EncodingRN   Encoding = "rn"
	EncodingCOBS Encoding = "cobs"
	EncodingESCS Encoding = "escs"
)

// ProcessingMode names a wire value format as written in YAML.
type ProcessingMode string

const (
	ProcessingASCII   ProcessingMode = "ascii"
	ProcessingMsgPack ProcessingMode = "msgpack"
)

// StrobeDynamics names strobe scheduling as written in YAML.
type StrobeDynamics string

const (
	StrobeStatic  StrobeDynamics = "static"
	StrobeDynamic StrobeDynamics = "dynamic"
)

// Config is the full recognized option set from spec.md 6.
type Config struct {
	TickPeriodMS        int            `yaml:"tick_period_ms"`
	CommandBufferSize   int            `yaml:"command_buffer_size"`
	ResponseBufferSize  int            `yaml:"response_buffer_size"`
	StrobePeriodMinTick int            `yaml:"strobe_period_min_ticks"`
	StrobePeriodMaxTick int            `yaml:"strobe_period_max_ticks"`
	CommandTimeoutTicks int            `yaml:"command_timeout_ticks"`
	ResponseLatencyTick int            `yaml:"response_latency_ticks"`
	CommandEncoding     Encoding       `yaml:"command_encoding"`
	StrobeEncoding      Encoding       `yaml:"strobe_encoding"`
	ProcessingMode      ProcessingMode `yaml:"processing_mode"`
	StrobeDynamics      StrobeDynamics `yaml:"strobe_dynamics"`
	CRCByteWidth        int            `yaml:"crc_byte_width"`
	CommandCRCEnable    bool           `yaml:"command_crc_enable"`
	StrobeCRCEnable     bool           `yaml:"strobe_crc_enable"`
	MaxFrameSize        int            `yaml:"max_frame_size"`
	BaudRate            int            `yaml:"baudrate"`
	LittleEndian        bool           `yaml:"little_endian"`
	UnalignedAccess     bool           `yaml:"unaligned_memory_access"`
	MemoryAlign         int            `yaml:"memory_align"`
}

// Default returns the option set the original's config_example header
// ships: RN/ASCII, no CRC, 10ms ticks, 115200 baud.
func Default() *Config {
	return &Config{
		TickPeriodMS:        10,
		CommandBufferSize:   32,
		ResponseBufferSize:  64,
		StrobePeriodMinTick: 1,
		StrobePeriodMaxTick: 65535,
		CommandTimeoutTicks: 100,
		ResponseLatencyTick: 5,
		CommandEncoding:     EncodingRN,
		StrobeEncoding:      EncodingNone,
		ProcessingMode:      ProcessingASCII,
		StrobeDynamics:      StrobeStatic,
		CRCByteWidth:        2,
		CommandCRCEnable:    false,
		StrobeCRCEnable:     false,
		MaxFrameSize:        256,
		BaudRate:            115200,
		LittleEndian:        true,
		UnalignedAccess:     true,
		MemoryAlign:         4,
	}
}

// Load reads and parses a YAML configuration file, applying Default()
// for the zero value of any field YAML doesn't set would be wrong
// here, so Load starts from Default and lets yaml.Unmarshal overwrite
// only the keys present in the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces spec.md 6's constraints and the bounded ranges on
// every option.
func (c *Config) Validate() error {
	if c.TickPeriodMS < 1 || c.TickPeriodMS > 249 {
		return fmt.Errorf("config: tick_period_ms %d out of range [1,249]", c.TickPeriodMS)
	}
	if c.CommandBufferSize < 16 || c.CommandBufferSize > 64 {
		return fmt.Errorf("config: command_buffer_size %d out of range [16,64]", c.CommandBufferSize)
	}
	if c.ResponseBufferSize < 32 || c.ResponseBufferSize > 256 {
		return fmt.Errorf("config: response_buffer_size %d out of range [32,256]", c.ResponseBufferSize)
	}
	if c.StrobePeriodMinTick < 1 || c.StrobePeriodMinTick > 65535 {
		return fmt.Errorf("config: strobe_period_min_ticks %d out of range [1,65535]", c.StrobePeriodMinTick)
	}
	if c.StrobePeriodMaxTick < c.StrobePeriodMinTick || c.StrobePeriodMaxTick > 65535 {
		return fmt.Errorf("config: strobe_period_max_ticks %d out of range [%d,65535]", c.StrobePeriodMaxTick, c.StrobePeriodMinTick)
	}
	if c.CommandTimeoutTicks < 1 {
		return fmt.Errorf("config: command_timeout_ticks must be >= 1")
	}
	if c.ResponseLatencyTick < 1 {
		return fmt.Errorf("config: response_latency_ticks must be >= 1")
	}
	switch c.CRCByteWidth {
	case 1, 2, 4:
	default:
		return fmt.Errorf("config: crc_byte_width %d must be 1, 2, or 4", c.CRCByteWidth)
	}
	if c.MaxFrameSize <= 0 || c.MaxFrameSize%256 != 0 {
		return fmt.Errorf("config: max_frame_size %d must be a positive multiple of 256", c.MaxFrameSize)
	}

	if c.CommandEncoding == EncodingRN {
		if c.ProcessingMode != ProcessingASCII {
			return fmt.Errorf("config: RN command encoding requires ascii processing mode")
		}
		if c.StrobeEncoding != EncodingNone {
			return fmt.Errorf("config: RN command encoding requires strobe_encoding none")
		}
		if c.CommandCRCEnable {
			return fmt.Errorf("config: RN command encoding forbids command_crc_enable")
		}
	}
	if c.StrobeDynamics == StrobeDynamic && c.StrobeEncoding == EncodingNone {
		return fmt.Errorf("config: dynamic strobing requires strobe_encoding != none")
	}
	return nil
}
