// Package config holds the immutable emulator configuration. A Config is
// constructed once, normalized, and passed into the assembler, engine, and
// debugger constructors; there is no process-wide state.
package config

import (
	"encoding/json"
	"os"
)

// Config is the full set of recognized options. Field names and file keys
// match the emulator's config.json.
type Config struct {
	Display       bool `json:"display"`        // Enable pixel-set forwarding.
	Printing      bool `json:"printing"`       // Enable PRT output.
	RecordTimings bool `json:"record_timings"` // Per-step timing capture; requires Debug.
	Debug         bool `json:"debug"`          // Enable the debugger layer at all.
	TextDebug     bool `json:"text_debug"`     // Verbose textual tracing.
	SimpleDebug   bool `json:"simple_debug"`   // Reduced-detail presentation mode.
	TimingGraph   bool `json:"timing_graph"`   // Timing visualization; requires RecordTimings.

	MaxGraphPoints int `json:"max_graph_points"` // Timing ring-buffer capacity.
	PixelScale     int `json:"pixel_scale"`
	DisplayWidth   int `json:"display_width"`
	DisplayHeight  int `json:"display_height"`

	Bits          int `json:"bits"` // Word width.
	RegisterCount int `json:"register_count"`
	RAMSize       int `json:"ram_size"`
	StackSize     int `json:"stack_size"`

	GraphUpdateFrequency int `json:"graph_update_frequency"` // Batches per graph refresh; requires TimingGraph.
	BatchSize            int `json:"batch_size"`             // Steps per runBatch call.
	WindowUpdateInterval int `json:"window_update_interval"` // Presentation refresh period, milliseconds.
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Display:              true,
		Printing:             false,
		RecordTimings:        true,
		Debug:                true,
		TextDebug:            false,
		SimpleDebug:          false,
		TimingGraph:          false,
		MaxGraphPoints:       1000,
		PixelScale:           1,
		DisplayWidth:         200,
		DisplayHeight:        200,
		Bits:                 32,
		RegisterCount:        16,
		RAMSize:              1024,
		StackSize:            1024,
		GraphUpdateFrequency: 5,
		BatchSize:            1000,
		WindowUpdateInterval: 200,
	}
}

// Load reads a configuration file. A missing or unparseable file falls
// back to the defaults, with the returned error saying why; the returned
// Config is always usable.
func Load(path string) (cfg Config, err error) {
	cfg = Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	if err = json.Unmarshal(data, &cfg); err != nil {
		cfg = Default()
	}

	return
}

// Save writes the configuration to a file.
func (cfg Config) Save(path string) (err error) {
	data, err := json.MarshalIndent(cfg, "", "    ")
	if err != nil {
		return
	}

	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Normalize applies option prerequisites: timing capture needs the debugger,
// the timing graph needs timing capture, and display geometry only matters
// when the display is enabled. Out-of-domain machine geometry falls back to
// the stock values, the word width held to 1..64 bits.
func (cfg Config) Normalize() Config {
	if !cfg.Debug {
		cfg.RecordTimings = false
		cfg.TextDebug = false
		cfg.SimpleDebug = false
	}
	if !cfg.RecordTimings {
		cfg.TimingGraph = false
	}
	if !cfg.TimingGraph {
		cfg.GraphUpdateFrequency = 0
	}
	if !cfg.Display {
		cfg.DisplayWidth = 0
		cfg.DisplayHeight = 0
		cfg.PixelScale = 0
	}

	if cfg.MaxGraphPoints <= 0 {
		cfg.MaxGraphPoints = 1
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}

	stock := Default()
	if cfg.Bits < 1 || cfg.Bits > 64 {
		cfg.Bits = stock.Bits
	}
	if cfg.RegisterCount <= 0 {
		cfg.RegisterCount = stock.RegisterCount
	}
	if cfg.RAMSize <= 0 {
		cfg.RAMSize = stock.RAMSize
	}
	if cfg.StackSize <= 0 {
		cfg.StackSize = stock.StackSize
	}

	return cfg
}
