package main

import (
	"errors"
	"path/filepath"

	"github.com/theimaginaryfoundation/dimabsa/absa/logging"
)

type Config struct {
	InputPath  string
	ValenceOut string
	ArousalOut string
	BinSize    float64
	LogLevel   string
	LogJSON    bool
}

func (c Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("missing -in")
	}
	if c.ValenceOut == "" || c.ArousalOut == "" {
		return errors.New("missing -valence-out or -arousal-out")
	}
	if !(c.BinSize > 0) || c.BinSize > 8 {
		return errors.New("bin size must be in (0, 8]")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		InputPath:  filepath.FromSlash("./dataset/zho_restaurant_train_alltasks.jsonl"),
		ValenceOut: "valence_distribution_en.png",
		ArousalOut: "arousal_distribution_en.png",
		BinSize:    0.2,
		LogLevel:   "info",
	}
}
