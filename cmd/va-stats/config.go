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
	LogLevel   string
	LogJSON    bool
}

func (c Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("missing -in")
	}
	if c.ValenceOut == "" {
		return errors.New("missing -valence-out")
	}
	if c.ArousalOut == "" {
		return errors.New("missing -arousal-out")
	}
	if filepath.Clean(c.ValenceOut) == filepath.Clean(c.ArousalOut) {
		return errors.New("-valence-out and -arousal-out must differ")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		InputPath:  filepath.FromSlash("./dataset/zho_laptop_train_alltasks.jsonl"),
		ValenceOut: "valence_stats_strict.jsonl",
		ArousalOut: "arousal_stats_strict.jsonl",
		LogLevel:   "info",
	}
}
