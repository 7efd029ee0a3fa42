// Package config loads the optional YAML defaults file for the
// btreeidx command-line tool. It is deliberately small: the index
// format itself has no configuration surface, only the REPL around it
// does (prompt, whether to color output or print a metrics summary on
// quit, line-editor history file). A default index path is also
// loaded, but the REPL does not read it: create and open always take
// an explicit path.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the CLI's adjustable defaults.
type Config struct {
	DefaultIndexPath string `yaml:"default_index_path"`
	Prompt           string `yaml:"prompt"`
	Color            bool   `yaml:"color"`
	Metrics          bool   `yaml:"metrics"`
	HistoryFile      string `yaml:"history_file"`
}

// Default returns the configuration used when no config file is given.
func Default() Config {
	return Config{
		DefaultIndexPath: "index.db",
		Prompt:           "> ",
		Color:            true,
		Metrics:          true,
		HistoryFile:      "",
	}
}

// Load reads a YAML config file from path, overlaying it on Default().
// If path is empty or the file does not exist, Load returns Default()
// unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close config file %q: %v\n", path, closeErr)
		}
	}()

	data, err := io.ReadAll(f)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
