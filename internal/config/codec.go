package config

import (
	"errors"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

func parseTOML(path string, data []byte, cfg *Config) error {
	err := toml.Unmarshal(data, cfg)
	if err == nil {
		return nil
	}
	perr := &ParseError{Path: path, Message: err.Error(), Err: err}
	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		perr.Line, perr.Column = derr.Position()
	}
	return perr
}

func parseYAML(path string, data []byte, cfg *Config) error {
	// yaml.v3 embeds the position in the message itself.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return &ParseError{Path: path, Message: err.Error(), Err: err}
	}
	return nil
}
