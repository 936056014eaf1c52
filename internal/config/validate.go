package config

import (
	"errors"
	"fmt"
	"strings"
)

// supportedContainers lists the output container types the remux policy
// table knows about.
var supportedContainers = map[string]struct{}{
	"mp4": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateConversion(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.CacheRoot) == "" {
		return errors.New("paths.cache_root must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.CacheRoot == c.Paths.OutputDir {
		return errors.New("paths.output_dir must differ from paths.cache_root")
	}
	return nil
}

func (c *Config) validateConversion() error {
	if _, ok := supportedContainers[c.Conversion.OutputContainer]; !ok {
		return fmt.Errorf("conversion.output_container: unsupported container %q", c.Conversion.OutputContainer)
	}
	for _, pair := range c.Conversion.ForbiddenPairs {
		if !strings.Contains(pair, "+") {
			return fmt.Errorf("conversion.forbidden_pairs: entry %q must be formed as \"videoCodec+audioCodec\"", pair)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
