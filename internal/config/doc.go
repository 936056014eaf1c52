// Package config loads, normalizes, and validates the TOML configuration
// that drives the converter.
//
// Load resolves the config file (explicit flag, then the user config dir,
// then a project-local bvdump.toml), overlays it on Default(), expands every
// path field, and rejects unusable combinations before any pipeline code
// runs. The embedded sample_config.toml documents every knob and is written
// verbatim by "bvdump config init".
package config
