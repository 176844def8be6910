// Package config loads and validates Sync Hub configuration.
//
// Configuration is layered: hardcoded defaults, then a YAML file, then
// SYNCHUB_* environment variable overrides. The resulting Config value is
// immutable after Load() and is threaded explicitly through constructors;
// no package holds configuration in a global.
package config
