// Package confloader loads configuration with koanf.
//
// Priority (highest to lowest):
//
//  1. Command-line flags (WithOverrides)
//  2. Environment variables
//  3. Configuration file (YAML)
//  4. Values already present in the target struct
//
// Watcher reports writes to a configuration file so selected settings can
// be applied without a restart.
package confloader
