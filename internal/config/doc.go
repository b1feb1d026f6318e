// Package config loads, normalizes, and validates cuecast configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CUECAST_API_TOKEN. The Config type centralizes every knob the server and CLI
// need: working and state directories, encoder binaries and flags, asset fetch
// limits, text metrics, and job registry sizing.
//
// Per-job render settings (canvas, style, layout, effects) are not part of this
// package; they arrive with each job request and are resolved by the pipeline.
package config
