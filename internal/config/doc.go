// Package config loads, normalizes, and validates ecgnote configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the ECGNOTE_STORE environment
// override for the store document. The Config type centralizes every knob the
// CLI needs: where the patient store lives, where rendered waveforms and PDF
// reports go, how often the annotation session checkpoints, and which key
// mapping the reviewer uses.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
