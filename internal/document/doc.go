// Package document turns a run configuration into the canonical config.yaml
// document and back.
//
// Project maps a types.RunConfiguration to a Document. Render serializes a
// Document as 2-space indented YAML whose key order is fixed: test_name,
// sampling_frequency, metadata, output, hardware, commands. Decode parses
// YAML (or JSON, which the YAML parser accepts) into a Document with the
// same key order, so Render followed by Decode reproduces the projection.
package document
