// Package descriptor encodes and decodes UMRF node and graph descriptors.
// Both JSON and YAML documents are supported; nested parameter groups in the
// document become "::"-namespaced names in memory and back. Every decode is
// checked against the embedded JSON Schema first.
package descriptor
