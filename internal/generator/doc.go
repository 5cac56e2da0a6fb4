// Package generator expands a UMRF node into an action package directory
// and writes graph descriptors.
//
// File contents come from a template store: Go text/template files that
// reference named keys such as {{.package_name}}. The store is embedded and
// can be overridden file by file from a directory.
package generator
