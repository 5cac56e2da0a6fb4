// Package cli defines the Cobra command tree for the taassist CLI. Each file
// registers one top-level command with the root command. Commands parse
// flags, delegate to the internal packages and format results; they do not
// hold editing or generation logic themselves.
package cli
