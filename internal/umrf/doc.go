// Package umrf is the in-memory representation of UMRF action descriptors.
//
// A Node describes one action: its identity (name + suffix), effect,
// description, namespaced input/output parameters and parent/child relations.
// A Graph owns a set of nodes keyed by identity and keeps relation edges
// consistent. Parameter names are "::"-delimited paths; the enclosing path
// segments form parameter groups.
//
// This package imports nothing internal. Encoding lives in package
// descriptor, file generation in package generator.
package umrf
