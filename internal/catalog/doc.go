// Package catalog keeps a read-only index of the action descriptors found
// under a set of directories. An Indexer rescans in the background and
// publishes each result as an immutable Snapshot; readers never wait for a
// scan in progress.
package catalog
