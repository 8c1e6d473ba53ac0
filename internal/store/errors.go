package store

import "errors"

// ErrCorrupt means the store refused to open: spec.md §7 StoreCorrupt.
var ErrCorrupt = errors.New("store: database corrupt or unreadable")

// ErrIncompatibleSchema means the on-disk schema version is newer than this
// build understands. Opening such a database is fatal per spec.md §6.
var ErrIncompatibleSchema = errors.New("store: schema version is newer than supported")

// ErrMigrationFailed wraps a failed migration: spec.md §7 MigrationFailed.
var ErrMigrationFailed = errors.New("store: schema migration failed")
