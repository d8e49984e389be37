// Package storage persists uploaded measurement files, label matrices and
// jobs.
//
// Two Store implementations exist: MemoryStore for tests and single-process
// use, and SQLiteStore which applies its embedded schema migrations on open.
// Both return copies, so callers may modify returned values freely.
//
// Jobs and label matrices receive a default name of "job-{id}" and
// "annotation-{id}" when created without one. Deleting a job also removes
// its files and its label matrix once nothing else references them, unless
// the label matrix is marked KeepWhenUnused.
package storage
