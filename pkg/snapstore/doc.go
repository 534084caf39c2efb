// Package snapstore persists navigation snapshots.
//
// A snapshot is the JSON produced by navtree.MarshalSnapshot. Stores treat it
// as opaque bytes keyed by an id, typically one per user or device:
//
//	store := snapstore.NewMemoryStore()
//	p := snapstore.NewPersister(store, "device-1", nav)
//	if err := p.Restore(ctx); err != nil { ... }
//	p.Start()
//	defer p.Close()
//
// Backends:
//   - MemoryStore: in-process, for tests and single-process tools
//   - SQLStore: any database/sql driver (PostgreSQL, MySQL, SQLite)
//   - S3Store: one object per id in an S3 bucket
package snapstore
