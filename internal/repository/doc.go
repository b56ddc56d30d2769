// Package repository defines where converted host entities are delivered.
//
// An EntityStore upserts entities by their entity key and stores raw scan
// data next to them. Two implementations exist:
//
//   - sqlite keeps a local inventory in a pure Go SQLite database
//   - httpstore pushes entities to a remote inventory API
package repository
