// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Structure:
//   - base.go: AggregateModel (id, timestamps, optimistic version)
//   - catalog_entry.go: verified catalog entries, keyed by normalized identifier
//   - upload_batch.go: upload batches with their counts and warnings
//   - proposal.go: assembled proposals and their line items
//
// Map-valued and list-valued domain fields are stored as JSON columns through
// gorm.io/datatypes.
package models
