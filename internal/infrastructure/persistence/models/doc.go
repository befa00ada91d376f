// Package models contains GORM persistence models that map to database tables.
// They are kept apart from domain entities so the domain layer carries no ORM
// tags; repositories convert between the two.
//
// Files:
//   - base.go: shared id/timestamp columns
//   - catalog.go: stores, products, product variations
//   - integration.go: product mappings, dismissed suggestions, webhook logs
package models
