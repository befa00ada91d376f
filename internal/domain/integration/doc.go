// Package integration contains the cross-store synchronization bounded context.
//
// Key concepts:
//   - ProductMapping: a durable group of products (one per store) that represent
//     the same physical item, with exactly one source item
//   - Suggestion: a computed candidate mapping derived by GroupKeyStrategy rules
//   - WebhookLog: append-only audit row for each inbound/outbound sync attempt
//   - StockConnector / CatalogClient: ports to remote stores
//   - CooldownStore: TTL store suppressing echo updates between stores
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
