// Package sqlobject is the database-structure object tree that spsync
// persists: a Database holds Catalogs, Schemas and Tables, Tables hold
// Columns, and Schemas also hold the Relationships between their Tables.
//
// Every concrete type has a persist.Helper built from an explicit
// descriptor table. Registry returns the shared, immutable registry.
package sqlobject
