// Package core provides the business logic for bulk CSV imports of campaigns,
// creators and tasks.
//
// This package contains all domain logic independent of any UI or transport
// layer. It is used by the HTTP server, the importctl CLI and tests without
// modification.
//
// # Pipeline
//
// An import moves through five stages:
//
//   - Template Generator: [GenerateTemplate] writes the canonical header row
//     plus sample rows for an entity.
//   - File Reader: [ReadFile] loads an upload into memory, sniffs its type and
//     converts XLSX workbooks to CSV text.
//   - CSV Parser: [ParseCSV] tokenizes the text, lowercases headers, skips
//     blank lines and keeps each row's source line.
//   - Field Mapper: [Mapper] coerces each row into a [Record] using the
//     entity's declarative field list, resolving references by name or email.
//   - Bulk Submitter: [Submitter] checks the caller's role, attaches created_by
//     and defaults, and issues one batch insert through the [Backend].
//
// # Entity Registry
//
// Entities are registered at init time using [Register]. The definitions live
// as YAML in the entities package:
//
//	core.Register(EntityDefinition{
//	    Info:   EntityInfo{Key: "tasks", Table: "requirements", AllowedRoles: []string{"admin", "manager"}},
//	    Fields: []FieldSpec{{Name: "title", Type: FieldText, Required: true}},
//	})
//
// # Sessions
//
// [Service.StartImport] creates a [Session] holding the file text and a
// preview; [Service.Submit] re-parses the full text and submits it. Sessions
// live in a [SessionStore], either in memory or in Redis.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - PERM001: Permission denied
//   - IMP001-IMP007: Import flow errors (unknown entity, session, strict mode)
//   - FILE001-FILE006: File errors (size, encoding, format)
//   - DB001-DB011: Database errors relayed from the backend
package core
