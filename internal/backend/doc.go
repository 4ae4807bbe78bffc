// Package backend defines the storage contract for projects and categories.
//
// Any persistence engine implements Backend. The reference implementation
// lives in internal/store; internal/backend/memory holds an in-memory one.
//
// # Results
//
// Every operation returns a value or an error, never both. Async wraps a
// Backend so each call runs on a bounded pool under an execution window and
// resolves a Future holding a Result. Panics inside a call are recovered and
// surface as StoreErrors; nothing but a Result crosses the boundary.
//
// # Errors
//
//   - ConstraintError: unique name violated; reported, not fatal
//   - SchemaError: expected table missing; fatal at startup
//   - StoreError: driver or I/O fault, missing id, timeout; reported once
//   - ValidationError: field shape or range, produced upstream
//
// No operation retries.
//
// # Isolation
//
// Each call commits its own statements. There are no cross-call
// transactions; callers that need a consistent view serialize a mutation
// with the refresh that follows it (see internal/structure).
package backend
