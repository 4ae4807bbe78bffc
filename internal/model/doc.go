// Package model provides the configuration entities of the channel structure.
//
// This package contains type definitions and small pure helpers only. All
// other internal packages import model; model imports nothing internal.
//
// Key design constraints:
//   - Project and Category ids are external ids (24 hex chars), never the
//     storage row sequence
//   - Project names are stored lowercase; see ProjectFields.Normalize
//   - Durations are integer milliseconds on the wire, no float types
//   - All JSON tags use snake_case; ids serialize as "_id"
package model
