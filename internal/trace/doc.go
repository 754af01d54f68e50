// Package trace defines the in-memory model every trace backend produces.
//
// A Trace is an immutable forest of Records. Records of one trace live in a
// single Arena and refer to their children by arena position, never by
// pointer. Three backends implement the interfaces in this package, and the
// Format enum names which one built a given Trace:
//
//   - FormatJETS: the line-oriented JSON format (package jets)
//   - FormatVirtual: deterministic synthetic data (package virtual)
//   - FormatPipetrace: an empty placeholder reader (package pipetrace)
//
// Lookups that miss (unknown id, child or event index out of range) return
// a false flag; they are routine during traversal and never errors.
package trace
