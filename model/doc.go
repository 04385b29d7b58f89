// Package model defines the small value types shared by every layer of hyperlsh.
//
// # Types
//
//   - IdxVal: an (index, value) pair ordered by value, ties broken by index
//   - Errors: sentinel and typed errors returned by constructors and queries
//
// IdxVal is used both for sparse vector coordinates (index = feature slot,
// value = weight) and for search results (index = data row, value = distance).
package model
