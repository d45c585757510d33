// Package hierarchy implements a strictly hierarchical folder tree per
// owner: creation, re-parenting, cascading deletion, and placement of opaque
// item references, with all tree-correctness logic owned here rather than by
// the storage layer.
//
// # Invariants
//
// After every successful operation:
//
//   - every non-root folder is a child of exactly one folder
//   - no folder is its own descendant
//   - an item id appears in at most one folder's items set
//   - a folder and its parent always share an owner
//
// The storage boundary ([Store]) provides per-document atomicity only — no
// multi-document transaction, no referential integrity. Two concurrent moves
// of the same folder can therefore race; [Service.Move] runs a trailing
// repair pass that restores the single-parent invariant from whatever state
// it finds, which keeps the invariant statistically safe rather than
// guaranteed under adversarial interleaving.
//
// # Errors
//
// All failure is a returned value; nothing panics across the package
// boundary:
//
//   - [ErrNotFound] - referenced folder does not exist
//   - [ErrNotOwned] - actor does not own the referenced folder
//   - [ErrDifferentOwners] - move endpoints have different owners
//   - [ErrSelfMove] - folder asked to become its own parent
//   - [ErrCyclicMove] - move would make a folder its own ancestor
//   - [ErrAlreadyInitialized] - owner already has a folder tree
//   - [ErrStoreFailure] - a store write did not apply (lost race)
//
// A dangling child reference discovered mid-traversal is logged and treated
// as an empty branch, never propagated as a hard failure: the parent's edge
// list is authoritative over the possibly-missing leaf.
package hierarchy
