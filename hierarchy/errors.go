package hierarchy

import "errors"

var (
	// ErrNotFound is returned when a referenced folder (or, for item
	// removal, the implicit containing folder) does not exist.
	ErrNotFound = errors.New("espalier: folder not found")

	// ErrNotOwned is returned when an operation's actor does not own the
	// referenced folder.
	ErrNotOwned = errors.New("espalier: folder not owned by actor")

	// ErrDifferentOwners is returned when the two folders in a move do not
	// share an owner.
	ErrDifferentOwners = errors.New("espalier: folders have different owners")

	// ErrSelfMove is returned when a folder is asked to become its own parent.
	ErrSelfMove = errors.New("espalier: folder cannot be its own parent")

	// ErrCyclicMove is returned when completing a move would make a folder
	// its own ancestor.
	ErrCyclicMove = errors.New("espalier: move would make folder its own ancestor")

	// ErrAlreadyInitialized is returned when root initialization is requested
	// for an owner that already has folders.
	ErrAlreadyInitialized = errors.New("espalier: owner already initialized")

	// ErrStoreFailure is returned when the persistence layer reported a write
	// that did not apply. Surfaced to the caller rather than retried.
	ErrStoreFailure = errors.New("espalier: store write did not apply")

	// ErrNoMatch is returned by Store.UpdateOne when no record matched the
	// given id. The service translates it to ErrStoreFailure or ErrNotFound
	// depending on what the missing match means for the operation.
	ErrNoMatch = errors.New("espalier: update matched no record")

	// ErrAlreadyExists is returned by Store.Create when a record with the
	// same id is already present.
	ErrAlreadyExists = errors.New("espalier: folder already exists")
)
