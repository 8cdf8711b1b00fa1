package domain

import "errors"

var (
	// ErrNotFound is returned by repositories when no row matches.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEntry maps a uniqueness violation from the store.
	// Wishlist add treats it as benign convergence, not a failure.
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrReferenced maps a foreign-key violation: the row is still
	// referenced (e.g. a product present in order items) and must be
	// deactivated instead of deleted.
	ErrReferenced = errors.New("row is referenced")

	// ErrNotSignedIn marks operations that require an authenticated session.
	ErrNotSignedIn = errors.New("not signed in")
)
