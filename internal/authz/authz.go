// Package authz implements the ownership and visibility rules applied to
// every resource operation. The predicates are pure: callers fetch the row's
// current owner from the database and pass it in, never a client-supplied
// claim.
package authz

// Ownable is any row that carries an optional owner. A nil owner marks a
// shared default row: readable by everyone, mutable by no one.
type Ownable interface {
	Owner() *string
}

// Visible reports whether a principal may read a row: the principal owns it,
// or the row is shared (nil owner).
func Visible(principalID string, row Ownable) bool {
	owner := row.Owner()
	if owner == nil {
		return true
	}
	return *owner == principalID
}

// CanMutate reports whether a principal may update or delete a row. Shared
// rows are never mutable through this path, for any principal.
func CanMutate(principalID string, row Ownable) bool {
	owner := row.Owner()
	if owner == nil {
		return false
	}
	return *owner == principalID
}

// CanDelete reports whether a row may be deleted given the number of rows
// still referencing it. It assumes CanMutate has already passed.
func CanDelete(dependents int64) bool {
	return dependents == 0
}
