package contract

import "errors"

// ErrDuplicateGrant reports a unique-index hit on a collaborator pair.
// Callers racing the same grant treat it as already-materialized.
var ErrDuplicateGrant = errors.New("collaborator grant already exists")
