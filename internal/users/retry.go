package users

import (
	"context"
	"errors"
)

// Reconciler is anything that reconciles claims into a user.
type Reconciler interface {
	Reconcile(ctx context.Context, claims IdentityClaims) (ReconcileResult, error)
}

// ReconcileWithRetry runs Reconcile and, after a retryable conflict, runs it
// exactly once more. The second run finds the record the competing writer
// committed.
func ReconcileWithRetry(ctx context.Context, r Reconciler, claims IdentityClaims) (ReconcileResult, error) {
	res, err := r.Reconcile(ctx, claims)
	var conflict *ConflictError
	if errors.As(err, &conflict) && conflict.Retryable {
		return r.Reconcile(ctx, claims)
	}
	return res, err
}
