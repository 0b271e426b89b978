package services

import "context"

// ClaimLocker serializes claims on one key across processes. The unique
// (product, QC type) constraint still decides the winner.
type ClaimLocker interface {
	// Lock returns obtained=false when another holder kept the lock past
	// the retry budget. release is never nil.
	Lock(ctx context.Context, key string) (release func(), obtained bool, err error)
}

type noopClaimLocker struct{}

func NewNoopClaimLocker() ClaimLocker { return noopClaimLocker{} }

func (noopClaimLocker) Lock(context.Context, string) (func(), bool, error) {
	return func() {}, true, nil
}

func claimLockKey(idProduct, qcType string) string {
	return "langqc:claim:" + qcType + ":" + idProduct
}
