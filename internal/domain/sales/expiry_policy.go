package sales

import "time"

// IsExpired is the reconciliation eligibility predicate: a transaction is
// eligible for cleanup iff it was never finalized, carries a short pickup
// code, and has been pending for at least the hold TTL. The boundary is
// inclusive: a transaction exactly ttl old is expired.
//
// The per-pharmacy feature toggle that can disable expiry entirely lives in
// the settings store; callers consult it before applying this predicate so
// the policy itself stays pure.
func IsExpired(tx *PendingTransaction, ttl time.Duration, now time.Time) bool {
	if tx.Finalized {
		return false
	}
	if !tx.HasShortCode() {
		return false
	}
	return tx.Age(now) >= ttl
}
