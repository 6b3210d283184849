package models

// QuotaLedger is the per-user row of metered resource totals. It is mutated
// only through the quotas service, which issues single-statement atomic SQL;
// application code never read-modify-writes these counters.
type QuotaLedger struct {
	UserID string

	// StorageBytesUsed equals, at quiescence, the sum of SizeBytes over all
	// MediaRecords the user owns.
	StorageBytesUsed int64
	// StorageBytesReserved holds bytes between a passed quota check and the
	// record-creation commit. Used+Reserved+incoming is what the reserve
	// statement compares against the limit.
	StorageBytesReserved int64
	StorageBytesLimit    int64

	EntityCount int64
	EntityLimit int64

	PeriodCreditsUsed  int64
	PeriodCreditsLimit int64
}

// StorageBytesFree reports how many bytes a new upload may still claim.
func (q *QuotaLedger) StorageBytesFree() int64 {
	free := q.StorageBytesLimit - q.StorageBytesUsed - q.StorageBytesReserved
	if free < 0 {
		return 0
	}
	return free
}
