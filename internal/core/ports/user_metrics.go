package ports

// UserMetrics records the outcome of user operations.
type UserMetrics interface {
	// UserWritten counts a committed write; op is "create", "update" or "delete".
	UserWritten(op string)
	// EmailConflict counts a 409; stage is "precheck" or "commit".
	EmailConflict(stage string)
	IdempotentReplay()
	StoreError(op string)
}
