package auth

// Principal is the identity resolved from a verified credential. It is
// ephemeral request state and is never persisted by this service.
type Principal struct {
	UserID string
}
