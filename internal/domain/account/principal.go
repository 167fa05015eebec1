package account

// Principal is the authenticated account behind an access token.
type Principal struct {
	AccountID string
	Email     string
}
