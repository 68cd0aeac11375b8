package domain

// IdentityEnvelope is the request-scoped identity derived from a verified token.
type IdentityEnvelope struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	PrimaryRole Role   `json:"role"`
}
