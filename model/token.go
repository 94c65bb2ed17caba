package model

// TokenPayload is the exact content embedded in a rendered entry code. The
// scanner submits the serialized payload back verbatim for verification.
type TokenPayload struct {
	TicketRef string `json:"ticketRef"`
	IssuedAt  int64  `json:"issuedAt"`
	ExpiresAt int64  `json:"expiresAt"`
	Nonce     string `json:"nonce"`
	Signature string `json:"signature"`
}

// IssuedToken is the issue-token API response. RefreshIn tells the client
// when to request a fresh payload, in milliseconds.
type IssuedToken struct {
	Payload   TokenPayload `json:"payload"`
	ExpiresAt int64        `json:"expires_at"`
	RefreshIn int64        `json:"refresh_in"`
}
