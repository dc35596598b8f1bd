package plaidclient

import (
	"context"
	"time"
)

// LinkToken is the short-lived credential the client application feeds into
// Plaid Link. Returned to the caller verbatim; Plaid enforces the expiry.
type LinkToken struct {
	LinkToken  string    `json:"link_token"`
	Expiration time.Time `json:"expiration"`
	RequestID  string    `json:"request_id"`
}

// ExchangeResult is the durable credential pair produced by a public token
// exchange. The access token never leaves the server.
type ExchangeResult struct {
	AccessToken string
	ItemID      string
}

// Client is the aggregator surface the workflow depends on. Production uses
// the Plaid SDK; tests substitute fakes.
type Client interface {
	// CreateIdentity creates a per-user Plaid identity and returns its
	// user token.
	CreateIdentity(ctx context.Context, clientUserID string) (string, error)

	// CreateLinkToken mints a link token for bank income verification,
	// scoped to the given identity.
	CreateLinkToken(ctx context.Context, clientUserID, userToken string) (*LinkToken, error)

	// ExchangeToken swaps a one-time public token for a durable access
	// token and item id. Public tokens are single-use; a replay fails
	// upstream and the error is returned as-is.
	ExchangeToken(ctx context.Context, publicToken string) (*ExchangeResult, error)

	// GetIncome returns the total income amount of up to count most
	// recent bank income reporting periods, newest first.
	GetIncome(ctx context.Context, userToken string, count int32) ([]float64, error)
}
