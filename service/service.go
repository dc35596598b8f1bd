// Package service implements the three-phase onboarding workflow: provision
// a Plaid identity and mint a link token, exchange the public token from
// Link, and evaluate bank income against the acceptance threshold.
package service

import (
	"context"

	"income-bridge/api/config"
	"income-bridge/api/logger"
	"income-bridge/api/models"
	"income-bridge/api/plaidclient"

	"go.uber.org/zap"
)

// UserStore is the persistence contract the workflow needs: find a record,
// patch it, and conditionally claim the user token slot.
type UserStore interface {
	// Find returns nil, nil when no record exists.
	Find(ctx context.Context, firebaseID string) (*models.User, error)
	UpdateFields(ctx context.Context, firebaseID string, update models.UserUpdate) error
	// SetUserTokenIfEmpty writes token only while the stored value is
	// empty and returns the token the record holds afterwards.
	SetUserTokenIfEmpty(ctx context.Context, firebaseID, token string) (string, error)
}

// Notifier receives onboarding lifecycle notifications. Implementations
// must not block.
type Notifier interface {
	IdentityProvisioned(firebaseID string)
	AccountLinked(firebaseID, itemID string)
	IncomeDecision(firebaseID string, approved bool, income float64)
}

type noopNotifier struct{}

func (noopNotifier) IdentityProvisioned(string)           {}
func (noopNotifier) AccountLinked(string, string)         {}
func (noopNotifier) IncomeDecision(string, bool, float64) {}

// Service runs the onboarding workflow against injected collaborators.
type Service struct {
	plaid       plaidclient.Client
	users       UserStore
	events      Notifier
	threshold   float64
	periodCount int32
}

func New(plaid plaidclient.Client, users UserStore, events Notifier, cfg *config.Config) *Service {
	if events == nil {
		events = noopNotifier{}
	}
	return &Service{
		plaid:       plaid,
		users:       users,
		events:      events,
		threshold:   cfg.IncomeThreshold,
		periodCount: cfg.IncomePeriodCount,
	}
}

// CreateLinkToken ensures the user has a Plaid identity, creating and
// persisting one on first use, then mints a link token for the income
// verification Link flow.
func (s *Service) CreateLinkToken(ctx context.Context, firebaseID string) (*plaidclient.LinkToken, error) {
	user, err := s.users.Find(ctx, firebaseID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &models.UnknownUserError{FirebaseID: firebaseID}
	}

	userToken := user.UserToken
	if userToken == "" {
		userToken, err = s.provisionIdentity(ctx, firebaseID)
		if err != nil {
			return nil, err
		}
	}

	token, err := s.plaid.CreateLinkToken(ctx, firebaseID, userToken)
	if err != nil {
		return nil, &models.ProvisioningError{Stage: "link token create", Err: err}
	}
	return token, nil
}

// provisionIdentity creates the Plaid identity and claims the user token
// slot. The sequence runs detached from the request context: once the
// upstream identity exists, the write must land even if the caller is gone.
func (s *Service) provisionIdentity(ctx context.Context, firebaseID string) (string, error) {
	bg := context.WithoutCancel(ctx)

	created, err := s.plaid.CreateIdentity(bg, firebaseID)
	if err != nil {
		return "", &models.ProvisioningError{Stage: "identity create", Err: err}
	}

	stored, err := s.users.SetUserTokenIfEmpty(bg, firebaseID, created)
	if err != nil {
		return "", &models.PersistenceError{Op: "store user token", Err: err}
	}

	if stored == created {
		logger.Get().Info("provisioned plaid identity",
			zap.String("firebase_id", firebaseID))
		s.events.IdentityProvisioned(firebaseID)
	} else {
		// A concurrent request won the conditional write; use its token.
		logger.Get().Info("plaid identity already provisioned concurrently",
			zap.String("firebase_id", firebaseID))
	}
	return stored, nil
}

// ExchangePublicToken swaps the one-time public token for a durable access
// token and persists it together with the item id. A second exchange for
// the same user overwrites the previous pair. Returns the item id; the
// access token stays server-side.
func (s *Service) ExchangePublicToken(ctx context.Context, firebaseID, publicToken string) (string, error) {
	user, err := s.users.Find(ctx, firebaseID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", &models.UnknownUserError{FirebaseID: firebaseID}
	}

	bg := context.WithoutCancel(ctx)

	result, err := s.plaid.ExchangeToken(bg, publicToken)
	if err != nil {
		return "", &models.ExchangeError{Err: err}
	}

	update := models.UserUpdate{
		PlaidAccessToken: &result.AccessToken,
		PlaidItemID:      &result.ItemID,
	}
	if err := s.users.UpdateFields(bg, firebaseID, update); err != nil {
		return "", &models.PersistenceError{Op: "store access token", Err: err}
	}

	logger.Get().Info("linked financial account",
		zap.String("firebase_id", firebaseID),
		zap.String("item_id", result.ItemID))
	s.events.AccountLinked(firebaseID, result.ItemID)
	return result.ItemID, nil
}

// CheckIncome fetches the most recent bank income reporting periods and
// applies the threshold rule. Read-only; a rejection is a valid outcome,
// not an error.
func (s *Service) CheckIncome(ctx context.Context, firebaseID string) (*models.IncomeDecision, error) {
	user, err := s.users.Find(ctx, firebaseID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, &models.UnknownUserError{FirebaseID: firebaseID}
	}
	if user.PlaidAccessToken == "" {
		return nil, &models.AccountNotLinkedError{FirebaseID: firebaseID}
	}

	totals, err := s.plaid.GetIncome(ctx, user.UserToken, s.periodCount)
	if err != nil {
		return nil, &models.IncomeUnavailableError{Reason: "bank income fetch failed", Err: err}
	}
	if len(totals) == 0 {
		return nil, &models.IncomeUnavailableError{Reason: "no reporting periods returned"}
	}

	observed := totals[0]
	decision := &models.IncomeDecision{
		Approved:  observed >= s.threshold,
		Income:    observed,
		Threshold: s.threshold,
	}

	logger.Get().Info("income decision",
		zap.String("firebase_id", firebaseID),
		zap.Bool("approved", decision.Approved),
		zap.Float64("income", observed))
	s.events.IncomeDecision(firebaseID, decision.Approved, observed)
	return decision, nil
}
