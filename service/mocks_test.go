package service

import (
	"context"
	"fmt"
	"sync"

	"income-bridge/api/models"
	"income-bridge/api/plaidclient"
)

// fakePlaid implements plaidclient.Client and records call counts.
type fakePlaid struct {
	mu sync.Mutex

	identityCalls int
	identityErr   error

	linkCalls      int
	linkErr        error
	linkUserTokens []string

	exchangeCalls  int
	exchangeErrs   []error
	exchangeResult plaidclient.ExchangeResult

	incomeCalls  int
	incomeErr    error
	incomeTotals []float64
}

func (f *fakePlaid) CreateIdentity(ctx context.Context, clientUserID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identityCalls++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.identityErr != nil {
		return "", f.identityErr
	}
	// Unique per call so racing provisioners can be told apart.
	return fmt.Sprintf("user-token-%d", f.identityCalls), nil
}

func (f *fakePlaid) CreateLinkToken(ctx context.Context, clientUserID, userToken string) (*plaidclient.LinkToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkCalls++
	f.linkUserTokens = append(f.linkUserTokens, userToken)
	if f.linkErr != nil {
		return nil, f.linkErr
	}
	return &plaidclient.LinkToken{LinkToken: "link-sandbox-abc", RequestID: "req-1"}, nil
}

func (f *fakePlaid) ExchangeToken(ctx context.Context, publicToken string) (*plaidclient.ExchangeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := f.exchangeCalls
	f.exchangeCalls++
	if call < len(f.exchangeErrs) && f.exchangeErrs[call] != nil {
		return nil, f.exchangeErrs[call]
	}
	result := f.exchangeResult
	return &result, nil
}

func (f *fakePlaid) GetIncome(ctx context.Context, userToken string, count int32) ([]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incomeCalls++
	if f.incomeErr != nil {
		return nil, f.incomeErr
	}
	return f.incomeTotals, nil
}

// fakeStore implements UserStore over an in-memory map. The conditional
// token write is atomic under the store mutex, matching the repository's
// FindOneAndUpdate semantics.
type fakeStore struct {
	mu    sync.Mutex
	users map[string]*models.User

	findErr     error
	updateErr   error
	setTokenErr error

	findCalls     int
	updateCalls   int
	setTokenCalls int
}

func newFakeStore(users ...*models.User) *fakeStore {
	s := &fakeStore{users: make(map[string]*models.User)}
	for _, u := range users {
		copied := *u
		s.users[u.FirebaseID] = &copied
	}
	return s
}

func (s *fakeStore) Find(ctx context.Context, firebaseID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCalls++
	if s.findErr != nil {
		return nil, s.findErr
	}
	user, ok := s.users[firebaseID]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (s *fakeStore) UpdateFields(ctx context.Context, firebaseID string, update models.UserUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	if s.updateErr != nil {
		return s.updateErr
	}
	user, ok := s.users[firebaseID]
	if !ok {
		return fmt.Errorf("no user found for firebase id %s", firebaseID)
	}
	if update.UserToken != nil {
		user.UserToken = *update.UserToken
	}
	if update.PlaidAccessToken != nil {
		user.PlaidAccessToken = *update.PlaidAccessToken
	}
	if update.PlaidItemID != nil {
		user.PlaidItemID = *update.PlaidItemID
	}
	return nil
}

func (s *fakeStore) SetUserTokenIfEmpty(ctx context.Context, firebaseID, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setTokenCalls++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.setTokenErr != nil {
		return "", s.setTokenErr
	}
	user, ok := s.users[firebaseID]
	if !ok {
		return "", fmt.Errorf("no user found for firebase id %s", firebaseID)
	}
	if user.UserToken == "" {
		user.UserToken = token
	}
	return user.UserToken, nil
}

func (s *fakeStore) get(firebaseID string) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.users[firebaseID]
}

// fakeNotifier counts lifecycle notifications.
type fakeNotifier struct {
	mu          sync.Mutex
	provisioned []string
	linked      []string
	decisions   []bool
}

func (n *fakeNotifier) IdentityProvisioned(firebaseID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.provisioned = append(n.provisioned, firebaseID)
}

func (n *fakeNotifier) AccountLinked(firebaseID, itemID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.linked = append(n.linked, itemID)
}

func (n *fakeNotifier) IncomeDecision(firebaseID string, approved bool, income float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.decisions = append(n.decisions, approved)
}
