package handlers

import (
	"context"
	"fmt"
	"sync"

	"income-bridge/api/models"
	"income-bridge/api/plaidclient"
)

type fakePlaid struct {
	mu sync.Mutex

	identityCalls int
	userToken     string

	linkCalls int
	linkToken plaidclient.LinkToken

	exchangeCalls  int
	exchangeErrs   []error
	exchangeResult plaidclient.ExchangeResult

	incomeCalls  int
	incomeTotals []float64
}

func (f *fakePlaid) CreateIdentity(ctx context.Context, clientUserID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identityCalls++
	return f.userToken, nil
}

func (f *fakePlaid) CreateLinkToken(ctx context.Context, clientUserID, userToken string) (*plaidclient.LinkToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkCalls++
	token := f.linkToken
	return &token, nil
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
	return f.incomeTotals, nil
}

func (f *fakePlaid) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.identityCalls + f.linkCalls + f.exchangeCalls + f.incomeCalls
}

type fakeStore struct {
	mu    sync.Mutex
	users map[string]*models.User

	findCalls   int
	updateCalls int
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
	user, ok := s.users[firebaseID]
	if !ok {
		return fmt.Errorf("no user found for firebase id %s", firebaseID)
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
	user, ok := s.users[firebaseID]
	if !ok {
		return "", fmt.Errorf("no user found for firebase id %s", firebaseID)
	}
	if user.UserToken == "" {
		user.UserToken = token
	}
	return user.UserToken, nil
}

func (s *fakeStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findCalls + s.updateCalls
}

type fakeReporter struct {
	mu       sync.Mutex
	failures []string
}

func (r *fakeReporter) AuthFailure(route, clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, route)
}

func (r *fakeReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failures)
}
