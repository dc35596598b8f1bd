package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// AuditStore records onboarding activity that operators care about:
// failed credential checks and income decisions.
type AuditStore struct {
	db *sql.DB
}

func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

// InsertAuthFailure records a rejected client credential check.
func (s *AuditStore) InsertAuthFailure(ctx context.Context, route, clientID string) error {
	query := `
		INSERT INTO auth_failures (id, route, client_id, occurred_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
	`

	_, err := s.db.ExecContext(ctx, query, uuid.NewString(), route, clientID)
	if err != nil {
		return fmt.Errorf("error recording auth failure: %v", err)
	}
	return nil
}

// InsertDecision records the outcome of an income check.
func (s *AuditStore) InsertDecision(ctx context.Context, firebaseID string, approved bool, income float64) error {
	query := `
		INSERT INTO income_decisions (id, firebase_id, approved, income, occurred_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
	`

	_, err := s.db.ExecContext(ctx, query, uuid.NewString(), firebaseID, approved, income)
	if err != nil {
		return fmt.Errorf("error recording income decision: %v", err)
	}
	return nil
}
