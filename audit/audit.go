package audit

import (
	"context"
	"time"

	"income-bridge/api/db"
	"income-bridge/api/kafka"
	"income-bridge/api/logger"
	"income-bridge/api/worker"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder fans onboarding activity out to the audit database and the event
// stream, asynchronously. Either sink may be absent; recording is always
// best-effort and never fails the request that triggered it.
type Recorder struct {
	store    *db.AuditStore
	producer *kafka.Producer
	dispatch *worker.Dispatcher
}

func NewRecorder(store *db.AuditStore, producer *kafka.Producer, dispatch *worker.Dispatcher) *Recorder {
	return &Recorder{store: store, producer: producer, dispatch: dispatch}
}

// AuthFailure records a rejected client credential check. The presented
// secret is never recorded.
func (r *Recorder) AuthFailure(route, clientID string) {
	r.dispatch.Submit(func(ctx context.Context) {
		if r.store != nil {
			if err := r.store.InsertAuthFailure(ctx, route, clientID); err != nil {
				logger.Get().Error("failed to record auth failure", zap.Error(err))
			}
		}
		r.publish(kafka.Event{
			Type:  kafka.EventAuthFailure,
			Route: route,
		})
	})
}

// IdentityProvisioned records that a Plaid identity was created for a user.
func (r *Recorder) IdentityProvisioned(firebaseID string) {
	r.dispatch.Submit(func(ctx context.Context) {
		r.publish(kafka.Event{
			Type:       kafka.EventIdentityProvisioned,
			FirebaseID: firebaseID,
		})
	})
}

// AccountLinked records a successful public token exchange.
func (r *Recorder) AccountLinked(firebaseID, itemID string) {
	r.dispatch.Submit(func(ctx context.Context) {
		r.publish(kafka.Event{
			Type:       kafka.EventAccountLinked,
			FirebaseID: firebaseID,
			ItemID:     itemID,
		})
	})
}

// IncomeDecision records the outcome of an income check.
func (r *Recorder) IncomeDecision(firebaseID string, approved bool, income float64) {
	r.dispatch.Submit(func(ctx context.Context) {
		if r.store != nil {
			if err := r.store.InsertDecision(ctx, firebaseID, approved, income); err != nil {
				logger.Get().Error("failed to record income decision", zap.Error(err))
			}
		}
		r.publish(kafka.Event{
			Type:       kafka.EventIncomeDecision,
			FirebaseID: firebaseID,
			Approved:   &approved,
			Income:     &income,
		})
	})
}

func (r *Recorder) publish(event kafka.Event) {
	if r.producer == nil {
		return
	}
	event.ID = uuid.NewString()
	event.OccurredAt = time.Now().Unix()
	if err := r.producer.Publish(event); err != nil {
		logger.Get().Error("failed to publish onboarding event",
			zap.String("type", event.Type),
			zap.Error(err))
	}
}
