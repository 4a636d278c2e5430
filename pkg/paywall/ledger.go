package paywall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/strivefit/gatekit/pkg/kvstore"
)

// Record tracks how often a paywall surface was shown to one user.
// ImpressionCount is monotonically non-decreasing.
type Record struct {
	TriggerID       string     `json:"trigger_id"`
	LastShownAt     *time.Time `json:"last_shown_at,omitempty"`
	ImpressionCount int        `json:"impression_count"`
}

// Ledger persists impression records in a key/value store. Writes to the
// same key are serialized so a read-increment-write cycle never loses a
// count under concurrent evaluation.
type Ledger struct {
	kv kvstore.Store

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLedger creates a Ledger backed by kv. Panics if kv is nil to fail
// fast during initialization.
func NewLedger(kv kvstore.Store) *Ledger {
	if kv == nil {
		panic("paywall: key/value store is required")
	}
	return &Ledger{
		kv:    kv,
		locks: make(map[string]*sync.Mutex),
	}
}

func triggerKey(userID, triggerID string) string {
	return fmt.Sprintf("impressions:%s:trigger:%s", userID, triggerID)
}

func featureKey(userID, feature string) string {
	return fmt.Sprintf("impressions:%s:feature:%s", userID, feature)
}

// TriggerRecord returns the impression record for a trigger. A missing
// record is returned zero-valued, not as an error.
func (l *Ledger) TriggerRecord(ctx context.Context, userID, triggerID string) (Record, error) {
	return l.load(ctx, triggerKey(userID, triggerID), triggerID)
}

// FeatureRecord returns the impression record for an ad-hoc feature prompt.
func (l *Ledger) FeatureRecord(ctx context.Context, userID, feature string) (Record, error) {
	return l.load(ctx, featureKey(userID, feature), "")
}

// RecordTriggerImpression increments the trigger's impression count and
// stamps shownAt. The returned record reflects the committed state.
func (l *Ledger) RecordTriggerImpression(ctx context.Context, userID, triggerID string, shownAt time.Time) (Record, error) {
	return l.increment(ctx, triggerKey(userID, triggerID), triggerID, shownAt)
}

// RecordFeatureImpression increments the ad-hoc feature prompt count.
func (l *Ledger) RecordFeatureImpression(ctx context.Context, userID, feature string, shownAt time.Time) (Record, error) {
	return l.increment(ctx, featureKey(userID, feature), "", shownAt)
}

func (l *Ledger) load(ctx context.Context, key, triggerID string) (Record, error) {
	raw, err := l.kv.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return Record{TriggerID: triggerID}, nil
	}
	if err != nil {
		return Record{}, errors.Join(ErrLedgerUnavailable, err)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		// A corrupt record would otherwise wedge the trigger forever;
		// treat it as absent and let the next write overwrite it.
		return Record{TriggerID: triggerID}, nil
	}
	return rec, nil
}

func (l *Ledger) increment(ctx context.Context, key, triggerID string, shownAt time.Time) (Record, error) {
	lock := l.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	rec, err := l.load(ctx, key, triggerID)
	if err != nil {
		return Record{}, err
	}

	shownAt = shownAt.UTC()
	rec.ImpressionCount++
	rec.LastShownAt = &shownAt

	raw, err := json.Marshal(rec)
	if err != nil {
		return Record{}, errors.Join(ErrLedgerUnavailable, err)
	}
	if err := l.kv.Set(ctx, key, raw); err != nil {
		return Record{}, errors.Join(ErrLedgerUnavailable, err)
	}
	return rec, nil
}

func (l *Ledger) lockFor(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[key] = lock
	}
	return lock
}
