package subchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/strivefit/gatekit/pkg/kvstore"
)

// MarkerKind identifies a scheduled follow-up written during change
// processing. Markers are plain kvstore records; a reminder scheduler in
// the app layer reads them and decides what to send when they come due.
type MarkerKind string

const (
	// MarkerTrialEndingSoon is due three days before the trial ends.
	MarkerTrialEndingSoon MarkerKind = "trial_end_3d"
	// MarkerTrialEndingTomorrow is due one day before the trial ends.
	MarkerTrialEndingTomorrow MarkerKind = "trial_end_1d"
	// MarkerGraceDeadline is due when the past_due grace period lapses.
	MarkerGraceDeadline MarkerKind = "grace_deadline"
)

// Grace period granted after a failed payment before access is treated as
// lost.
const GracePeriod = 72 * time.Hour

// Marker is a scheduled follow-up with its due time.
type Marker struct {
	Kind  MarkerKind `json:"kind"`
	DueAt time.Time  `json:"due_at"`
}

func markerKey(userID string, kind MarkerKind) string {
	return fmt.Sprintf("subchange:marker:%s:%s", userID, kind)
}

// ReadMarker returns the stored marker for a user, if any.
func ReadMarker(ctx context.Context, kv kvstore.Store, userID string, kind MarkerKind) (Marker, bool, error) {
	raw, err := kv.Get(ctx, markerKey(userID, kind))
	if errors.Is(err, kvstore.ErrNotFound) {
		return Marker{}, false, nil
	}
	if err != nil {
		return Marker{}, false, err
	}

	var m Marker
	if err := json.Unmarshal(raw, &m); err != nil {
		return Marker{}, false, err
	}
	return m, true, nil
}

// ClearMarker removes a stored marker. Clearing a missing marker is not an
// error.
func ClearMarker(ctx context.Context, kv kvstore.Store, userID string, kind MarkerKind) error {
	return kv.Remove(ctx, markerKey(userID, kind))
}

func writeMarker(ctx context.Context, kv kvstore.Store, userID string, m Marker) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return kv.Set(ctx, markerKey(userID, m.Kind), raw)
}
