package workout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/myrjola/lifelog/internal/errors"
)

// RecordStore is the persistence collaborator. It is implemented by records.Store.
type RecordStore interface {
	GetCollection(ctx context.Context, name string) ([]json.RawMessage, error)
	Upsert(ctx context.Context, name string, record json.RawMessage) (json.RawMessage, error)
}

// repository maps session records and offer decisions to record collections.
type repository struct {
	store RecordStore
}

func newRepository(store RecordStore) *repository {
	return &repository{store: store}
}

// listSessions decodes the session collection. Records that fail to decode are reported in issues and left
// untouched in storage.
func (r *repository) listSessions(ctx context.Context) (_ []SessionRecord, issues []error, _ error) {
	raw, err := r.store.GetCollection(ctx, SessionsCollection)
	if err != nil {
		return nil, nil, fmt.Errorf("get %s: %w", SessionsCollection, err)
	}
	sessions := make([]SessionRecord, 0, len(raw))
	for i, body := range raw {
		var rec SessionRecord
		if err = json.Unmarshal(body, &rec); err != nil {
			issues = append(issues, errors.Wrap(ErrInvalidRecord, "decode session record",
				slog.Int("index", i), slog.String("cause", err.Error())))
			continue
		}
		sessions = append(sessions, rec)
	}
	return sessions, issues, nil
}

// addSession writes the session and returns the stored bytes.
func (r *repository) addSession(ctx context.Context, rec SessionRecord) (json.RawMessage, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal session record: %w", err)
	}
	var stored json.RawMessage
	if stored, err = r.store.Upsert(ctx, SessionsCollection, body); err != nil {
		return nil, fmt.Errorf("upsert %s: %w", SessionsCollection, err)
	}
	return stored, nil
}

// declinedAnchors returns the anchor session ids of declined bonus offers.
func (r *repository) declinedAnchors(ctx context.Context) (_ []string, issues []error, _ error) {
	raw, err := r.store.GetCollection(ctx, OfferDecisionsCollection)
	if err != nil {
		return nil, nil, fmt.Errorf("get %s: %w", OfferDecisionsCollection, err)
	}
	var anchors []string
	for i, body := range raw {
		var d OfferDecision
		if err = json.Unmarshal(body, &d); err != nil {
			issues = append(issues, errors.Wrap(ErrInvalidRecord, "decode offer decision",
				slog.Int("index", i), slog.String("cause", err.Error())))
			continue
		}
		if d.Decision == decisionDeclined {
			anchors = append(anchors, d.AnchorSessionID)
		}
	}
	return anchors, issues, nil
}

func (r *repository) addDecision(ctx context.Context, d OfferDecision) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal offer decision: %w", err)
	}
	if _, err = r.store.Upsert(ctx, OfferDecisionsCollection, body); err != nil {
		return fmt.Errorf("upsert %s: %w", OfferDecisionsCollection, err)
	}
	return nil
}
