// Package history appends comparison outcomes to the event_log table.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const TypeAnswerCompared = "AnswerCompared"

var ErrPublish = errors.New("publish event")

type Event struct {
	Seq       int64  `json:"seq"`
	SiteID    string `json:"site_id"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	DataJSON  string `json:"data"`
	CreatedAt int64  `json:"created_at"`
}

type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

func (r *EventRepo) Append(ctx context.Context, e Event) error {
	if e.SiteID == "" {
		e.SiteID = "local"
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_log (site_id, typ, event_key, data, created_at)
		 VALUES ($1,$2,$3,$4,$5)`,
		e.SiteID, e.Type, e.Key, e.DataJSON, e.CreatedAt)
	return err
}

// Since returns up to limit events of one type with seq > after, oldest first.
func (r *EventRepo) Since(ctx context.Context, typ string, after int64, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, site_id, typ, event_key, data, created_at FROM event_log
		 WHERE typ=$1 AND seq>$2 ORDER BY seq LIMIT $3`, typ, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Seq, &e.SiteID, &e.Type, &e.Key, &e.DataJSON, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Comparison is the payload of an AnswerCompared event. The answers
// themselves are not stored.
type Comparison struct {
	Profile    string  `json:"profile"`
	Kind       string  `json:"kind"`
	Subject    string  `json:"subject,omitempty"`
	Correct    bool    `json:"correct"`
	Minor      bool    `json:"minor"`
	AutoPoints float64 `json:"auto_points"`
}

type Recorder struct {
	repo   *EventRepo
	bus    Bus
	siteID string
	newKey func() string
}

func NewRecorder(repo *EventRepo, siteID string) *Recorder {
	if siteID == "" {
		siteID = "local"
	}
	return &Recorder{repo: repo, siteID: siteID, newKey: uuid.NewString}
}

// WithBus makes Record publish every stored event on b.
func (r *Recorder) WithBus(b Bus) *Recorder {
	r.bus = b
	return r
}

// Record stores c under a fresh key and returns the key. A publish failure
// comes back as ErrPublish together with the key, since the row is stored.
func (r *Recorder) Record(ctx context.Context, c Comparison) (string, error) {
	buf, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode comparison: %w", err)
	}
	e := Event{
		SiteID:    r.siteID,
		Type:      TypeAnswerCompared,
		Key:       r.newKey(),
		DataJSON:  string(buf),
		CreatedAt: time.Now().Unix(),
	}
	if err := r.repo.Append(ctx, e); err != nil {
		return "", fmt.Errorf("append %s: %w", TypeAnswerCompared, err)
	}
	if r.bus != nil {
		if err := r.bus.Publish(ctx, e); err != nil {
			return e.Key, fmt.Errorf("%w: %v", ErrPublish, err)
		}
	}
	return e.Key, nil
}
