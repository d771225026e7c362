// Package journal keeps an optional SQLite record of every dispatch and
// the tier that took it. The journal is written after a dispatch finishes
// and never influences it.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mattjoyce/sulink/internal/dispatch"
	"github.com/mattjoyce/sulink/internal/log"
)

// timeLayout is fixed width so that text order of the timestamp columns is
// time order. Values are always stored in UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one journaled dispatch.
type Entry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	Manager    string    `json:"manager"`
	User       int       `json:"os_user"`
	Ceiling    string    `json:"ceiling"`
	Tier       string    `json:"tier"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

type Journal struct {
	db *sql.DB
}

func New(db *sql.DB) *Journal {
	return &Journal{db: db}
}

// Record inserts e, assigning an id when it has none.
func (j *Journal) Record(ctx context.Context, e Entry) (string, error) {
	if e.Action == "" {
		return "", fmt.Errorf("action is empty")
	}
	if e.Tier == "" {
		return "", fmt.Errorf("tier is empty")
	}
	id := e.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err := j.db.ExecContext(ctx, `
INSERT INTO deliveries(id, action, manager, os_user, ceiling, tier, started_at, finished_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?);
`, id, e.Action, e.Manager, e.User, e.Ceiling, e.Tier,
		e.StartedAt.UTC().Format(timeLayout), e.FinishedAt.UTC().Format(timeLayout))
	if err != nil {
		return "", fmt.Errorf("record delivery: %w", err)
	}
	return id, nil
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx, `
SELECT id, action, manager, os_user, ceiling, tier, started_at, finished_at
FROM deliveries
ORDER BY started_at DESC, rowid DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                     Entry
			startedAtS, finishedS string
		)
		if err := rows.Scan(&e.ID, &e.Action, &e.Manager, &e.User, &e.Ceiling, &e.Tier, &startedAtS, &finishedS); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		if t, err := time.Parse(timeLayout, startedAtS); err == nil {
			e.StartedAt = t
		}
		if t, err := time.Parse(timeLayout, finishedS); err == nil {
			e.FinishedAt = t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deliveries: %w", err)
	}
	return entries, nil
}

// Deliverer matches *dispatch.Dispatcher.
type Deliverer interface {
	Dispatch(req dispatch.Request) dispatch.Tier
}

// Recorder journals every dispatch that passes through it.
type Recorder struct {
	next    Deliverer
	journal *Journal
	now     func() time.Time
	logger  *slog.Logger
}

// NewRecorder wraps next.
func NewRecorder(next Deliverer, j *Journal) *Recorder {
	return &Recorder{
		next:    next,
		journal: j,
		now:     time.Now,
		logger:  log.WithComponent("journal"),
	}
}

// Dispatch runs next and records the outcome. Journal errors are logged only.
func (r *Recorder) Dispatch(req dispatch.Request) dispatch.Tier {
	started := r.now()
	tier := r.next.Dispatch(req)

	_, err := r.journal.Record(context.Background(), Entry{
		ID:         req.ID,
		Action:     req.Action,
		Manager:    req.Manager.Package,
		User:       req.User,
		Ceiling:    req.Ceiling.String(),
		Tier:       tier.String(),
		StartedAt:  started,
		FinishedAt: r.now(),
	})
	if err != nil {
		r.logger.Warn("failed to journal delivery", "delivery_id", req.ID, "error", err)
	}
	return tier
}
