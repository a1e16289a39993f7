package main

import (
	"database/sql"
	"log"
	"sync"
	"time"
)

// Event types for analytics tracking
const (
	EvtPlayerJoin       = "player_join"
	EvtPlayerLeave      = "player_leave"
	EvtPlayerEliminated = "player_eliminated"
	EvtBandBounce       = "band_bounce"
	EvtJoinRejected     = "join_rejected"
)

const (
	eventBufSize   = 1024
	flushBatchSize = 50
	flushInterval  = 5 * time.Second
)

// AnalyticsEvent represents a single trackable event
type AnalyticsEvent struct {
	Type      string
	PlayerID  string
	Username  string
	Data      string // JSON metadata (optional)
	Timestamp time.Time
}

// EliminationRow is one entry of the recent eliminations list
type EliminationRow struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	At       string `json:"at"`
}

// Analytics journals gameplay events with batched background writes.
// With a nil DB every call is a cheap no-op.
type Analytics struct {
	db       *DB
	events   chan AnalyticsEvent
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewAnalytics creates and starts the analytics background writer
func NewAnalytics(db *DB) *Analytics {
	a := &Analytics{
		db:     db,
		events: make(chan AnalyticsEvent, eventBufSize),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues an event for async persistence (non-blocking)
func (a *Analytics) Track(evtType, playerID, username, data string) {
	if a.db == nil {
		return
	}
	select {
	case a.events <- AnalyticsEvent{
		Type:      evtType,
		PlayerID:  playerID,
		Username:  username,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}:
	default:
		// Channel full, drop the event
	}
}

// Stop flushes pending events and shuts down the writer
func (a *Analytics) Stop() {
	a.stopOnce.Do(func() { close(a.stop) })
	a.wg.Wait()
}

// writer is the background goroutine that batches and writes events to DB
func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]AnalyticsEvent, 0, 64)
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			if len(batch) >= flushBatchSize {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			// Drain what is queued; late Track calls are dropped
			for {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
				default:
					a.flush(batch)
					return
				}
			}
		}
	}
}

// flush writes a batch of events to the database
func (a *Analytics) flush(events []AnalyticsEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	tx, err := a.db.conn.Begin()
	if err != nil {
		log.Printf("analytics: begin tx error: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO analytics_events (event_type, player_id, username, data, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("analytics: prepare error: %v", err)
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		pid := sql.NullString{String: evt.PlayerID, Valid: evt.PlayerID != ""}
		name := sql.NullString{String: evt.Username, Valid: evt.Username != ""}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		_, err := stmt.Exec(evt.Type, pid, name, data, evt.Timestamp.Format(time.RFC3339))
		if err != nil {
			log.Printf("analytics: insert error: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		log.Printf("analytics: commit error: %v", err)
	}
}

// EventCounts returns counts of each event type for the last N days
func (a *Analytics) EventCounts(days int) (map[string]int, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM analytics_events
		WHERE created_at >= date('now', '-' || ? || ' days')
		GROUP BY event_type ORDER BY COUNT(*) DESC
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			continue
		}
		result[evtType] = count
	}
	return result, rows.Err()
}

// RecentEliminations returns the latest eliminations, newest first
func (a *Analytics) RecentEliminations(limit int) ([]EliminationRow, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT COALESCE(player_id, ''), COALESCE(username, ''), created_at
		FROM analytics_events
		WHERE event_type = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, EvtPlayerEliminated, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []EliminationRow
	for rows.Next() {
		var e EliminationRow
		if err := rows.Scan(&e.PlayerID, &e.Username, &e.At); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
