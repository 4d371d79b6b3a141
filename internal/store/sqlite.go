package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"tuttifrutti/internal/game"
)

// SQLiteStore keeps documents as JSON blobs in per-model tables, one row per
// room keyed by code, with a rev counter for compare-and-swap updates.
// Subscriptions are poll-based: a watcher goroutine re-reads the rev on an
// interval and emits a snapshot whenever it moved.
type SQLiteStore struct {
	db   *sql.DB
	poll time.Duration

	mu     sync.Mutex
	closed chan struct{}
}

const updateRetries = 10

// NewSQLiteStore opens (creating if needed) the store at the given path.
func NewSQLiteStore(path string, poll time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	// modernc sqlite serializes writes per connection; one writer keeps the
	// CAS loop short.
	db.SetMaxOpenConns(1)

	for _, ddl := range []string{
		`CREATE TABLE IF NOT EXISTS rooms (
			id         TEXT PRIMARY KEY,
			status     TEXT NOT NULL,
			created_at TEXT NOT NULL,
			rev        INTEGER NOT NULL,
			data       TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS library (
			key  TEXT PRIMARY KEY,
			data TEXT NOT NULL
		)`,
	} {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating table: %w", err)
		}
	}

	if poll <= 0 {
		poll = 250 * time.Millisecond
	}
	return &SQLiteStore{db: db, poll: poll, closed: make(chan struct{})}, nil
}

func (s *SQLiteStore) CreateRoom(ctx context.Context, room *game.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO rooms (id, status, created_at, rev, data) VALUES (?, ?, ?, 1, ?)`,
		room.ID, string(room.Status), room.CreatedAt.UTC().Format(time.RFC3339Nano), string(data),
	)
	if err != nil && isUniqueViolation(err) {
		return ErrExists
	}
	return err
}

func isUniqueViolation(err error) bool {
	// modernc/sqlite wraps SQLITE_CONSTRAINT in a plain error string.
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}

func (s *SQLiteStore) getRoomRev(ctx context.Context, id string) (*game.Room, int64, error) {
	var rev int64
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT rev, data FROM rooms WHERE id = ?`, id,
	).Scan(&rev, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, err
	}
	var room game.Room
	if err := json.Unmarshal([]byte(data), &room); err != nil {
		return nil, 0, err
	}
	return &room, rev, nil
}

func (s *SQLiteStore) GetRoom(ctx context.Context, id string) (*game.Room, error) {
	room, _, err := s.getRoomRev(ctx, id)
	return room, err
}

func (s *SQLiteStore) DeleteRoom(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateRoom implements the retryable read-modify-write: read the current
// document and rev, run fn on a private copy, then compare-and-swap on rev.
// A lost swap means another writer advanced the document; fn re-runs against
// the fresh read.
func (s *SQLiteStore) UpdateRoom(ctx context.Context, id string, fn UpdateFunc) error {
	for attempt := 0; attempt < updateRetries; attempt++ {
		room, rev, err := s.getRoomRev(ctx, id)
		if err != nil {
			return err
		}

		commit, err := fn(room)
		if err != nil {
			return err
		}
		if !commit {
			return nil
		}

		data, err := json.Marshal(room)
		if err != nil {
			return err
		}
		result, err := s.db.ExecContext(ctx,
			`UPDATE rooms SET status = ?, data = ?, rev = rev + 1 WHERE id = ? AND rev = ?`,
			string(room.Status), string(data), id, rev,
		)
		if err != nil {
			return err
		}
		if n, _ := result.RowsAffected(); n == 1 {
			return nil
		}
		// Swap lost; retry with a fresh read.
	}
	return fmt.Errorf("room %s: update contention, gave up after %d attempts", id, updateRetries)
}

func (s *SQLiteStore) ActiveRooms(ctx context.Context) ([]RoomSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM rooms
		 WHERE status IN ('lobby', 'playing', 'voting', 'finished')
		 ORDER BY created_at DESC LIMIT ?`, ActiveRoomsLimit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RoomSummary
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var room game.Room
		if err := json.Unmarshal([]byte(data), &room); err != nil {
			return nil, err
		}
		out = append(out, RoomSummary{
			ID:          room.ID,
			Name:        room.Name,
			Status:      room.Status,
			PlayerCount: len(room.Players),
			CreatedAt:   room.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, rows.Err()
}

func (s *SQLiteStore) WatchRoom(id string) (<-chan RoomSnapshot, func()) {
	ch := make(chan RoomSnapshot, 32)
	stop := make(chan struct{})

	go func() {
		defer close(ch)
		var lastRev int64 = -1
		lastExists := false
		first := true

		ticker := time.NewTicker(s.poll)
		defer ticker.Stop()

		emit := func() {
			room, rev, err := s.getRoomRev(context.Background(), id)
			exists := err == nil
			if err != nil && !errors.Is(err, ErrNotFound) {
				return
			}
			if !first && rev == lastRev && exists == lastExists {
				return
			}
			first = false
			lastRev, lastExists = rev, exists
			snap := RoomSnapshot{Room: room, Exists: exists}
			select {
			case ch <- snap:
			case <-stop:
			case <-s.closed:
			}
		}

		emit()
		for {
			select {
			case <-stop:
				return
			case <-s.closed:
				return
			case <-ticker.C:
				emit()
			}
		}
	}()

	var once sync.Once
	return ch, func() { once.Do(func() { close(stop) }) }
}

func (s *SQLiteStore) WatchActiveRooms() (<-chan []RoomSummary, func()) {
	ch := make(chan []RoomSummary, 8)
	stop := make(chan struct{})

	go func() {
		defer close(ch)
		var last string
		first := true

		ticker := time.NewTicker(s.poll)
		defer ticker.Stop()

		emit := func() {
			listing, err := s.ActiveRooms(context.Background())
			if err != nil {
				return
			}
			fp, _ := json.Marshal(listing)
			if !first && string(fp) == last {
				return
			}
			first = false
			last = string(fp)
			select {
			case ch <- listing:
			case <-stop:
			case <-s.closed:
			}
		}

		emit()
		for {
			select {
			case <-stop:
				return
			case <-s.closed:
				return
			case <-ticker.C:
				emit()
			}
		}
	}()

	var once sync.Once
	return ch, func() { once.Do(func() { close(stop) }) }
}

func (s *SQLiteStore) HasWord(ctx context.Context, key string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM library WHERE key = ?`, key).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLiteStore) AddWords(ctx context.Context, entries []LibraryEntry) error {
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO library (key, data) VALUES (?, ?)`,
			e.Key, string(data),
		); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	s.mu.Unlock()
	return s.db.Close()
}

var _ Store = (*SQLiteStore)(nil)
