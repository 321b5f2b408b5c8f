package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
)

// Store mirrors audit events into the messages table so the trail of a run
// can be queried after the syslog stream has rotated away.
type Store struct {
	db       *sql.DB
	hostname string
	procid   string
}

// Entry is one stored audit event
type Entry struct {
	Timestamp time.Time                    `json:"timestamp"`
	Severity  Severity                     `json:"severity"`
	MessageID string                       `json:"msgid"`
	Data      map[string]map[string]string `json:"sdata"`
	Text      string                       `json:"message"`
}

// OpenStore connects to the audit database. An empty dsn disables
// persistence and returns a nil store.
func OpenStore(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, nil
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	return NewStoreWithDB(db), nil
}

// NewStoreWithDB wraps an existing connection
func NewStoreWithDB(db *sql.DB) *Store {
	host, _ := os.Hostname()
	return &Store{db: db, hostname: host, procid: strconv.Itoa(os.Getpid())}
}

// Close releases the connection
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

const insertMessage = `
INSERT INTO messages (facility, severity, timestamp, hostname, appname, procid, msgid, sdata, message)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// Save inserts one event. A store without a connection drops it.
func (s *Store) Save(ctx context.Context, event Event) error {
	if s == nil || s.db == nil {
		return nil
	}
	sdata, err := json.Marshal(event.StructuredData())
	if err != nil {
		return fmt.Errorf("failed to encode structured data: %w", err)
	}
	_, err = s.db.ExecContext(ctx, insertMessage,
		event.Facility(),
		int(event.Severity()),
		time.Now().UTC(),
		s.hostname,
		AppName,
		s.procid,
		event.MessageID(),
		sdata,
		event.Message(),
	)
	return err
}

// Both run and intervention events carry the run id under run@32473.
const selectTrail = `
SELECT timestamp, severity, msgid, sdata, message
FROM messages
WHERE appname = $1 AND sdata -> '` + SDIDRun + `' ->> 'id' = $2
ORDER BY timestamp ASC`

// Trail returns every stored event of a run, oldest first
func (s *Store) Trail(ctx context.Context, runID string) ([]Entry, error) {
	if s == nil || s.db == nil {
		return []Entry{}, nil
	}
	rows, err := s.db.QueryContext(ctx, selectTrail, AppName, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit trail: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e     Entry
			sev   int
			sdata []byte
		)
		if err := rows.Scan(&e.Timestamp, &sev, &e.MessageID, &sdata, &e.Text); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.Severity = Severity(sev)
		if len(sdata) > 0 {
			if err := json.Unmarshal(sdata, &e.Data); err != nil {
				return nil, fmt.Errorf("failed to decode structured data: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
