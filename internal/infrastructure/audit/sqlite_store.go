// Package audit persists validation decisions in a SQLite database so users
// can review what the engine allowed and blocked.
package audit

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/doeshing/cmdguard/internal/domain"
	"github.com/doeshing/cmdguard/internal/ports"
)

// SQLiteStore records decisions in ~/.cmdguard/audit/audit.db. If the
// database cannot be opened the store degrades to a no-op; auditing must
// never break validation.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteStore creates (or opens) the audit database at path; an empty
// path picks the default location.
func NewSQLiteStore(path string) *SQLiteStore {
	if path == "" {
		path = filepath.Join(userHome(), ".cmdguard", "audit", "audit.db")
	}
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return &SQLiteStore{path: path}
	}
	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		return &SQLiteStore{path: path}
	}
	return store
}

func (s *SQLiteStore) init() error {
	if s.db == nil {
		return os.ErrInvalid
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS decisions (
		id TEXT PRIMARY KEY,
		timestamp TEXT,
		command TEXT,
		shell TEXT,
		risk_level TEXT,
		allowed INTEGER,
		matched TEXT,
		confidence REAL
	);`)
	return err
}

// Record inserts one decision. A missing id gets a fresh UUID.
func (s *SQLiteStore) Record(record domain.AuditRecord) error {
	if s.db == nil {
		return nil
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	matched, err := json.Marshal(record.Matched)
	if err != nil {
		matched = []byte("[]")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(`INSERT INTO decisions
		(id, timestamp, command, shell, risk_level, allowed, matched, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Timestamp.Format(time.RFC3339),
		record.Command,
		string(record.Shell),
		string(record.RiskLevel),
		boolToInt(record.Allowed),
		string(matched),
		record.Confidence,
	)
	return err
}

// Recent returns decisions newest first, optionally filtered by a substring
// of the command.
func (s *SQLiteStore) Recent(limit int, search string) ([]domain.AuditRecord, error) {
	if s.db == nil {
		return nil, nil
	}
	builder := strings.Builder{}
	builder.WriteString("SELECT id, timestamp, command, shell, risk_level, allowed, matched, confidence FROM decisions")
	var args []interface{}
	if search != "" {
		builder.WriteString(" WHERE command LIKE ?")
		args = append(args, "%"+search+"%")
	}
	builder.WriteString(" ORDER BY datetime(timestamp) DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	rows, err := s.db.Query(builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.AuditRecord
	for rows.Next() {
		var (
			rec     domain.AuditRecord
			ts      string
			shell   string
			risk    string
			allowed int
			matched string
		)
		if err := rows.Scan(&rec.ID, &ts, &rec.Command, &shell, &risk, &allowed, &matched, &rec.Confidence); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.Timestamp = t
		}
		rec.Shell = domain.ShellKind(shell)
		rec.RiskLevel = domain.Severity(risk)
		rec.Allowed = allowed == 1
		var ids []domain.RuleID
		if err := json.Unmarshal([]byte(matched), &ids); err == nil {
			rec.Matched = ids
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Path returns the sqlite database path.
func (s *SQLiteStore) Path() string { return s.path }

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func userHome() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

var _ ports.AuditRepository = (*SQLiteStore)(nil)
