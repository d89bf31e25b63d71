package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/abrezinsky/ownervote/internal/integrity"
	"github.com/abrezinsky/ownervote/internal/models"
)

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// dbtx is satisfied by both *sql.DB and *sql.Tx
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// SQLite works best with single connection; this also serializes
	// transactions, which the lifecycle guards rely on.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	if err := repo.migrate(); err != nil {
		return nil, err
	}

	return repo, nil
}

// DB returns the underlying database connection (for transactions)
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS units (
			id TEXT PRIMARY KEY,
			building_id TEXT NOT NULL,
			designation TEXT NOT NULL,
			ownership_share TEXT,
			updated_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS unit_residents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			unit_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			resident_type TEXT NOT NULL DEFAULT 'owner',
			move_in_date DATETIME,
			move_out_date DATETIME,
			FOREIGN KEY (unit_id) REFERENCES units(id) ON DELETE CASCADE,
			UNIQUE(unit_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS delegations (
			id TEXT PRIMARY KEY,
			owner_user_id TEXT NOT NULL,
			delegate_user_id TEXT NOT NULL,
			unit_id TEXT NOT NULL,
			scope TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			expires_at DATETIME,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (unit_id) REFERENCES units(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS votes (
			id TEXT PRIMARY KEY,
			organization_id TEXT NOT NULL,
			building_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT,
			start_at DATETIME,
			end_at DATETIME NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			quorum_type TEXT NOT NULL,
			quorum_percentage INTEGER CHECK (quorum_percentage IS NULL OR quorum_percentage BETWEEN 1 AND 100),
			allow_delegation BOOLEAN NOT NULL DEFAULT 1,
			anonymous_voting BOOLEAN NOT NULL DEFAULT 0,
			participation_count INTEGER NOT NULL DEFAULT 0,
			eligible_count INTEGER,
			quorum_met BOOLEAN,
			results TEXT,
			results_calculated_at DATETIME,
			created_by TEXT NOT NULL,
			published_by TEXT,
			published_at DATETIME,
			cancelled_by TEXT,
			cancelled_at DATETIME,
			cancellation_reason TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS vote_questions (
			id TEXT PRIMARY KEY,
			vote_id TEXT NOT NULL,
			question_text TEXT NOT NULL,
			description TEXT,
			question_type TEXT NOT NULL,
			options TEXT NOT NULL,
			display_order INTEGER NOT NULL DEFAULT 0,
			is_required BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (vote_id) REFERENCES votes(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS vote_responses (
			id TEXT PRIMARY KEY,
			vote_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			unit_id TEXT NOT NULL,
			delegation_id TEXT,
			is_delegated BOOLEAN NOT NULL DEFAULT 0,
			answers TEXT NOT NULL,
			vote_weight TEXT NOT NULL,
			response_hash TEXT NOT NULL,
			submitted_at DATETIME NOT NULL,
			FOREIGN KEY (vote_id) REFERENCES votes(id) ON DELETE CASCADE,
			UNIQUE(vote_id, unit_id)
		)`,
		`CREATE TABLE IF NOT EXISTS vote_comments (
			id TEXT PRIMARY KEY,
			vote_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			parent_id TEXT,
			content TEXT NOT NULL,
			hidden BOOLEAN NOT NULL DEFAULT 0,
			hidden_by TEXT,
			hidden_at DATETIME,
			hidden_reason TEXT,
			ai_consent BOOLEAN NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (vote_id) REFERENCES votes(id) ON DELETE CASCADE,
			FOREIGN KEY (parent_id) REFERENCES vote_comments(id) ON DELETE CASCADE
		)`,
		// No foreign key to votes: the trail outlives a deleted draft.
		`CREATE TABLE IF NOT EXISTS vote_audit_log (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			vote_id TEXT NOT NULL,
			user_id TEXT,
			action TEXT NOT NULL,
			data_hash TEXT NOT NULL,
			data_snapshot TEXT,
			ip_address TEXT,
			user_agent TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TRIGGER IF NOT EXISTS vote_audit_log_no_update
			BEFORE UPDATE ON vote_audit_log
			BEGIN SELECT RAISE(ABORT, 'vote_audit_log is append-only'); END`,
		`CREATE TRIGGER IF NOT EXISTS vote_audit_log_no_delete
			BEFORE DELETE ON vote_audit_log
			BEGIN SELECT RAISE(ABORT, 'vote_audit_log is append-only'); END`,
		`CREATE INDEX IF NOT EXISTS idx_units_building ON units(building_id)`,
		`CREATE INDEX IF NOT EXISTS idx_residents_user ON unit_residents(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_delegations_delegate ON delegations(delegate_user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_votes_building_status ON votes(building_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_votes_org ON votes(organization_id)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_vote ON vote_questions(vote_id)`,
		`CREATE INDEX IF NOT EXISTS idx_responses_vote ON vote_responses(vote_id)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_vote ON vote_comments(vote_id, parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_vote ON vote_audit_log(vote_id, created_at)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}

// withTx runs fn in a transaction, committing only if fn succeeds
func (r *Repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// missingOrConflict classifies a conditional update that touched no rows
func missingOrConflict(ctx context.Context, q dbtx, voteID uuid.UUID) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM votes WHERE id = ?`, voteID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrStatusConflict
}

// appendAudit writes one hashed entry to the audit trail
func appendAudit(ctx context.Context, q dbtx, voteID uuid.UUID, event models.AuditEvent, now time.Time) error {
	hash, snapshot, err := integrity.DataHash(event.Data)
	if err != nil {
		return fmt.Errorf("audit %s: %w", event.Action, err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO vote_audit_log (id, vote_id, user_id, action, data_hash, data_snapshot, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.New(), voteID, nullUUID(event.UserID), string(event.Action), hash, string(snapshot),
		nullString(event.IPAddress), nullString(event.UserAgent), now.UTC())
	return err
}

func checkAffected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func uuidPtr(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	t := n.Time.UTC()
	return &t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, 0, n*2-1)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, '?')
	}
	return string(b)
}
