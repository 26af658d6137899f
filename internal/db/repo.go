package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"smartcare/pkg"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgreSQL error codes the repository reacts to.
const (
	pgUniqueViolation     pq.ErrorCode = "23505"
	pgForeignKeyViolation pq.ErrorCode = "23503"
)

func isPQError(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// Repository wraps every query of the service. It holds the single pool
// opened in main; the caller owns the pool's lifecycle.
type Repository struct {
	DB *sql.DB
}

// NewRepository constructs a new Repository from an existing sql.DB.
func NewRepository(db *sql.DB) *Repository { return &Repository{DB: db} }

// Ping checks that the database is reachable.
func (r *Repository) Ping(ctx context.Context) error { return r.DB.PingContext(ctx) }

const sessionColumns = `id, session_id, patient_name, patient_email, symptoms, diagnosis, severity, recommended_specialty, created_at`

func scanSession(s scanner) (*pkg.ChatSession, error) {
	var cs pkg.ChatSession
	err := s.Scan(&cs.ID, &cs.SessionID, &cs.PatientName, &cs.PatientEmail, &cs.Symptoms,
		&cs.Diagnosis, &cs.Severity, &cs.RecommendedSpecialty, &cs.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &cs, nil
}

// CreateSession stores a new chat session under a fresh random identifier.
func (r *Repository) CreateSession(ctx context.Context, patientName, patientEmail *string) (*pkg.ChatSession, error) {
	row := r.DB.QueryRowContext(ctx,
		`INSERT INTO chat_sessions (session_id, patient_name, patient_email)
         VALUES ($1, $2, $3)
         RETURNING `+sessionColumns,
		uuid.NewString(), patientName, patientEmail,
	)
	cs, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return cs, nil
}

// GetSession loads a session by its public identifier.
func (r *Repository) GetSession(ctx context.Context, sessionID string) (*pkg.ChatSession, error) {
	cs, err := scanSession(r.DB.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM chat_sessions WHERE session_id = $1`, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pkg.NotFound("Session")
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	return cs, nil
}

// ListSessionsByEmail returns a patient's sessions, newest first.
func (r *Repository) ListSessionsByEmail(ctx context.Context, email string) ([]pkg.ChatSession, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+sessionColumns+`
         FROM chat_sessions
         WHERE patient_email = $1
         ORDER BY created_at DESC`, email)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	sessions := []pkg.ChatSession{}
	for rows.Next() {
		cs, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *cs)
	}
	return sessions, rows.Err()
}

// SaveAnalysis records the latest symptoms and the analysis derived from them
// on the session row.
func (r *Repository) SaveAnalysis(ctx context.Context, sessionID, symptoms string, a *pkg.Analysis) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE chat_sessions
         SET symptoms = $1, diagnosis = $2, severity = $3, recommended_specialty = $4
         WHERE session_id = $5`,
		symptoms, a.Diagnosis, a.Severity, a.RecommendedSpecialty, sessionID,
	)
	if err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	return expectRow(res, pkg.NotFound("Session"))
}

// expectRow returns notFound when an UPDATE or DELETE touched no row.
func expectRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
