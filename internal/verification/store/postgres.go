package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dana/internal/verification/models"
	id "dana/pkg/domain"
	"dana/pkg/platform/sentinel"
)

// Postgres persists verifications via database/sql (pgx stdlib driver). The
// UNIQUE constraint on actor_id backs the one-submission-per-actor rule, and
// Save upserts on it so a re-upload overwrites in place.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const verificationColumns = "id, actor_id, document_ref, status, submitted_at, reviewed_at"

func (s *Postgres) Save(ctx context.Context, verification *models.NGOVerification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ngo_verifications (`+verificationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (actor_id) DO UPDATE
		SET document_ref = EXCLUDED.document_ref,
		    status = EXCLUDED.status,
		    submitted_at = EXCLUDED.submitted_at,
		    reviewed_at = EXCLUDED.reviewed_at`,
		verification.ID.String(), verification.ActorID.String(),
		verification.DocumentRef, string(verification.Status),
		verification.SubmittedAt, verification.ReviewedAt,
	)
	if err != nil {
		return fmt.Errorf("save verification: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, verificationID id.VerificationID) (*models.NGOVerification, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+verificationColumns+" FROM ngo_verifications WHERE id = $1",
		verificationID.String())
	return scanVerification(row)
}

func (s *Postgres) FindByActor(ctx context.Context, actorID id.ActorID) (*models.NGOVerification, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+verificationColumns+" FROM ngo_verifications WHERE actor_id = $1",
		actorID.String())
	return scanVerification(row)
}

func (s *Postgres) List(ctx context.Context, filter models.ListFilter) ([]*models.NGOVerification, error) {
	query := "SELECT " + verificationColumns + " FROM ngo_verifications"
	var conds []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.ActorID != "" {
		args = append(args, filter.ActorID)
		conds = append(conds, fmt.Sprintf("actor_id = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY submitted_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	defer rows.Close()

	var out []*models.NGOVerification
	for rows.Next() {
		verification, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, verification)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVerification(row rowScanner) (*models.NGOVerification, error) {
	var verification models.NGOVerification
	var rawID, rawActorID, status string
	err := row.Scan(&rawID, &rawActorID, &verification.DocumentRef, &status,
		&verification.SubmittedAt, &verification.ReviewedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan verification: %w", err)
	}
	verificationID, err := id.ParseVerificationID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan verification id: %w", err)
	}
	verification.ID = verificationID
	actorID, err := id.ParseActorID(rawActorID)
	if err != nil {
		return nil, fmt.Errorf("scan verification actor id: %w", err)
	}
	verification.ActorID = actorID
	verification.Status = models.Status(status)
	return &verification, nil
}
