package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dana/internal/actor/models"
	id "dana/pkg/domain"
	"dana/pkg/platform/sentinel"
)

// Postgres persists actors via database/sql (pgx stdlib driver).
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const actorColumns = "id, external_id, email, role, verified, phone_number, address, created_at, updated_at"

func (s *Postgres) Create(ctx context.Context, actor *models.Actor) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO actors (`+actorColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (external_id) DO NOTHING`,
		actor.ID.String(), actor.ExternalID, actor.Email, string(actor.Role),
		actor.Verified, actor.PhoneNumber, actor.Address, actor.CreatedAt, actor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert actor: %w", err)
	}
	// DO NOTHING swallows the conflict; callers racing on first auth need
	// to know their row was not the one inserted.
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, actor *models.Actor) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE actors
		SET email = $2, role = $3, verified = $4, phone_number = $5, address = $6, updated_at = $7
		WHERE id = $1`,
		actor.ID.String(), actor.Email, string(actor.Role), actor.Verified,
		actor.PhoneNumber, actor.Address, actor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update actor: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, actorID id.ActorID) (*models.Actor, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+actorColumns+" FROM actors WHERE id = $1", actorID.String())
	return scanActor(row)
}

func (s *Postgres) FindByExternalID(ctx context.Context, externalID string) (*models.Actor, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+actorColumns+" FROM actors WHERE external_id = $1", externalID)
	return scanActor(row)
}

func (s *Postgres) SetVerified(ctx context.Context, actorID id.ActorID, verified bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE actors SET verified = $2, updated_at = NOW() WHERE id = $1",
		actorID.String(), verified)
	if err != nil {
		return fmt.Errorf("set actor verified: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) List(ctx context.Context, filter models.ListFilter) ([]*models.Actor, error) {
	query := "SELECT " + actorColumns + " FROM actors"
	var conds []string
	var args []any
	if filter.Role != "" {
		args = append(args, string(filter.Role))
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}
	if filter.Verified != nil {
		args = append(args, *filter.Verified)
		conds = append(conds, fmt.Sprintf("verified = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(email ILIKE $%d OR phone_number ILIKE $%d OR address ILIKE $%d)", n, n, n))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	switch filter.Ordering {
	case "email":
		query += " ORDER BY email ASC"
	case "-email":
		query += " ORDER BY email DESC"
	case "created_at":
		query += " ORDER BY created_at ASC"
	default:
		query += " ORDER BY created_at DESC"
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	defer rows.Close()

	var out []*models.Actor
	for rows.Next() {
		actor, err := scanActor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, actor)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActor(row rowScanner) (*models.Actor, error) {
	var actor models.Actor
	var rawID, role string
	err := row.Scan(&rawID, &actor.ExternalID, &actor.Email, &role, &actor.Verified,
		&actor.PhoneNumber, &actor.Address, &actor.CreatedAt, &actor.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan actor: %w", err)
	}
	parsed, err := id.ParseActorID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan actor id: %w", err)
	}
	actor.ID = parsed
	actor.Role = models.Role(role)
	return &actor, nil
}
