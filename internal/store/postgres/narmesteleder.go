package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"minesykmeldte/internal/models"
	"minesykmeldte/pkg/platform/sentinel"
)

// UpsertNarmesteleder writes the relationship keyed by relationship ID. The upstream
// emits full state per event, so conflicting IDs take the latest content.
func (s *Store) UpsertNarmesteleder(ctx context.Context, nl models.Narmesteleder) error {
	query := `
		INSERT INTO narmesteleder (narmesteleder_id, orgnummer, fnr, leder_fnr)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (narmesteleder_id) DO UPDATE
		SET orgnummer = EXCLUDED.orgnummer,
		    fnr = EXCLUDED.fnr,
		    leder_fnr = EXCLUDED.leder_fnr
	`
	if _, err := s.db.ExecContext(ctx, query, nl.ID, nl.Orgnummer, nl.Fnr, nl.LederFnr); err != nil {
		return fmt.Errorf("upsert narmesteleder: %w", err)
	}
	return nil
}

func (s *Store) DeleteNarmesteleder(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM narmesteleder WHERE narmesteleder_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete narmesteleder: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete narmesteleder rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *Store) GetNarmesteleder(ctx context.Context, id uuid.UUID) (*models.Narmesteleder, error) {
	query := `
		SELECT narmesteleder_id, orgnummer, fnr, leder_fnr
		FROM narmesteleder
		WHERE narmesteleder_id = $1
	`
	var nl models.Narmesteleder
	err := s.db.QueryRowContext(ctx, query, id).
		Scan(&nl.ID, &nl.Orgnummer, &nl.Fnr, &nl.LederFnr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get narmesteleder: %w", err)
	}
	return &nl, nil
}

func (s *Store) FindNarmesteleder(ctx context.Context, fnr, orgnummer string) (*models.Narmesteleder, error) {
	query := `
		SELECT narmesteleder_id, orgnummer, fnr, leder_fnr
		FROM narmesteleder
		WHERE fnr = $1 AND orgnummer = $2
	`
	var nl models.Narmesteleder
	err := s.db.QueryRowContext(ctx, query, fnr, orgnummer).
		Scan(&nl.ID, &nl.Orgnummer, &nl.Fnr, &nl.LederFnr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find narmesteleder: %w", err)
	}
	return &nl, nil
}
