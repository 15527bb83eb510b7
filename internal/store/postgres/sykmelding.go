package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"minesykmeldte/internal/models"
	"minesykmeldte/pkg/platform/sentinel"
)

// UpsertSykmelding writes the sykmelding row. Corrections arrive under the
// same ID and supersede in place with a fresh timestamp; the conflict update
// leaves lest untouched so a correction does not un-read the row.
func (s *Store) UpsertSykmelding(ctx context.Context, sm models.Sykmelding) error {
	payload, err := json.Marshal(sm.Payload)
	if err != nil {
		return fmt.Errorf("marshal sykmelding payload: %w", err)
	}
	query := `
		INSERT INTO sykmelding (sykmelding_id, fnr, orgnummer, orgnavn, sykmelding, lest, timestamp, latest_tom)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (sykmelding_id) DO UPDATE
		SET fnr = EXCLUDED.fnr,
		    orgnummer = EXCLUDED.orgnummer,
		    orgnavn = EXCLUDED.orgnavn,
		    sykmelding = EXCLUDED.sykmelding,
		    timestamp = EXCLUDED.timestamp,
		    latest_tom = EXCLUDED.latest_tom
	`
	if _, err := s.db.ExecContext(ctx, query,
		sm.ID, sm.Fnr, sm.Orgnummer, sm.Orgnavn, payload, sm.Lest, sm.Timestamp, sm.LatestTom.Time,
	); err != nil {
		return fmt.Errorf("upsert sykmelding: %w", err)
	}
	return nil
}

func (s *Store) DeleteSykmelding(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sykmelding WHERE sykmelding_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete sykmelding: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete sykmelding rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *Store) SetSykmeldingLest(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE sykmelding SET lest = TRUE WHERE sykmelding_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("set sykmelding lest: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set sykmelding lest rows affected: %w", err)
	}
	return n > 0, nil
}

// MarkSykmeldingRead scopes the update through the manager's active
// relationships in one statement so the not-reachable result is race-free.
func (s *Store) MarkSykmeldingRead(ctx context.Context, id, lederFnr string) (bool, error) {
	query := `
		UPDATE sykmelding SET lest = TRUE
		WHERE sykmelding_id = $1
		  AND EXISTS (
			SELECT 1 FROM narmesteleder n
			WHERE n.leder_fnr = $2 AND n.fnr = sykmelding.fnr AND n.orgnummer = sykmelding.orgnummer
		  )
	`
	res, err := s.db.ExecContext(ctx, query, id, lederFnr)
	if err != nil {
		return false, fmt.Errorf("mark sykmelding read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark sykmelding read rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *Store) FindSykmeldingScoped(ctx context.Context, id, lederFnr string) (*models.Sykmelding, error) {
	query := `
		SELECT s.sykmelding_id, s.fnr, s.orgnummer, s.orgnavn, s.sykmelding, s.lest, s.timestamp, s.latest_tom
		FROM sykmelding s
		JOIN narmesteleder n ON n.fnr = s.fnr AND n.orgnummer = s.orgnummer
		WHERE s.sykmelding_id = $1 AND n.leder_fnr = $2
	`
	row := s.db.QueryRowContext(ctx, query, id, lederFnr)
	sm, err := scanSykmelding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find sykmelding: %w", err)
	}
	return sm, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSykmelding(row rowScanner) (*models.Sykmelding, error) {
	var (
		sm        models.Sykmelding
		payload   []byte
		latestTom sql.NullTime
	)
	if err := row.Scan(&sm.ID, &sm.Fnr, &sm.Orgnummer, &sm.Orgnavn, &payload, &sm.Lest, &sm.Timestamp, &latestTom); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &sm.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal sykmelding payload: %w", err)
	}
	if latestTom.Valid {
		sm.LatestTom = models.DateOf(latestTom.Time)
	}
	return &sm, nil
}
