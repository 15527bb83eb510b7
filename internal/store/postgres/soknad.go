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

func (s *Store) UpsertSoknad(ctx context.Context, so models.Soknad) error {
	payload, err := json.Marshal(so.Payload)
	if err != nil {
		return fmt.Errorf("marshal soknad payload: %w", err)
	}
	query := `
		INSERT INTO soknad (soknad_id, sykmelding_id, fnr, orgnummer, soknad, sendt_dato, lest, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (soknad_id) DO UPDATE
		SET sykmelding_id = EXCLUDED.sykmelding_id,
		    fnr = EXCLUDED.fnr,
		    orgnummer = EXCLUDED.orgnummer,
		    soknad = EXCLUDED.soknad,
		    sendt_dato = EXCLUDED.sendt_dato,
		    timestamp = EXCLUDED.timestamp
	`
	if _, err := s.db.ExecContext(ctx, query,
		so.ID, so.SykmeldingID, so.Fnr, so.Orgnummer, payload, so.SendtDato.Time, so.Lest, so.Timestamp,
	); err != nil {
		return fmt.Errorf("upsert soknad: %w", err)
	}
	return nil
}

func (s *Store) SetSoknadLest(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE soknad SET lest = TRUE WHERE soknad_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("set soknad lest: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set soknad lest rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *Store) MarkSoknadRead(ctx context.Context, id, lederFnr string) (bool, error) {
	query := `
		UPDATE soknad SET lest = TRUE
		WHERE soknad_id = $1
		  AND EXISTS (
			SELECT 1 FROM narmesteleder n
			WHERE n.leder_fnr = $2 AND n.fnr = soknad.fnr AND n.orgnummer = soknad.orgnummer
		  )
	`
	res, err := s.db.ExecContext(ctx, query, id, lederFnr)
	if err != nil {
		return false, fmt.Errorf("mark soknad read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark soknad read rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *Store) FindSoknadScoped(ctx context.Context, id, lederFnr string) (*models.Soknad, error) {
	query := `
		SELECT so.soknad_id, so.sykmelding_id, so.fnr, so.orgnummer, so.soknad, so.sendt_dato, so.lest, so.timestamp
		FROM soknad so
		JOIN narmesteleder n ON n.fnr = so.fnr AND n.orgnummer = so.orgnummer
		WHERE so.soknad_id = $1 AND n.leder_fnr = $2
	`
	row := s.db.QueryRowContext(ctx, query, id, lederFnr)
	so, err := scanSoknad(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find soknad: %w", err)
	}
	return so, nil
}

func scanSoknad(row rowScanner) (*models.Soknad, error) {
	var (
		so        models.Soknad
		payload   []byte
		sendtDato sql.NullTime
	)
	if err := row.Scan(&so.ID, &so.SykmeldingID, &so.Fnr, &so.Orgnummer, &payload, &sendtDato, &so.Lest, &so.Timestamp); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &so.Payload); err != nil {
		return nil, fmt.Errorf("unmarshal soknad payload: %w", err)
	}
	if sendtDato.Valid {
		so.SendtDato = models.DateOf(sendtDato.Time)
	}
	return &so, nil
}
