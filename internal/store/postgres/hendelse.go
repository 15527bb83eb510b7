package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"minesykmeldte/internal/models"
)

// CreateHendelse inserts idempotently on the (id, oppgavetype) composite
// key. Duplicate open events are conflict-do-nothing.
func (s *Store) CreateHendelse(ctx context.Context, h models.Hendelse) (bool, error) {
	query := `
		INSERT INTO hendelser (id, oppgavetype, fnr, orgnummer, lenke, tekst, timestamp, utlopstidspunkt, ferdigstilt, ferdigstilt_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, NULL)
		ON CONFLICT (id, oppgavetype) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		h.ID, string(h.Oppgavetype), h.Fnr, h.Orgnummer, h.Lenke, h.Tekst, h.Timestamp, h.Utlopstidspunkt,
	)
	if err != nil {
		return false, fmt.Errorf("insert hendelse: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert hendelse rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *Store) FerdigstillHendelse(ctx context.Context, id uuid.UUID, oppgavetype models.HendelseType, ts time.Time) (bool, error) {
	query := `
		UPDATE hendelser
		SET ferdigstilt = TRUE, ferdigstilt_timestamp = $3
		WHERE id = $1 AND oppgavetype = $2 AND ferdigstilt = FALSE
	`
	res, err := s.db.ExecContext(ctx, query, id, string(oppgavetype), ts)
	if err != nil {
		return false, fmt.Errorf("ferdigstill hendelse: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ferdigstill hendelse rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *Store) FerdigstillHendelseScoped(ctx context.Context, id uuid.UUID, lederFnr string, ts time.Time) (bool, error) {
	query := `
		UPDATE hendelser
		SET ferdigstilt = TRUE, ferdigstilt_timestamp = $3
		WHERE id = $1 AND ferdigstilt = FALSE
		  AND EXISTS (
			SELECT 1 FROM narmesteleder n
			WHERE n.leder_fnr = $2 AND n.fnr = hendelser.fnr AND n.orgnummer = hendelser.orgnummer
		  )
	`
	res, err := s.db.ExecContext(ctx, query, id, lederFnr, ts)
	if err != nil {
		return false, fmt.Errorf("ferdigstill hendelse scoped: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("ferdigstill hendelse scoped rows affected: %w", err)
	}
	return n > 0, nil
}
