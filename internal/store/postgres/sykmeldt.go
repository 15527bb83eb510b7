package postgres

import (
	"context"
	"fmt"

	"minesykmeldte/internal/models"
)

// UpsertSykmeldt writes the employee row. More recent sykmelding events
// carry more authoritative name/episode data, so conflicts take the new
// values.
func (s *Store) UpsertSykmeldt(ctx context.Context, sm models.Sykmeldt) error {
	query := `
		INSERT INTO sykmeldt (fnr, navn, startdato_sykefravaer, latest_tom)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (fnr) DO UPDATE
		SET navn = EXCLUDED.navn,
		    startdato_sykefravaer = EXCLUDED.startdato_sykefravaer,
		    latest_tom = EXCLUDED.latest_tom
	`
	if _, err := s.db.ExecContext(ctx, query, sm.Fnr, sm.Navn, sm.StartdatoSykefravaer.Time, sm.LatestTom.Time); err != nil {
		return fmt.Errorf("upsert sykmeldt: %w", err)
	}
	return nil
}
