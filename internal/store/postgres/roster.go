package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"minesykmeldte/internal/models"
	"minesykmeldte/internal/store"
)

// MineSykmeldteRows runs the manager-roster join. The inner join on
// sykmelding is what guarantees every group has at least one sykmelding;
// søknader attach by (sykmelding_id, fnr) when present.
func (s *Store) MineSykmeldteRows(ctx context.Context, lederFnr string) ([]store.MineSykmeldteRow, error) {
	query := `
		SELECT n.narmesteleder_id, n.orgnummer, n.fnr,
		       sm.navn, sm.startdato_sykefravaer,
		       s.sykmelding_id, s.fnr, s.orgnummer, s.orgnavn, s.sykmelding, s.lest, s.timestamp, s.latest_tom,
		       so.soknad_id, so.sykmelding_id, so.fnr, so.orgnummer, so.soknad, so.sendt_dato, so.lest, so.timestamp
		FROM narmesteleder n
		JOIN sykmelding s ON s.fnr = n.fnr AND s.orgnummer = n.orgnummer
		JOIN sykmeldt sm ON sm.fnr = n.fnr
		LEFT JOIN soknad so ON so.sykmelding_id = s.sykmelding_id AND so.fnr = s.fnr
		WHERE n.leder_fnr = $1
	`
	rows, err := s.db.QueryContext(ctx, query, lederFnr)
	if err != nil {
		return nil, fmt.Errorf("query mine sykmeldte: %w", err)
	}
	defer rows.Close()

	var out []store.MineSykmeldteRow
	for rows.Next() {
		var (
			r          store.MineSykmeldteRow
			startdato  time.Time
			smPayload  []byte
			smTom      time.Time
			soID       sql.NullString
			soSykID    sql.NullString
			soFnr      sql.NullString
			soOrg      sql.NullString
			soPayload  []byte
			soSendt    sql.NullTime
			soLest     sql.NullBool
			soTime     sql.NullTime
		)
		err := rows.Scan(
			&r.NarmestelederID, &r.Orgnummer, &r.Fnr,
			&r.Navn, &startdato,
			&r.Sykmelding.ID, &r.Sykmelding.Fnr, &r.Sykmelding.Orgnummer, &r.Sykmelding.Orgnavn,
			&smPayload, &r.Sykmelding.Lest, &r.Sykmelding.Timestamp, &smTom,
			&soID, &soSykID, &soFnr, &soOrg, &soPayload, &soSendt, &soLest, &soTime,
		)
		if err != nil {
			return nil, fmt.Errorf("scan mine sykmeldte row: %w", err)
		}
		r.StartdatoSykefravaer = models.DateOf(startdato)
		r.Sykmelding.LatestTom = models.DateOf(smTom)
		if err := json.Unmarshal(smPayload, &r.Sykmelding.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal sykmelding payload for %s: %w", r.Sykmelding.ID, err)
		}
		if soID.Valid {
			so := models.Soknad{
				ID:           soID.String,
				SykmeldingID: soSykID.String,
				Fnr:          soFnr.String,
				Orgnummer:    soOrg.String,
				Lest:         soLest.Bool,
				Timestamp:    soTime.Time,
			}
			if soSendt.Valid {
				so.SendtDato = models.DateOf(soSendt.Time)
			}
			if err := json.Unmarshal(soPayload, &so.Payload); err != nil {
				return nil, fmt.Errorf("unmarshal soknad payload for %s: %w", so.ID, err)
			}
			r.Soknad = &so
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mine sykmeldte rows: %w", err)
	}
	return out, nil
}

// HendelserForLeder returns open, unexpired hendelser reachable through the
// manager's active relationships.
func (s *Store) HendelserForLeder(ctx context.Context, lederFnr string) ([]models.Hendelse, error) {
	query := `
		SELECT h.id, h.oppgavetype, h.fnr, h.orgnummer, h.lenke, h.tekst, h.timestamp, h.utlopstidspunkt, h.ferdigstilt, h.ferdigstilt_timestamp
		FROM hendelser h
		JOIN narmesteleder n ON n.fnr = h.fnr AND n.orgnummer = h.orgnummer
		WHERE n.leder_fnr = $1
		  AND h.ferdigstilt = FALSE
		  AND (h.utlopstidspunkt IS NULL OR h.utlopstidspunkt > NOW())
	`
	rows, err := s.db.QueryContext(ctx, query, lederFnr)
	if err != nil {
		return nil, fmt.Errorf("query hendelser: %w", err)
	}
	defer rows.Close()

	var out []models.Hendelse
	for rows.Next() {
		var (
			h           models.Hendelse
			oppgavetype string
		)
		err := rows.Scan(&h.ID, &oppgavetype, &h.Fnr, &h.Orgnummer, &h.Lenke, &h.Tekst, &h.Timestamp, &h.Utlopstidspunkt, &h.Ferdigstilt, &h.FerdigstiltTimestamp)
		if err != nil {
			return nil, fmt.Errorf("scan hendelse row: %w", err)
		}
		h.Oppgavetype = models.HendelseType(oppgavetype)
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hendelse rows: %w", err)
	}
	return out, nil
}
