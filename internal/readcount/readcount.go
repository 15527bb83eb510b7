// Package readcount computes unread counts for one (employee, org) pair and
// publishes them downstream, keyed by the relationship ID. It shares its
// classification rules with the manager view through internal/classify.
package readcount

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"minesykmeldte/pkg/platform/sentinel"

	"minesykmeldte/internal/classify"
	"minesykmeldte/internal/models"
	"minesykmeldte/internal/platform/kafka/producer"
	"minesykmeldte/internal/platform/metrics"
	"minesykmeldte/internal/store"
)

// Counts is the per-category unread tally for one employee under one
// relationship.
type Counts struct {
	Sykmeldinger      int `json:"sykmeldinger"`
	Soknader          int `json:"soknader"`
	Meldinger         int `json:"meldinger"`
	Dialogmoter       int `json:"dialogmoter"`
	Oppfolgingsplaner int `json:"oppfolgingsplaner"`
}

// Message is the payload published to the counts topic.
type Message struct {
	NarmestelederID uuid.UUID `json:"narmestelederId"`
	Fnr             string    `json:"fnr"`
	Orgnummer       string    `json:"orgnummer"`
	Unread          Counts    `json:"unread"`
}

// Service recomputes and publishes unread counts. It is invoked per
// (employee, org) pair after any event that can change the counts, not per
// manager roster.
type Service struct {
	narmesteledere store.NarmestelederStore
	roster         store.RosterStore
	publisher      producer.Publisher
	topic          string
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

func New(
	narmesteledere store.NarmestelederStore,
	roster store.RosterStore,
	publisher producer.Publisher,
	topic string,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		narmesteledere: narmesteledere,
		roster:         roster,
		publisher:      publisher,
		topic:          topic,
		metrics:        m,
		logger:         logger,
	}
}

// Recompute computes the counts for the (employee, org) pair and publishes
// them. A missing relationship or roster group is an expected race with
// relationship deletion: logged as a warning, no publication, no error.
func (s *Service) Recompute(ctx context.Context, fnr, orgnummer string) error {
	nl, err := s.narmesteledere.FindNarmesteleder(ctx, fnr, orgnummer)
	if errors.Is(err, sentinel.ErrNotFound) {
		s.logger.WarnContext(ctx, "no narmesteleder for unread counts", "orgnummer", orgnummer)
		return nil
	}
	if err != nil {
		return fmt.Errorf("find narmesteleder: %w", err)
	}

	rows, err := s.roster.MineSykmeldteRows(ctx, nl.LederFnr)
	if err != nil {
		return fmt.Errorf("load roster for unread counts: %w", err)
	}
	hendelser, err := s.roster.HendelserForLeder(ctx, nl.LederFnr)
	if err != nil {
		return fmt.Errorf("load hendelser for unread counts: %w", err)
	}

	group := make([]store.MineSykmeldteRow, 0, len(rows))
	for _, r := range rows {
		if r.NarmestelederID == nl.ID {
			group = append(group, r)
		}
	}
	if len(group) == 0 {
		s.logger.WarnContext(ctx, "no roster group for unread counts", "narmestelederId", nl.ID)
		return nil
	}

	employeeHendelser := make([]models.Hendelse, 0, len(hendelser))
	for _, h := range hendelser {
		if h.Fnr == fnr && h.Orgnummer == orgnummer {
			employeeHendelser = append(employeeHendelser, h)
		}
	}

	counts, err := computeCounts(group, employeeHendelser)
	if err != nil {
		return fmt.Errorf("compute unread counts for narmesteleder %s: %w", nl.ID, err)
	}

	msg := Message{NarmestelederID: nl.ID, Fnr: fnr, Orgnummer: orgnummer, Unread: counts}
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal unread counts: %w", err)
	}
	if err := s.publisher.Publish(ctx, s.topic, []byte(nl.ID.String()), value); err != nil {
		return fmt.Errorf("publish unread counts for narmesteleder %s: %w", nl.ID, err)
	}
	s.metrics.UnreadCountsPublished.Inc()
	return nil
}

func computeCounts(rows []store.MineSykmeldteRow, hendelser []models.Hendelse) (Counts, error) {
	var counts Counts

	seenSykmeldinger := make(map[string]struct{})
	soknader := make([]models.Soknad, 0, len(rows))
	seenSoknader := make(map[string]struct{})
	for _, r := range rows {
		if _, seen := seenSykmeldinger[r.Sykmelding.ID]; !seen {
			seenSykmeldinger[r.Sykmelding.ID] = struct{}{}
			if !r.Sykmelding.Lest {
				counts.Sykmeldinger++
			}
		}
		if r.Soknad == nil {
			continue
		}
		if _, seen := seenSoknader[r.Soknad.ID]; !seen {
			seenSoknader[r.Soknad.ID] = struct{}{}
			soknader = append(soknader, *r.Soknad)
		}
	}

	for _, soknad := range classify.LatestSoknader(soknader) {
		preview, err := classify.ClassifySoknad(soknad, hendelser)
		if err != nil {
			return Counts{}, err
		}
		if classify.IsUnreadSoknad(preview) {
			counts.Soknader++
		}
	}

	// The store already filters out completed and expired hendelser.
	for _, h := range hendelser {
		switch {
		case classify.IsDialogmote(h.Oppgavetype):
			counts.Dialogmoter++
		case classify.IsAktivitetskrav(h.Oppgavetype):
			counts.Meldinger++
		case classify.IsOppfolgingsplan(h.Oppgavetype):
			counts.Oppfolgingsplaner++
		}
	}

	return counts, nil
}
