// Package minesykmeldte assembles the manager-facing view: grouping roster
// rows per employee, deduplicating sykmeldinger, classifying søknader, and
// computing the recovered flag. Classification rules live in
// internal/classify and are shared with the unread-count aggregation.
package minesykmeldte

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	domainerrors "minesykmeldte/pkg/domain-errors"
	"minesykmeldte/pkg/platform/sentinel"

	"minesykmeldte/internal/classify"
	"minesykmeldte/internal/models"
	"minesykmeldte/internal/platform/kafka/producer"
	"minesykmeldte/internal/store"
)

// Service serves the manager view and the manager-initiated mutations.
type Service struct {
	narmesteledere store.NarmestelederStore
	roster         store.RosterStore
	sykmeldinger   store.SykmeldingStore
	soknader       store.SoknadStore
	hendelser      store.HendelseStore
	publisher      producer.Publisher
	nlRequestTopic string
	logger         *slog.Logger
	tracer         trace.Tracer

	now func() time.Time
}

func New(
	narmesteledere store.NarmestelederStore,
	roster store.RosterStore,
	sykmeldinger store.SykmeldingStore,
	soknader store.SoknadStore,
	hendelser store.HendelseStore,
	publisher producer.Publisher,
	nlRequestTopic string,
	logger *slog.Logger,
) *Service {
	return &Service{
		narmesteledere: narmesteledere,
		roster:         roster,
		sykmeldinger:   sykmeldinger,
		soknader:       soknader,
		hendelser:      hendelser,
		publisher:      publisher,
		nlRequestTopic: nlRequestTopic,
		logger:         logger,
		tracer:         otel.Tracer("minesykmeldte"),
		now:            time.Now,
	}
}

// groupKey is the per-employee grouping key. One employee can hold
// relationships in several orgs, so the key carries the relationship and
// org, not just the fnr.
type groupKey struct {
	narmestelederID uuid.UUID
	orgnummer       string
	fnr             string
}

// MineSykmeldte assembles the full manager view. The two roster queries are
// independent and run concurrently.
func (s *Service) MineSykmeldte(ctx context.Context, lederFnr string) ([]PreviewSykmeldt, error) {
	ctx, span := s.tracer.Start(ctx, "Service.MineSykmeldte")
	defer span.End()

	var (
		rows      []store.MineSykmeldteRow
		hendelser []models.Hendelse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = s.roster.MineSykmeldteRows(gctx, lederFnr)
		return err
	})
	g.Go(func() error {
		var err error
		hendelser, err = s.roster.HendelserForLeder(gctx, lederFnr)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load manager roster: %w", err)
	}

	hendelserByFnr := make(map[string][]models.Hendelse)
	for _, h := range hendelser {
		hendelserByFnr[h.Fnr] = append(hendelserByFnr[h.Fnr], h)
	}

	groups := make(map[groupKey][]store.MineSykmeldteRow)
	order := make([]groupKey, 0)
	for _, r := range rows {
		key := groupKey{narmestelederID: r.NarmestelederID, orgnummer: r.Orgnummer, fnr: r.Fnr}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}

	today := models.DateOf(s.now())
	out := make([]PreviewSykmeldt, 0, len(groups))
	for _, key := range order {
		sykmeldt, err := s.assembleGroup(key, groups[key], hendelserByFnr[key.fnr], today)
		if err != nil {
			return nil, err
		}
		out = append(out, sykmeldt)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Navn != out[j].Navn {
			return out[i].Navn < out[j].Navn
		}
		if out[i].Fnr != out[j].Fnr {
			return out[i].Fnr < out[j].Fnr
		}
		return out[i].Orgnummer < out[j].Orgnummer
	})
	return out, nil
}

func (s *Service) assembleGroup(key groupKey, rows []store.MineSykmeldteRow, hendelser []models.Hendelse, today models.Date) (PreviewSykmeldt, error) {
	var (
		latestTom    models.Date
		sykmeldinger []PreviewSykmelding
		soknader     []models.Soknad
		seenSyk      = make(map[string]struct{})
		seenSoknad   = make(map[string]struct{})
	)
	for _, r := range rows {
		if _, seen := seenSyk[r.Sykmelding.ID]; !seen {
			seenSyk[r.Sykmelding.ID] = struct{}{}
			perioder, err := classify.MapPerioder(r.Sykmelding.ID, r.Sykmelding.Payload.Perioder)
			if err != nil {
				return PreviewSykmeldt{}, err
			}
			sykmeldinger = append(sykmeldinger, PreviewSykmelding{
				ID:       r.Sykmelding.ID,
				Orgnavn:  r.Sykmelding.Orgnavn,
				Lest:     r.Sykmelding.Lest,
				Perioder: perioder,
			})
			if r.Sykmelding.LatestTom.After(latestTom.Time) {
				latestTom = r.Sykmelding.LatestTom
			}
		}
		if r.Soknad == nil {
			continue
		}
		if _, seen := seenSoknad[r.Soknad.ID]; !seen {
			seenSoknad[r.Soknad.ID] = struct{}{}
			soknader = append(soknader, *r.Soknad)
		}
	}

	previews := make([]classify.PreviewSoknad, 0, len(soknader))
	for _, soknad := range classify.LatestSoknader(soknader) {
		preview, err := classify.ClassifySoknad(soknad, hendelser)
		if err != nil {
			return PreviewSykmeldt{}, err
		}
		previews = append(previews, preview)
	}

	dialogmoter := make([]Dialogmote, 0)
	for _, h := range hendelser {
		if !classify.IsDialogmote(h.Oppgavetype) {
			continue
		}
		if h.Tekst == nil {
			return PreviewSykmeldt{}, domainerrors.Newf(domainerrors.CodeInvariantViolation, "dialogmøte hendelse %s has no tekst", h.ID)
		}
		dialogmoter = append(dialogmoter, Dialogmote{
			ID:        h.ID,
			Type:      h.Oppgavetype,
			Tekst:     *h.Tekst,
			Lenke:     h.Lenke,
			Timestamp: h.Timestamp,
		})
	}

	sort.Slice(sykmeldinger, func(i, j int) bool { return sykmeldinger[i].ID < sykmeldinger[j].ID })
	sort.Slice(previews, func(i, j int) bool { return previews[i].ID < previews[j].ID })
	sort.Slice(dialogmoter, func(i, j int) bool { return dialogmoter[i].Timestamp.Before(dialogmoter[j].Timestamp) })

	return PreviewSykmeldt{
		NarmestelederID:      key.narmestelederID,
		Orgnummer:            key.orgnummer,
		Fnr:                  key.fnr,
		Navn:                 rows[0].Navn,
		StartdatoSykefravaer: rows[0].StartdatoSykefravaer,
		Friskmeldt:           classify.Friskmeldt(today, latestTom),
		Sykmeldinger:         sykmeldinger,
		PreviewSoknader:      previews,
		Dialogmoter:          dialogmoter,
	}, nil
}

// Sykmelding returns one sykmelding when it is reachable through the
// manager's active relationships.
func (s *Service) Sykmelding(ctx context.Context, sykmeldingID, lederFnr string) (*SykmeldingView, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Sykmelding")
	defer span.End()

	row, err := s.sykmeldinger.FindSykmeldingScoped(ctx, sykmeldingID, lederFnr)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, domainerrors.New(domainerrors.CodeNotFound, "sykmelding not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find sykmelding: %w", err)
	}

	perioder, err := classify.MapPerioder(row.ID, row.Payload.Perioder)
	if err != nil {
		return nil, err
	}
	return &SykmeldingView{
		ID:        row.ID,
		Fnr:       row.Fnr,
		Orgnummer: row.Orgnummer,
		Orgnavn:   row.Orgnavn,
		Lest:      row.Lest,
		Perioder:  perioder,
	}, nil
}

// Soknad returns one søknad when it is reachable through the manager's
// active relationships.
func (s *Service) Soknad(ctx context.Context, soknadID, lederFnr string) (*SoknadView, error) {
	ctx, span := s.tracer.Start(ctx, "Service.Soknad")
	defer span.End()

	row, err := s.soknader.FindSoknadScoped(ctx, soknadID, lederFnr)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, domainerrors.New(domainerrors.CodeNotFound, "søknad not found")
	}
	if err != nil {
		return nil, fmt.Errorf("find søknad: %w", err)
	}

	return &SoknadView{
		ID:           row.ID,
		SykmeldingID: row.SykmeldingID,
		Fnr:          row.Fnr,
		Orgnummer:    row.Orgnummer,
		Status:       row.Payload.Status,
		Fom:          row.Payload.Fom,
		Tom:          row.Payload.Tom,
		SendtDato:    row.SendtDato,
		Lest:         row.Lest,
		Sporsmal:     row.Payload.Sporsmal,
	}, nil
}

// MarkSykmeldingRead marks the sykmelding read. Not-found covers both a
// missing row and a row outside the manager's scope, so nothing leaks about
// rows the manager cannot see.
func (s *Service) MarkSykmeldingRead(ctx context.Context, sykmeldingID, lederFnr string) error {
	ok, err := s.sykmeldinger.MarkSykmeldingRead(ctx, sykmeldingID, lederFnr)
	if err != nil {
		return fmt.Errorf("mark sykmelding read: %w", err)
	}
	if !ok {
		return domainerrors.New(domainerrors.CodeNotFound, "sykmelding not found")
	}
	return nil
}

// MarkSoknadRead marks the søknad read, scoped like MarkSykmeldingRead.
func (s *Service) MarkSoknadRead(ctx context.Context, soknadID, lederFnr string) error {
	ok, err := s.soknader.MarkSoknadRead(ctx, soknadID, lederFnr)
	if err != nil {
		return fmt.Errorf("mark søknad read: %w", err)
	}
	if !ok {
		return domainerrors.New(domainerrors.CodeNotFound, "søknad not found")
	}
	return nil
}

// MarkHendelseRead completes every open hendelse with the given ID inside
// the manager's scope.
func (s *Service) MarkHendelseRead(ctx context.Context, hendelseID uuid.UUID, lederFnr string) error {
	ok, err := s.hendelser.FerdigstillHendelseScoped(ctx, hendelseID, lederFnr, s.now())
	if err != nil {
		return fmt.Errorf("mark hendelse read: %w", err)
	}
	if !ok {
		return domainerrors.New(domainerrors.CodeNotFound, "hendelse not found")
	}
	return nil
}

// nlAvkreftMessage asks the relationship source system to end a
// relationship the manager has disowned.
type nlAvkreftMessage struct {
	NarmestelederID uuid.UUID `json:"narmestelederId"`
	Fnr             string    `json:"fnr"`
	Orgnummer       string    `json:"orgnummer"`
	LederFnr        string    `json:"lederFnr"`
	Timestamp       time.Time `json:"timestamp"`
}

// AvkreftNarmesteleder publishes a termination request for one of the
// manager's own relationships. The row itself is removed later by the
// relationship topic round-trip, not here.
func (s *Service) AvkreftNarmesteleder(ctx context.Context, narmestelederID uuid.UUID, lederFnr string) error {
	nl, err := s.narmesteledere.GetNarmesteleder(ctx, narmestelederID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return domainerrors.New(domainerrors.CodeNotFound, "narmesteleder not found")
	}
	if err != nil {
		return fmt.Errorf("get narmesteleder: %w", err)
	}
	if nl.LederFnr != lederFnr {
		return domainerrors.New(domainerrors.CodeNotFound, "narmesteleder not found")
	}

	msg := nlAvkreftMessage{
		NarmestelederID: nl.ID,
		Fnr:             nl.Fnr,
		Orgnummer:       nl.Orgnummer,
		LederFnr:        nl.LederFnr,
		Timestamp:       s.now(),
	}
	value, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal avkreft message: %w", err)
	}
	if err := s.publisher.Publish(ctx, s.nlRequestTopic, []byte(nl.ID.String()), value); err != nil {
		return fmt.Errorf("publish avkreft for narmesteleder %s: %w", nl.ID, err)
	}
	s.logger.InfoContext(ctx, "published narmesteleder avkreft", "narmestelederId", nl.ID)
	return nil
}
