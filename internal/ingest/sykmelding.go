package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"minesykmeldte/internal/classify"
	"minesykmeldte/internal/models"
	"minesykmeldte/internal/person"
	"minesykmeldte/internal/platform/kafka/consumer"
	"minesykmeldte/internal/store"
)

// SykmeldingHandler folds "sykmelding sent to employer" events. The Kafka
// record key is the sykmelding ID; a nil value is a tombstone and deletes
// the row.
type SykmeldingHandler struct {
	sykmeldinger store.SykmeldingStore
	sykmeldte    store.SykmeldtStore
	persons      person.Resolver
	recompute    Recomputer
	logger       *slog.Logger

	// skipUnknownPerson enables the non-production policy of skipping and
	// logging events for persons the registry does not know.
	skipUnknownPerson bool

	now func() time.Time
}

func NewSykmeldingHandler(
	sykmeldinger store.SykmeldingStore,
	sykmeldte store.SykmeldtStore,
	persons person.Resolver,
	recompute Recomputer,
	logger *slog.Logger,
	skipUnknownPerson bool,
) *SykmeldingHandler {
	return &SykmeldingHandler{
		sykmeldinger:      sykmeldinger,
		sykmeldte:         sykmeldte,
		persons:           persons,
		recompute:         recompute,
		logger:            logger,
		skipUnknownPerson: skipUnknownPerson,
		now:               time.Now,
	}
}

func (h *SykmeldingHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	sykmeldingID := string(msg.Key)

	if msg.Value == nil {
		deleted, err := h.sykmeldinger.DeleteSykmelding(ctx, sykmeldingID)
		if err != nil {
			return fmt.Errorf("delete sykmelding %s: %w", sykmeldingID, err)
		}
		if !deleted {
			h.logger.InfoContext(ctx, "tombstone for unknown sykmelding", "sykmeldingId", sykmeldingID)
		}
		return nil
	}

	var m models.SendtSykmeldingMessage
	if err := json.Unmarshal(msg.Value, &m); err != nil {
		h.logger.ErrorContext(ctx, "malformed sykmelding message", "sykmeldingId", sykmeldingID, "error", err)
		return fmt.Errorf("unmarshal sykmelding message %s: %w", sykmeldingID, err)
	}

	latestTom, err := classify.MaxTom(m.Sykmelding.Perioder)
	if err != nil {
		h.logger.ErrorContext(ctx, "sykmelding without periods", "sykmeldingId", sykmeldingID)
		return fmt.Errorf("sykmelding %s: %w", sykmeldingID, err)
	}

	now := h.now()
	if outsideRetention(latestTom, now) {
		return nil
	}

	fnr := m.KafkaMetadata.Fnr
	p, err := h.persons.Resolve(ctx, fnr)
	if err != nil {
		if errors.Is(err, person.ErrNotFound) && h.skipUnknownPerson {
			h.logger.WarnContext(ctx, "skipping sykmelding for unknown person", "sykmeldingId", sykmeldingID)
			return nil
		}
		return fmt.Errorf("resolve person for sykmelding %s: %w", sykmeldingID, err)
	}

	sykmeldt := models.Sykmeldt{
		Fnr:                  fnr,
		Navn:                 p.Navn,
		StartdatoSykefravaer: p.StartdatoSykefravaer,
		LatestTom:            latestTom,
	}
	if err := h.sykmeldte.UpsertSykmeldt(ctx, sykmeldt); err != nil {
		return fmt.Errorf("upsert sykmeldt for sykmelding %s: %w", sykmeldingID, err)
	}

	orgnummer := m.Event.Arbeidsgiver.Orgnummer
	row := models.Sykmelding{
		ID:        sykmeldingID,
		Fnr:       fnr,
		Orgnummer: orgnummer,
		Orgnavn:   m.Event.Arbeidsgiver.Navn,
		Payload:   m.Sykmelding,
		Timestamp: now,
		LatestTom: latestTom,
	}
	if err := h.sykmeldinger.UpsertSykmelding(ctx, row); err != nil {
		return fmt.Errorf("upsert sykmelding %s: %w", sykmeldingID, err)
	}

	if err := h.recompute.Recompute(ctx, fnr, orgnummer); err != nil {
		return fmt.Errorf("recompute unread counts after sykmelding %s: %w", sykmeldingID, err)
	}
	return nil
}

// outsideRetention reports whether the latest period end predates the
// retention window.
func outsideRetention(latestTom models.Date, now time.Time) bool {
	cutoff := models.DateOf(now.AddDate(0, -retentionMonths, 0))
	return latestTom.Before(cutoff.Time)
}
