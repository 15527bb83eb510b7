package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	domainerrors "minesykmeldte/pkg/domain-errors"

	"minesykmeldte/internal/models"
	"minesykmeldte/internal/platform/kafka/consumer"
	"minesykmeldte/internal/platform/metrics"
	"minesykmeldte/internal/store"
)

// HendelseHandler folds notification lifecycle events. Open events insert
// idempotently; close events complete an open row, except for the two
// mark-read types which instead flip lest on the referenced sykmelding or
// søknad row.
type HendelseHandler struct {
	hendelser    store.HendelseStore
	sykmeldinger store.SykmeldingStore
	soknader     store.SoknadStore
	recompute    Recomputer
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

func NewHendelseHandler(
	hendelser store.HendelseStore,
	sykmeldinger store.SykmeldingStore,
	soknader store.SoknadStore,
	recompute Recomputer,
	m *metrics.Metrics,
	logger *slog.Logger,
) *HendelseHandler {
	return &HendelseHandler{
		hendelser:    hendelser,
		sykmeldinger: sykmeldinger,
		soknader:     soknader,
		recompute:    recompute,
		metrics:      m,
		logger:       logger,
	}
}

func (h *HendelseHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	var m models.HendelseMessage
	if err := json.Unmarshal(msg.Value, &m); err != nil {
		h.logger.ErrorContext(ctx, "malformed hendelse message", "key", string(msg.Key), "error", err)
		return fmt.Errorf("unmarshal hendelse message %q: %w", string(msg.Key), err)
	}

	switch {
	case m.OpprettHendelse != nil:
		return h.open(ctx, m)
	case m.FerdigstillHendelse != nil:
		return h.close(ctx, m)
	default:
		h.logger.ErrorContext(ctx, "hendelse with neither opprett nor ferdigstill", "id", m.ID, "oppgavetype", m.Oppgavetype)
		return domainerrors.Newf(domainerrors.CodeInvariantViolation, "hendelse %s has neither opprett nor ferdigstill", m.ID)
	}
}

func (h *HendelseHandler) open(ctx context.Context, m models.HendelseMessage) error {
	opprett := m.OpprettHendelse
	row := models.Hendelse{
		ID:              m.ID,
		Oppgavetype:     models.ParseHendelseType(m.Oppgavetype),
		Fnr:             opprett.AnsattFnr,
		Orgnummer:       opprett.Orgnummer,
		Lenke:           opprett.Lenke,
		Tekst:           opprett.Tekst,
		Timestamp:       opprett.Timestamp,
		Utlopstidspunkt: opprett.Utlopstidspunkt,
	}
	created, err := h.hendelser.CreateHendelse(ctx, row)
	if err != nil {
		return fmt.Errorf("create hendelse %s/%s: %w", m.ID, row.Oppgavetype, err)
	}
	if !created {
		h.logger.InfoContext(ctx, "hendelse already exists", "id", m.ID, "oppgavetype", row.Oppgavetype)
		return nil
	}
	h.metrics.HendelserOpened.Inc()

	if err := h.recompute.Recompute(ctx, opprett.AnsattFnr, opprett.Orgnummer); err != nil {
		return fmt.Errorf("recompute unread counts after hendelse %s: %w", m.ID, err)
	}
	return nil
}

func (h *HendelseHandler) close(ctx context.Context, m models.HendelseMessage) error {
	oppgavetype := models.ParseHendelseType(m.Oppgavetype)

	switch oppgavetype {
	case models.HendelseTypeLestSykmelding:
		ok, err := h.sykmeldinger.SetSykmeldingLest(ctx, m.ID.String())
		if err != nil {
			return fmt.Errorf("mark sykmelding %s read: %w", m.ID, err)
		}
		if !ok {
			h.logger.InfoContext(ctx, "lest-hendelse for unknown sykmelding", "id", m.ID)
		}
		return nil
	case models.HendelseTypeLestSoknad:
		ok, err := h.soknader.SetSoknadLest(ctx, m.ID.String())
		if err != nil {
			return fmt.Errorf("mark søknad %s read: %w", m.ID, err)
		}
		if !ok {
			h.logger.InfoContext(ctx, "lest-hendelse for unknown søknad", "id", m.ID)
		}
		return nil
	}

	ok, err := h.hendelser.FerdigstillHendelse(ctx, m.ID, oppgavetype, m.FerdigstillHendelse.Timestamp)
	if err != nil {
		return fmt.Errorf("ferdigstill hendelse %s/%s: %w", m.ID, oppgavetype, err)
	}
	if !ok {
		h.logger.InfoContext(ctx, "no open hendelse to ferdigstill", "id", m.ID, "oppgavetype", oppgavetype)
		return nil
	}
	h.metrics.HendelserFerdigstilt.Inc()
	return nil
}
