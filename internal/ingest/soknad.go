package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	domainerrors "minesykmeldte/pkg/domain-errors"

	"minesykmeldte/internal/models"
	"minesykmeldte/internal/platform/kafka/consumer"
	"minesykmeldte/internal/store"
)

// sensitiveSporsmalTags names the question subtrees stripped before a
// søknad payload becomes employer-visible.
var sensitiveSporsmalTags = map[string]struct{}{
	"ANDRE_INNTEKTSKILDER": {},
	"ARBEID_UTENFOR_NORGE": {},
}

// SoknadHandler folds søknad events. Only søknader that were sent to the
// employer and end inside the retention window are persisted; everything
// else on the topic is ignored.
type SoknadHandler struct {
	soknader  store.SoknadStore
	recompute Recomputer
	logger    *slog.Logger

	now func() time.Time
}

func NewSoknadHandler(soknader store.SoknadStore, recompute Recomputer, logger *slog.Logger) *SoknadHandler {
	return &SoknadHandler{soknader: soknader, recompute: recompute, logger: logger, now: time.Now}
}

func (h *SoknadHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	if msg.Value == nil {
		h.logger.InfoContext(ctx, "ignoring søknad tombstone", "key", string(msg.Key))
		return nil
	}

	var dto models.SoknadDTO
	if err := json.Unmarshal(msg.Value, &dto); err != nil {
		h.logger.ErrorContext(ctx, "malformed søknad message", "key", string(msg.Key), "error", err)
		return fmt.Errorf("unmarshal søknad message %q: %w", string(msg.Key), err)
	}

	if dto.Status != models.SoknadStatusSendt || dto.SendtArbeidsgiver == nil {
		return nil
	}
	if dto.Tom == nil {
		h.logger.ErrorContext(ctx, "sent søknad without tom", "soknadId", dto.ID)
		return domainerrors.Newf(domainerrors.CodeInvariantViolation, "sent søknad %s has no tom", dto.ID)
	}
	if outsideRetention(*dto.Tom, h.now()) {
		return nil
	}
	if dto.Arbeidsgiver == nil {
		h.logger.ErrorContext(ctx, "sent søknad without arbeidsgiver", "soknadId", dto.ID)
		return domainerrors.Newf(domainerrors.CodeInvariantViolation, "sent søknad %s has no arbeidsgiver", dto.ID)
	}

	dto.Sporsmal = stripSensitiveSporsmal(dto.Sporsmal)

	row := models.Soknad{
		ID:           dto.ID,
		SykmeldingID: dto.SykmeldingID,
		Fnr:          dto.Fnr,
		Orgnummer:    dto.Arbeidsgiver.Orgnummer,
		Payload:      dto,
		SendtDato:    models.DateOf(*dto.SendtArbeidsgiver),
		Timestamp:    h.now(),
	}
	if err := h.soknader.UpsertSoknad(ctx, row); err != nil {
		return fmt.Errorf("upsert søknad %s: %w", dto.ID, err)
	}

	if err := h.recompute.Recompute(ctx, dto.Fnr, row.Orgnummer); err != nil {
		return fmt.Errorf("recompute unread counts after søknad %s: %w", dto.ID, err)
	}
	return nil
}

// stripSensitiveSporsmal removes tagged question subtrees recursively. The
// filter runs on every level so a sensitive tag nested under a kept question
// is stripped too.
func stripSensitiveSporsmal(sporsmal []models.Sporsmal) []models.Sporsmal {
	if sporsmal == nil {
		return nil
	}
	kept := make([]models.Sporsmal, 0, len(sporsmal))
	for _, sp := range sporsmal {
		if _, sensitive := sensitiveSporsmalTags[sp.Tag]; sensitive {
			continue
		}
		sp.Undersporsmal = stripSensitiveSporsmal(sp.Undersporsmal)
		kept = append(kept, sp)
	}
	return kept
}
