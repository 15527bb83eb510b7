package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"minesykmeldte/internal/models"
	"minesykmeldte/internal/platform/kafka/consumer"
	"minesykmeldte/internal/store"
)

// NarmestelederHandler folds relationship events. An event without an
// active-to date establishes the relationship; one with an active-to date
// ends it.
type NarmestelederHandler struct {
	store  store.NarmestelederStore
	logger *slog.Logger
}

func NewNarmestelederHandler(s store.NarmestelederStore, logger *slog.Logger) *NarmestelederHandler {
	return &NarmestelederHandler{store: s, logger: logger}
}

func (h *NarmestelederHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	var m models.NarmestelederMessage
	if err := json.Unmarshal(msg.Value, &m); err != nil {
		h.logger.ErrorContext(ctx, "malformed narmesteleder message", "key", string(msg.Key), "error", err)
		return fmt.Errorf("unmarshal narmesteleder message %q: %w", string(msg.Key), err)
	}

	if m.AktivTom != nil {
		deleted, err := h.store.DeleteNarmesteleder(ctx, m.NarmestelederID)
		if err != nil {
			return fmt.Errorf("delete narmesteleder %s: %w", m.NarmestelederID, err)
		}
		if !deleted {
			h.logger.InfoContext(ctx, "narmesteleder already gone", "narmestelederId", m.NarmestelederID)
		}
		return nil
	}

	nl := models.Narmesteleder{
		ID:        m.NarmestelederID,
		Orgnummer: m.Orgnummer,
		Fnr:       m.Fnr,
		LederFnr:  m.NarmesteLederFnr,
	}
	if err := h.store.UpsertNarmesteleder(ctx, nl); err != nil {
		return fmt.Errorf("upsert narmesteleder %s: %w", m.NarmestelederID, err)
	}
	return nil
}
