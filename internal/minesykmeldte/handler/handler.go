// Package handler exposes the manager API over chi.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	domainerrors "minesykmeldte/pkg/domain-errors"
	"minesykmeldte/pkg/requestcontext"

	"minesykmeldte/internal/minesykmeldte"
	"minesykmeldte/internal/platform/metrics"
	"minesykmeldte/internal/platform/middleware"
	"minesykmeldte/internal/transport/http/shared"
)

// Service is the view/mutation surface the handler translates HTTP onto.
type Service interface {
	MineSykmeldte(ctx context.Context, lederFnr string) ([]minesykmeldte.PreviewSykmeldt, error)
	Sykmelding(ctx context.Context, sykmeldingID, lederFnr string) (*minesykmeldte.SykmeldingView, error)
	Soknad(ctx context.Context, soknadID, lederFnr string) (*minesykmeldte.SoknadView, error)
	MarkSykmeldingRead(ctx context.Context, sykmeldingID, lederFnr string) error
	MarkSoknadRead(ctx context.Context, soknadID, lederFnr string) error
	MarkHendelseRead(ctx context.Context, hendelseID uuid.UUID, lederFnr string) error
	AvkreftNarmesteleder(ctx context.Context, narmestelederID uuid.UUID, lederFnr string) error
}

// Handler serves the manager API.
type Handler struct {
	service      Service
	logger       *slog.Logger
	metrics      *metrics.Metrics
	jwtValidator middleware.JWTValidator
}

func New(service Service, logger *slog.Logger, m *metrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		service:      service,
		logger:       logger,
		metrics:      m,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the manager API routes with the standard middleware chain.
func (h *Handler) Register(r chi.Router) {
	api := chi.NewRouter()
	api.Use(middleware.Recovery(h.logger))
	api.Use(middleware.RequestID)
	api.Use(middleware.Logger(h.logger))
	api.Use(middleware.Timeout(30 * time.Second))
	api.Use(middleware.ContentTypeJSON)
	api.Use(middleware.Latency(h.metrics))
	api.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	api.Get("/minesykmeldte", h.handleMineSykmeldte)
	api.Get("/sykmelding/{sykmeldingId}", h.handleGetSykmelding)
	api.Get("/soknad/{soknadId}", h.handleGetSoknad)
	api.Put("/sykmelding/{sykmeldingId}/lest", h.handleMarkSykmeldingRead)
	api.Put("/soknad/{soknadId}/lest", h.handleMarkSoknadRead)
	api.Put("/hendelse/{hendelseId}/lest", h.handleMarkHendelseRead)
	api.Post("/narmesteleder/{narmestelederId}/avkreft", h.handleAvkreftNarmesteleder)

	r.Mount("/api", api)
}

func (h *Handler) handleMineSykmeldte(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lederFnr := requestcontext.LederFnr(ctx)

	view, err := h.service.MineSykmeldte(ctx, lederFnr)
	if err != nil {
		h.writeServiceError(w, r, "assemble manager view", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleGetSykmelding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lederFnr := requestcontext.LederFnr(ctx)

	view, err := h.service.Sykmelding(ctx, chi.URLParam(r, "sykmeldingId"), lederFnr)
	if err != nil {
		h.writeServiceError(w, r, "get sykmelding", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleGetSoknad(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lederFnr := requestcontext.LederFnr(ctx)

	view, err := h.service.Soknad(ctx, chi.URLParam(r, "soknadId"), lederFnr)
	if err != nil {
		h.writeServiceError(w, r, "get søknad", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleMarkSykmeldingRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lederFnr := requestcontext.LederFnr(ctx)

	if err := h.service.MarkSykmeldingRead(ctx, chi.URLParam(r, "sykmeldingId"), lederFnr); err != nil {
		h.writeServiceError(w, r, "mark sykmelding read", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleMarkSoknadRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lederFnr := requestcontext.LederFnr(ctx)

	if err := h.service.MarkSoknadRead(ctx, chi.URLParam(r, "soknadId"), lederFnr); err != nil {
		h.writeServiceError(w, r, "mark søknad read", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleMarkHendelseRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lederFnr := requestcontext.LederFnr(ctx)

	hendelseID, err := uuid.Parse(chi.URLParam(r, "hendelseId"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid hendelse id"))
		return
	}
	if err := h.service.MarkHendelseRead(ctx, hendelseID, lederFnr); err != nil {
		h.writeServiceError(w, r, "mark hendelse read", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleAvkreftNarmesteleder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lederFnr := requestcontext.LederFnr(ctx)

	narmestelederID, err := uuid.Parse(chi.URLParam(r, "narmestelederId"))
	if err != nil {
		shared.WriteError(w, domainerrors.New(domainerrors.CodeBadRequest, "invalid narmesteleder id"))
		return
	}
	if err := h.service.AvkreftNarmesteleder(ctx, narmestelederID, lederFnr); err != nil {
		h.writeServiceError(w, r, "avkreft narmesteleder", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError logs once and maps the error onto a response. Not-found
// and bad-request pass through with their codes; everything else is masked
// as a generic internal error.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	if domainerrors.Is(err, domainerrors.CodeNotFound) || domainerrors.Is(err, domainerrors.CodeBadRequest) {
		h.logger.InfoContext(ctx, op+" rejected",
			"error", err.Error(),
			"request_id", requestcontext.RequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	h.logger.ErrorContext(ctx, op+" failed",
		"error", err.Error(),
		"request_id", requestcontext.RequestID(ctx),
	)
	shared.WriteError(w, domainerrors.New(domainerrors.CodeInternal, "internal error"))
}
