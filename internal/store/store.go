// Package store defines the row-store contracts shared by the event folder,
// the view builder, and the unread-count aggregator. Two implementations
// exist: postgres (production) and memory (unit tests), with identical
// conflict and join semantics.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"minesykmeldte/internal/models"
)

// MineSykmeldteRow is one row of the manager-roster join: narmesteleder
// joined with sykmelding (inner) and soknad (left). One sykmelding appears
// once per joined søknad, so callers deduplicate by sykmelding ID.
type MineSykmeldteRow struct {
	NarmestelederID      uuid.UUID
	Orgnummer            string
	Fnr                  string
	Navn                 string
	StartdatoSykefravaer models.Date
	Sykmelding           models.Sykmelding
	Soknad               *models.Soknad
}

// NarmestelederStore persists manager relationships.
type NarmestelederStore interface {
	// UpsertNarmesteleder writes the relationship row keyed by relationship ID.
	UpsertNarmesteleder(ctx context.Context, nl models.Narmesteleder) error
	// DeleteNarmesteleder removes the relationship. Returns false when no row
	// existed, which is an expected no-op, not an error.
	DeleteNarmesteleder(ctx context.Context, id uuid.UUID) (bool, error)
	// FindNarmesteleder returns the active relationship for an (employee, org)
	// pair, or sentinel.ErrNotFound.
	FindNarmesteleder(ctx context.Context, fnr, orgnummer string) (*models.Narmesteleder, error)
	// GetNarmesteleder returns the relationship by its ID, or
	// sentinel.ErrNotFound.
	GetNarmesteleder(ctx context.Context, id uuid.UUID) (*models.Narmesteleder, error)
}

// SykmeldtStore persists employee rows.
type SykmeldtStore interface {
	UpsertSykmeldt(ctx context.Context, s models.Sykmeldt) error
}

// SykmeldingStore persists sykmelding rows.
type SykmeldingStore interface {
	UpsertSykmelding(ctx context.Context, s models.Sykmelding) error
	// DeleteSykmelding removes a sykmelding on tombstone. False when absent
	// (no-op).
	DeleteSykmelding(ctx context.Context, id string) (bool, error)
	// SetSykmeldingLest marks the row read, unscoped; used when a
	// LEST_SYKMELDING hendelse closes. False when no row matches.
	SetSykmeldingLest(ctx context.Context, id string) (bool, error)
	// MarkSykmeldingRead marks the row read only when it is reachable through
	// one of the manager's active relationships. False otherwise, even if the
	// row exists.
	MarkSykmeldingRead(ctx context.Context, id, lederFnr string) (bool, error)
	// FindSykmeldingScoped returns the row when reachable through one of the
	// manager's active relationships, or sentinel.ErrNotFound.
	FindSykmeldingScoped(ctx context.Context, id, lederFnr string) (*models.Sykmelding, error)
}

// SoknadStore persists søknad rows.
type SoknadStore interface {
	UpsertSoknad(ctx context.Context, s models.Soknad) error
	SetSoknadLest(ctx context.Context, id string) (bool, error)
	MarkSoknadRead(ctx context.Context, id, lederFnr string) (bool, error)
	FindSoknadScoped(ctx context.Context, id, lederFnr string) (*models.Soknad, error)
}

// HendelseStore persists notification rows keyed by (id, oppgavetype).
type HendelseStore interface {
	// CreateHendelse inserts the row idempotently: false when a row with the
	// same composite key already exists (conflict-do-nothing).
	CreateHendelse(ctx context.Context, h models.Hendelse) (bool, error)
	// FerdigstillHendelse completes a not-yet-completed row. False when no
	// open row matches, which is an expected no-op.
	FerdigstillHendelse(ctx context.Context, id uuid.UUID, oppgavetype models.HendelseType, ts time.Time) (bool, error)
	// FerdigstillHendelseScoped completes any open row with the given ID
	// reachable through the manager's active relationships. Backs
	// markNotificationRead.
	FerdigstillHendelseScoped(ctx context.Context, id uuid.UUID, lederFnr string, ts time.Time) (bool, error)
}

// RosterStore serves the view builder's and aggregator's read queries.
type RosterStore interface {
	// MineSykmeldteRows returns the joined sykmelding+søknad rows for every
	// employee reachable through the manager's active relationships.
	MineSykmeldteRows(ctx context.Context, lederFnr string) ([]MineSykmeldteRow, error)
	// HendelserForLeder returns the not-yet-completed, not-expired hendelser
	// reachable through the manager's active relationships.
	HendelserForLeder(ctx context.Context, lederFnr string) ([]models.Hendelse, error)
}
