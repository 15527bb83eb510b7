// Package memory implements the row-store contracts over in-memory maps. It
// mirrors the postgres implementation's conflict and join semantics so unit
// tests exercise the same behavior the folder and services see in
// production.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"minesykmeldte/internal/models"
	"minesykmeldte/internal/store"
	"minesykmeldte/pkg/platform/sentinel"
)

type hendelseKey struct {
	ID          uuid.UUID
	Oppgavetype models.HendelseType
}

// Store implements every interface in internal/store.
type Store struct {
	mu             sync.RWMutex
	narmesteledere map[uuid.UUID]models.Narmesteleder
	sykmeldte      map[string]models.Sykmeldt
	sykmeldinger   map[string]models.Sykmelding
	soknader       map[string]models.Soknad
	hendelser      map[hendelseKey]models.Hendelse
}

func New() *Store {
	return &Store{
		narmesteledere: make(map[uuid.UUID]models.Narmesteleder),
		sykmeldte:      make(map[string]models.Sykmeldt),
		sykmeldinger:   make(map[string]models.Sykmelding),
		soknader:       make(map[string]models.Soknad),
		hendelser:      make(map[hendelseKey]models.Hendelse),
	}
}

// -----------------------------------------------------------------------------
// Narmesteleder
// -----------------------------------------------------------------------------

func (s *Store) UpsertNarmesteleder(_ context.Context, nl models.Narmesteleder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.narmesteledere[nl.ID] = nl
	return nil
}

func (s *Store) DeleteNarmesteleder(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.narmesteledere[id]; !ok {
		return false, nil
	}
	delete(s.narmesteledere, id)
	return true, nil
}

func (s *Store) GetNarmesteleder(_ context.Context, id uuid.UUID) (*models.Narmesteleder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nl, ok := s.narmesteledere[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := nl
	return &out, nil
}

func (s *Store) FindNarmesteleder(_ context.Context, fnr, orgnummer string) (*models.Narmesteleder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, nl := range s.narmesteledere {
		if nl.Fnr == fnr && nl.Orgnummer == orgnummer {
			out := nl
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// -----------------------------------------------------------------------------
// Sykmeldt
// -----------------------------------------------------------------------------

func (s *Store) UpsertSykmeldt(_ context.Context, sm models.Sykmeldt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sykmeldte[sm.Fnr] = sm
	return nil
}

// -----------------------------------------------------------------------------
// Sykmelding
// -----------------------------------------------------------------------------

func (s *Store) UpsertSykmelding(_ context.Context, sm models.Sykmelding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sykmeldinger[sm.ID]; ok {
		// lest is not reset by a correction, matching the postgres upsert
		// which leaves the column untouched.
		sm.Lest = existing.Lest
	}
	s.sykmeldinger[sm.ID] = sm
	return nil
}

func (s *Store) DeleteSykmelding(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sykmeldinger[id]; !ok {
		return false, nil
	}
	delete(s.sykmeldinger, id)
	return true, nil
}

func (s *Store) SetSykmeldingLest(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sm, ok := s.sykmeldinger[id]
	if !ok {
		return false, nil
	}
	sm.Lest = true
	s.sykmeldinger[id] = sm
	return true, nil
}

func (s *Store) MarkSykmeldingRead(_ context.Context, id, lederFnr string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sm, ok := s.sykmeldinger[id]
	if !ok || !s.reachable(lederFnr, sm.Fnr, sm.Orgnummer) {
		return false, nil
	}
	sm.Lest = true
	s.sykmeldinger[id] = sm
	return true, nil
}

func (s *Store) FindSykmeldingScoped(_ context.Context, id, lederFnr string) (*models.Sykmelding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sm, ok := s.sykmeldinger[id]
	if !ok || !s.reachable(lederFnr, sm.Fnr, sm.Orgnummer) {
		return nil, sentinel.ErrNotFound
	}
	out := sm
	return &out, nil
}

// -----------------------------------------------------------------------------
// Soknad
// -----------------------------------------------------------------------------

func (s *Store) UpsertSoknad(_ context.Context, so models.Soknad) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.soknader[so.ID]; ok {
		so.Lest = existing.Lest
	}
	s.soknader[so.ID] = so
	return nil
}

func (s *Store) SetSoknadLest(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	so, ok := s.soknader[id]
	if !ok {
		return false, nil
	}
	so.Lest = true
	s.soknader[id] = so
	return true, nil
}

func (s *Store) MarkSoknadRead(_ context.Context, id, lederFnr string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	so, ok := s.soknader[id]
	if !ok || !s.reachable(lederFnr, so.Fnr, so.Orgnummer) {
		return false, nil
	}
	so.Lest = true
	s.soknader[id] = so
	return true, nil
}

func (s *Store) FindSoknadScoped(_ context.Context, id, lederFnr string) (*models.Soknad, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	so, ok := s.soknader[id]
	if !ok || !s.reachable(lederFnr, so.Fnr, so.Orgnummer) {
		return nil, sentinel.ErrNotFound
	}
	out := so
	return &out, nil
}

// -----------------------------------------------------------------------------
// Hendelser
// -----------------------------------------------------------------------------

func (s *Store) CreateHendelse(_ context.Context, h models.Hendelse) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := hendelseKey{ID: h.ID, Oppgavetype: h.Oppgavetype}
	if _, ok := s.hendelser[key]; ok {
		return false, nil
	}
	h.Ferdigstilt = false
	h.FerdigstiltTimestamp = nil
	s.hendelser[key] = h
	return true, nil
}

func (s *Store) FerdigstillHendelse(_ context.Context, id uuid.UUID, oppgavetype models.HendelseType, ts time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := hendelseKey{ID: id, Oppgavetype: oppgavetype}
	h, ok := s.hendelser[key]
	if !ok || h.Ferdigstilt {
		return false, nil
	}
	h.Ferdigstilt = true
	h.FerdigstiltTimestamp = &ts
	s.hendelser[key] = h
	return true, nil
}

func (s *Store) FerdigstillHendelseScoped(_ context.Context, id uuid.UUID, lederFnr string, ts time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	updated := false
	for key, h := range s.hendelser {
		if key.ID != id || h.Ferdigstilt || !s.reachable(lederFnr, h.Fnr, h.Orgnummer) {
			continue
		}
		h.Ferdigstilt = true
		h.FerdigstiltTimestamp = &ts
		s.hendelser[key] = h
		updated = true
	}
	return updated, nil
}

// -----------------------------------------------------------------------------
// Roster queries
// -----------------------------------------------------------------------------

func (s *Store) MineSykmeldteRows(_ context.Context, lederFnr string) ([]store.MineSykmeldteRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.MineSykmeldteRow
	for _, nl := range s.narmesteledere {
		if nl.LederFnr != lederFnr {
			continue
		}
		for _, sm := range s.sykmeldinger {
			if sm.Fnr != nl.Fnr || sm.Orgnummer != nl.Orgnummer {
				continue
			}
			sykmeldt, ok := s.sykmeldte[nl.Fnr]
			if !ok {
				// postgres inner-joins on sykmeldt, so a missing employee row
				// drops the sykmelding from the roster.
				continue
			}
			base := store.MineSykmeldteRow{
				NarmestelederID:      nl.ID,
				Orgnummer:            nl.Orgnummer,
				Fnr:                  nl.Fnr,
				Navn:                 sykmeldt.Navn,
				StartdatoSykefravaer: sykmeldt.StartdatoSykefravaer,
				Sykmelding:           sm,
			}
			matched := false
			for _, so := range s.soknader {
				if so.SykmeldingID == sm.ID && so.Fnr == sm.Fnr {
					row := base
					soCopy := so
					row.Soknad = &soCopy
					out = append(out, row)
					matched = true
				}
			}
			if !matched {
				out = append(out, base)
			}
		}
	}
	return out, nil
}

func (s *Store) HendelserForLeder(_ context.Context, lederFnr string) ([]models.Hendelse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	var out []models.Hendelse
	for _, h := range s.hendelser {
		if h.Ferdigstilt {
			continue
		}
		if h.Utlopstidspunkt != nil && !h.Utlopstidspunkt.After(now) {
			continue
		}
		if !s.reachable(lederFnr, h.Fnr, h.Orgnummer) {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

// reachable reports whether the manager has an active relationship covering
// the (fnr, orgnummer) pair. Callers hold s.mu.
func (s *Store) reachable(lederFnr, fnr, orgnummer string) bool {
	for _, nl := range s.narmesteledere {
		if nl.LederFnr == lederFnr && nl.Fnr == fnr && nl.Orgnummer == orgnummer {
			return true
		}
	}
	return false
}
