package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"minesykmeldte/internal/models"
	"minesykmeldte/pkg/platform/sentinel"
)

const (
	testFnr      = "12345678910"
	testOrg      = "888888"
	testLederFnr = "65656565656"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) seedRelationship() uuid.UUID {
	nlID := uuid.New()
	s.Require().NoError(s.store.UpsertNarmesteleder(s.ctx, models.Narmesteleder{
		ID:        nlID,
		Orgnummer: testOrg,
		Fnr:       testFnr,
		LederFnr:  testLederFnr,
	}))
	return nlID
}

func (s *MemoryStoreSuite) newSykmelding(id string) models.Sykmelding {
	tom := models.NewDate(2024, time.March, 1)
	return models.Sykmelding{
		ID:        id,
		Fnr:       testFnr,
		Orgnummer: testOrg,
		Orgnavn:   "Bedriften AS",
		Payload:   models.ArbeidsgiverSykmelding{ID: id},
		Timestamp: time.Now(),
		LatestTom: tom,
	}
}

// TestSykmeldingConflictSemantics verifies the upsert mirrors postgres:
// corrections advance the row but never reset lest.
func (s *MemoryStoreSuite) TestSykmeldingConflictSemantics() {
	s.seedRelationship()
	s.Require().NoError(s.store.UpsertSykmelding(s.ctx, s.newSykmelding("sykmelding-1")))

	ok, err := s.store.SetSykmeldingLest(s.ctx, "sykmelding-1")
	s.Require().NoError(err)
	s.Require().True(ok)

	s.Require().NoError(s.store.UpsertSykmelding(s.ctx, s.newSykmelding("sykmelding-1")))

	row, err := s.store.FindSykmeldingScoped(s.ctx, "sykmelding-1", testLederFnr)
	s.Require().NoError(err)
	s.True(row.Lest)
}

// TestScopedReads verifies relationship scoping on single-row lookups.
func (s *MemoryStoreSuite) TestScopedReads() {
	s.Run("row outside the manager's scope is not found", func() {
		s.Require().NoError(s.store.UpsertSykmelding(s.ctx, s.newSykmelding("sykmelding-1")))

		_, err := s.store.FindSykmeldingScoped(s.ctx, "sykmelding-1", testLederFnr)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		ok, err := s.store.MarkSykmeldingRead(s.ctx, "sykmelding-1", testLederFnr)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("row becomes reachable once the relationship exists", func() {
		s.seedRelationship()

		ok, err := s.store.MarkSykmeldingRead(s.ctx, "sykmelding-1", testLederFnr)
		s.Require().NoError(err)
		s.True(ok)
	})
}

// TestHendelseConflict verifies the conflict-do-nothing insert on the
// composite key and open-only completion.
func (s *MemoryStoreSuite) TestHendelseConflict() {
	id := uuid.New()
	h := models.Hendelse{
		ID:          id,
		Oppgavetype: models.HendelseTypeAktivitetskrav,
		Fnr:         testFnr,
		Orgnummer:   testOrg,
		Timestamp:   time.Now(),
	}

	created, err := s.store.CreateHendelse(s.ctx, h)
	s.Require().NoError(err)
	s.True(created)

	created, err = s.store.CreateHendelse(s.ctx, h)
	s.Require().NoError(err)
	s.False(created)

	// same ID under another oppgavetype is a different row
	other := h
	other.Oppgavetype = models.HendelseTypeDialogmoteInnkalling
	created, err = s.store.CreateHendelse(s.ctx, other)
	s.Require().NoError(err)
	s.True(created)

	ok, err := s.store.FerdigstillHendelse(s.ctx, id, models.HendelseTypeAktivitetskrav, time.Now())
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.FerdigstillHendelse(s.ctx, id, models.HendelseTypeAktivitetskrav, time.Now())
	s.Require().NoError(err)
	s.False(ok)
}

// TestRosterJoin verifies the join shape mirrors postgres: sykmeldt inner
// join, soknad left join.
func (s *MemoryStoreSuite) TestRosterJoin() {
	s.seedRelationship()
	s.Require().NoError(s.store.UpsertSykmelding(s.ctx, s.newSykmelding("sykmelding-1")))

	rows, err := s.store.MineSykmeldteRows(s.ctx, testLederFnr)
	s.Require().NoError(err)
	s.Empty(rows)

	s.Require().NoError(s.store.UpsertSykmeldt(s.ctx, models.Sykmeldt{
		Fnr:                  testFnr,
		Navn:                 "Test Testersen",
		StartdatoSykefravaer: models.NewDate(2024, time.February, 1),
	}))

	rows, err = s.store.MineSykmeldteRows(s.ctx, testLederFnr)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Nil(rows[0].Soknad)

	s.Require().NoError(s.store.UpsertSoknad(s.ctx, models.Soknad{
		ID:           "soknad-1",
		SykmeldingID: "sykmelding-1",
		Fnr:          testFnr,
		Orgnummer:    testOrg,
		Timestamp:    time.Now(),
	}))

	rows, err = s.store.MineSykmeldteRows(s.ctx, testLederFnr)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Require().NotNil(rows[0].Soknad)
	s.Equal("soknad-1", rows[0].Soknad.ID)
}
