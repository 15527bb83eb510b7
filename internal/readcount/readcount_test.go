package readcount

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"minesykmeldte/internal/models"
	"minesykmeldte/internal/platform/metrics"
	"minesykmeldte/internal/store/memory"
)

type capturingPublisher struct {
	published int
	topic     string
	key       []byte
	value     []byte
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, key, value []byte) error {
	p.published++
	p.topic = topic
	p.key = key
	p.value = value
	return nil
}

type ReadCountSuite struct {
	suite.Suite
	ctx       context.Context
	store     *memory.Store
	publisher *capturingPublisher
	service   *Service
}

func (s *ReadCountSuite) SetupTest() {
	s.ctx = context.Background()
	s.reset()
}

// reset gives each subtest its own store and publisher; upserts preserve
// lest flags, so reusing rows across subtests would leak state.
func (s *ReadCountSuite) reset() {
	s.store = memory.New()
	s.publisher = &capturingPublisher{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.service = New(s.store, s.store, s.publisher, "ulest-status", metrics.NewWith(prometheus.NewRegistry()), logger)
}

func TestReadCountSuite(t *testing.T) {
	suite.Run(t, new(ReadCountSuite))
}

const (
	testFnr      = "12345678910"
	testOrg      = "888888"
	testLederFnr = "65656565656"
)

func (s *ReadCountSuite) seedRelationship() uuid.UUID {
	nlID := uuid.New()
	s.Require().NoError(s.store.UpsertNarmesteleder(s.ctx, models.Narmesteleder{
		ID:        nlID,
		Orgnummer: testOrg,
		Fnr:       testFnr,
		LederFnr:  testLederFnr,
	}))
	s.Require().NoError(s.store.UpsertSykmeldt(s.ctx, models.Sykmeldt{
		Fnr:                  testFnr,
		Navn:                 "Test Testersen",
		StartdatoSykefravaer: models.NewDate(2024, time.February, 1),
		LatestTom:            models.NewDate(2024, time.March, 1),
	}))
	return nlID
}

func (s *ReadCountSuite) seedSykmelding(id string, lest bool) {
	s.Require().NoError(s.store.UpsertSykmelding(s.ctx, models.Sykmelding{
		ID:        id,
		Fnr:       testFnr,
		Orgnummer: testOrg,
		Orgnavn:   "Bedriften AS",
		Payload:   models.ArbeidsgiverSykmelding{ID: id},
		Timestamp: time.Now(),
		LatestTom: models.NewDate(2024, time.March, 1),
	}))
	if lest {
		ok, err := s.store.SetSykmeldingLest(s.ctx, id)
		s.Require().NoError(err)
		s.Require().True(ok)
	}
}

func (s *ReadCountSuite) seedSoknad(id, sykmeldingID string, korrigerer *string) {
	fom := models.NewDate(2024, time.February, 1)
	tom := models.NewDate(2024, time.February, 14)
	s.Require().NoError(s.store.UpsertSoknad(s.ctx, models.Soknad{
		ID:           id,
		SykmeldingID: sykmeldingID,
		Fnr:          testFnr,
		Orgnummer:    testOrg,
		Payload: models.SoknadDTO{
			ID:         id,
			Status:     models.SoknadStatusSendt,
			Fom:        &fom,
			Tom:        &tom,
			Korrigerer: korrigerer,
		},
		SendtDato: models.NewDate(2024, time.February, 15),
		Timestamp: time.Now(),
	}))
}

func (s *ReadCountSuite) seedHendelse(oppgavetype models.HendelseType) uuid.UUID {
	id := uuid.New()
	created, err := s.store.CreateHendelse(s.ctx, models.Hendelse{
		ID:          id,
		Oppgavetype: oppgavetype,
		Fnr:         testFnr,
		Orgnummer:   testOrg,
		Timestamp:   time.Now(),
	})
	s.Require().NoError(err)
	s.Require().True(created)
	return id
}

func (s *ReadCountSuite) lastMessage() Message {
	var msg Message
	s.Require().NoError(json.Unmarshal(s.publisher.value, &msg))
	return msg
}

// TestRecompute covers the full aggregation over a seeded roster.
func (s *ReadCountSuite) TestRecompute() {
	s.Run("counts one of each unread category", func() {
		nlID := s.seedRelationship()
		s.seedSykmelding("sykmelding-1", false)
		s.seedSoknad("soknad-1", "sykmelding-1", nil)
		s.seedHendelse(models.HendelseTypeOppfolgingsplanTilGodkjenning)

		s.Require().NoError(s.service.Recompute(s.ctx, testFnr, testOrg))

		s.Require().Equal(1, s.publisher.published)
		s.Equal("ulest-status", s.publisher.topic)
		s.Equal(nlID.String(), string(s.publisher.key))

		msg := s.lastMessage()
		s.Equal(nlID, msg.NarmestelederID)
		s.Equal(Counts{Sykmeldinger: 1, Soknader: 1, Meldinger: 0, Dialogmoter: 0, Oppfolgingsplaner: 1}, msg.Unread)
	})

	s.Run("read rows do not count", func() {
		s.reset()
		s.seedRelationship()
		s.seedSykmelding("sykmelding-1", true)
		s.seedSoknad("soknad-1", "sykmelding-1", nil)
		ok, err := s.store.SetSoknadLest(s.ctx, "soknad-1")
		s.Require().NoError(err)
		s.Require().True(ok)

		s.Require().NoError(s.service.Recompute(s.ctx, testFnr, testOrg))
		s.Equal(Counts{}, s.lastMessage().Unread)
	})

	s.Run("superseded søknad is excluded from the count", func() {
		s.reset()
		s.seedRelationship()
		s.seedSykmelding("sykmelding-1", true)
		korrigerer := "soknad-a"
		s.seedSoknad("soknad-a", "sykmelding-1", nil)
		s.seedSoknad("soknad-b", "sykmelding-1", &korrigerer)

		s.Require().NoError(s.service.Recompute(s.ctx, testFnr, testOrg))
		s.Equal(1, s.lastMessage().Unread.Soknader)
	})

	s.Run("dialogmøte and aktivitetskrav land in their own categories", func() {
		s.reset()
		s.seedRelationship()
		s.seedSykmelding("sykmelding-1", true)
		s.seedHendelse(models.HendelseTypeDialogmoteInnkalling)
		s.seedHendelse(models.HendelseTypeAktivitetskrav)

		s.Require().NoError(s.service.Recompute(s.ctx, testFnr, testOrg))
		msg := s.lastMessage()
		s.Equal(1, msg.Unread.Dialogmoter)
		s.Equal(1, msg.Unread.Meldinger)
		s.Equal(0, msg.Unread.Oppfolgingsplaner)
	})
}

// TestRecomputeRaces covers the expected races with relationship deletion:
// no publication and no error.
func (s *ReadCountSuite) TestRecomputeRaces() {
	s.Run("no relationship publishes nothing", func() {
		s.Require().NoError(s.service.Recompute(s.ctx, testFnr, testOrg))
		s.Zero(s.publisher.published)
	})

	s.Run("relationship without roster rows publishes nothing", func() {
		s.reset()
		s.seedRelationship()

		s.Require().NoError(s.service.Recompute(s.ctx, testFnr, testOrg))
		s.Zero(s.publisher.published)
	})
}
