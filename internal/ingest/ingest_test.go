package ingest

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
	"go.uber.org/mock/gomock"

	"minesykmeldte/internal/models"
	"minesykmeldte/internal/person"
	"minesykmeldte/internal/person/mocks"
	"minesykmeldte/internal/platform/kafka/consumer"
	"minesykmeldte/internal/platform/metrics"
	"minesykmeldte/internal/store/memory"
	domainerrors "minesykmeldte/pkg/domain-errors"
)

type recomputeSpy struct {
	calls [][2]string
}

func (r *recomputeSpy) Recompute(_ context.Context, fnr, orgnummer string) error {
	r.calls = append(r.calls, [2]string{fnr, orgnummer})
	return nil
}

type IngestSuite struct {
	suite.Suite
	ctx       context.Context
	store     *memory.Store
	recompute *recomputeSpy
	logger    *slog.Logger
	now       time.Time
}

func (s *IngestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.recompute = &recomputeSpy{}
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.now = time.Date(2024, time.March, 20, 12, 0, 0, 0, time.UTC)
}

func TestIngestSuite(t *testing.T) {
	suite.Run(t, new(IngestSuite))
}

const (
	testFnr      = "12345678910"
	testOrg      = "888888"
	testLederFnr = "65656565656"
)

// seedRelationship makes testFnr reachable through testLederFnr so the
// scoped finders can read rows back.
func (s *IngestSuite) seedRelationship() {
	s.Require().NoError(s.store.UpsertNarmesteleder(s.ctx, models.Narmesteleder{
		ID:        uuid.New(),
		Orgnummer: testOrg,
		Fnr:       testFnr,
		LederFnr:  testLederFnr,
	}))
}

func (s *IngestSuite) message(key string, payload any) *consumer.Message {
	value, err := json.Marshal(payload)
	s.Require().NoError(err)
	return &consumer.Message{Key: []byte(key), Value: value}
}

// =============================================================================
// Narmesteleder
// =============================================================================

func (s *IngestSuite) TestNarmestelederHandler() {
	handler := NewNarmestelederHandler(s.store, s.logger)
	nlID := uuid.New()

	establish := models.NarmestelederMessage{
		NarmestelederID:  nlID,
		Fnr:              testFnr,
		Orgnummer:        testOrg,
		NarmesteLederFnr: testLederFnr,
		AktivFom:         models.NewDate(2024, time.January, 1),
	}

	s.Run("establishes the relationship", func() {
		s.Require().NoError(handler.Handle(s.ctx, s.message(nlID.String(), establish)))

		nl, err := s.store.FindNarmesteleder(s.ctx, testFnr, testOrg)
		s.Require().NoError(err)
		s.Equal(testLederFnr, nl.LederFnr)
	})

	s.Run("ends the relationship on aktivTom", func() {
		tom := models.NewDate(2024, time.March, 1)
		ended := establish
		ended.AktivTom = &tom
		s.Require().NoError(handler.Handle(s.ctx, s.message(nlID.String(), ended)))

		_, err := s.store.FindNarmesteleder(s.ctx, testFnr, testOrg)
		s.Require().Error(err)
	})

	s.Run("ending an already-gone relationship is a no-op", func() {
		tom := models.NewDate(2024, time.March, 1)
		ended := establish
		ended.AktivTom = &tom
		s.Require().NoError(handler.Handle(s.ctx, s.message(nlID.String(), ended)))
	})

	s.Run("malformed payload fails the message", func() {
		s.Require().Error(handler.Handle(s.ctx, &consumer.Message{Key: []byte("x"), Value: []byte("{")}))
	})
}

// =============================================================================
// Sykmelding
// =============================================================================

func (s *IngestSuite) newSykmeldingHandler(resolver person.Resolver, skipUnknown bool) *SykmeldingHandler {
	handler := NewSykmeldingHandler(s.store, s.store, resolver, s.recompute, s.logger, skipUnknown)
	handler.now = func() time.Time { return s.now }
	return handler
}

func (s *IngestSuite) knownPerson(ctrl *gomock.Controller) *mocks.MockResolver {
	resolver := mocks.NewMockResolver(ctrl)
	resolver.EXPECT().Resolve(gomock.Any(), testFnr).Return(&person.Person{
		Navn:                 "Test Testersen",
		StartdatoSykefravaer: models.NewDate(2024, time.February, 1),
	}, nil).AnyTimes()
	return resolver
}

func (s *IngestSuite) sendtSykmelding(tom models.Date) models.SendtSykmeldingMessage {
	return models.SendtSykmeldingMessage{
		KafkaMetadata: models.SykmeldingMetadata{SykmeldingID: "sykmelding-1", Fnr: testFnr},
		Event: models.SykmeldingStatusEvent{
			Arbeidsgiver: models.Arbeidsgiver{Orgnummer: testOrg, Navn: "Bedriften AS"},
		},
		Sykmelding: models.ArbeidsgiverSykmelding{
			ID: "sykmelding-1",
			Perioder: []models.Periode{
				{Fom: tom.AddDays(-13), Tom: tom, Type: models.PeriodeTypeAktivitetIkkeMulig},
			},
		},
	}
}

func (s *IngestSuite) TestSykmeldingHandler() {
	ctrl := gomock.NewController(s.T())
	handler := s.newSykmeldingHandler(s.knownPerson(ctrl), false)
	s.seedRelationship()
	tom := models.DateOf(s.now).AddDays(-10)

	s.Run("persists the sykmelding and the sykmeldt", func() {
		s.Require().NoError(handler.Handle(s.ctx, s.message("sykmelding-1", s.sendtSykmelding(tom))))

		row, err := s.store.FindSykmeldingScoped(s.ctx, "sykmelding-1", testLederFnr)
		s.Require().NoError(err)
		s.Equal(testFnr, row.Fnr)
		s.Equal("Bedriften AS", row.Orgnavn)
		s.Equal(tom.String(), row.LatestTom.String())
		s.False(row.Lest)

		s.Require().Len(s.recompute.calls, 1)
		s.Equal([2]string{testFnr, testOrg}, s.recompute.calls[0])
	})

	s.Run("re-applying the same event keeps one row with the later timestamp", func() {
		firstApplied := s.now
		s.now = s.now.Add(time.Hour)
		s.Require().NoError(handler.Handle(s.ctx, s.message("sykmelding-1", s.sendtSykmelding(tom))))

		rows, err := s.store.MineSykmeldteRows(s.ctx, testLederFnr)
		s.Require().NoError(err)
		s.Require().Len(rows, 1)
		s.True(rows[0].Sykmelding.Timestamp.After(firstApplied))
	})

	s.Run("tombstone deletes the row", func() {
		s.Require().NoError(handler.Handle(s.ctx, &consumer.Message{Key: []byte("sykmelding-1")}))

		_, err := s.store.FindSykmeldingScoped(s.ctx, "sykmelding-1", testLederFnr)
		s.Require().Error(err)
	})

	s.Run("tombstone for an unknown sykmelding is a no-op", func() {
		s.Require().NoError(handler.Handle(s.ctx, &consumer.Message{Key: []byte("sykmelding-2")}))
	})

	s.Run("empty period list is fatal", func() {
		msg := s.sendtSykmelding(tom)
		msg.Sykmelding.Perioder = nil
		err := handler.Handle(s.ctx, s.message("sykmelding-1", msg))
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodeInvariantViolation))
	})
}

func (s *IngestSuite) TestSykmeldingRetention() {
	ctrl := gomock.NewController(s.T())
	handler := s.newSykmeldingHandler(s.knownPerson(ctrl), false)
	s.seedRelationship()

	s.Run("periods ending before the window are skipped", func() {
		old := models.DateOf(s.now).AddDays(-1).AddDays(-31 * 4)
		s.Require().NoError(handler.Handle(s.ctx, s.message("sykmelding-1", s.sendtSykmelding(old))))

		_, err := s.store.FindSykmeldingScoped(s.ctx, "sykmelding-1", testLederFnr)
		s.Require().Error(err)
		s.Empty(s.recompute.calls)
	})

	s.Run("periods ending inside the window are kept", func() {
		recent := models.DateOf(s.now).AddDays(-30)
		s.Require().NoError(handler.Handle(s.ctx, s.message("sykmelding-1", s.sendtSykmelding(recent))))

		_, err := s.store.FindSykmeldingScoped(s.ctx, "sykmelding-1", testLederFnr)
		s.Require().NoError(err)
	})
}

func (s *IngestSuite) TestSykmeldingUnknownPerson() {
	tom := models.DateOf(s.now).AddDays(-10)

	s.Run("skipped and logged when the skip policy is on", func() {
		ctrl := gomock.NewController(s.T())
		resolver := mocks.NewMockResolver(ctrl)
		resolver.EXPECT().Resolve(gomock.Any(), testFnr).Return(nil, person.ErrNotFound)

		handler := s.newSykmeldingHandler(resolver, true)
		s.Require().NoError(handler.Handle(s.ctx, s.message("sykmelding-1", s.sendtSykmelding(tom))))
		s.Empty(s.recompute.calls)
	})

	s.Run("fatal when the skip policy is off", func() {
		ctrl := gomock.NewController(s.T())
		resolver := mocks.NewMockResolver(ctrl)
		resolver.EXPECT().Resolve(gomock.Any(), testFnr).Return(nil, person.ErrNotFound)

		handler := s.newSykmeldingHandler(resolver, false)
		s.Require().Error(handler.Handle(s.ctx, s.message("sykmelding-1", s.sendtSykmelding(tom))))
	})
}

// =============================================================================
// Søknad
// =============================================================================

func (s *IngestSuite) newSoknadHandler() *SoknadHandler {
	handler := NewSoknadHandler(s.store, s.recompute, s.logger)
	handler.now = func() time.Time { return s.now }
	return handler
}

func (s *IngestSuite) sendtSoknad(id string) models.SoknadDTO {
	fom := models.DateOf(s.now).AddDays(-20)
	tom := models.DateOf(s.now).AddDays(-7)
	sendt := s.now.Add(-24 * time.Hour)
	return models.SoknadDTO{
		ID:                id,
		SykmeldingID:      "sykmelding-1",
		Fnr:               testFnr,
		Status:            models.SoknadStatusSendt,
		Fom:               &fom,
		Tom:               &tom,
		SendtArbeidsgiver: &sendt,
		Arbeidsgiver:      &models.Arbeidsgiver{Orgnummer: testOrg, Navn: "Bedriften AS"},
		Sporsmal: []models.Sporsmal{
			{ID: "1", Tag: "ANSVARSERKLARING"},
			{ID: "2", Tag: "ANDRE_INNTEKTSKILDER"},
			{ID: "3", Tag: "ARBEID_UNDER_SYKEFRAVAER", Undersporsmal: []models.Sporsmal{
				{ID: "3.1", Tag: "ARBEID_UTENFOR_NORGE"},
				{ID: "3.2", Tag: "JOBBET_DU_GRADERT"},
			}},
		},
	}
}

func (s *IngestSuite) TestSoknadHandler() {
	handler := s.newSoknadHandler()
	s.seedRelationship()

	s.Run("persists a sent søknad with sensitive questions stripped", func() {
		s.Require().NoError(handler.Handle(s.ctx, s.message("soknad-1", s.sendtSoknad("soknad-1"))))

		row, err := s.store.FindSoknadScoped(s.ctx, "soknad-1", testLederFnr)
		s.Require().NoError(err)
		s.Equal(testOrg, row.Orgnummer)

		s.Require().Len(row.Payload.Sporsmal, 2)
		s.Equal("ANSVARSERKLARING", row.Payload.Sporsmal[0].Tag)
		s.Require().Len(row.Payload.Sporsmal[1].Undersporsmal, 1)
		s.Equal("JOBBET_DU_GRADERT", row.Payload.Sporsmal[1].Undersporsmal[0].Tag)

		s.Require().Len(s.recompute.calls, 1)
	})

	s.Run("ignores søknader that were not sent to the employer", func() {
		dto := s.sendtSoknad("soknad-2")
		dto.Status = models.SoknadStatusNy
		dto.SendtArbeidsgiver = nil
		s.Require().NoError(handler.Handle(s.ctx, s.message("soknad-2", dto)))

		_, err := s.store.FindSoknadScoped(s.ctx, "soknad-2", testLederFnr)
		s.Require().Error(err)
	})

	s.Run("ignores søknader outside the retention window", func() {
		dto := s.sendtSoknad("soknad-3")
		old := models.DateOf(s.now).AddDays(-31 * 5)
		dto.Tom = &old
		s.Require().NoError(handler.Handle(s.ctx, s.message("soknad-3", dto)))

		_, err := s.store.FindSoknadScoped(s.ctx, "soknad-3", testLederFnr)
		s.Require().Error(err)
	})

	s.Run("sent søknad without tom is fatal", func() {
		dto := s.sendtSoknad("soknad-4")
		dto.Tom = nil
		err := handler.Handle(s.ctx, s.message("soknad-4", dto))
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodeInvariantViolation))
	})
}

// =============================================================================
// Hendelse
// =============================================================================

func (s *IngestSuite) newHendelseHandler() *HendelseHandler {
	return NewHendelseHandler(s.store, s.store, s.store, s.recompute, metrics.NewWith(prometheus.NewRegistry()), s.logger)
}

func (s *IngestSuite) openHendelse(id uuid.UUID, oppgavetype string) models.HendelseMessage {
	tekst := "Oppfølgingsplan til godkjenning"
	return models.HendelseMessage{
		ID:          id,
		Oppgavetype: oppgavetype,
		OpprettHendelse: &models.OpprettHendelse{
			AnsattFnr: testFnr,
			Orgnummer: testOrg,
			Tekst:     &tekst,
			Timestamp: s.now,
		},
	}
}

func (s *IngestSuite) closeHendelse(id uuid.UUID, oppgavetype string) models.HendelseMessage {
	return models.HendelseMessage{
		ID:                  id,
		Oppgavetype:         oppgavetype,
		FerdigstillHendelse: &models.FerdigstillHendelse{Timestamp: s.now},
	}
}

func (s *IngestSuite) TestHendelseHandler() {
	handler := s.newHendelseHandler()
	s.seedRelationship()
	hendelseID := uuid.New()

	s.Run("open inserts once and recomputes", func() {
		open := s.openHendelse(hendelseID, "OPPFOLGINGSPLAN_TIL_GODKJENNING")
		s.Require().NoError(handler.Handle(s.ctx, s.message(hendelseID.String(), open)))
		s.Require().NoError(handler.Handle(s.ctx, s.message(hendelseID.String(), open)))

		hendelser, err := s.store.HendelserForLeder(s.ctx, testLederFnr)
		s.Require().NoError(err)
		s.Require().Len(hendelser, 1)
		s.Equal(models.HendelseTypeOppfolgingsplanTilGodkjenning, hendelser[0].Oppgavetype)

		// the duplicate open does not recompute
		s.Len(s.recompute.calls, 1)
	})

	s.Run("close completes the open row", func() {
		s.Require().NoError(handler.Handle(s.ctx, s.message(hendelseID.String(), s.closeHendelse(hendelseID, "OPPFOLGINGSPLAN_TIL_GODKJENNING"))))

		hendelser, err := s.store.HendelserForLeder(s.ctx, testLederFnr)
		s.Require().NoError(err)
		s.Empty(hendelser)
	})

	s.Run("close without a matching open row is a no-op", func() {
		s.Require().NoError(handler.Handle(s.ctx, s.message(hendelseID.String(), s.closeHendelse(uuid.New(), "DIALOGMOTE_INNKALLING"))))
	})

	s.Run("neither half is an upstream contract break", func() {
		bad := models.HendelseMessage{ID: uuid.New(), Oppgavetype: "AKTIVITETSKRAV"}
		err := handler.Handle(s.ctx, s.message(bad.ID.String(), bad))
		s.Require().Error(err)
		s.True(domainerrors.HasCode(err, domainerrors.CodeInvariantViolation))
	})

	s.Run("unknown oppgavetype is stored as UKJENT", func() {
		id := uuid.New()
		s.Require().NoError(handler.Handle(s.ctx, s.message(id.String(), s.openHendelse(id, "HELT_NY_OPPGAVETYPE"))))

		hendelser, err := s.store.HendelserForLeder(s.ctx, testLederFnr)
		s.Require().NoError(err)
		s.Require().Len(hendelser, 1)
		s.Equal(models.HendelseTypeUkjent, hendelser[0].Oppgavetype)
	})
}

func (s *IngestSuite) TestHendelseLestTypes() {
	handler := s.newHendelseHandler()
	s.seedRelationship()

	sykmeldingID := uuid.New()
	soknadID := uuid.New()
	s.Require().NoError(s.store.UpsertSykmelding(s.ctx, models.Sykmelding{
		ID:        sykmeldingID.String(),
		Fnr:       testFnr,
		Orgnummer: testOrg,
		Timestamp: s.now,
	}))
	s.Require().NoError(s.store.UpsertSoknad(s.ctx, models.Soknad{
		ID:        soknadID.String(),
		Fnr:       testFnr,
		Orgnummer: testOrg,
		Timestamp: s.now,
	}))

	s.Run("LEST_SYKMELDING close flips lest on the sykmelding row", func() {
		s.Require().NoError(handler.Handle(s.ctx, s.message(sykmeldingID.String(), s.closeHendelse(sykmeldingID, "LEST_SYKMELDING"))))

		row, err := s.store.FindSykmeldingScoped(s.ctx, sykmeldingID.String(), testLederFnr)
		s.Require().NoError(err)
		s.True(row.Lest)
	})

	s.Run("LEST_SOKNAD close flips lest on the søknad row", func() {
		s.Require().NoError(handler.Handle(s.ctx, s.message(soknadID.String(), s.closeHendelse(soknadID, "LEST_SOKNAD"))))

		row, err := s.store.FindSoknadScoped(s.ctx, soknadID.String(), testLederFnr)
		s.Require().NoError(err)
		s.True(row.Lest)
	})

	s.Run("LEST close for an unknown row is a no-op", func() {
		s.Require().NoError(handler.Handle(s.ctx, s.message("x", s.closeHendelse(uuid.New(), "LEST_SYKMELDING"))))
	})
}
