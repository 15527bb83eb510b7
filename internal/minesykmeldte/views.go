package minesykmeldte

import (
	"time"

	"github.com/google/uuid"

	"minesykmeldte/internal/classify"
	"minesykmeldte/internal/models"
)

// PreviewSykmeldt is one employee group in the manager view.
type PreviewSykmeldt struct {
	NarmestelederID      uuid.UUID                `json:"narmestelederId"`
	Orgnummer            string                   `json:"orgnummer"`
	Fnr                  string                   `json:"fnr"`
	Navn                 string                   `json:"navn"`
	StartdatoSykefravaer models.Date              `json:"startdatoSykefravaer"`
	Friskmeldt           bool                     `json:"friskmeldt"`
	Sykmeldinger         []PreviewSykmelding      `json:"sykmeldinger"`
	PreviewSoknader      []classify.PreviewSoknad `json:"previewSoknader"`
	Dialogmoter          []Dialogmote             `json:"dialogmoter"`
}

// PreviewSykmelding is one deduplicated sykmelding in the manager view.
type PreviewSykmelding struct {
	ID       string             `json:"id"`
	Orgnavn  string             `json:"orgnavn"`
	Lest     bool               `json:"lest"`
	Perioder []classify.Periode `json:"perioder"`
}

// Dialogmote is one open dialogue-meeting notification.
type Dialogmote struct {
	ID        uuid.UUID           `json:"id"`
	Type      models.HendelseType `json:"type"`
	Tekst     string              `json:"tekst"`
	Lenke     *string             `json:"lenke,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// SykmeldingView is the single-sykmelding detail.
type SykmeldingView struct {
	ID        string             `json:"id"`
	Fnr       string             `json:"fnr"`
	Orgnummer string             `json:"orgnummer"`
	Orgnavn   string             `json:"orgnavn"`
	Lest      bool               `json:"lest"`
	Perioder  []classify.Periode `json:"perioder"`
}

// SoknadView is the single-søknad detail. Sporsmal is the stripped,
// employer-visible question tree.
type SoknadView struct {
	ID           string              `json:"id"`
	SykmeldingID string              `json:"sykmeldingId"`
	Fnr          string              `json:"fnr"`
	Orgnummer    string              `json:"orgnummer"`
	Status       models.SoknadStatus `json:"status"`
	Fom          *models.Date        `json:"fom"`
	Tom          *models.Date        `json:"tom"`
	SendtDato    models.Date         `json:"sendtDato"`
	Lest         bool                `json:"lest"`
	Sporsmal     []models.Sporsmal   `json:"sporsmal,omitempty"`
}
