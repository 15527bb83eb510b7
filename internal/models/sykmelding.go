package models

import "time"

// PeriodeType tags the incapacity classification of one sykmelding period.
type PeriodeType string

const (
	PeriodeTypeAktivitetIkkeMulig PeriodeType = "AKTIVITET_IKKE_MULIG"
	PeriodeTypeGradert            PeriodeType = "GRADERT"
	PeriodeTypeAvventende         PeriodeType = "AVVENTENDE"
	PeriodeTypeBehandlingsdager   PeriodeType = "BEHANDLINGSDAGER"
	PeriodeTypeReisetilskudd      PeriodeType = "REISETILSKUDD"
)

// Periode is one period as received and persisted. The type-specific fields
// are nullable here; internal/classify validates that the field matching the
// tag is present when mapping to the view form.
type Periode struct {
	Fom                     Date                `json:"fom"`
	Tom                     Date                `json:"tom"`
	Type                    PeriodeType         `json:"type"`
	AktivitetIkkeMulig      *AktivitetIkkeMulig `json:"aktivitetIkkeMulig,omitempty"`
	Gradert                 *Gradert            `json:"gradert,omitempty"`
	Behandlingsdager        *int                `json:"behandlingsdager,omitempty"`
	InnspillTilArbeidsgiver *string             `json:"innspillTilArbeidsgiver,omitempty"`
}

// AktivitetIkkeMulig carries the reason codes for a full-incapacity period.
type AktivitetIkkeMulig struct {
	Arsaker []string `json:"arsaker"`
}

// Gradert carries the grade percentage for a graded period.
type Gradert struct {
	Grad          int  `json:"grad"`
	Reisetilskudd bool `json:"reisetilskudd"`
}

// ArbeidsgiverSykmelding is the employer-visible sykmelding payload as
// serialized into the row store.
type ArbeidsgiverSykmelding struct {
	ID       string    `json:"id"`
	Perioder []Periode `json:"sykmeldingsperioder"`
}

// Sykmelding is one row per sykmelding ID. LatestTom always equals the
// maximum tom across the payload's periods.
type Sykmelding struct {
	ID        string
	Fnr       string
	Orgnummer string
	Orgnavn   string
	Payload   ArbeidsgiverSykmelding
	Lest      bool
	Timestamp time.Time
	LatestTom Date
}
