package models

import "time"

// SoknadStatus is the upstream status enum on a sykepengesøknad.
type SoknadStatus string

const (
	SoknadStatusNy        SoknadStatus = "NY"
	SoknadStatusSendt     SoknadStatus = "SENDT"
	SoknadStatusFremtidig SoknadStatus = "FREMTIDIG"
	SoknadStatusKorrigert SoknadStatus = "KORRIGERT"
)

// Svar is one answer on a question node.
type Svar struct {
	Verdi string `json:"verdi"`
}

// Sporsmal is one node in the question/answer tree of a søknad. Undersporsmal
// forms the recursion.
type Sporsmal struct {
	ID             string     `json:"id"`
	Tag            string     `json:"tag"`
	Sporsmalstekst string     `json:"sporsmalstekst"`
	Svartype       string     `json:"svartype"`
	Svar           []Svar     `json:"svar,omitempty"`
	Undersporsmal  []Sporsmal `json:"undersporsmal,omitempty"`
}

// SoknadDTO is the søknad payload as received from the topic and, after
// sensitive-question stripping, as serialized into the row store.
type SoknadDTO struct {
	ID                string       `json:"id"`
	SykmeldingID      string       `json:"sykmeldingId"`
	Fnr               string       `json:"fnr"`
	Status            SoknadStatus `json:"status"`
	Fom               *Date        `json:"fom"`
	Tom               *Date        `json:"tom"`
	Korrigerer        *string      `json:"korrigerer,omitempty"`
	SendtArbeidsgiver *time.Time   `json:"sendtArbeidsgiver,omitempty"`
	Arbeidsgiver      *Arbeidsgiver `json:"arbeidsgiver,omitempty"`
	Sporsmal          []Sporsmal   `json:"sporsmal,omitempty"`
}

// Arbeidsgiver identifies the employer a sykmelding or søknad was sent to.
type Arbeidsgiver struct {
	Orgnummer string `json:"orgnummer"`
	Navn      string `json:"navn"`
}

// Soknad is one row per søknad ID.
type Soknad struct {
	ID           string
	SykmeldingID string
	Fnr          string
	Orgnummer    string
	Payload      SoknadDTO
	SendtDato    Date
	Lest         bool
	Timestamp    time.Time
}
