package models

import (
	"time"

	"github.com/google/uuid"
)

// NarmestelederMessage is one relationship event. A message without AktivTom
// establishes the relationship; one with AktivTom ends it.
type NarmestelederMessage struct {
	NarmestelederID  uuid.UUID `json:"narmestelederId"`
	Fnr              string    `json:"fnr"`
	Orgnummer        string    `json:"orgnummer"`
	NarmesteLederFnr string    `json:"narmesteLederFnr"`
	AktivFom         Date      `json:"aktivFom"`
	AktivTom         *Date     `json:"aktivTom"`
}

// SykmeldingMetadata identifies the sykmelding and patient a status event
// belongs to.
type SykmeldingMetadata struct {
	SykmeldingID string `json:"sykmeldingId"`
	Fnr          string `json:"fnr"`
}

// SykmeldingStatusEvent carries the employer the sykmelding was sent to.
type SykmeldingStatusEvent struct {
	Arbeidsgiver Arbeidsgiver `json:"arbeidsgiver"`
}

// SendtSykmeldingMessage is one "sykmelding sent to employer" event. The
// Kafka record value is nil for tombstones, which never reach this type.
type SendtSykmeldingMessage struct {
	KafkaMetadata SykmeldingMetadata     `json:"kafkaMetadata"`
	Event         SykmeldingStatusEvent  `json:"event"`
	Sykmelding    ArbeidsgiverSykmelding `json:"sykmelding"`
}

// OpprettHendelse is the open half of a hendelse event.
type OpprettHendelse struct {
	AnsattFnr       string     `json:"ansattFnr"`
	Orgnummer       string     `json:"orgnummer"`
	Lenke           *string    `json:"lenke,omitempty"`
	Tekst           *string    `json:"tekst,omitempty"`
	Timestamp       time.Time  `json:"timestamp"`
	Utlopstidspunkt *time.Time `json:"utlopstidspunkt,omitempty"`
}

// FerdigstillHendelse is the close half of a hendelse event.
type FerdigstillHendelse struct {
	Timestamp time.Time `json:"timestamp"`
}

// HendelseMessage is one notification lifecycle event. Exactly one of
// OpprettHendelse and FerdigstillHendelse must be set; a message with
// neither is an upstream contract break.
type HendelseMessage struct {
	ID                  uuid.UUID            `json:"id"`
	Oppgavetype         string               `json:"oppgavetype"`
	OpprettHendelse     *OpprettHendelse     `json:"opprettHendelse,omitempty"`
	FerdigstillHendelse *FerdigstillHendelse `json:"ferdigstillHendelse,omitempty"`
}
