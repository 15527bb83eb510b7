package models

import (
	"time"

	"github.com/google/uuid"
)

// HendelseType tags a notification row. This is the canonical enumeration
// for the whole service; both the view builder and the unread-count
// aggregator classify against it.
type HendelseType string

const (
	HendelseTypeDialogmoteInnkalling          HendelseType = "DIALOGMOTE_INNKALLING"
	HendelseTypeDialogmoteAvlysning           HendelseType = "DIALOGMOTE_AVLYSNING"
	HendelseTypeDialogmoteEndring             HendelseType = "DIALOGMOTE_ENDRING"
	HendelseTypeDialogmoteReferat             HendelseType = "DIALOGMOTE_REFERAT"
	HendelseTypeDialogmoteSvarBehov           HendelseType = "DIALOGMOTE_SVAR_BEHOV"
	HendelseTypeAktivitetskrav                HendelseType = "AKTIVITETSKRAV"
	HendelseTypeIkkeSendtSoknad               HendelseType = "IKKE_SENDT_SOKNAD"
	HendelseTypeOppfolgingsplanOpprettet      HendelseType = "OPPFOLGINGSPLAN_OPPRETTET"
	HendelseTypeOppfolgingsplanTilGodkjenning HendelseType = "OPPFOLGINGSPLAN_TIL_GODKJENNING"
	HendelseTypeLestSykmelding                HendelseType = "LEST_SYKMELDING"
	HendelseTypeLestSoknad                    HendelseType = "LEST_SOKNAD"
	HendelseTypeUkjent                        HendelseType = "UKJENT"
)

var knownHendelseTyper = map[HendelseType]struct{}{
	HendelseTypeDialogmoteInnkalling:          {},
	HendelseTypeDialogmoteAvlysning:           {},
	HendelseTypeDialogmoteEndring:             {},
	HendelseTypeDialogmoteReferat:             {},
	HendelseTypeDialogmoteSvarBehov:           {},
	HendelseTypeAktivitetskrav:                {},
	HendelseTypeIkkeSendtSoknad:               {},
	HendelseTypeOppfolgingsplanOpprettet:      {},
	HendelseTypeOppfolgingsplanTilGodkjenning: {},
	HendelseTypeLestSykmelding:                {},
	HendelseTypeLestSoknad:                    {},
}

// ParseHendelseType maps an inbound oppgavetype string onto the enumeration.
// Unknown strings become HendelseTypeUkjent; ingest persists those so a
// later deploy can reclassify, but classification never surfaces them.
func ParseHendelseType(s string) HendelseType {
	t := HendelseType(s)
	if _, ok := knownHendelseTyper[t]; ok {
		return t
	}
	return HendelseTypeUkjent
}

// Hendelse is one notification row, keyed by the composite (ID, Oppgavetype).
type Hendelse struct {
	ID                   uuid.UUID
	Oppgavetype          HendelseType
	Fnr                  string
	Orgnummer            string
	Lenke                *string
	Tekst                *string
	Timestamp            time.Time
	Utlopstidspunkt      *time.Time
	Ferdigstilt          bool
	FerdigstiltTimestamp *time.Time
}
