package classify

import "minesykmeldte/internal/models"

var dialogmoteTyper = map[models.HendelseType]struct{}{
	models.HendelseTypeDialogmoteInnkalling: {},
	models.HendelseTypeDialogmoteAvlysning:  {},
	models.HendelseTypeDialogmoteEndring:    {},
	models.HendelseTypeDialogmoteReferat:    {},
	models.HendelseTypeDialogmoteSvarBehov:  {},
}

var oppfolgingsplanTyper = map[models.HendelseType]struct{}{
	models.HendelseTypeOppfolgingsplanOpprettet:      {},
	models.HendelseTypeOppfolgingsplanTilGodkjenning: {},
}

// IsDialogmote reports whether the type belongs to the dialogue-meeting
// group.
func IsDialogmote(t models.HendelseType) bool {
	_, ok := dialogmoteTyper[t]
	return ok
}

// IsOppfolgingsplan reports whether the type belongs to the follow-up-plan
// group.
func IsOppfolgingsplan(t models.HendelseType) bool {
	_, ok := oppfolgingsplanTyper[t]
	return ok
}

// IsAktivitetskrav reports whether the type is the activity-requirement
// notification, surfaced to the manager as a melding.
func IsAktivitetskrav(t models.HendelseType) bool {
	return t == models.HendelseTypeAktivitetskrav
}
