package classify

import (
	domainerrors "minesykmeldte/pkg/domain-errors"

	"minesykmeldte/internal/models"
)

// SoknadVariant tags a søknad preview.
type SoknadVariant string

const (
	SoknadVariantNy        SoknadVariant = "NY"
	SoknadVariantSendt     SoknadVariant = "SENDT"
	SoknadVariantFremtidig SoknadVariant = "FREMTIDIG"
)

// PreviewSoknad is the classified preview of one søknad. Exactly one of the
// per-variant payload pointers is set, matching Variant.
type PreviewSoknad struct {
	ID           string        `json:"id"`
	SykmeldingID string        `json:"sykmeldingId"`
	Fom          *models.Date  `json:"fom"`
	Tom          *models.Date  `json:"tom"`
	Variant      SoknadVariant `json:"variant"`
	Lest         bool          `json:"lest"`

	Ny        *NySoknad        `json:"ny,omitempty"`
	Sendt     *SendtSoknad     `json:"sendt,omitempty"`
	Fremtidig *FremtidigSoknad `json:"fremtidig,omitempty"`
}

// NySoknad marks a søknad the employee has not yet filled in.
type NySoknad struct {
	IkkeSendtSoknadVarsel bool `json:"ikkeSendtSoknadVarsel"`
}

// SendtSoknad marks a søknad already sent to the employer.
type SendtSoknad struct {
	SendtDato models.Date `json:"sendtDato"`
}

// FremtidigSoknad marks a søknad for a period that has not started yet.
type FremtidigSoknad struct{}

// LatestSoknader drops every søknad that has been superseded by a
// correction, by checking whether its ID appears as another row's
// korrigerer reference within the same group.
func LatestSoknader(soknader []models.Soknad) []models.Soknad {
	korrigerte := make(map[string]struct{})
	for _, s := range soknader {
		if s.Payload.Korrigerer != nil {
			korrigerte[*s.Payload.Korrigerer] = struct{}{}
		}
	}
	latest := make([]models.Soknad, 0, len(soknader))
	for _, s := range soknader {
		if _, superseded := korrigerte[s.ID]; superseded {
			continue
		}
		latest = append(latest, s)
	}
	return latest
}

// ClassifySoknad maps one søknad row onto its preview variant. The hendelser
// slice is the employee's open notifications, consulted for the
// not-sent-reminder flag on NY søknader. Statuses outside the three preview
// variants are an upstream contract break at this point, because superseded
// rows are filtered out before classification.
func ClassifySoknad(s models.Soknad, hendelser []models.Hendelse) (PreviewSoknad, error) {
	if s.Payload.Fom == nil {
		return PreviewSoknad{}, domainerrors.Newf(domainerrors.CodeInvariantViolation, "søknad %s has no fom", s.ID)
	}
	preview := PreviewSoknad{
		ID:           s.ID,
		SykmeldingID: s.SykmeldingID,
		Fom:          s.Payload.Fom,
		Tom:          s.Payload.Tom,
		Lest:         s.Lest,
	}
	switch s.Payload.Status {
	case models.SoknadStatusNy:
		preview.Variant = SoknadVariantNy
		preview.Ny = &NySoknad{IkkeSendtSoknadVarsel: hasIkkeSendtVarsel(hendelser, s.ID)}
	case models.SoknadStatusSendt:
		preview.Variant = SoknadVariantSendt
		preview.Sendt = &SendtSoknad{SendtDato: s.SendtDato}
	case models.SoknadStatusFremtidig:
		preview.Variant = SoknadVariantFremtidig
		preview.Fremtidig = &FremtidigSoknad{}
	default:
		return PreviewSoknad{}, domainerrors.Newf(domainerrors.CodeInvariantViolation, "unhandled søknad status %q on søknad %s", s.Payload.Status, s.ID)
	}
	return preview, nil
}

// IsUnreadSoknad implements the unread predicate over previews: SENDT is
// unread until opened, NY only counts once the not-sent reminder fired, and
// FREMTIDIG never counts.
func IsUnreadSoknad(p PreviewSoknad) bool {
	switch p.Variant {
	case SoknadVariantSendt:
		return !p.Lest
	case SoknadVariantNy:
		return p.Ny != nil && p.Ny.IkkeSendtSoknadVarsel && !p.Lest
	case SoknadVariantFremtidig:
		return false
	default:
		return false
	}
}

func hasIkkeSendtVarsel(hendelser []models.Hendelse, soknadID string) bool {
	for _, h := range hendelser {
		if h.Oppgavetype == models.HendelseTypeIkkeSendtSoknad && h.ID.String() == soknadID {
			return true
		}
	}
	return false
}
