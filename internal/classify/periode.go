package classify

import (
	domainerrors "minesykmeldte/pkg/domain-errors"

	"minesykmeldte/internal/models"
)

// Periode is the view form of one sykmelding period. Exactly one of the
// per-type payload pointers is set, matching Type.
type Periode struct {
	Fom  models.Date        `json:"fom"`
	Tom  models.Date        `json:"tom"`
	Type models.PeriodeType `json:"type"`

	AktivitetIkkeMulig *AktivitetIkkeMulig `json:"aktivitetIkkeMulig,omitempty"`
	Gradert            *Gradert            `json:"gradert,omitempty"`
	Avventende         *Avventende         `json:"avventende,omitempty"`
	Behandlingsdager   *Behandlingsdager   `json:"behandlingsdager,omitempty"`
	Reisetilskudd      *Reisetilskudd      `json:"reisetilskudd,omitempty"`
}

// AktivitetIkkeMulig carries the reason codes for a full-incapacity period.
type AktivitetIkkeMulig struct {
	Arsaker []string `json:"arsaker"`
}

// Gradert carries the working-grade percentage for a graded period.
type Gradert struct {
	Grad          int  `json:"grad"`
	Reisetilskudd bool `json:"reisetilskudd"`
}

// Avventende carries the employer advice text for an expectant period.
type Avventende struct {
	Tilrettelegging *string `json:"tilrettelegging"`
}

// Behandlingsdager carries the treatment-day count.
type Behandlingsdager struct {
	Dager int `json:"dager"`
}

// Reisetilskudd marks a travel-subsidy period. It has no extra fields.
type Reisetilskudd struct{}

// MapPerioder maps the stored periods onto their view form. A period whose
// type tag requires a payload the row does not carry is a fatal mapping
// error, never a defaulted value, and so is an unrecognized type tag.
func MapPerioder(sykmeldingID string, perioder []models.Periode) ([]Periode, error) {
	out := make([]Periode, 0, len(perioder))
	for _, p := range perioder {
		mapped, err := mapPeriode(p)
		if err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInvariantViolation, "sykmelding "+sykmeldingID)
		}
		out = append(out, mapped)
	}
	return out, nil
}

func mapPeriode(p models.Periode) (Periode, error) {
	mapped := Periode{Fom: p.Fom, Tom: p.Tom, Type: p.Type}
	switch p.Type {
	case models.PeriodeTypeAktivitetIkkeMulig:
		arsaker := []string{}
		if p.AktivitetIkkeMulig != nil {
			arsaker = p.AktivitetIkkeMulig.Arsaker
		}
		mapped.AktivitetIkkeMulig = &AktivitetIkkeMulig{Arsaker: arsaker}
	case models.PeriodeTypeGradert:
		if p.Gradert == nil {
			return Periode{}, domainerrors.New(domainerrors.CodeInvariantViolation, "GRADERT period without grade payload")
		}
		mapped.Gradert = &Gradert{Grad: p.Gradert.Grad, Reisetilskudd: p.Gradert.Reisetilskudd}
	case models.PeriodeTypeAvventende:
		mapped.Avventende = &Avventende{Tilrettelegging: p.InnspillTilArbeidsgiver}
	case models.PeriodeTypeBehandlingsdager:
		if p.Behandlingsdager == nil {
			return Periode{}, domainerrors.New(domainerrors.CodeInvariantViolation, "BEHANDLINGSDAGER period without day count")
		}
		mapped.Behandlingsdager = &Behandlingsdager{Dager: *p.Behandlingsdager}
	case models.PeriodeTypeReisetilskudd:
		mapped.Reisetilskudd = &Reisetilskudd{}
	default:
		return Periode{}, domainerrors.Newf(domainerrors.CodeInvariantViolation, "unhandled period type %q", p.Type)
	}
	return mapped, nil
}
