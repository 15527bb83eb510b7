// Package classify holds the classification rules shared by the manager
// view and the unread-count aggregation. Both consumers go through this
// package so the variant enums and time-window arithmetic cannot drift
// between them.
package classify

import (
	domainerrors "minesykmeldte/pkg/domain-errors"

	"minesykmeldte/internal/models"
)

// friskmeldtGraceDays is how many days past the last period end we keep
// treating the employee as on sick leave.
const friskmeldtGraceDays = 16

// MaxTom returns the latest end date across the given periods. An empty
// period list is an upstream contract break and yields an invariant
// violation rather than a zero date.
func MaxTom(perioder []models.Periode) (models.Date, error) {
	if len(perioder) == 0 {
		return models.Date{}, domainerrors.New(domainerrors.CodeInvariantViolation, "sykmelding has no periods")
	}
	max := perioder[0].Tom
	for _, p := range perioder[1:] {
		if p.Tom.After(max.Time) {
			max = p.Tom
		}
	}
	return max, nil
}

// Friskmeldt reports whether the employee counts as recovered: strictly
// more than friskmeldtGraceDays calendar days between the latest period
// end and today.
func Friskmeldt(today models.Date, latestTom models.Date) bool {
	return today.After(latestTom.AddDays(friskmeldtGraceDays).Time)
}
