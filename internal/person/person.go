// Package person resolves employee display names and sick-leave episode
// onset dates from the person registry collaborator.
package person

import (
	"context"
	"errors"

	"minesykmeldte/internal/models"
)

// ErrNotFound means the registry has no record for the fnr. It is distinct
// from transport errors so callers can apply the environment-gated skip
// policy to exactly this case.
var ErrNotFound = errors.New("person not found")

// Person is the enrichment data attached to an employee row.
type Person struct {
	Navn                 string      `json:"navn"`
	StartdatoSykefravaer models.Date `json:"startdatoSykefravaer"`
}

//go:generate mockgen -destination=mocks/resolver_mock.go -package=mocks minesykmeldte/internal/person Resolver

// Resolver looks up a person by national ID.
type Resolver interface {
	Resolve(ctx context.Context, fnr string) (*Person, error)
}
