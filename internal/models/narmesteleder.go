package models

import "github.com/google/uuid"

// Narmesteleder links one employee to one manager for one employer. At most
// one active row exists per (fnr, orgnummer) pair; an ended relationship
// arrives as a delete before a new one becomes authoritative.
type Narmesteleder struct {
	ID        uuid.UUID
	Orgnummer string
	Fnr       string
	LederFnr  string
}
