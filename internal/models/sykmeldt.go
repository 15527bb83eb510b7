package models

// Sykmeldt is one row per employee fnr, enriched from the person registry
// when a sykmelding arrives. Never deleted here; a retention job outside
// this service cleans up stale rows.
type Sykmeldt struct {
	Fnr                  string
	Navn                 string
	StartdatoSykefravaer Date
	LatestTom            Date
}
