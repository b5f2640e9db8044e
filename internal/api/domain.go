package api

import (
	"github.com/JaimeStill/certify/internal/certifications"
	"github.com/JaimeStill/certify/internal/events"
	"github.com/JaimeStill/certify/internal/progress"
	"github.com/JaimeStill/certify/internal/removals"
	"github.com/JaimeStill/certify/internal/scores"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Events         events.System
	Scores         scores.System
	Progress       progress.System
	Certifications certifications.System
	Removals       removals.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	return &Domain{
		Events: events.New(
			db,
			runtime.Storage,
			runtime.Notifications,
			runtime.Clock,
			runtime.Logger,
			runtime.Pagination,
		),
		Scores: scores.New(
			db,
			runtime.Notifications,
			runtime.Logger,
			runtime.Pagination,
		),
		Progress: progress.New(
			db,
			runtime.Logger,
			runtime.ProgressConcurrency,
		),
		Certifications: certifications.New(
			db,
			runtime.Notifications,
			runtime.Clock,
			runtime.Logger,
		),
		Removals: removals.New(
			db,
			runtime.Notifications,
			runtime.Clock,
			runtime.Logger,
			runtime.Pagination,
		),
	}
}
