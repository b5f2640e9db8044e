package certifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/certify/internal/progress"
	"github.com/JaimeStill/certify/pkg/auth"
)

// System defines the public contract for certification records and gates.
type System interface {
	Handler() *Handler

	// CertifyScores certifies a category's scores under the actor's role.
	CertifyScores(ctx context.Context, categoryID uuid.UUID, cmd SignCommand, actor auth.Identity) (*CertifyResult, error)

	// FinalStatus returns the category's readiness for the Auditor gate.
	FinalStatus(ctx context.Context, categoryID uuid.UUID) (*progress.Category, error)

	// SubmitFinal writes the category's AUDITOR certification.
	SubmitFinal(ctx context.Context, categoryID uuid.UUID, cmd SignCommand, actor auth.Identity) (*Certification, error)

	// CertifyContest writes the contest's BOARD certification.
	CertifyContest(ctx context.Context, contestID uuid.UUID, cmd SignCommand, actor auth.Identity) (*Certification, error)

	// Reset revokes a certification and everything downstream of it.
	Reset(ctx context.Context, categoryID uuid.UUID, cmd ResetCommand, actor auth.Identity) (*ResetResult, error)

	List(ctx context.Context, categoryID uuid.UUID) ([]Certification, error)

	// ListContest returns the certification history of a contest and its
	// categories, narrowed by filters.
	ListContest(ctx context.Context, contestID uuid.UUID, filters HistoryFilters) ([]Certification, error)
}
