// Package progress derives certification readiness from the score grid and
// the active certification records. Nothing here is persisted; every read
// recomputes from the tables.
package progress

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/certify/internal/events"
	"github.com/JaimeStill/certify/internal/scores"
)

// Certification roles in workflow order.
const (
	RoleJudge       = "JUDGE"
	RoleTallyMaster = "TALLY_MASTER"
	RoleAuditor     = "AUDITOR"
	RoleBoard       = "BOARD"
)

// Certification is the read model of an active certification record.
type Certification struct {
	ID            uuid.UUID `json:"id"`
	Role          string    `json:"role"`
	JudgeID       *string   `json:"judgeId,omitempty"`
	UserID        string    `json:"userId"`
	SignatureName string    `json:"signatureName"`
	CertifiedAt   time.Time `json:"certifiedAt"`
	Comments      string    `json:"comments,omitempty"`
}

// Cell is one observed score of a category grid.
type Cell struct {
	ContestantID string
	JudgeID      string
	CriterionID  uuid.UUID
	HasValue     bool
	Certified    bool
}

// Combination identifies a grid cell.
type Combination struct {
	ContestantID string    `json:"contestantId"`
	JudgeID      string    `json:"judgeId"`
	CriterionID  uuid.UUID `json:"criterionId"`
}

// Input is everything Compute needs for one category.
type Input struct {
	Category       events.Category
	Cells          []Cell
	Certifications []Certification
}

// TallyStatus tracks Tally Master certifications against assigned judges.
type TallyStatus struct {
	Required       int             `json:"required"`
	Completed      int             `json:"completed"`
	Missing        []string        `json:"missing"`
	Certifications []Certification `json:"certifications"`
}

// Complete reports whether every assigned judge holds a Tally Master certification.
func (t TallyStatus) Complete() bool {
	return t.Required > 0 && t.Completed == t.Required
}

// Category is the certification progress of one category.
type Category struct {
	CategoryID                 uuid.UUID      `json:"categoryId"`
	CategoryName               string         `json:"categoryName"`
	CanCertify                 bool           `json:"canCertify"`
	ReadyForFinalCertification bool           `json:"readyForFinalCertification"`
	AlreadyCertified           bool           `json:"alreadyCertified"`
	TallyCertifications        TallyStatus    `json:"tallyCertifications"`
	ScoreStatus                scores.Status  `json:"scoreStatus"`
	AuditorCertified           bool           `json:"auditorCertified"`
	AuditorCertification       *Certification `json:"auditorCertification"`
}

// Compute derives category progress from in. A category without judges or
// without expected scores is never ready.
func Compute(in Input) Category {
	c := Category{
		CategoryID:   in.Category.ID,
		CategoryName: in.Category.Name,
	}

	tallied := map[string]bool{}
	c.TallyCertifications.Certifications = []Certification{}
	for _, cert := range in.Certifications {
		switch cert.Role {
		case RoleTallyMaster:
			c.TallyCertifications.Certifications = append(c.TallyCertifications.Certifications, cert)
			if cert.JudgeID != nil {
				tallied[*cert.JudgeID] = true
			}
		case RoleAuditor:
			c.AuditorCertification = &cert
		}
	}

	c.TallyCertifications.Required = len(in.Category.Judges)
	c.TallyCertifications.Missing = []string{}
	for _, j := range in.Category.Judges {
		if tallied[j.JudgeID] {
			c.TallyCertifications.Completed++
		} else {
			c.TallyCertifications.Missing = append(c.TallyCertifications.Missing, j.JudgeID)
		}
	}

	uncertified := 0
	for _, cell := range in.Cells {
		if !cell.Certified {
			uncertified++
		}
	}
	c.ScoreStatus = scores.NewStatus(len(in.Cells), uncertified)

	c.AuditorCertified = c.AuditorCertification != nil
	c.AlreadyCertified = c.AuditorCertified
	c.ReadyForFinalCertification = c.TallyCertifications.Complete() &&
		c.ScoreStatus.Completed &&
		Expected(in.Category) > 0 &&
		len(Missing(in.Category, in.Cells, "")) == 0 &&
		!c.AuditorCertified
	c.CanCertify = c.ReadyForFinalCertification && !c.AlreadyCertified

	return c
}

// Expected returns the size of the category's score grid.
func Expected(category events.Category) int {
	return len(category.Contestants) * len(category.Judges) * len(category.Criteria)
}

// Missing lists grid cells without a non-null score. A non-empty judgeID
// restricts the grid to that judge.
func Missing(category events.Category, cells []Cell, judgeID string) []Combination {
	filled := make(map[Combination]bool, len(cells))
	for _, cell := range cells {
		if cell.HasValue {
			filled[Combination{cell.ContestantID, cell.JudgeID, cell.CriterionID}] = true
		}
	}

	missing := []Combination{}
	for _, ct := range category.Contestants {
		for _, j := range category.Judges {
			if judgeID != "" && j.JudgeID != judgeID {
				continue
			}
			for _, cr := range category.Criteria {
				key := Combination{ct.ContestantID, j.JudgeID, cr.ID}
				if !filled[key] {
					missing = append(missing, key)
				}
			}
		}
	}
	return missing
}

// Contest is the certification progress of every category in a contest.
type Contest struct {
	ContestID           uuid.UUID      `json:"contestId"`
	TotalCategories     int            `json:"totalCategories"`
	CertifiedCategories int            `json:"certifiedCategories"`
	ReadyForBoard       bool           `json:"readyForBoard"`
	BoardCertified      bool           `json:"boardCertified"`
	BoardCertification  *Certification `json:"boardCertification"`
	Categories          []Category     `json:"categories"`
}

// Summarize folds category progress into contest progress.
func Summarize(contestID uuid.UUID, categories []Category, board *Certification) Contest {
	c := Contest{
		ContestID:          contestID,
		TotalCategories:    len(categories),
		BoardCertified:     board != nil,
		BoardCertification: board,
		Categories:         categories,
	}
	if c.Categories == nil {
		c.Categories = []Category{}
	}

	for _, cat := range categories {
		if cat.AuditorCertified {
			c.CertifiedCategories++
		}
	}

	c.ReadyForBoard = c.TotalCategories > 0 &&
		c.CertifiedCategories == c.TotalCategories &&
		!c.BoardCertified
	return c
}

// Uncertified returns the categories that lack an Auditor certification.
func (c Contest) Uncertified() []Category {
	return slices.DeleteFunc(slices.Clone(c.Categories), func(cat Category) bool {
		return cat.AuditorCertified
	})
}
