package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ContestStatus reports whether a contest holds an active Board certification.
type ContestStatus struct {
	ContestID      uuid.UUID `json:"contestId"`
	Name           string    `json:"name"`
	BoardCertified bool      `json:"boardCertified"`
}

// CheckLockable returns nil when every contest is Board certified. An event
// with no contests cannot be locked.
func CheckLockable(contests []ContestStatus) error {
	if len(contests) == 0 {
		return ErrNoContests
	}

	var missing []ContestStatus
	for _, c := range contests {
		if !c.BoardCertified {
			missing = append(missing, c)
		}
	}

	if len(missing) > 0 {
		return ErrNotBoardCertified.WithDetails(map[string]any{"contests": missing})
	}
	return nil
}

// ArchiveKey returns the blob key for an archive of event taken at t.
func ArchiveKey(eventID uuid.UUID, at time.Time) string {
	return fmt.Sprintf("archives/%s/%s.json", eventID, at.UTC().Format("20060102T150405Z"))
}

// Archive is the document written to blob storage when an event is archived.
type Archive struct {
	Event          Event                 `json:"event"`
	Contests       []ArchivedContest     `json:"contests"`
	Certifications []ArchivedCertificate `json:"certifications"`
	ArchivedAt     time.Time             `json:"archivedAt"`
	ArchivedBy     string                `json:"archivedBy"`
}

// ArchivedContest is a contest with its full categories.
type ArchivedContest struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Categories []Category `json:"categories"`
}

// ArchivedCertificate is an active certification captured in an archive.
type ArchivedCertificate struct {
	ID            uuid.UUID  `json:"id"`
	CategoryID    *uuid.UUID `json:"categoryId,omitempty"`
	ContestID     *uuid.UUID `json:"contestId,omitempty"`
	JudgeID       *string    `json:"judgeId,omitempty"`
	Role          string     `json:"role"`
	UserID        string     `json:"userId"`
	SignatureName string     `json:"signatureName"`
	CertifiedAt   time.Time  `json:"certifiedAt"`
	Comments      string     `json:"comments"`
}
