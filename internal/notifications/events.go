package notifications

// Notification types published after state changes commit.
const (
	ScoreSubmitted         = "score.submitted"
	ScoresCertified        = "scores.certified"
	CertificationSubmitted = "certification.submitted"
	CertificationReset     = "certification.reset"
	ContestCertified       = "contest.certified"
	RemovalCreated         = "removal.created"
	RemovalSigned          = "removal.signed"
	RemovalRejected        = "removal.rejected"
	RemovalExecuted        = "removal.executed"
	EventLocked            = "event.locked"
	EventUnlocked          = "event.unlocked"
	EventArchived          = "event.archived"
)
