package enums

import "fmt"

// ProposalStatus tracks the lifecycle of a commercial travel proposal.
type ProposalStatus string

const (
	ProposalStatusDraft    ProposalStatus = "draft"
	ProposalStatusSent     ProposalStatus = "sent"
	ProposalStatusAccepted ProposalStatus = "accepted"
	ProposalStatusQueued   ProposalStatus = "queued"
	ProposalStatusSynced   ProposalStatus = "synced"
	ProposalStatusError    ProposalStatus = "error"
	ProposalStatusRevoked  ProposalStatus = "revoked"
	ProposalStatusLost     ProposalStatus = "lost"
)

var validProposalStatuses = []ProposalStatus{
	ProposalStatusDraft,
	ProposalStatusSent,
	ProposalStatusAccepted,
	ProposalStatusQueued,
	ProposalStatusSynced,
	ProposalStatusError,
	ProposalStatusRevoked,
	ProposalStatusLost,
}

// String implements fmt.Stringer.
func (p ProposalStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProposalStatus.
func (p ProposalStatus) IsValid() bool {
	for _, candidate := range validProposalStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further version or sync activity is permitted.
func (p ProposalStatus) IsTerminal() bool {
	return p == ProposalStatusRevoked || p == ProposalStatusLost
}

// ParseProposalStatus converts raw input into a ProposalStatus.
func ParseProposalStatus(value string) (ProposalStatus, error) {
	for _, candidate := range validProposalStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid proposal status %q", value)
}
