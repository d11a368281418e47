package reputation

import (
	"errors"
	"fmt"
	"strings"
)

// Reputation score bounds and deltas applied on bounty outcomes. RepComplete
// is declared for the approve path but the engine intentionally does not apply
// it; see the repository design notes before changing that.
const (
	RepInitial  int64 = 100
	RepMin      int64 = 0
	RepMax      int64 = 1000
	RepReject   int64 = -15
	RepGhost    int64 = -30
	RepComplete int64 = 10
)

// MaxHandleLen bounds the linked external handle.
const MaxHandleLen = 64

var (
	// ErrProfileNotFound marks lookups for creators that never initialised.
	ErrProfileNotFound = errors.New("reputation: profile not found")
	// ErrAlreadyInitialized is returned when explicitly re-initialising an
	// existing profile. Counters and score must never be reset.
	ErrAlreadyInitialized = errors.New("reputation: profile already initialized")
	// ErrHandleAlreadyLinked marks re-link attempts once a handle verified.
	ErrHandleAlreadyLinked = errors.New("reputation: handle already linked")
	// ErrHandleRequired marks empty handle submissions.
	ErrHandleRequired = errors.New("reputation: handle required")
	// ErrHandleTooLong marks handles above the length bound.
	ErrHandleTooLong = errors.New("reputation: handle exceeds length bound")
)

// CreatorProfile accumulates the reputation state for one bounty creator.
// Counters only ever grow and Verified never reverts to false.
type CreatorProfile struct {
	Owner              [20]byte `json:"owner"`
	Reputation         int64    `json:"reputation"`
	TotalCreated       uint64   `json:"totalCreated"`
	TotalCompleted     uint64   `json:"totalCompleted"`
	TotalRejected      uint64   `json:"totalRejected"`
	TotalAutoFinalized uint64   `json:"totalAutoFinalized"`
	TotalCancelled     uint64   `json:"totalCancelled"`
	Handle             string   `json:"handle"`
	Verified           bool     `json:"verified"`
}

// NewProfile returns a freshly initialised profile for owner.
func NewProfile(owner [20]byte) *CreatorProfile {
	return &CreatorProfile{Owner: owner, Reputation: RepInitial}
}

// Clone returns a copy callers can mutate without affecting the stored record.
func (p *CreatorProfile) Clone() *CreatorProfile {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// ApplyRep adds delta to the reputation score, clamping the result to the
// [RepMin, RepMax] band.
func (p *CreatorProfile) ApplyRep(delta int64) {
	if p == nil {
		return
	}
	score := p.Reputation + delta
	if score < RepMin {
		score = RepMin
	}
	if score > RepMax {
		score = RepMax
	}
	p.Reputation = score
}

// Validate reports whether the profile satisfies its invariants.
func (p *CreatorProfile) Validate() error {
	if p == nil {
		return errors.New("reputation: profile nil")
	}
	if p.Owner == ([20]byte{}) {
		return errors.New("reputation: owner required")
	}
	if p.Reputation < RepMin || p.Reputation > RepMax {
		return fmt.Errorf("reputation: score %d outside [%d, %d]", p.Reputation, RepMin, RepMax)
	}
	if len(p.Handle) > MaxHandleLen {
		return ErrHandleTooLong
	}
	return nil
}

// SanitizeHandle validates and normalises an external handle submission.
func SanitizeHandle(handle string) (string, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
	if trimmed == "" {
		return "", ErrHandleRequired
	}
	if len(trimmed) > MaxHandleLen {
		return "", ErrHandleTooLong
	}
	return trimmed, nil
}
