package bounty

import (
	"encoding/hex"
	"strconv"

	"grindchain/core/types"
)

const (
	EventTypeCreated        = "bounty.created"
	EventTypeClaimed        = "bounty.claimed"
	EventTypeProofSubmitted = "bounty.proof_submitted"
	EventTypeApproved       = "bounty.approved"
	EventTypeRejected       = "bounty.rejected"
	EventTypeFinalized      = "bounty.finalized"
	EventTypeCancelled      = "bounty.cancelled"
	EventTypeAbandoned      = "bounty.abandoned"
)

type bountyEvent struct {
	evt *types.Event
}

func (e bountyEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e bountyEvent) Event() *types.Event { return e.evt }

// NewCreatedEvent returns the canonical payload for a newly opened bounty.
func NewCreatedEvent(b *Bounty) *types.Event { return newBountyEvent(EventTypeCreated, b) }

// NewClaimedEvent returns the payload emitted when an agent claims a bounty.
func NewClaimedEvent(b *Bounty) *types.Event { return newBountyEvent(EventTypeClaimed, b) }

// NewProofSubmittedEvent returns the payload emitted on proof submission.
func NewProofSubmittedEvent(b *Bounty) *types.Event {
	evt := newBountyEvent(EventTypeProofSubmitted, b)
	if b != nil {
		evt.Attributes["proofSubmittedAt"] = strconv.FormatInt(b.ProofSubmittedAt, 10)
	}
	return evt
}

// NewApprovedEvent returns the payload emitted on creator approval and payout.
func NewApprovedEvent(b *Bounty) *types.Event { return newBountyEvent(EventTypeApproved, b) }

// NewRejectedEvent returns the payload emitted when a submission is rejected
// and the bounty reopens.
func NewRejectedEvent(b *Bounty, reason string) *types.Event {
	evt := newBountyEvent(EventTypeRejected, b)
	if reason != "" {
		evt.Attributes["reason"] = reason
	}
	return evt
}

// NewFinalizedEvent returns the payload emitted on timeout settlement.
func NewFinalizedEvent(b *Bounty, caller [20]byte) *types.Event {
	evt := newBountyEvent(EventTypeFinalized, b)
	evt.Attributes["caller"] = hex.EncodeToString(caller[:])
	return evt
}

// NewCancelledEvent returns the payload emitted when an expired open bounty is
// cancelled and refunded.
func NewCancelledEvent(b *Bounty) *types.Event { return newBountyEvent(EventTypeCancelled, b) }

// NewAbandonedEvent returns the payload emitted when a claimer walks away.
func NewAbandonedEvent(b *Bounty, claimer [20]byte) *types.Event {
	evt := newBountyEvent(EventTypeAbandoned, b)
	evt.Attributes["claimer"] = hex.EncodeToString(claimer[:])
	return evt
}

func newBountyEvent(eventType string, b *Bounty) *types.Event {
	attrs := make(map[string]string)
	if b == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["id"] = hex.EncodeToString(b.ID[:])
	attrs["bountyId"] = b.BountyID
	attrs["creator"] = hex.EncodeToString(b.Creator[:])
	attrs["token"] = b.Token
	if b.Amount != nil {
		attrs["amount"] = b.Amount.String()
	}
	attrs["deadline"] = strconv.FormatInt(b.Deadline, 10)
	attrs["status"] = b.Status.String()
	if b.HasClaimer() {
		attrs["claimer"] = hex.EncodeToString(b.Claimer[:])
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}
