package reputation

import (
	"encoding/hex"
	"strconv"

	"grindchain/core/types"
)

const (
	EventTypeProfileInitialized = "profile.initialized"
	EventTypeHandleLinked       = "profile.handle_linked"
)

type profileEvent struct {
	evt *types.Event
}

func (e profileEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e profileEvent) Event() *types.Event { return e.evt }

// NewProfileInitializedEvent returns the canonical payload emitted when a
// creator profile is initialised.
func NewProfileInitializedEvent(p *CreatorProfile) *types.Event {
	return newProfileEvent(EventTypeProfileInitialized, p)
}

// NewHandleLinkedEvent returns the canonical payload emitted when an external
// handle is linked and the profile becomes verified.
func NewHandleLinkedEvent(p *CreatorProfile) *types.Event {
	return newProfileEvent(EventTypeHandleLinked, p)
}

func newProfileEvent(eventType string, p *CreatorProfile) *types.Event {
	attrs := make(map[string]string)
	if p == nil {
		return &types.Event{Type: eventType, Attributes: attrs}
	}
	attrs["owner"] = hex.EncodeToString(p.Owner[:])
	attrs["reputation"] = strconv.FormatInt(p.Reputation, 10)
	attrs["verified"] = strconv.FormatBool(p.Verified)
	if p.Handle != "" {
		attrs["handle"] = p.Handle
	}
	return &types.Event{Type: eventType, Attributes: attrs}
}
