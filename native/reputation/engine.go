package reputation

import (
	"errors"

	"grindchain/core/events"
	"grindchain/core/types"
)

var errNilState = errors.New("reputation engine: state not configured")

type engineState interface {
	ProfileGet(owner [20]byte) (*CreatorProfile, bool, error)
	ProfilePut(profile *CreatorProfile) error
}

// Engine owns the creator-profile lifecycle: explicit initialisation and
// trusted-caller handle linking. Score mutation on bounty outcomes is driven
// by the bounty engine through the same state backend.
type Engine struct {
	state   engineState
	emitter events.Emitter
}

// NewEngine constructs a profile engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(profileEvent{evt: evt})
}

// InitProfile explicitly initialises the profile for owner. Re-initialising an
// existing profile fails so counters and score are never reset.
func (e *Engine) InitProfile(owner [20]byte) (*CreatorProfile, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if owner == ([20]byte{}) {
		return nil, errors.New("reputation: owner required")
	}
	if _, ok, err := e.state.ProfileGet(owner); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyInitialized
	}
	profile := NewProfile(owner)
	if err := e.state.ProfilePut(profile); err != nil {
		return nil, err
	}
	e.emit(NewProfileInitializedEvent(profile))
	return profile.Clone(), nil
}

// LinkHandle binds an externally verified handle to the owner's profile. The
// caller is trusted to have completed verification out of band; this engine
// only enforces length, non-emptiness and single use.
func (e *Engine) LinkHandle(owner [20]byte, handle string) (*CreatorProfile, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	sanitized, err := SanitizeHandle(handle)
	if err != nil {
		return nil, err
	}
	profile, ok, err := e.state.ProfileGet(owner)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProfileNotFound
	}
	if profile.Verified {
		return nil, ErrHandleAlreadyLinked
	}
	profile.Handle = sanitized
	profile.Verified = true
	if err := e.state.ProfilePut(profile); err != nil {
		return nil, err
	}
	e.emit(NewHandleLinkedEvent(profile))
	return profile.Clone(), nil
}

// Profile returns the stored profile for owner.
func (e *Engine) Profile(owner [20]byte) (*CreatorProfile, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	profile, ok, err := e.state.ProfileGet(owner)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProfileNotFound
	}
	return profile.Clone(), nil
}
