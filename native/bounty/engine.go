package bounty

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"grindchain/core/events"
	"grindchain/core/types"
	"grindchain/native/reputation"
)

var errNilState = errors.New("bounty engine: state not configured")

type engineState interface {
	BountyGet(id [32]byte) (*Bounty, bool, error)
	BountyPut(b *Bounty) error
	VaultGet(id [32]byte) (*Vault, bool, error)
	VaultPut(v *Vault) error
	AgentGet(owner [20]byte) (*AgentProfile, bool, error)
	AgentPut(p *AgentProfile) error
	ProfileGet(owner [20]byte) (*reputation.CreatorProfile, bool, error)
	ProfilePut(p *reputation.CreatorProfile) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Engine owns the bounty lifecycle state machine. It validates every
// precondition against the current state, then mutates the bounty, the
// affected profiles and the escrow vault in one pass; the state backend is
// expected to commit or discard the whole pass atomically.
type Engine struct {
	state          engineState
	emitter        events.Emitter
	nowFn          func() int64
	backingReserve *big.Int
}

// NewEngine creates a bounty engine with a no-op emitter.
func NewEngine() *Engine {
	return &Engine{
		emitter:        events.NoopEmitter{},
		nowFn:          func() int64 { return time.Now().Unix() },
		backingReserve: new(big.Int).Set(DefaultBackingReserve),
	}
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

// SetNowFunc overrides the time source. Primarily intended for tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetBackingReserve overrides the GRIND storage deposit charged per vault.
func (e *Engine) SetBackingReserve(amount *big.Int) {
	if amount == nil || amount.Sign() < 0 {
		e.backingReserve = new(big.Int).Set(DefaultBackingReserve)
		return
	}
	e.backingReserve = new(big.Int).Set(amount)
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(bountyEvent{evt: evt})
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{BalanceUSDG: big.NewInt(0), BalanceGRIND: big.NewInt(0)}
	}
	if acc.BalanceUSDG == nil {
		acc.BalanceUSDG = big.NewInt(0)
	}
	if acc.BalanceGRIND == nil {
		acc.BalanceGRIND = big.NewInt(0)
	}
	return acc
}

func (e *Engine) transferToken(from, to [20]byte, token string, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return fmt.Errorf("bounty: negative transfer amount")
	}
	normalized, err := NormalizeToken(token)
	if err != nil {
		return err
	}
	fromAcc, err := e.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	toAcc, err := e.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	fromAcc = ensureAccount(fromAcc)
	toAcc = ensureAccount(toAcc)
	switch normalized {
	case TokenUSDG:
		if fromAcc.BalanceUSDG.Cmp(amt) < 0 {
			return ErrInsufficientFunds
		}
		fromAcc.BalanceUSDG = new(big.Int).Sub(fromAcc.BalanceUSDG, amt)
		toAcc.BalanceUSDG = new(big.Int).Add(toAcc.BalanceUSDG, amt)
	case TokenGRIND:
		if fromAcc.BalanceGRIND.Cmp(amt) < 0 {
			return ErrInsufficientFunds
		}
		fromAcc.BalanceGRIND = new(big.Int).Sub(fromAcc.BalanceGRIND, amt)
		toAcc.BalanceGRIND = new(big.Int).Add(toAcc.BalanceGRIND, amt)
	}
	if err := e.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to[:], toAcc)
}

func (e *Engine) loadBounty(id [32]byte) (*Bounty, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	b, ok, err := e.state.BountyGet(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

// creatorProfile loads the creator profile, lazily initialising it on first
// touch. The zero-owner sentinel distinguishes a fresh record from an
// initialised one, so a second lazy init can never reset counters.
func (e *Engine) creatorProfile(creator [20]byte) (*reputation.CreatorProfile, error) {
	profile, ok, err := e.state.ProfileGet(creator)
	if err != nil {
		return nil, err
	}
	if !ok || profile.Owner == ([20]byte{}) {
		profile = reputation.NewProfile(creator)
	}
	return profile, nil
}

func (e *Engine) agentProfile(agent [20]byte) (*AgentProfile, error) {
	profile, ok, err := e.state.AgentGet(agent)
	if err != nil {
		return nil, err
	}
	if !ok || profile.Owner == ([20]byte{}) {
		profile = &AgentProfile{Owner: agent}
	}
	return profile, nil
}

// Create opens a new bounty: validates inputs, applies the creator's
// reputation tier policy, locks the amount plus storage backing in a fresh
// vault and persists the Open bounty.
func (e *Engine) Create(creator [20]byte, bountyID, token string, amount *big.Int, deadline int64) (*Bounty, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	now := e.now()
	if deadline <= now {
		return nil, ErrInvalidDeadline
	}
	if bountyID == "" || len(bountyID) > MaxBountyIDLen {
		return nil, ErrBountyIDTooLong
	}
	normalized, err := NormalizeToken(token)
	if err != nil {
		return nil, err
	}
	if normalized != TokenUSDG {
		return nil, fmt.Errorf("%w: bounty value must be %s", ErrUnsupportedToken, TokenUSDG)
	}

	id := DeriveID(creator, bountyID)
	if _, ok, err := e.state.BountyGet(id); err != nil {
		return nil, err
	} else if ok {
		return nil, fmt.Errorf("%w: %s", ErrBountyExists, bountyID)
	}

	profile, err := e.creatorProfile(creator)
	if err != nil {
		return nil, err
	}
	if !profile.CanCreate() {
		return nil, ErrReputationTooLow
	}
	if cap := profile.MaxBountyAmount(); cap != nil && amt.Cmp(cap) > 0 {
		return nil, ErrAmountAboveTier
	}

	b := &Bounty{
		ID:        id,
		Creator:   creator,
		Token:     normalized,
		Amount:    amt,
		Deadline:  deadline,
		CreatedAt: now,
		Status:    StatusOpen,
		BountyID:  bountyID,
	}
	if _, err := e.openVault(b); err != nil {
		return nil, err
	}
	if err := e.state.BountyPut(b); err != nil {
		return nil, err
	}
	profile.TotalCreated++
	if err := e.state.ProfilePut(profile); err != nil {
		return nil, err
	}
	e.emit(NewCreatedEvent(b))
	return b.Clone(), nil
}

// Claim locks an unlocked agent onto an open bounty before its deadline.
func (e *Engine) Claim(id [32]byte, claimer [20]byte) error {
	b, err := e.loadBounty(id)
	if err != nil {
		return err
	}
	if b.Status != StatusOpen {
		return fmt.Errorf("%w: cannot claim in status %s", ErrWrongStatus, b.Status)
	}
	if e.now() >= b.Deadline {
		return ErrDeadlineExpired
	}
	agent, err := e.agentProfile(claimer)
	if err != nil {
		return err
	}
	if agent.HasActive() {
		return ErrAgentBusy
	}
	b.Claimer = claimer
	b.Status = StatusClaimed
	agent.ActiveBounty = b.ID
	if err := e.state.BountyPut(b); err != nil {
		return err
	}
	if err := e.state.AgentPut(agent); err != nil {
		return err
	}
	e.emit(NewClaimedEvent(b))
	return nil
}

// SubmitProof records the claimer's proof reference, stamps the submission
// time that anchors the review window, and unlocks the agent.
func (e *Engine) SubmitProof(id [32]byte, claimer [20]byte, proofURI string) error {
	b, err := e.loadBounty(id)
	if err != nil {
		return err
	}
	if b.Status != StatusClaimed {
		return fmt.Errorf("%w: cannot submit in status %s", ErrWrongStatus, b.Status)
	}
	if b.Claimer != claimer {
		return fmt.Errorf("%w: only the claimer may submit proof", ErrUnauthorized)
	}
	if len(proofURI) > MaxProofLen {
		return ErrProofTooLong
	}
	agent, err := e.agentProfile(claimer)
	if err != nil {
		return err
	}
	if agent.ActiveBounty != b.ID {
		return fmt.Errorf("%w: agent is not locked to this bounty", ErrUnauthorized)
	}
	b.ProofURI = proofURI
	b.ProofSubmittedAt = e.now()
	b.Status = StatusSubmitted
	agent.ActiveBounty = [32]byte{}
	if err := e.state.BountyPut(b); err != nil {
		return err
	}
	if err := e.state.AgentPut(agent); err != nil {
		return err
	}
	e.emit(NewProofSubmittedEvent(b))
	return nil
}

// ApproveAndPay settles a submitted bounty in the claimer's favour: the full
// escrowed amount goes to the claimer, the storage backing returns to the
// creator, and the bounty completes. No reputation delta is applied on this
// path.
func (e *Engine) ApproveAndPay(id [32]byte, caller [20]byte) error {
	b, err := e.loadBounty(id)
	if err != nil {
		return err
	}
	if b.Status != StatusSubmitted {
		return fmt.Errorf("%w: cannot approve in status %s", ErrWrongStatus, b.Status)
	}
	if b.Creator != caller {
		return fmt.Errorf("%w: only the creator may approve", ErrUnauthorized)
	}
	profile, err := e.creatorProfile(b.Creator)
	if err != nil {
		return err
	}
	if err := e.settleVault(b, b.Claimer, b.Creator); err != nil {
		return err
	}
	b.Status = StatusCompleted
	if err := e.state.BountyPut(b); err != nil {
		return err
	}
	profile.TotalCompleted++
	if err := e.state.ProfilePut(profile); err != nil {
		return err
	}
	e.emit(NewApprovedEvent(b))
	return nil
}

// Reject reopens a submitted bounty: claimer, proof and submission timestamp
// are cleared, the stated reason is recorded and the creator takes the
// rejection penalty. The escrow stays locked for the next claimer.
func (e *Engine) Reject(id [32]byte, caller [20]byte, reason string) error {
	b, err := e.loadBounty(id)
	if err != nil {
		return err
	}
	if b.Status != StatusSubmitted {
		return fmt.Errorf("%w: cannot reject in status %s", ErrWrongStatus, b.Status)
	}
	if b.Creator != caller {
		return fmt.Errorf("%w: only the creator may reject", ErrUnauthorized)
	}
	if len(reason) > MaxReasonLen {
		return ErrReasonTooLong
	}
	profile, err := e.creatorProfile(b.Creator)
	if err != nil {
		return err
	}
	b.Status = StatusOpen
	b.RejectionReason = reason
	b.Claimer = [20]byte{}
	b.ProofURI = ""
	b.ProofSubmittedAt = 0
	if err := e.state.BountyPut(b); err != nil {
		return err
	}
	profile.ApplyRep(reputation.RepReject)
	profile.TotalRejected++
	if err := e.state.ProfilePut(profile); err != nil {
		return err
	}
	e.emit(NewRejectedEvent(b, reason))
	return nil
}

// Finalize settles a submitted bounty after the creator ghosted through the
// review window. Callable by anyone; the caller collects the vault's storage
// backing as the trigger incentive and the creator takes the ghost penalty.
func (e *Engine) Finalize(id [32]byte, caller [20]byte) error {
	b, err := e.loadBounty(id)
	if err != nil {
		return err
	}
	if b.Status != StatusSubmitted {
		return fmt.Errorf("%w: cannot finalize in status %s", ErrWrongStatus, b.Status)
	}
	if e.now() <= b.ProofSubmittedAt+ReviewWindowSecs {
		return ErrReviewWindowActive
	}
	profile, err := e.creatorProfile(b.Creator)
	if err != nil {
		return err
	}
	if err := e.settleVault(b, b.Claimer, caller); err != nil {
		return err
	}
	b.Status = StatusCompleted
	if err := e.state.BountyPut(b); err != nil {
		return err
	}
	profile.ApplyRep(reputation.RepGhost)
	profile.TotalAutoFinalized++
	if err := e.state.ProfilePut(profile); err != nil {
		return err
	}
	e.emit(NewFinalizedEvent(b, caller))
	return nil
}

// Cancel refunds an open bounty to its creator once the deadline has passed.
// The deadline gate stops a creator from yanking funds while an agent could
// still claim; cancelling carries no reputation penalty.
func (e *Engine) Cancel(id [32]byte, caller [20]byte) error {
	b, err := e.loadBounty(id)
	if err != nil {
		return err
	}
	if b.Status != StatusOpen {
		return fmt.Errorf("%w: cannot cancel in status %s", ErrWrongStatus, b.Status)
	}
	if b.Creator != caller {
		return fmt.Errorf("%w: only the creator may cancel", ErrUnauthorized)
	}
	if e.now() <= b.Deadline {
		return ErrDeadlineNotReached
	}
	profile, err := e.creatorProfile(b.Creator)
	if err != nil {
		return err
	}
	if err := e.settleVault(b, b.Creator, b.Creator); err != nil {
		return err
	}
	b.Status = StatusCancelled
	if err := e.state.BountyPut(b); err != nil {
		return err
	}
	profile.TotalCancelled++
	if err := e.state.ProfilePut(profile); err != nil {
		return err
	}
	e.emit(NewCancelledEvent(b))
	return nil
}

// AbandonClaim releases the caller's claim. The agent lock always clears; the
// bounty itself only reopens when it is still Claimed — after submission the
// record is left for the creator or the finalize path to settle.
func (e *Engine) AbandonClaim(id [32]byte, claimer [20]byte) error {
	b, err := e.loadBounty(id)
	if err != nil {
		return err
	}
	if b.Claimer != claimer {
		return fmt.Errorf("%w: caller is not the recorded claimer", ErrUnauthorized)
	}
	agent, err := e.agentProfile(claimer)
	if err != nil {
		return err
	}
	if agent.ActiveBounty != b.ID {
		return fmt.Errorf("%w: agent is not locked to this bounty", ErrUnauthorized)
	}
	agent.ActiveBounty = [32]byte{}
	if b.Status == StatusClaimed {
		b.Status = StatusOpen
		b.Claimer = [20]byte{}
		b.ProofURI = ""
		b.ProofSubmittedAt = 0
		if err := e.state.BountyPut(b); err != nil {
			return err
		}
	}
	if err := e.state.AgentPut(agent); err != nil {
		return err
	}
	e.emit(NewAbandonedEvent(b, claimer))
	return nil
}

// Get returns a copy of the stored bounty.
func (e *Engine) Get(id [32]byte) (*Bounty, error) {
	b, err := e.loadBounty(id)
	if err != nil {
		return nil, err
	}
	return b.Clone(), nil
}

// Agent returns the stored agent profile for owner.
func (e *Engine) Agent(owner [20]byte) (*AgentProfile, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	agent, ok, err := e.state.AgentGet(owner)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return agent.Clone(), nil
}
