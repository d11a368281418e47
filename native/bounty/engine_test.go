package bounty

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"grindchain/core/types"
	"grindchain/native/reputation"
)

type mockState struct {
	bounties map[[32]byte]*Bounty
	vaults   map[[32]byte]*Vault
	agents   map[[20]byte]*AgentProfile
	profiles map[[20]byte]*reputation.CreatorProfile
	accounts map[[20]byte]*types.Account
}

func newMockState() *mockState {
	return &mockState{
		bounties: make(map[[32]byte]*Bounty),
		vaults:   make(map[[32]byte]*Vault),
		agents:   make(map[[20]byte]*AgentProfile),
		profiles: make(map[[20]byte]*reputation.CreatorProfile),
		accounts: make(map[[20]byte]*types.Account),
	}
}

func (m *mockState) BountyGet(id [32]byte) (*Bounty, bool, error) {
	b, ok := m.bounties[id]
	if !ok {
		return nil, false, nil
	}
	return b.Clone(), true, nil
}

func (m *mockState) BountyPut(b *Bounty) error {
	sanitized, err := Sanitize(b)
	if err != nil {
		return err
	}
	m.bounties[sanitized.ID] = sanitized
	return nil
}

func (m *mockState) VaultGet(id [32]byte) (*Vault, bool, error) {
	v, ok := m.vaults[id]
	if !ok {
		return nil, false, nil
	}
	return v.Clone(), true, nil
}

func (m *mockState) VaultPut(v *Vault) error {
	m.vaults[v.Bounty] = v.Clone()
	return nil
}

func (m *mockState) AgentGet(owner [20]byte) (*AgentProfile, bool, error) {
	a, ok := m.agents[owner]
	if !ok {
		return nil, false, nil
	}
	return a.Clone(), true, nil
}

func (m *mockState) AgentPut(a *AgentProfile) error {
	m.agents[a.Owner] = a.Clone()
	return nil
}

func (m *mockState) ProfileGet(owner [20]byte) (*reputation.CreatorProfile, bool, error) {
	p, ok := m.profiles[owner]
	if !ok {
		return nil, false, nil
	}
	return p.Clone(), true, nil
}

func (m *mockState) ProfilePut(p *reputation.CreatorProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.profiles[p.Owner] = p.Clone()
	return nil
}

func (m *mockState) GetAccount(addr []byte) (*types.Account, error) {
	var key [20]byte
	copy(key[:], addr)
	acc, ok := m.accounts[key]
	if !ok {
		return &types.Account{BalanceUSDG: big.NewInt(0), BalanceGRIND: big.NewInt(0)}, nil
	}
	return &types.Account{
		Nonce:        acc.Nonce,
		BalanceUSDG:  new(big.Int).Set(acc.BalanceUSDG),
		BalanceGRIND: new(big.Int).Set(acc.BalanceGRIND),
	}, nil
}

func (m *mockState) PutAccount(addr []byte, acc *types.Account) error {
	var key [20]byte
	copy(key[:], addr)
	m.accounts[key] = acc
	return nil
}

func newTestAddress(fill byte) [20]byte {
	var addr [20]byte
	copy(addr[:], bytes.Repeat([]byte{fill}, 20))
	return addr
}

func (m *mockState) fund(addr [20]byte, usdg, grind int64) {
	m.accounts[addr] = &types.Account{
		BalanceUSDG:  big.NewInt(usdg),
		BalanceGRIND: big.NewInt(grind),
	}
}

func (m *mockState) balance(addr [20]byte, token string) *big.Int {
	acc, ok := m.accounts[addr]
	if !ok {
		return big.NewInt(0)
	}
	if token == TokenGRIND {
		return acc.BalanceGRIND
	}
	return acc.BalanceUSDG
}

const testBacking = 1_000

func newTestEngine(state *mockState, now int64) *Engine {
	e := NewEngine()
	e.SetState(state)
	e.SetNowFunc(func() int64 { return now })
	e.SetBackingReserve(big.NewInt(testBacking))
	return e
}

var (
	creatorAddr = [20]byte{0x01}
	agentAddr   = [20]byte{0x02}
	otherAddr   = [20]byte{0x03}
)

func mustCreate(t *testing.T, e *Engine, state *mockState, amount int64, deadline int64) *Bounty {
	t.Helper()
	state.fund(creatorAddr, 1_000_000_000, 1_000_000)
	b, err := e.Create(creatorAddr, "task-1", TokenUSDG, big.NewInt(amount), deadline)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return b
}

func TestCreateOpensEscrow(t *testing.T) {
	state := newMockState()
	e := newTestEngine(state, 1_000)
	b := mustCreate(t, e, state, 100, 2_000)

	if b.Status != StatusOpen {
		t.Fatalf("expected open, got %s", b.Status)
	}
	if b.HasClaimer() {
		t.Fatalf("open bounty must have no claimer")
	}
	if b.ProofURI != "" {
		t.Fatalf("open bounty must have empty proof reference")
	}
	vault, ok, _ := state.VaultGet(b.ID)
	if !ok {
		t.Fatalf("vault not created")
	}
	if vault.Balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("vault holds %s, want 100", vault.Balance)
	}
	if vault.Authority != VaultAuthority(creatorAddr, "task-1") {
		t.Fatalf("vault authority not derived from bounty inputs")
	}
	if got := state.balance(VaultAddress(b.ID), TokenUSDG); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("vault account holds %s, want 100", got)
	}
	profile := state.profiles[creatorAddr]
	if profile == nil || profile.TotalCreated != 1 {
		t.Fatalf("creator profile not lazily initialised with totalCreated=1")
	}
	if profile.Reputation != reputation.RepInitial {
		t.Fatalf("fresh profile reputation = %d, want %d", profile.Reputation, reputation.RepInitial)
	}
}

func TestCreateZeroAmountFails(t *testing.T) {
	state := newMockState()
	e := newTestEngine(state, 1_000)
	state.fund(creatorAddr, 1_000_000, 1_000_000)

	_, err := e.Create(creatorAddr, "task-1", TokenUSDG, big.NewInt(0), 2_000)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, ok := state.profiles[creatorAddr]; ok {
		t.Fatalf("failed create must not mutate any profile counter")
	}
}

func TestCreateValidation(t *testing.T) {
	state := newMockState()
	e := newTestEngine(state, 1_000)
	state.fund(creatorAddr, 1_000_000, 1_000_000)

	if _, err := e.Create(creatorAddr, "task-1", TokenUSDG, big.NewInt(10), 1_000); !errors.Is(err, ErrInvalidDeadline) {
		t.Fatalf("past deadline: %v", err)
	}
	longID := string(bytes.Repeat([]byte("x"), MaxBountyIDLen+1))
	if _, err := e.Create(creatorAddr, longID, TokenUSDG, big.NewInt(10), 2_000); !errors.Is(err, ErrBountyIDTooLong) {
		t.Fatalf("long id: %v", err)
	}
	if _, err := e.Create(creatorAddr, "task-1", "DOGE", big.NewInt(10), 2_000); !errors.Is(err, ErrUnsupportedToken) {
		t.Fatalf("bad token: %v", err)
	}
	if _, err := e.Create(creatorAddr, "task-1", TokenUSDG, big.NewInt(10), 2_000); err != nil {
		t.Fatalf("valid create: %v", err)
	}
	if _, err := e.Create(creatorAddr, "task-1", TokenUSDG, big.NewInt(10), 2_000); !errors.Is(err, ErrBountyExists) {
		t.Fatalf("duplicate id: %v", err)
	}
}

func TestCreateTierCap(t *testing.T) {
	state := newMockState()
	e := newTestEngine(state, 1_000)
	state.fund(creatorAddr, 1_000_000_000, 1_000_000)

	// Unverified creators are capped at the small fixed cap regardless of score.
	over := new(big.Int).Add(reputation.UnverifiedCap, big.NewInt(1))
	if _, err := e.Create(creatorAddr, "big", TokenUSDG, over, 2_000); !errors.Is(err, ErrAmountAboveTier) {
		t.Fatalf("unverified over cap: %v", err)
	}

	// Verified but blocked-tier creators may not create at all.
	blocked := reputation.NewProfile(creatorAddr)
	blocked.Verified = true
	blocked.Reputation = reputation.TierBlocked - 1
	state.profiles[creatorAddr] = blocked
	if _, err := e.Create(creatorAddr, "blocked", TokenUSDG, big.NewInt(1), 2_000); !errors.Is(err, ErrReputationTooLow) {
		t.Fatalf("blocked tier: %v", err)
	}

	// Limited tier gets the limited cap.
	limited := reputation.NewProfile(creatorAddr)
	limited.Verified = true
	limited.Reputation = reputation.TierLimited - 1
	state.profiles[creatorAddr] = limited
	overLimited := new(big.Int).Add(reputation.LimitedCap, big.NewInt(1))
	if _, err := e.Create(creatorAddr, "limited", TokenUSDG, overLimited, 2_000); !errors.Is(err, ErrAmountAboveTier) {
		t.Fatalf("limited tier over cap: %v", err)
	}

	// At the unlimited tier the unverified cap no longer applies.
	trusted := reputation.NewProfile(creatorAddr)
	trusted.Verified = true
	trusted.Reputation = reputation.TierLimited
	state.profiles[creatorAddr] = trusted
	if _, err := e.Create(creatorAddr, "huge", TokenUSDG, big.NewInt(900_000_000), 2_000); err != nil {
		t.Fatalf("unlimited tier: %v", err)
	}
}

func TestClaimLocksAgent(t *testing.T) {
	state := newMockState()
	e := newTestEngine(state, 1_000)
	b := mustCreate(t, e, state, 100, 2_000)

	if err := e.Claim(b.ID, agentAddr); err != nil {
		t.Fatalf("claim: %v", err)
	}
	stored := state.bounties[b.ID]
	if stored.Status != StatusClaimed || !stored.HasClaimer() {
		t.Fatalf("claimed bounty must record claimer, got %s", stored.Status)
	}
	agent := state.agents[agentAddr]
	if agent == nil || agent.ActiveBounty != b.ID {
		t.Fatalf("agent lock not set")
	}

	// Second claim by the same agent fails regardless of the target bounty.
	state.fund(creatorAddr, 1_000_000, 1_000_000)
	b2, err := e.Create(creatorAddr, "task-2", TokenUSDG, big.NewInt(50), 2_000)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if err := e.Claim(b2.ID, agentAddr); !errors.Is(err, ErrAgentBusy) {
		t.Fatalf("expected ErrAgentBusy, got %v", err)
	}
}

func TestClaimAfterDeadlineFails(t *testing.T) {
	state := newMockState()
	e := newTestEngine(state, 1_000)
	b := mustCreate(t, e, state, 100, 2_000)

	e.SetNowFunc(func() int64 { return 2_000 })
	if err := e.Claim(b.ID, agentAddr); !errors.Is(err, ErrDeadlineExpired) {
		t.Fatalf("expected ErrDeadlineExpired, got %v", err)
	}
}

func TestSubmitProof(t *testing.T) {
	state := newMockState()
	e := newTestEngine(state, 1_000)
	b := mustCreate(t, e, state, 100, 2_000)
	if err := e.Claim(b.ID, agentAddr); err != nil {
		t.Fatalf("claim: %v", err)
	}

	if err := e.SubmitProof(b.ID, otherAddr, "ipfs://proof"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-claimer submit: %v", err)
	}
	longProof := string(bytes.Repeat([]byte("p"), MaxProofLen+1))
	if err := e.SubmitProof(b.ID, agentAddr, longProof); !errors.Is(err, ErrProofTooLong) {
		t.Fatalf("long proof: %v", err)
	}
	if err := e.SubmitProof(b.ID, agentAddr, "ipfs://proof"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	stored := state.bounties[b.ID]
	if stored.Status != StatusSubmitted || stored.ProofURI != "ipfs://proof" || stored.ProofSubmittedAt != 1_000 {
		t.Fatalf("submission not recorded: %+v", stored)
	}
	if state.agents[agentAddr].HasActive() {
		t.Fatalf("submit must release the agent lock")
	}
}

func TestApproveAndPay(t *testing.T) {
	state := newMockState()
	e := newTestEngine(state, 1_000)
	b := mustCreate(t, e, state, 100, 2_000)
	if err := e.Claim(b.ID, agentAddr); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := e.SubmitProof(b.ID, agentAddr, "ipfs://proof"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := e.ApproveAndPay(b.ID, otherAddr); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-creator approve: %v", err)
	}
	creatorGrindBefore := new(big.Int).Set(state.balance(creatorAddr, TokenGRIND))
	if err := e.ApproveAndPay(b.ID, creatorAddr); err != nil {
		t.Fatalf("approve: %v", err)
	}
	stored := state.bounties[b.ID]
	if stored.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", stored.Status)
	}
	if got := state.balance(agentAddr, TokenUSDG); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("claimer received %s, want exactly 100", got)
	}
	vault := state.vaults[b.ID]
	if !vault.Closed || vault.Balance.Sign() != 0 {
		t.Fatalf("vault must be emptied and closed: %+v", vault)
	}
	wantGrind := new(big.Int).Add(creatorGrindBefore, big.NewInt(testBacking))
	if got := state.balance(creatorAddr, TokenGRIND); got.Cmp(wantGrind) != 0 {
		t.Fatalf("backing not reclaimed to creator: %s, want %s", got, wantGrind)
	}
	profile := state.profiles[creatorAddr]
	if profile.TotalCompleted != 1 {
		t.Fatalf("totalCompleted = %d, want 1", profile.TotalCompleted)
	}
	if profile.Reputation != reputation.RepInitial {
		t.Fatalf("approve path applies no reputation delta, got %d", profile.Reputation)
	}

	// Terminal: nothing moves a completed bounty.
	if err := e.ApproveAndPay(b.ID, creatorAddr); !errors.Is(err, ErrWrongStatus) {
		t.Fatalf("re-approve: %v", err)
	}
	if err := e.Claim(b.ID, agentAddr); !errors.Is(err, ErrWrongStatus) {
		t.Fatalf("claim completed: %v", err)
	}
}

func TestRejectReopensAndPenalizes(t *testing.T) {
	state := newMockState()
	e := newTestEngine(state, 1_000)
	b := mustCreate(t, e, state, 100, 2_000)
	if err := e.Claim(b.ID, agentAddr); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := e.SubmitProof(b.ID, agentAddr, "ipfs://proof"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	longReason := string(bytes.Repeat([]byte("r"), MaxReasonLen+1))
	if err := e.Reject(b.ID, creatorAddr, longReason); !errors.Is(err, ErrReasonTooLong) {
		t.Fatalf("long reason: %v", err)
	}
	if err := e.Reject(b.ID, creatorAddr, "not what was asked"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	stored := state.bounties[b.ID]
	if stored.Status != StatusOpen || stored.HasClaimer() || stored.ProofURI != "" || stored.ProofSubmittedAt != 0 {
		t.Fatalf("reject must reopen with claimer and proof cleared: %+v", stored)
	}
	if stored.RejectionReason != "not what was asked" {
		t.Fatalf("reason not stored")
	}
	profile := state.profiles[creatorAddr]
	if profile.Reputation != reputation.RepInitial+reputation.RepReject {
		t.Fatalf("reputation = %d, want %d", profile.Reputation, reputation.RepInitial+reputation.RepReject)
	}
	if profile.TotalRejected != 1 {
		t.Fatalf("totalRejected = %d, want 1", profile.TotalRejected)
	}
	// Escrow stays locked for the next claimer.
	vault := state.vaults[b.ID]
	if vault.Closed || vault.Balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("escrow must remain funded after reject: %+v", vault)
	}
}

func TestRejectClampsAtFloor(t *testing.T) {
	state := newMockState()
	e := newTestEngine(state, 1_000)
	b := mustCreate(t, e, state, 100, 2_000)
	if err := e.Claim(b.ID, agentAddr); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := e.SubmitProof(b.ID, agentAddr, "proof"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	profile := state.profiles[creatorAddr]
	profile.Reputation = 5
	state.profiles[creatorAddr] = profile

	if err := e.Reject(b.ID, creatorAddr, "nope"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got := state.profiles[creatorAddr].Reputation; got != 0 {
		t.Fatalf("reputation must clamp at 0, got %d", got)
	}
}

func TestFinalizeWindowBoundary(t *testing.T) {
	state := newMockState()
	e := newTestEngine(state, 1_000)
	b := mustCreate(t, e, state, 100, 2_000)
	if err := e.Claim(b.ID, agentAddr); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := e.SubmitProof(b.ID, agentAddr, "proof"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Exactly at the window edge the review window is still active.
	e.SetNowFunc(func() int64 { return 1_000 + ReviewWindowSecs })
	if err := e.Finalize(b.ID, otherAddr); !errors.Is(err, ErrReviewWindowActive) {
		t.Fatalf("at window edge: %v", err)
	}

	e.SetNowFunc(func() int64 { return 1_000 + ReviewWindowSecs + 1 })
	callerGrindBefore := new(big.Int).Set(state.balance(otherAddr, TokenGRIND))
	if err := e.Finalize(b.ID, otherAddr); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	stored := state.bounties[b.ID]
	if stored.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", stored.Status)
	}
	if got := state.balance(agentAddr, TokenUSDG); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("claimer received %s, want exactly 100", got)
	}
	// The finalize caller collects the backing reserve as incentive.
	wantGrind := new(big.Int).Add(callerGrindBefore, big.NewInt(testBacking))
	if got := state.balance(otherAddr, TokenGRIND); got.Cmp(wantGrind) != 0 {
		t.Fatalf("caller incentive not paid: %s, want %s", got, wantGrind)
	}
	profile := state.profiles[creatorAddr]
	if profile.Reputation != reputation.RepInitial+reputation.RepGhost {
		t.Fatalf("ghost penalty not applied: %d", profile.Reputation)
	}
	if profile.TotalAutoFinalized != 1 {
		t.Fatalf("totalAutoFinalized = %d, want 1", profile.TotalAutoFinalized)
	}
}

func TestFinalizeGhostPenaltyClamps(t *testing.T) {
	state := newMockState()
	e := newTestEngine(state, 1_000)
	b := mustCreate(t, e, state, 100, 2_000)
	if err := e.Claim(b.ID, agentAddr); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := e.SubmitProof(b.ID, agentAddr, "proof"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	profile := state.profiles[creatorAddr]
	profile.Reputation = 20
	state.profiles[creatorAddr] = profile

	e.SetNowFunc(func() int64 { return 1_000 + ReviewWindowSecs + 1 })
	if err := e.Finalize(b.ID, otherAddr); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if got := state.profiles[creatorAddr].Reputation; got != 0 {
		t.Fatalf("ghost penalty must clamp at 0, got %d", got)
	}
}

func TestCancelRequiresExpiredDeadline(t *testing.T) {
	state := newMockState()
	e := newTestEngine(state, 1_000)
	b := mustCreate(t, e, state, 100, 2_000)

	// One second before the deadline, and at the deadline itself, cancel fails
	// regardless of caller.
	e.SetNowFunc(func() int64 { return 1_999 })
	if err := e.Cancel(b.ID, creatorAddr); !errors.Is(err, ErrDeadlineNotReached) {
		t.Fatalf("before deadline: %v", err)
	}
	e.SetNowFunc(func() int64 { return 2_000 })
	if err := e.Cancel(b.ID, creatorAddr); !errors.Is(err, ErrDeadlineNotReached) {
		t.Fatalf("at deadline: %v", err)
	}

	e.SetNowFunc(func() int64 { return 2_001 })
	if err := e.Cancel(b.ID, otherAddr); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-creator cancel: %v", err)
	}
	usdgBefore := new(big.Int).Set(state.balance(creatorAddr, TokenUSDG))
	if err := e.Cancel(b.ID, creatorAddr); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	stored := state.bounties[b.ID]
	if stored.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s", stored.Status)
	}
	wantUSDG := new(big.Int).Add(usdgBefore, big.NewInt(100))
	if got := state.balance(creatorAddr, TokenUSDG); got.Cmp(wantUSDG) != 0 {
		t.Fatalf("refund not returned: %s, want %s", got, wantUSDG)
	}
	if !state.vaults[b.ID].Closed {
		t.Fatalf("vault must close on cancel")
	}
	if state.profiles[creatorAddr].TotalCancelled != 1 {
		t.Fatalf("totalCancelled not incremented")
	}
	if state.profiles[creatorAddr].Reputation != reputation.RepInitial {
		t.Fatalf("cancel must be reputation-neutral")
	}
}

func TestAbandonBeforeSubmitReopens(t *testing.T) {
	state := newMockState()
	e := newTestEngine(state, 1_000)
	b := mustCreate(t, e, state, 100, 2_000)
	if err := e.Claim(b.ID, agentAddr); err != nil {
		t.Fatalf("claim: %v", err)
	}

	if err := e.AbandonClaim(b.ID, otherAddr); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("non-claimer abandon: %v", err)
	}
	if err := e.AbandonClaim(b.ID, agentAddr); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	stored := state.bounties[b.ID]
	if stored.Status != StatusOpen || stored.HasClaimer() {
		t.Fatalf("abandon must reopen with claimer cleared: %+v", stored)
	}
	if state.agents[agentAddr].HasActive() {
		t.Fatalf("abandon must release the agent lock")
	}

	// Unlocked agent can claim again.
	if err := e.Claim(b.ID, agentAddr); err != nil {
		t.Fatalf("re-claim after abandon: %v", err)
	}
}

func TestAbandonAfterSubmitUnreachable(t *testing.T) {
	state := newMockState()
	e := newTestEngine(state, 1_000)
	b := mustCreate(t, e, state, 100, 2_000)
	if err := e.Claim(b.ID, agentAddr); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := e.SubmitProof(b.ID, agentAddr, "proof"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Submit already released the lock, so abandon has nothing to act on.
	if err := e.AbandonClaim(b.ID, agentAddr); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("abandon after submit: %v", err)
	}
	stored := state.bounties[b.ID]
	if stored.Status != StatusSubmitted || !stored.HasClaimer() {
		t.Fatalf("submitted bounty must be untouched: %+v", stored)
	}
}

func TestRejectedBountyIsReclaimable(t *testing.T) {
	state := newMockState()
	e := newTestEngine(state, 1_000)
	b := mustCreate(t, e, state, 100, 2_000)
	if err := e.Claim(b.ID, agentAddr); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := e.SubmitProof(b.ID, agentAddr, "proof"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := e.Reject(b.ID, creatorAddr, "redo"); err != nil {
		t.Fatalf("reject: %v", err)
	}

	// Another agent claims the reopened bounty and gets paid on approval.
	second := [20]byte{0x04}
	if err := e.Claim(b.ID, second); err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if err := e.SubmitProof(b.ID, second, "better proof"); err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if err := e.ApproveAndPay(b.ID, creatorAddr); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got := state.balance(second, TokenUSDG); got.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("second claimer received %s, want 100", got)
	}
}

func TestInsufficientCreatorFunds(t *testing.T) {
	state := newMockState()
	e := newTestEngine(state, 1_000)
	state.fund(creatorAddr, 50, 1_000_000)

	_, err := e.Create(creatorAddr, "task-1", TokenUSDG, big.NewInt(100), 2_000)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}
