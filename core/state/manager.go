package state

import (
	"encoding/json"
	"fmt"
	"math/big"

	"grindchain/core/types"
	"grindchain/native/bounty"
	"grindchain/native/reputation"
	"grindchain/storage"
)

// Record prefixes. Every record lives in a content-addressed map keyed by
// (tag, identifier); bounty identifiers are themselves derived from
// (creator, bounty-id), so the layout is collision-free by construction.
var (
	prefixBounty  = "bounty/"
	prefixVault   = "vault/"
	prefixProfile = "profile/"
	prefixAgent   = "agent/"
	prefixAccount = "account/"
)

// Manager adapts one storage transaction to the state interfaces the bounty
// and reputation engines expect. A Manager is cheap and scoped to a single
// View or Update call; atomicity comes from the underlying transaction.
type Manager struct {
	kv storage.KV
}

// NewManager wraps a storage transaction view.
func NewManager(kv storage.KV) *Manager {
	return &Manager{kv: kv}
}

func (m *Manager) getJSON(key []byte, out interface{}) (bool, error) {
	raw, ok, err := m.kv.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %s: %w", key, err)
	}
	return true, nil
}

func (m *Manager) putJSON(key []byte, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("state: encode %s: %w", key, err)
	}
	return m.kv.Put(key, raw)
}

func bountyKey(id [32]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", prefixBounty, id))
}

func vaultKey(id [32]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", prefixVault, id))
}

func profileKey(owner [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", prefixProfile, owner))
}

func agentKey(owner [20]byte) []byte {
	return []byte(fmt.Sprintf("%s%x", prefixAgent, owner))
}

func accountKey(addr []byte) []byte {
	return []byte(fmt.Sprintf("%s%x", prefixAccount, addr))
}

// BountyGet loads the bounty record for id.
func (m *Manager) BountyGet(id [32]byte) (*bounty.Bounty, bool, error) {
	var b bounty.Bounty
	ok, err := m.getJSON(bountyKey(id), &b)
	if err != nil || !ok {
		return nil, false, err
	}
	return &b, true, nil
}

// BountyPut persists a sanitized copy of the bounty record.
func (m *Manager) BountyPut(b *bounty.Bounty) error {
	sanitized, err := bounty.Sanitize(b)
	if err != nil {
		return err
	}
	return m.putJSON(bountyKey(sanitized.ID), sanitized)
}

// VaultGet loads the escrow vault record for a bounty id.
func (m *Manager) VaultGet(id [32]byte) (*bounty.Vault, bool, error) {
	var v bounty.Vault
	ok, err := m.getJSON(vaultKey(id), &v)
	if err != nil || !ok {
		return nil, false, err
	}
	return &v, true, nil
}

// VaultPut persists the escrow vault record.
func (m *Manager) VaultPut(v *bounty.Vault) error {
	if v == nil {
		return fmt.Errorf("state: nil vault")
	}
	return m.putJSON(vaultKey(v.Bounty), v.Clone())
}

// AgentGet loads the agent profile for owner.
func (m *Manager) AgentGet(owner [20]byte) (*bounty.AgentProfile, bool, error) {
	var a bounty.AgentProfile
	ok, err := m.getJSON(agentKey(owner), &a)
	if err != nil || !ok {
		return nil, false, err
	}
	return &a, true, nil
}

// AgentPut persists the agent profile.
func (m *Manager) AgentPut(a *bounty.AgentProfile) error {
	if a == nil || a.Owner == ([20]byte{}) {
		return fmt.Errorf("state: agent owner required")
	}
	return m.putJSON(agentKey(a.Owner), a.Clone())
}

// ProfileGet loads the creator profile for owner.
func (m *Manager) ProfileGet(owner [20]byte) (*reputation.CreatorProfile, bool, error) {
	var p reputation.CreatorProfile
	ok, err := m.getJSON(profileKey(owner), &p)
	if err != nil || !ok {
		return nil, false, err
	}
	return &p, true, nil
}

// ProfilePut persists the creator profile after validating its invariants.
func (m *Manager) ProfilePut(p *reputation.CreatorProfile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return m.putJSON(profileKey(p.Owner), p.Clone())
}

// GetAccount loads the account for addr, returning a zero-balance account for
// unknown addresses.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	var acc types.Account
	ok, err := m.getJSON(accountKey(addr), &acc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.Account{BalanceUSDG: big.NewInt(0), BalanceGRIND: big.NewInt(0)}, nil
	}
	if acc.BalanceUSDG == nil {
		acc.BalanceUSDG = big.NewInt(0)
	}
	if acc.BalanceGRIND == nil {
		acc.BalanceGRIND = big.NewInt(0)
	}
	return &acc, nil
}

// PutAccount persists the account for addr.
func (m *Manager) PutAccount(addr []byte, acc *types.Account) error {
	if acc == nil {
		return fmt.Errorf("state: nil account")
	}
	return m.putJSON(accountKey(addr), acc)
}
