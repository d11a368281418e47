package rpc

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"grindchain/core/state"
	"grindchain/native/bounty"
	"grindchain/native/reputation"
	"grindchain/storage"
)

type profileParams struct {
	Owner  string `json:"owner"`
	Handle string `json:"handle,omitempty"`
}

type fundParams struct {
	Address string `json:"address"`
	Token   string `json:"token"`
	Amount  string `json:"amount"`
}

type profileJSON struct {
	Owner          string `json:"owner"`
	Reputation     int64  `json:"reputation"`
	TotalCreated   uint64 `json:"totalCreated"`
	TotalCompleted uint64 `json:"totalCompleted"`
	TotalRejected  uint64 `json:"totalRejected"`
	AutoFinalized  uint64 `json:"totalAutoFinalized"`
	TotalCancelled uint64 `json:"totalCancelled"`
	Handle         string `json:"handle,omitempty"`
	Verified       bool   `json:"verified"`
	Tier           string `json:"tier"`
	MaxAmount      string `json:"maxBountyAmount,omitempty"`
}

func profileToJSON(p *reputation.CreatorProfile) *profileJSON {
	if p == nil {
		return nil
	}
	out := &profileJSON{
		Owner:          "0x" + hex.EncodeToString(p.Owner[:]),
		Reputation:     p.Reputation,
		TotalCreated:   p.TotalCreated,
		TotalCompleted: p.TotalCompleted,
		TotalRejected:  p.TotalRejected,
		AutoFinalized:  p.TotalAutoFinalized,
		TotalCancelled: p.TotalCancelled,
		Handle:         p.Handle,
		Verified:       p.Verified,
	}
	switch {
	case !p.CanCreate():
		out.Tier = "blocked"
	case p.MaxBountyAmount() == nil:
		out.Tier = "unlimited"
	default:
		out.Tier = "limited"
	}
	if limit := p.MaxBountyAmount(); limit != nil {
		out.MaxAmount = limit.String()
	}
	return out
}

type agentJSON struct {
	Owner        string `json:"owner"`
	ActiveBounty string `json:"activeBounty,omitempty"`
}

func agentToJSON(a *bounty.AgentProfile) *agentJSON {
	if a == nil {
		return nil
	}
	out := &agentJSON{Owner: "0x" + hex.EncodeToString(a.Owner[:])}
	if a.HasActive() {
		out.ActiveBounty = hex.EncodeToString(a.ActiveBounty[:])
	}
	return out
}

func (s *Server) profileEngine(m *state.Manager) *reputation.Engine {
	eng := reputation.NewEngine()
	eng.SetState(m)
	eng.SetEmitter(logEmitter{logger: s.logger})
	return eng
}

func (s *Server) handleProfileInit(params []json.RawMessage) (interface{}, error) {
	var p profileParams
	if err := decodeSingleParam(params, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	owner, err := parseAddress(p.Owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	var profile *reputation.CreatorProfile
	err = s.db.Update(func(kv storage.KV) error {
		profile, err = s.profileEngine(state.NewManager(kv)).InitProfile(owner)
		return err
	})
	if err != nil {
		return nil, err
	}
	return profileToJSON(profile), nil
}

func (s *Server) handleProfileLink(params []json.RawMessage) (interface{}, error) {
	var p profileParams
	if err := decodeSingleParam(params, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	owner, err := parseAddress(p.Owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	var profile *reputation.CreatorProfile
	err = s.db.Update(func(kv storage.KV) error {
		profile, err = s.profileEngine(state.NewManager(kv)).LinkHandle(owner, p.Handle)
		return err
	})
	if err != nil {
		return nil, err
	}
	return profileToJSON(profile), nil
}

func (s *Server) handleProfileGet(params []json.RawMessage) (interface{}, error) {
	var p profileParams
	if err := decodeSingleParam(params, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	owner, err := parseAddress(p.Owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	var profile *reputation.CreatorProfile
	err = s.db.View(func(kv storage.KV) error {
		found, ok, err := state.NewManager(kv).ProfileGet(owner)
		if err != nil {
			return err
		}
		if !ok {
			return reputation.ErrProfileNotFound
		}
		profile = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profileToJSON(profile), nil
}

func (s *Server) handleAgentGet(params []json.RawMessage) (interface{}, error) {
	var p profileParams
	if err := decodeSingleParam(params, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	owner, err := parseAddress(p.Owner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	agent := &bounty.AgentProfile{Owner: owner}
	err = s.db.View(func(kv storage.KV) error {
		found, ok, err := state.NewManager(kv).AgentGet(owner)
		if err != nil {
			return err
		}
		if ok {
			agent = found
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return agentToJSON(agent), nil
}

// handleBankFund credits value onto an account. It stands in for the deposit
// rail that feeds the ledger in deployments.
func (s *Server) handleBankFund(params []json.RawMessage) (interface{}, error) {
	var p fundParams
	if err := decodeSingleParam(params, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	addr, err := parseAddress(p.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	amount, err := parseAmount(p.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", errInvalidParams)
	}
	token, err := bounty.NormalizeToken(p.Token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	var balances map[string]string
	err = s.db.Update(func(kv storage.KV) error {
		manager := state.NewManager(kv)
		account, err := manager.GetAccount(addr[:])
		if err != nil {
			return err
		}
		switch token {
		case bounty.TokenUSDG:
			account.BalanceUSDG = account.BalanceUSDG.Add(account.BalanceUSDG, amount)
		case bounty.TokenGRIND:
			account.BalanceGRIND = account.BalanceGRIND.Add(account.BalanceGRIND, amount)
		}
		if err := manager.PutAccount(addr[:], account); err != nil {
			return err
		}
		balances = map[string]string{
			"address": "0x" + hex.EncodeToString(addr[:]),
			"usdg":    account.BalanceUSDG.String(),
			"grind":   account.BalanceGRIND.String(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return balances, nil
}
