package rpc

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"grindchain/core/state"
	"grindchain/native/bounty"
	"grindchain/storage"
)

type bountyCreateParams struct {
	Creator  string `json:"creator"`
	BountyID string `json:"bountyId"`
	Token    string `json:"token"`
	Amount   string `json:"amount"`
	Deadline int64  `json:"deadline"`
}

type bountyRefParams struct {
	ID       string `json:"id,omitempty"`
	Creator  string `json:"creator,omitempty"`
	BountyID string `json:"bountyId,omitempty"`
	Caller   string `json:"caller,omitempty"`
}

type bountySubmitParams struct {
	bountyRefParams
	ProofURI string `json:"proofUri"`
}

type bountyRejectParams struct {
	bountyRefParams
	Reason string `json:"reason"`
}

type bountyJSON struct {
	ID               string `json:"id"`
	BountyID         string `json:"bountyId"`
	Creator          string `json:"creator"`
	Token            string `json:"token"`
	Amount           string `json:"amount"`
	Deadline         int64  `json:"deadline"`
	CreatedAt        int64  `json:"createdAt"`
	Status           string `json:"status"`
	Claimer          string `json:"claimer,omitempty"`
	ProofURI         string `json:"proofUri,omitempty"`
	ProofSubmittedAt int64  `json:"proofSubmittedAt,omitempty"`
	RejectionReason  string `json:"rejectionReason,omitempty"`
}

func bountyToJSON(b *bounty.Bounty) *bountyJSON {
	if b == nil {
		return nil
	}
	out := &bountyJSON{
		ID:               hex.EncodeToString(b.ID[:]),
		BountyID:         b.BountyID,
		Creator:          "0x" + hex.EncodeToString(b.Creator[:]),
		Token:            b.Token,
		Deadline:         b.Deadline,
		CreatedAt:        b.CreatedAt,
		Status:           b.Status.String(),
		ProofURI:         b.ProofURI,
		ProofSubmittedAt: b.ProofSubmittedAt,
		RejectionReason:  b.RejectionReason,
	}
	if b.Amount != nil {
		out.Amount = b.Amount.String()
	}
	if b.HasClaimer() {
		out.Claimer = "0x" + hex.EncodeToString(b.Claimer[:])
	}
	return out
}

func parseAddress(value string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil || len(raw) != 20 {
		return addr, fmt.Errorf("invalid address %q", value)
	}
	copy(addr[:], raw)
	return addr, nil
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}

// resolveID accepts either the 32-byte record identifier or the
// (creator, bountyId) derivation inputs.
func (p bountyRefParams) resolveID() ([32]byte, error) {
	var id [32]byte
	if trimmed := strings.TrimSpace(p.ID); trimmed != "" {
		raw, err := hex.DecodeString(strings.TrimPrefix(trimmed, "0x"))
		if err != nil || len(raw) != 32 {
			return id, fmt.Errorf("invalid bounty identifier %q", p.ID)
		}
		copy(id[:], raw)
		return id, nil
	}
	if p.Creator == "" || p.BountyID == "" {
		return id, fmt.Errorf("either id or creator+bountyId required")
	}
	creator, err := parseAddress(p.Creator)
	if err != nil {
		return id, err
	}
	return bounty.DeriveID(creator, p.BountyID), nil
}

func decodeSingleParam(params []json.RawMessage, out interface{}) error {
	if len(params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	return json.Unmarshal(params[0], out)
}

func (s *Server) bountyEngine(m *state.Manager) *bounty.Engine {
	eng := bounty.NewEngine()
	eng.SetState(m)
	eng.SetNowFunc(s.nowFn)
	eng.SetEmitter(logEmitter{logger: s.logger})
	if s.backingReserve != nil {
		eng.SetBackingReserve(s.backingReserve)
	}
	return eng
}

func (s *Server) handleBountyCreate(params []json.RawMessage) (interface{}, error) {
	var p bountyCreateParams
	if err := decodeSingleParam(params, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	creator, err := parseAddress(p.Creator)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	amount, err := parseAmount(p.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	token := p.Token
	if strings.TrimSpace(token) == "" {
		token = bounty.TokenUSDG
	}
	var created *bounty.Bounty
	err = s.db.Update(func(kv storage.KV) error {
		created, err = s.bountyEngine(state.NewManager(kv)).Create(creator, p.BountyID, token, amount, p.Deadline)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bountyToJSON(created), nil
}

func (s *Server) mutateBounty(params []json.RawMessage, fn func(*bounty.Engine, [32]byte, [20]byte) error) (interface{}, error) {
	var p bountyRefParams
	if err := decodeSingleParam(params, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	id, err := p.resolveID()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	caller, err := parseAddress(p.Caller)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	var result *bounty.Bounty
	err = s.db.Update(func(kv storage.KV) error {
		eng := s.bountyEngine(state.NewManager(kv))
		if err := fn(eng, id, caller); err != nil {
			return err
		}
		result, err = eng.Get(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bountyToJSON(result), nil
}

func (s *Server) handleBountyClaim(params []json.RawMessage) (interface{}, error) {
	return s.mutateBounty(params, func(eng *bounty.Engine, id [32]byte, caller [20]byte) error {
		return eng.Claim(id, caller)
	})
}

func (s *Server) handleBountySubmitProof(params []json.RawMessage) (interface{}, error) {
	var p bountySubmitParams
	if err := decodeSingleParam(params, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	id, err := p.resolveID()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	caller, err := parseAddress(p.Caller)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	var result *bounty.Bounty
	err = s.db.Update(func(kv storage.KV) error {
		eng := s.bountyEngine(state.NewManager(kv))
		if err := eng.SubmitProof(id, caller, p.ProofURI); err != nil {
			return err
		}
		result, err = eng.Get(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bountyToJSON(result), nil
}

func (s *Server) handleBountyApprove(params []json.RawMessage) (interface{}, error) {
	return s.mutateBounty(params, func(eng *bounty.Engine, id [32]byte, caller [20]byte) error {
		return eng.ApproveAndPay(id, caller)
	})
}

func (s *Server) handleBountyReject(params []json.RawMessage) (interface{}, error) {
	var p bountyRejectParams
	if err := decodeSingleParam(params, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	id, err := p.resolveID()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	caller, err := parseAddress(p.Caller)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	var result *bounty.Bounty
	err = s.db.Update(func(kv storage.KV) error {
		eng := s.bountyEngine(state.NewManager(kv))
		if err := eng.Reject(id, caller, p.Reason); err != nil {
			return err
		}
		result, err = eng.Get(id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bountyToJSON(result), nil
}

func (s *Server) handleBountyFinalize(params []json.RawMessage) (interface{}, error) {
	return s.mutateBounty(params, func(eng *bounty.Engine, id [32]byte, caller [20]byte) error {
		return eng.Finalize(id, caller)
	})
}

func (s *Server) handleBountyCancel(params []json.RawMessage) (interface{}, error) {
	return s.mutateBounty(params, func(eng *bounty.Engine, id [32]byte, caller [20]byte) error {
		return eng.Cancel(id, caller)
	})
}

func (s *Server) handleBountyAbandon(params []json.RawMessage) (interface{}, error) {
	return s.mutateBounty(params, func(eng *bounty.Engine, id [32]byte, caller [20]byte) error {
		return eng.AbandonClaim(id, caller)
	})
}

func (s *Server) handleBountyGet(params []json.RawMessage) (interface{}, error) {
	var p bountyRefParams
	if err := decodeSingleParam(params, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	id, err := p.resolveID()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	var result *bounty.Bounty
	err = s.db.View(func(kv storage.KV) error {
		b, ok, err := state.NewManager(kv).BountyGet(id)
		if err != nil {
			return err
		}
		if !ok {
			return bounty.ErrNotFound
		}
		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bountyToJSON(result), nil
}
