package bounty

import (
	"fmt"
	"math/big"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Status represents the lifecycle states of a bounty. Completed and Cancelled
// are terminal; Open is re-enterable via reject and abandon.
type Status uint8

const (
	StatusOpen Status = iota
	StatusClaimed
	StatusSubmitted
	StatusCompleted
	StatusCancelled
)

// Valid reports whether the status value is within the supported range.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusClaimed, StatusSubmitted, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusClaimed:
		return "claimed"
	case StatusSubmitted:
		return "submitted"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Length bounds enforced on every string input. Records are sized against
// these bounds for storage accounting.
const (
	MaxBountyIDLen = 64
	MaxProofLen    = 256
	MaxReasonLen   = 256
)

// ReviewWindowSecs is the grace period after proof submission during which
// only the creator may approve or reject. Once it elapses anyone may trigger
// timeout settlement.
const ReviewWindowSecs int64 = 48 * 60 * 60

// Supported token denominations. USDG carries bounty value, GRIND backs
// record storage.
const (
	TokenUSDG  = "USDG"
	TokenGRIND = "GRIND"
)

// NormalizeToken canonicalizes a token symbol, rejecting unsupported values.
func NormalizeToken(symbol string) (string, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(symbol))
	switch trimmed {
	case TokenUSDG, TokenGRIND:
		return trimmed, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedToken, symbol)
	}
}

// Bounty captures one task offer and its escrow lifecycle. BountyID is chosen
// by the creator and immutable after creation; the record identifier and the
// vault authority are both derived from it.
type Bounty struct {
	ID               [32]byte `json:"id"`
	Creator          [20]byte `json:"creator"`
	Token            string   `json:"token"`
	Amount           *big.Int `json:"amount"`
	Deadline         int64    `json:"deadline"`
	CreatedAt        int64    `json:"createdAt"`
	Status           Status   `json:"status"`
	Claimer          [20]byte `json:"claimer"`
	ProofURI         string   `json:"proofUri"`
	ProofSubmittedAt int64    `json:"proofSubmittedAt"`
	RejectionReason  string   `json:"rejectionReason"`
	BountyID         string   `json:"bountyId"`
}

// HasClaimer reports whether a claimer is recorded on the bounty.
func (b *Bounty) HasClaimer() bool {
	return b != nil && b.Claimer != ([20]byte{})
}

// Clone returns a deep copy so callers can mutate without touching the stored
// instance.
func (b *Bounty) Clone() *Bounty {
	if b == nil {
		return nil
	}
	clone := *b
	if b.Amount != nil {
		clone.Amount = new(big.Int).Set(b.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return &clone
}

// Sanitize validates the bounty record against its structural invariants and
// returns a normalised clone.
func Sanitize(b *Bounty) (*Bounty, error) {
	if b == nil {
		return nil, fmt.Errorf("bounty: nil record")
	}
	clone := b.Clone()
	token, err := NormalizeToken(clone.Token)
	if err != nil {
		return nil, err
	}
	clone.Token = token
	if clone.Amount == nil || clone.Amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if !clone.Status.Valid() {
		return nil, fmt.Errorf("bounty: invalid status %d", clone.Status)
	}
	if clone.BountyID == "" || len(clone.BountyID) > MaxBountyIDLen {
		return nil, ErrBountyIDTooLong
	}
	if len(clone.ProofURI) > MaxProofLen {
		return nil, ErrProofTooLong
	}
	if len(clone.RejectionReason) > MaxReasonLen {
		return nil, ErrReasonTooLong
	}
	return clone, nil
}

// DeriveID computes the deterministic record identifier for a bounty from its
// creator and creator-chosen bounty id. Uniqueness is enforced at creation.
func DeriveID(creator [20]byte, bountyID string) [32]byte {
	hash := ethcrypto.Keccak256([]byte("bounty"), creator[:], []byte(bountyID))
	var id [32]byte
	copy(id[:], hash)
	return id
}

// VaultAuthority derives the capability controlling the bounty's escrow vault.
// Anyone able to reproduce the derivation inputs (the bounty record itself)
// can authorize movement of the escrowed value; no freestanding key exists.
func VaultAuthority(creator [20]byte, bountyID string) [32]byte {
	hash := ethcrypto.Keccak256([]byte("bounty-authority"), creator[:], []byte(bountyID))
	var authority [32]byte
	copy(authority[:], hash)
	return authority
}

// VaultAddress derives the holding account address for a bounty's vault.
func VaultAddress(id [32]byte) [20]byte {
	hash := ethcrypto.Keccak256([]byte("vault"), id[:])
	var addr [20]byte
	copy(addr[:], hash[12:])
	return addr
}
