package reputation

import "math/big"

// Tier thresholds for verified creators. Below TierBlocked a verified creator
// may not create at all; below TierLimited the bounty size is capped.
const (
	TierBlocked int64 = 30
	TierLimited int64 = 60
)

// Bounty size caps in USDG atoms (6 decimals). Unverified creators are always
// capped low regardless of score: onboarding stays frictionless but the score
// cannot be farmed with high-value spam before an identity is linked.
var (
	UnverifiedCap = big.NewInt(10_000_000)
	LimitedCap    = big.NewInt(25_000_000)
)

// MaxBountyAmount returns the largest bounty the creator may lock up, in USDG
// atoms. A nil return means no cap applies. A zero return means creation is
// blocked outright.
func (p *CreatorProfile) MaxBountyAmount() *big.Int {
	if p == nil || !p.Verified {
		return new(big.Int).Set(UnverifiedCap)
	}
	if p.Reputation < TierBlocked {
		return big.NewInt(0)
	}
	if p.Reputation < TierLimited {
		return new(big.Int).Set(LimitedCap)
	}
	return nil
}

// CanCreate reports whether the creator is eligible to open new bounties.
// Unverified creators are always eligible, subject to the unverified cap.
func (p *CreatorProfile) CanCreate() bool {
	if p == nil || !p.Verified {
		return true
	}
	return p.Reputation >= TierBlocked
}
