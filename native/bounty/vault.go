package bounty

import (
	"fmt"
	"math/big"
)

// DefaultBackingReserve is the GRIND deposit that backs a vault's storage.
// It is charged to the creator when the vault opens and reclaimed by the
// close destination when the vault closes.
var DefaultBackingReserve = big.NewInt(1_000_000)

// Vault is the value-bearing holding exclusively controlled by one bounty
// record. Exactly one open vault of the bounty's amount exists while the
// bounty is Open, Claimed or Submitted.
type Vault struct {
	Bounty    [32]byte `json:"bounty"`
	Token     string   `json:"token"`
	Balance   *big.Int `json:"balance"`
	Backing   *big.Int `json:"backing"`
	Authority [32]byte `json:"authority"`
	Closed    bool     `json:"closed"`
}

// Clone returns a deep copy of the vault record.
func (v *Vault) Clone() *Vault {
	if v == nil {
		return nil
	}
	clone := *v
	if v.Balance != nil {
		clone.Balance = new(big.Int).Set(v.Balance)
	} else {
		clone.Balance = big.NewInt(0)
	}
	if v.Backing != nil {
		clone.Backing = new(big.Int).Set(v.Backing)
	} else {
		clone.Backing = big.NewInt(0)
	}
	return &clone
}

// openVault funds and persists the escrow vault for a freshly created bounty:
// the bounty amount in the bounty token plus the storage backing reserve in
// GRIND, both drawn from the creator.
func (e *Engine) openVault(b *Bounty) (*Vault, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	vaultAddr := VaultAddress(b.ID)
	if err := e.transferToken(b.Creator, vaultAddr, b.Token, b.Amount); err != nil {
		return nil, err
	}
	backing := new(big.Int).Set(e.backingReserve)
	if backing.Sign() > 0 {
		if err := e.transferToken(b.Creator, vaultAddr, TokenGRIND, backing); err != nil {
			return nil, err
		}
	}
	vault := &Vault{
		Bounty:    b.ID,
		Token:     b.Token,
		Balance:   new(big.Int).Set(b.Amount),
		Backing:   backing,
		Authority: VaultAuthority(b.Creator, b.BountyID),
	}
	if err := e.state.VaultPut(vault); err != nil {
		return nil, err
	}
	return vault, nil
}

// settleVault empties and closes the bounty's vault: the escrowed value goes
// to recipient in full, the backing reserve goes to closeDest. The authority
// proof is rebuilt from the bounty's own derivation inputs; the vault refuses
// movement under any other proof.
func (e *Engine) settleVault(b *Bounty, recipient, closeDest [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	vault, ok, err := e.state.VaultGet(b.ID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("bounty: vault missing for %x", b.ID)
	}
	proof := VaultAuthority(b.Creator, b.BountyID)
	if err := e.vaultTransfer(vault, proof, recipient, vault.Balance); err != nil {
		return err
	}
	if err := e.vaultClose(vault, proof, closeDest); err != nil {
		return err
	}
	return e.state.VaultPut(vault)
}

// vaultTransfer moves escrowed value out of the vault after checking the
// presented capability against the stored authority.
func (e *Engine) vaultTransfer(v *Vault, proof [32]byte, to [20]byte, amount *big.Int) error {
	if v == nil {
		return fmt.Errorf("bounty: nil vault")
	}
	if v.Closed {
		return errVaultClosed
	}
	if v.Authority != proof {
		return errVaultAuthority
	}
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if v.Balance == nil || v.Balance.Cmp(amt) < 0 {
		return fmt.Errorf("bounty: vault underfunded")
	}
	if err := e.transferToken(VaultAddress(v.Bounty), to, v.Token, amt); err != nil {
		return err
	}
	v.Balance = new(big.Int).Sub(v.Balance, amt)
	return nil
}

// vaultClose reclaims the backing reserve to dest and marks the vault closed.
// The escrowed balance must already be zero.
func (e *Engine) vaultClose(v *Vault, proof [32]byte, dest [20]byte) error {
	if v == nil {
		return fmt.Errorf("bounty: nil vault")
	}
	if v.Closed {
		return errVaultClosed
	}
	if v.Authority != proof {
		return errVaultAuthority
	}
	if v.Balance != nil && v.Balance.Sign() != 0 {
		return fmt.Errorf("bounty: cannot close vault with escrowed balance")
	}
	if v.Backing != nil && v.Backing.Sign() > 0 {
		if err := e.transferToken(VaultAddress(v.Bounty), dest, TokenGRIND, v.Backing); err != nil {
			return err
		}
		v.Backing = big.NewInt(0)
	}
	v.Closed = true
	return nil
}
