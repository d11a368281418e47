package types

import "math/big"

// Account tracks the balances held by a single address. BalanceUSDG is the
// stable settlement token used for bounty value; BalanceGRIND is the native
// token that backs record storage.
type Account struct {
	Nonce        uint64   `json:"nonce"`
	BalanceUSDG  *big.Int `json:"balanceUSDG"`
	BalanceGRIND *big.Int `json:"balanceGRIND"`
}
