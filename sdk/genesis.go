package sdk

import (
	"fmt"
)

// Genesis helpers write resources straight into a State, bypassing programs.
// They bootstrap local ledgers and test fixtures.

// Airdrop credits lamports to a system account, creating it if needed.
// Example payload: Airdrop(state, payer, 10_000_000_000)
func Airdrop(s State, to Address, lamports uint64) error {
	acc, err := ReadAccount(s, to)
	if err != nil {
		if !isNotFound(err) {
			return err
		}
		acc = &Account{Owner: SystemProgramID}
	}
	acc.Lamports += lamports
	return WriteAccount(s, to, acc)
}

// CreateMint registers a mint with the given authority and zero supply.
func CreateMint(s State, mint, authority Address, decimals uint8) error {
	if ok, err := AccountExists(s, mint); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("%w: %s", ErrAccountExists, mint)
	}
	return WriteAccount(s, mint, &Account{
		Lamports: RentExemptMinimum,
		Owner:    TokenProgramID,
		Data:     encodeMint(&Mint{Decimals: decimals, MintAuthority: &authority}),
	})
}

// CreateTokenAccount opens an empty token account for owner.
func CreateTokenAccount(s State, account, mint, owner Address) error {
	if _, err := LoadMint(s, mint); err != nil {
		return err
	}
	if ok, err := AccountExists(s, account); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("%w: %s", ErrAccountExists, account)
	}
	return WriteAccount(s, account, &Account{
		Lamports: RentExemptMinimum,
		Owner:    TokenProgramID,
		Data:     encodeTokenAccount(&TokenAccount{Mint: mint, Owner: owner}),
	})
}

// MintTokens raises supply and credits the token account.
func MintTokens(s State, mint, account Address, amount uint64) error {
	m, err := LoadMint(s, mint)
	if err != nil {
		return err
	}
	t, err := LoadTokenAccount(s, account)
	if err != nil {
		return err
	}
	if !t.Mint.Equals(mint) {
		return ErrMintMismatch
	}
	m.Supply += amount
	t.Amount += amount
	macc, err := ReadAccount(s, mint)
	if err != nil {
		return err
	}
	macc.Data = encodeMint(m)
	if err := WriteAccount(s, mint, macc); err != nil {
		return err
	}
	tacc, err := ReadAccount(s, account)
	if err != nil {
		return err
	}
	tacc.Data = encodeTokenAccount(t)
	return WriteAccount(s, account, tacc)
}

// DeployProgram marks an address as an upgradeable program owned by the loader.
func DeployProgram(s State, program, upgradeAuthority Address) error {
	return WriteAccount(s, program, &Account{
		Lamports:   RentExemptMinimum,
		Owner:      LoaderProgramID,
		Executable: true,
		Data:       encodeProgramData(&ProgramData{UpgradeAuthority: &upgradeAuthority}),
	})
}
