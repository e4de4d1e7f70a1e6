package sdk

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrNotAMint         = errors.New("account is not a mint")
	ErrNotATokenAccount = errors.New("account is not a token account")
	ErrMintMismatch     = errors.New("token account mint mismatch")
	ErrOwnerMismatch    = errors.New("token authority mismatch")
)

const (
	tokenMintTag    byte = 1
	tokenAccountTag byte = 2
)

// token program instruction tags
const (
	tokenInitializeMint    uint8 = 0
	tokenInitializeAccount uint8 = 1
	tokenTransfer          uint8 = 3
	tokenSetAuthority      uint8 = 6
	tokenMintTo            uint8 = 7
	tokenBurn              uint8 = 8
)

// AuthorityType picks which authority SetAuthority replaces.
type AuthorityType uint8

const (
	AuthorityMintTokens   AuthorityType = 0
	AuthorityAccountOwner AuthorityType = 2
)

// Mint is a fungible token definition. Governing tokens are mints.
type Mint struct {
	Supply        uint64
	Decimals      uint8
	MintAuthority *Address
}

// TokenAccount holds a balance of one mint for one owner.
type TokenAccount struct {
	Mint   Address
	Owner  Address
	Amount uint64
}

func encodeMint(m *Mint) []byte {
	w := NewWriter()
	w.Uint8(tokenMintTag)
	w.Uint64(m.Supply)
	w.Uint8(m.Decimals)
	w.OptionAddress(m.MintAuthority)
	return w.Bytes()
}

func encodeTokenAccount(t *TokenAccount) []byte {
	w := NewWriter()
	w.Uint8(tokenAccountTag)
	w.Address(t.Mint)
	w.Address(t.Owner)
	w.Uint64(t.Amount)
	return w.Bytes()
}

// LoadMint reads a mint, checking it is owned by the token program.
func LoadMint(s State, a Address) (*Mint, error) {
	acc, err := ReadAccount(s, a)
	if err != nil {
		return nil, err
	}
	if !acc.Owner.Equals(TokenProgramID) {
		return nil, fmt.Errorf("%w: %s", ErrNotAMint, a)
	}
	r := NewReader(acc.Data)
	if r.Uint8() != tokenMintTag {
		return nil, fmt.Errorf("%w: %s", ErrNotAMint, a)
	}
	m := &Mint{Supply: r.Uint64(), Decimals: r.Uint8(), MintAuthority: r.OptionAddress()}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadTokenAccount reads a token account, checking it is owned by the token program.
func LoadTokenAccount(s State, a Address) (*TokenAccount, error) {
	acc, err := ReadAccount(s, a)
	if err != nil {
		return nil, err
	}
	if !acc.Owner.Equals(TokenProgramID) {
		return nil, fmt.Errorf("%w: %s", ErrNotATokenAccount, a)
	}
	r := NewReader(acc.Data)
	if r.Uint8() != tokenAccountTag {
		return nil, fmt.Errorf("%w: %s", ErrNotATokenAccount, a)
	}
	t := &TokenAccount{Mint: r.Address(), Owner: r.Address(), Amount: r.Uint64()}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

func storeTokenData(ctx *Context, a Address, data []byte) error {
	acc, err := ctx.LoadAccount(a)
	if err != nil {
		if !isNotFound(err) {
			return err
		}
		acc = &Account{Owner: TokenProgramID}
	}
	acc.Owner = TokenProgramID
	acc.Data = data
	return WriteAccount(ctx.State, a, acc)
}

func tokenIx(tag uint8, accounts []*solana.AccountMeta, fill func(w *Writer)) Instruction {
	w := NewWriter()
	w.Uint8(tag)
	if fill != nil {
		fill(w)
	}
	return Instruction{ProgramID: TokenProgramID, Accounts: accounts, Data: w.Bytes()}
}

// NewInitializeMintInstruction creates a mint. The mint address signs.
func NewInitializeMintInstruction(mint Address, decimals uint8, authority Address) Instruction {
	return tokenIx(tokenInitializeMint, []*solana.AccountMeta{
		solana.NewAccountMeta(mint, true, true),
	}, func(w *Writer) {
		w.Uint8(decimals)
		w.Address(authority)
	})
}

// NewInitializeAccountInstruction creates a token account. The account address signs.
func NewInitializeAccountInstruction(account, mint, owner Address) Instruction {
	return tokenIx(tokenInitializeAccount, []*solana.AccountMeta{
		solana.NewAccountMeta(account, true, true),
		solana.NewAccountMeta(mint, false, false),
		solana.NewAccountMeta(owner, false, false),
	}, nil)
}

func NewTokenTransferInstruction(source, destination, authority Address, amount uint64) Instruction {
	return tokenIx(tokenTransfer, []*solana.AccountMeta{
		solana.NewAccountMeta(source, true, false),
		solana.NewAccountMeta(destination, true, false),
		solana.NewAccountMeta(authority, false, true),
	}, func(w *Writer) { w.Uint64(amount) })
}

// NewSetAuthorityInstruction replaces the mint or owner authority of target.
func NewSetAuthorityInstruction(target, current Address, kind AuthorityType, next *Address) Instruction {
	return tokenIx(tokenSetAuthority, []*solana.AccountMeta{
		solana.NewAccountMeta(target, true, false),
		solana.NewAccountMeta(current, false, true),
	}, func(w *Writer) {
		w.Uint8(uint8(kind))
		w.OptionAddress(next)
	})
}

func NewMintToInstruction(mint, destination, authority Address, amount uint64) Instruction {
	return tokenIx(tokenMintTo, []*solana.AccountMeta{
		solana.NewAccountMeta(mint, true, false),
		solana.NewAccountMeta(destination, true, false),
		solana.NewAccountMeta(authority, false, true),
	}, func(w *Writer) { w.Uint64(amount) })
}

func NewBurnInstruction(account, mint, authority Address, amount uint64) Instruction {
	return tokenIx(tokenBurn, []*solana.AccountMeta{
		solana.NewAccountMeta(account, true, false),
		solana.NewAccountMeta(mint, true, false),
		solana.NewAccountMeta(authority, false, true),
	}, func(w *Writer) { w.Uint64(amount) })
}

func needAccounts(accounts []*solana.AccountMeta, n int, what string) error {
	if len(accounts) < n {
		return fmt.Errorf("%w: %s needs %d accounts", ErrInvalidInstruction, what, n)
	}
	return nil
}

func processToken(ctx *Context, accounts []*solana.AccountMeta, data []byte) error {
	r := NewReader(data)
	tag := r.Uint8()
	if err := r.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
	}

	switch tag {
	case tokenInitializeMint:
		decimals, authority := r.Uint8(), r.Address()
		if err := r.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
		}
		if err := needAccounts(accounts, 1, "initialize mint"); err != nil {
			return err
		}
		mint := accounts[0].PublicKey
		if !ctx.IsSigner(mint) {
			return ErrMissingSignature
		}
		if _, err := LoadMint(ctx.State, mint); err == nil {
			return fmt.Errorf("%w: %s", ErrAccountExists, mint)
		}
		return storeTokenData(ctx, mint, encodeMint(&Mint{Decimals: decimals, MintAuthority: &authority}))

	case tokenInitializeAccount:
		if err := needAccounts(accounts, 3, "initialize account"); err != nil {
			return err
		}
		account, mint, owner := accounts[0].PublicKey, accounts[1].PublicKey, accounts[2].PublicKey
		if !ctx.IsSigner(account) {
			return ErrMissingSignature
		}
		if _, err := LoadMint(ctx.State, mint); err != nil {
			return err
		}
		if _, err := LoadTokenAccount(ctx.State, account); err == nil {
			return fmt.Errorf("%w: %s", ErrAccountExists, account)
		}
		return storeTokenData(ctx, account, encodeTokenAccount(&TokenAccount{Mint: mint, Owner: owner}))

	case tokenTransfer:
		amount := r.Uint64()
		if err := r.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
		}
		if err := needAccounts(accounts, 3, "transfer"); err != nil {
			return err
		}
		srcAddr, dstAddr, authority := accounts[0].PublicKey, accounts[1].PublicKey, accounts[2].PublicKey
		src, err := LoadTokenAccount(ctx.State, srcAddr)
		if err != nil {
			return err
		}
		dst, err := LoadTokenAccount(ctx.State, dstAddr)
		if err != nil {
			return err
		}
		if !src.Mint.Equals(dst.Mint) {
			return ErrMintMismatch
		}
		if !src.Owner.Equals(authority) {
			return ErrOwnerMismatch
		}
		if !ctx.IsSigner(authority) {
			return ErrMissingSignature
		}
		if src.Amount < amount {
			return fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientFunds, srcAddr, src.Amount, amount)
		}
		if srcAddr.Equals(dstAddr) {
			return nil
		}
		src.Amount -= amount
		dst.Amount += amount
		if err := storeTokenData(ctx, srcAddr, encodeTokenAccount(src)); err != nil {
			return err
		}
		return storeTokenData(ctx, dstAddr, encodeTokenAccount(dst))

	case tokenSetAuthority:
		kind := AuthorityType(r.Uint8())
		next := r.OptionAddress()
		if err := r.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
		}
		if err := needAccounts(accounts, 2, "set authority"); err != nil {
			return err
		}
		target, current := accounts[0].PublicKey, accounts[1].PublicKey
		if !ctx.IsSigner(current) {
			return ErrMissingSignature
		}
		switch kind {
		case AuthorityMintTokens:
			m, err := LoadMint(ctx.State, target)
			if err != nil {
				return err
			}
			if m.MintAuthority == nil || !m.MintAuthority.Equals(current) {
				return ErrOwnerMismatch
			}
			m.MintAuthority = next
			return storeTokenData(ctx, target, encodeMint(m))
		case AuthorityAccountOwner:
			t, err := LoadTokenAccount(ctx.State, target)
			if err != nil {
				return err
			}
			if !t.Owner.Equals(current) {
				return ErrOwnerMismatch
			}
			if next == nil {
				return fmt.Errorf("%w: account owner cannot be removed", ErrInvalidInstruction)
			}
			t.Owner = *next
			return storeTokenData(ctx, target, encodeTokenAccount(t))
		default:
			return fmt.Errorf("%w: authority type %d", ErrInvalidInstruction, kind)
		}

	case tokenMintTo:
		amount := r.Uint64()
		if err := r.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
		}
		if err := needAccounts(accounts, 3, "mint to"); err != nil {
			return err
		}
		mintAddr, dstAddr, authority := accounts[0].PublicKey, accounts[1].PublicKey, accounts[2].PublicKey
		m, err := LoadMint(ctx.State, mintAddr)
		if err != nil {
			return err
		}
		if m.MintAuthority == nil || !m.MintAuthority.Equals(authority) {
			return ErrOwnerMismatch
		}
		if !ctx.IsSigner(authority) {
			return ErrMissingSignature
		}
		dst, err := LoadTokenAccount(ctx.State, dstAddr)
		if err != nil {
			return err
		}
		if !dst.Mint.Equals(mintAddr) {
			return ErrMintMismatch
		}
		m.Supply += amount
		dst.Amount += amount
		if err := storeTokenData(ctx, mintAddr, encodeMint(m)); err != nil {
			return err
		}
		return storeTokenData(ctx, dstAddr, encodeTokenAccount(dst))

	case tokenBurn:
		amount := r.Uint64()
		if err := r.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
		}
		if err := needAccounts(accounts, 3, "burn"); err != nil {
			return err
		}
		accAddr, mintAddr, authority := accounts[0].PublicKey, accounts[1].PublicKey, accounts[2].PublicKey
		t, err := LoadTokenAccount(ctx.State, accAddr)
		if err != nil {
			return err
		}
		if !t.Mint.Equals(mintAddr) {
			return ErrMintMismatch
		}
		if !t.Owner.Equals(authority) {
			return ErrOwnerMismatch
		}
		if !ctx.IsSigner(authority) {
			return ErrMissingSignature
		}
		m, err := LoadMint(ctx.State, mintAddr)
		if err != nil {
			return err
		}
		if t.Amount < amount {
			return fmt.Errorf("%w: %s holds %d, burn %d", ErrInsufficientFunds, accAddr, t.Amount, amount)
		}
		t.Amount -= amount
		m.Supply -= amount
		if err := storeTokenData(ctx, accAddr, encodeTokenAccount(t)); err != nil {
			return err
		}
		return storeTokenData(ctx, mintAddr, encodeMint(m))

	default:
		return fmt.Errorf("%w: token tag %d", ErrInvalidInstruction, tag)
	}
}
