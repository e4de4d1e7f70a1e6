package sdk

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// system program instruction tags, numbered like the chain's system program
const (
	systemCreateAccount uint32 = 0
	systemTransfer      uint32 = 2
)

// NewCreateAccountInstruction funds a fresh account and hands it to owner.
// Both payer and the new account have to sign.
func NewCreateAccountInstruction(payer, account Address, lamports uint64, owner Address) Instruction {
	w := NewWriter()
	w.Uint32(systemCreateAccount)
	w.Uint64(lamports)
	w.Address(owner)
	return Instruction{
		ProgramID: SystemProgramID,
		Accounts: []*solana.AccountMeta{
			solana.NewAccountMeta(payer, true, true),
			solana.NewAccountMeta(account, true, true),
		},
		Data: w.Bytes(),
	}
}

// NewTransferInstruction moves lamports out of a system account.
func NewTransferInstruction(from, to Address, lamports uint64) Instruction {
	w := NewWriter()
	w.Uint32(systemTransfer)
	w.Uint64(lamports)
	return Instruction{
		ProgramID: SystemProgramID,
		Accounts: []*solana.AccountMeta{
			solana.NewAccountMeta(from, true, true),
			solana.NewAccountMeta(to, true, false),
		},
		Data: w.Bytes(),
	}
}

func processSystem(ctx *Context, accounts []*solana.AccountMeta, data []byte) error {
	r := NewReader(data)
	tag := r.Uint32()
	if err := r.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
	}
	switch tag {
	case systemCreateAccount:
		lamports := r.Uint64()
		owner := r.Address()
		if err := r.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
		}
		if len(accounts) < 2 {
			return fmt.Errorf("%w: create account needs 2 accounts", ErrInvalidInstruction)
		}
		payer, target := accounts[0].PublicKey, accounts[1].PublicKey
		if !ctx.IsSigner(payer) || !ctx.IsSigner(target) {
			return ErrMissingSignature
		}
		if ok, err := AccountExists(ctx.State, target); err != nil {
			return err
		} else if ok {
			return fmt.Errorf("%w: %s", ErrAccountExists, target)
		}
		src, err := ctx.LoadAccount(payer)
		if err != nil {
			return err
		}
		if src.Lamports < lamports {
			return fmt.Errorf("%w: %s", ErrInsufficientFunds, payer)
		}
		src.Lamports -= lamports
		if err := WriteAccount(ctx.State, payer, src); err != nil {
			return err
		}
		return WriteAccount(ctx.State, target, &Account{Lamports: lamports, Owner: owner})

	case systemTransfer:
		lamports := r.Uint64()
		if err := r.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
		}
		if len(accounts) < 2 {
			return fmt.Errorf("%w: transfer needs 2 accounts", ErrInvalidInstruction)
		}
		from, to := accounts[0].PublicKey, accounts[1].PublicKey
		if !ctx.IsSigner(from) {
			return ErrMissingSignature
		}
		src, err := ctx.LoadAccount(from)
		if err != nil {
			return err
		}
		if !src.Owner.Equals(SystemProgramID) || len(src.Data) > 0 {
			return fmt.Errorf("%w: transfer source must be a plain system account", ErrIllegalOwner)
		}
		return moveLamports(ctx.State, from, src, to, lamports)

	default:
		return fmt.Errorf("%w: system tag %d", ErrInvalidInstruction, tag)
	}
}
