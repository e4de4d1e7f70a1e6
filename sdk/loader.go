package sdk

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var ErrNotUpgradeable = errors.New("program is not upgradeable")

const loaderSetAuthority uint32 = 4

// ProgramData is the loader's view of a deployed program: who may upgrade it.
type ProgramData struct {
	UpgradeAuthority *Address
}

// LoadProgramData reads the upgrade authority of a deployed program.
func LoadProgramData(s State, program Address) (*ProgramData, error) {
	acc, err := ReadAccount(s, program)
	if err != nil {
		return nil, err
	}
	if !acc.Owner.Equals(LoaderProgramID) || !acc.Executable {
		return nil, fmt.Errorf("%w: %s", ErrNotUpgradeable, program)
	}
	r := NewReader(acc.Data)
	pd := &ProgramData{UpgradeAuthority: r.OptionAddress()}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return pd, nil
}

func encodeProgramData(pd *ProgramData) []byte {
	w := NewWriter()
	w.OptionAddress(pd.UpgradeAuthority)
	return w.Bytes()
}

// NewSetUpgradeAuthorityInstruction hands the upgrade authority to next, or makes
// the program immutable when next is nil.
func NewSetUpgradeAuthorityInstruction(program, current Address, next *Address) Instruction {
	metas := []*solana.AccountMeta{
		solana.NewAccountMeta(program, true, false),
		solana.NewAccountMeta(current, false, true),
	}
	if next != nil {
		metas = append(metas, solana.NewAccountMeta(*next, false, false))
	}
	w := NewWriter()
	w.Uint32(loaderSetAuthority)
	return Instruction{ProgramID: LoaderProgramID, Accounts: metas, Data: w.Bytes()}
}

func processLoader(ctx *Context, accounts []*solana.AccountMeta, data []byte) error {
	r := NewReader(data)
	tag := r.Uint32()
	if err := r.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
	}
	if tag != loaderSetAuthority {
		return fmt.Errorf("%w: loader tag %d", ErrInvalidInstruction, tag)
	}
	if err := needAccounts(accounts, 2, "set upgrade authority"); err != nil {
		return err
	}
	program, current := accounts[0].PublicKey, accounts[1].PublicKey
	pd, err := LoadProgramData(ctx.State, program)
	if err != nil {
		return err
	}
	if pd.UpgradeAuthority == nil || !pd.UpgradeAuthority.Equals(current) {
		return ErrOwnerMismatch
	}
	if !ctx.IsSigner(current) {
		return ErrMissingSignature
	}
	pd.UpgradeAuthority = nil
	if len(accounts) > 2 {
		next := accounts[2].PublicKey
		pd.UpgradeAuthority = &next
	}
	acc, err := ctx.LoadAccount(program)
	if err != nil {
		return err
	}
	acc.Data = encodeProgramData(pd)
	return WriteAccount(ctx.State, program, acc)
}
