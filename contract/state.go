package contract

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"realms_dao/contract/dao"
	"realms_dao/sdk"
)

// ReadRecord loads and decodes a record owned by programID straight from a State.
// Example payload: ReadRecord(state, programID, proposalAddr, dao.DecodeProposal)
func ReadRecord[T any](s sdk.State, programID, addr Address, decode func([]byte) (*T, error)) (*T, error) {
	acc, err := sdk.ReadAccount(s, addr)
	if err != nil {
		if errors.Is(err, sdk.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAccountDoesNotExist, addr)
		}
		return nil, err
	}
	if !acc.Owner.Equals(programID) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAccountOwner, addr)
	}
	v, err := decode(acc.Data)
	if err != nil {
		if errors.Is(err, dao.ErrAccountTypeMismatch) {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAccountType, addr, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAccountData, addr, err)
	}
	return v, nil
}

func load[T any](ctx *sdk.Context, addr Address, decode func([]byte) (*T, error)) (*T, error) {
	return ReadRecord(ctx.State, ctx.ProgramID, addr, decode)
}

func exists(ctx *sdk.Context, addr Address) (bool, error) {
	return sdk.AccountExists(ctx.State, addr)
}

// createRecord funds a fresh program address from payer and stores data in it.
// extra lamports above the rent minimum stay in the account.
func createRecord(ctx *sdk.Context, payer Address, pa programAddress, data []byte, extra uint64) error {
	if ok, err := exists(ctx, pa.Address); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInitialized, pa.Address)
	}
	lamports := sdk.MinimumBalance(len(data)) + extra
	ix := sdk.NewCreateAccountInstruction(payer, pa.Address, lamports, ctx.ProgramID)
	if err := ctx.Invoke(ix, pa.signerSeeds()); err != nil {
		if errors.Is(err, sdk.ErrInsufficientFunds) {
			return fmt.Errorf("%w: payer %s: %v", ErrInsufficientFunds, payer, err)
		}
		return err
	}
	return storeRecord(ctx, pa.Address, data)
}

func storeRecord(ctx *sdk.Context, addr Address, data []byte) error {
	acc, err := ctx.LoadAccount(addr)
	if err != nil {
		return err
	}
	acc.Data = data
	return ctx.StoreAccount(addr, acc)
}

func closeRecord(ctx *sdk.Context, addr, beneficiary Address) error {
	return ctx.CloseAccount(addr, beneficiary)
}

func saveRealm(ctx *sdk.Context, addr Address, v *dao.Realm) error {
	return storeRecord(ctx, addr, dao.EncodeRealm(v))
}

func saveRealmConfig(ctx *sdk.Context, addr Address, v *dao.RealmConfigAccount) error {
	return storeRecord(ctx, addr, dao.EncodeRealmConfigAccount(v))
}

func saveTokenOwnerRecord(ctx *sdk.Context, addr Address, v *dao.TokenOwnerRecord) error {
	return storeRecord(ctx, addr, dao.EncodeTokenOwnerRecord(v))
}

func saveGovernance(ctx *sdk.Context, addr Address, v *dao.Governance) error {
	return storeRecord(ctx, addr, dao.EncodeGovernance(v))
}

func saveProposal(ctx *sdk.Context, addr Address, v *dao.Proposal) error {
	return storeRecord(ctx, addr, dao.EncodeProposal(v))
}

func saveProposalTransaction(ctx *sdk.Context, addr Address, v *dao.ProposalTransaction) error {
	return storeRecord(ctx, addr, dao.EncodeProposalTransaction(v))
}

// accountList hands out instruction accounts by position.
type accountList []*solana.AccountMeta

func (l accountList) need(n int, what string) error {
	if len(l) < n {
		return fmt.Errorf("%w: %s needs %d, got %d", ErrMissingAccounts, what, n, len(l))
	}
	return nil
}

func (l accountList) at(i int) Address {
	return l[i].PublicKey
}

// optional returns the account at i when the caller supplied it.
func (l accountList) optional(i int) (Address, bool) {
	if i >= len(l) {
		return sdk.ZeroAddress, false
	}
	return l[i].PublicKey, true
}

// loadRealmWithConfig loads the realm and its config account, checking the config address.
func loadRealmWithConfig(ctx *sdk.Context, realmAddr, configAddr Address) (*dao.Realm, *dao.RealmConfigAccount, error) {
	realm, err := load(ctx, realmAddr, dao.DecodeRealm)
	if err != nil {
		return nil, nil, err
	}
	if _, err := expect(configAddr, "realm config", ctx.ProgramID, realmConfigSeeds(realmAddr)...); err != nil {
		return nil, nil, err
	}
	cfg, err := load(ctx, configAddr, dao.DecodeRealmConfigAccount)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Realm.Equals(realmAddr) {
		return nil, nil, fmt.Errorf("%w: realm config of %s", ErrInvalidAccountAddress, cfg.Realm)
	}
	return realm, cfg, nil
}

// loadTokenOwnerRecordFor loads a record and checks it belongs to realm and, when given, mint.
func loadTokenOwnerRecordFor(ctx *sdk.Context, addr, realm Address, mint *Address) (*dao.TokenOwnerRecord, error) {
	tor, err := load(ctx, addr, dao.DecodeTokenOwnerRecord)
	if err != nil {
		return nil, err
	}
	if !tor.Realm.Equals(realm) {
		return nil, fmt.Errorf("%w: %s is not in realm %s", ErrInvalidTokenOwnerRecord, addr, realm)
	}
	if mint != nil && !tor.GoverningMint.Equals(*mint) {
		return nil, fmt.Errorf("%w: %s is not for mint %s", ErrInvalidTokenOwnerRecord, addr, *mint)
	}
	return tor, nil
}

// isRealmMint tells if mint governs the realm, and whether it is the council mint.
func isRealmMint(realm *dao.Realm, mint Address) (ok bool, council bool) {
	if realm.CommunityMint.Equals(mint) {
		return true, false
	}
	if realm.Config.CouncilMint != nil && realm.Config.CouncilMint.Equals(mint) {
		return true, true
	}
	return false, false
}

// oppositeMint is the mint whose holders may veto proposals of mint.
func oppositeMint(realm *dao.Realm, mint Address) (Address, bool) {
	if realm.Config.CouncilMint == nil {
		return sdk.ZeroAddress, false
	}
	if realm.CommunityMint.Equals(mint) {
		return *realm.Config.CouncilMint, true
	}
	return realm.CommunityMint, true
}
