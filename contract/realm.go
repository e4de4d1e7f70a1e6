package contract

import (
	"errors"
	"fmt"

	"realms_dao/contract/dao"
	"realms_dao/sdk"
)

const maxRealmNameLength = 32

func validateRealmConfigArgs(args *dao.RealmConfigArgs) error {
	src := args.CommunityMintMaxVoterWeightSource
	switch src.Kind {
	case dao.MaxVoterWeightSupplyFraction:
		if src.Value == 0 || src.Value > dao.SupplyFractionBase {
			return fmt.Errorf("%w: supply fraction %d", ErrInvalidRealmConfig, src.Value)
		}
	case dao.MaxVoterWeightAbsolute:
		if src.Value == 0 {
			return fmt.Errorf("%w: absolute max voter weight 0", ErrInvalidRealmConfig)
		}
	default:
		return fmt.Errorf("%w: max voter weight source %d", ErrInvalidRealmConfig, src.Kind)
	}
	for _, tc := range []dao.GoverningTokenConfig{args.CommunityTokenConfig, args.CouncilTokenConfig} {
		if tc.TokenType > dao.GoverningTokenDormant {
			return fmt.Errorf("%w: token type %d", ErrInvalidRealmConfig, tc.TokenType)
		}
	}
	return nil
}

// createHolding opens the token account the realm keeps deposits of mint in.
func createHolding(ctx *sdk.Context, payer, realm, mint, holding Address) error {
	pa, err := expect(holding, "governing token holding", ctx.ProgramID, holdingSeeds(realm, mint)...)
	if err != nil {
		return err
	}
	if _, err := sdk.LoadMint(ctx.State, mint); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidGoverningMint, err)
	}
	create := sdk.NewCreateAccountInstruction(payer, holding, sdk.RentExemptMinimum, sdk.TokenProgramID)
	if err := ctx.Invoke(create, pa.signerSeeds()); err != nil {
		if errors.Is(err, sdk.ErrAccountExists) {
			return fmt.Errorf("%w: holding %s", ErrAccountAlreadyInitialized, holding)
		}
		return err
	}
	return ctx.Invoke(sdk.NewInitializeAccountInstruction(holding, mint, realm), pa.signerSeeds())
}

// createRealm sets up the realm, its holdings and its config account.
// Accounts: [realm, authority, communityMint, communityHolding, payer(s), realmConfig,
// councilMint?, councilHolding?]
func (p *Processor) createRealm(ctx *sdk.Context, accs accountList, ix dao.CreateRealm) error {
	if err := accs.need(6, "CreateRealm"); err != nil {
		return err
	}
	if len(ix.Name) == 0 || len(ix.Name) > maxRealmNameLength {
		return fmt.Errorf("%w: %q", ErrInvalidRealmName, ix.Name)
	}
	if err := validateRealmConfigArgs(&ix.Config); err != nil {
		return err
	}
	realmAddr, authority, communityMint := accs.at(0), accs.at(1), accs.at(2)
	payer, configAddr := accs.at(4), accs.at(5)
	if err := requireSigner(ctx, payer, "payer"); err != nil {
		return err
	}
	realmPA, err := expect(realmAddr, "realm", ctx.ProgramID, realmSeeds(ix.Name)...)
	if err != nil {
		return err
	}
	if ok, err := exists(ctx, realmAddr); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("%w: realm %q", ErrAccountAlreadyInitialized, ix.Name)
	}

	if err := createHolding(ctx, payer, realmAddr, communityMint, accs.at(3)); err != nil {
		return err
	}

	var council *Address
	if ix.Config.UseCouncilMint {
		if err := accs.need(8, "CreateRealm with council"); err != nil {
			return err
		}
		councilMint := accs.at(6)
		if councilMint.Equals(communityMint) {
			return fmt.Errorf("%w: council mint equals community mint", ErrInvalidGoverningMint)
		}
		if err := createHolding(ctx, payer, realmAddr, councilMint, accs.at(7)); err != nil {
			return err
		}
		council = &councilMint
	}

	cfgPA, err := expect(configAddr, "realm config", ctx.ProgramID, realmConfigSeeds(realmAddr)...)
	if err != nil {
		return err
	}
	rc := &dao.RealmConfigAccount{
		Realm:                realmAddr,
		CommunityTokenConfig: ix.Config.CommunityTokenConfig,
		CouncilTokenConfig:   ix.Config.CouncilTokenConfig,
	}
	if err := createRecord(ctx, payer, cfgPA, dao.EncodeRealmConfigAccount(rc), 0); err != nil {
		return err
	}

	auth := authority
	realm := &dao.Realm{
		CommunityMint: communityMint,
		Config: dao.RealmConfig{
			CouncilMint:                          council,
			CommunityMintMaxVoterWeightSource:    ix.Config.CommunityMintMaxVoterWeightSource,
			MinCommunityWeightToCreateGovernance: ix.Config.MinCommunityWeightToCreateGovernance,
		},
		Authority: &auth,
		Name:      ix.Name,
	}
	if err := createRecord(ctx, payer, realmPA, dao.EncodeRealm(realm), 0); err != nil {
		return err
	}
	emitRealmCreatedEvent(ctx, realmAddr, ix.Name)
	return nil
}

// setRealmAuthority hands the realm authority over, checked against the realm's
// governances when asked to.
// Accounts: [realm, authority(s), newAuthority?]
func (p *Processor) setRealmAuthority(ctx *sdk.Context, accs accountList, ix dao.SetRealmAuthority) error {
	if err := accs.need(2, "SetRealmAuthority"); err != nil {
		return err
	}
	realmAddr := accs.at(0)
	realm, err := load(ctx, realmAddr, dao.DecodeRealm)
	if err != nil {
		return err
	}
	if err := requireRealmAuthority(ctx, realm, accs.at(1)); err != nil {
		return err
	}

	switch ix.Action {
	case dao.RemoveRealmAuthority:
		realm.Authority = nil
	case dao.SetRealmAuthorityUnchecked, dao.SetRealmAuthorityChecked:
		next, ok := accs.optional(2)
		if !ok {
			return fmt.Errorf("%w: new realm authority", ErrMissingAccounts)
		}
		if ix.Action == dao.SetRealmAuthorityChecked {
			gov, err := load(ctx, next, dao.DecodeGovernance)
			if err != nil {
				return fmt.Errorf("%w: checked authority must be a governance: %v", ErrInvalidRealmAuthority, err)
			}
			if !gov.Realm.Equals(realmAddr) {
				return fmt.Errorf("%w: governance of another realm", ErrInvalidRealmAuthority)
			}
		}
		realm.Authority = &next
	default:
		return fmt.Errorf("%w: action %d", ErrInvalidInstructionData, ix.Action)
	}
	if err := saveRealm(ctx, realmAddr, realm); err != nil {
		return err
	}
	emitRealmAuthorityEvent(ctx, realmAddr, realm.Authority)
	return nil
}

// setRealmConfig rewrites the realm config. The council mint stays as created.
// Accounts: [realm, authority(s), realmConfig, payer(s)]
func (p *Processor) setRealmConfig(ctx *sdk.Context, accs accountList, ix dao.SetRealmConfig) error {
	if err := accs.need(4, "SetRealmConfig"); err != nil {
		return err
	}
	realmAddr, configAddr, payer := accs.at(0), accs.at(2), accs.at(3)
	realm, err := load(ctx, realmAddr, dao.DecodeRealm)
	if err != nil {
		return err
	}
	if err := requireRealmAuthority(ctx, realm, accs.at(1)); err != nil {
		return err
	}
	if err := validateRealmConfigArgs(&ix.Config); err != nil {
		return err
	}
	if ix.Config.UseCouncilMint != (realm.Config.CouncilMint != nil) {
		return ErrCouncilMintImmutable
	}

	realm.Config.CommunityMintMaxVoterWeightSource = ix.Config.CommunityMintMaxVoterWeightSource
	realm.Config.MinCommunityWeightToCreateGovernance = ix.Config.MinCommunityWeightToCreateGovernance
	if err := saveRealm(ctx, realmAddr, realm); err != nil {
		return err
	}

	rc := &dao.RealmConfigAccount{
		Realm:                realmAddr,
		CommunityTokenConfig: ix.Config.CommunityTokenConfig,
		CouncilTokenConfig:   ix.Config.CouncilTokenConfig,
	}
	cfgPA, err := expect(configAddr, "realm config", ctx.ProgramID, realmConfigSeeds(realmAddr)...)
	if err != nil {
		return err
	}
	ok, err := exists(ctx, configAddr)
	if err != nil {
		return err
	}
	if ok {
		err = saveRealmConfig(ctx, configAddr, rc)
	} else {
		if err := requireSigner(ctx, payer, "payer"); err != nil {
			return err
		}
		err = createRecord(ctx, payer, cfgPA, dao.EncodeRealmConfigAccount(rc), 0)
	}
	if err != nil {
		return err
	}
	emitRealmConfigEvent(ctx, realmAddr)
	return nil
}
