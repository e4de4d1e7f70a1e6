package contract

import (
	"fmt"

	"realms_dao/contract/dao"
	"realms_dao/sdk"
)

func validateThreshold(t dao.VoteThreshold, what string) error {
	switch t.Kind {
	case dao.VoteThresholdDisabled:
		return nil
	case dao.VoteThresholdYesVotePercentage:
		if t.Percentage == 0 || t.Percentage > 100 {
			return fmt.Errorf("%w: %s %d%%", ErrInvalidGovernanceConfig, what, t.Percentage)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s kind %d", ErrInvalidGovernanceConfig, what, t.Kind)
	}
}

// ValidateGovernanceConfig checks a config before it is stored on a governance.
func ValidateGovernanceConfig(cfg *dao.GovernanceConfig) error {
	checks := []struct {
		t    dao.VoteThreshold
		what string
	}{
		{cfg.CommunityVoteThreshold, "community vote threshold"},
		{cfg.CouncilVoteThreshold, "council vote threshold"},
		{cfg.CommunityVetoVoteThreshold, "community veto threshold"},
		{cfg.CouncilVetoVoteThreshold, "council veto threshold"},
	}
	for _, c := range checks {
		if err := validateThreshold(c.t, c.what); err != nil {
			return err
		}
	}
	if !cfg.CommunityVoteThreshold.Enabled() && !cfg.CouncilVoteThreshold.Enabled() {
		return fmt.Errorf("%w: at least one mint must be able to vote", ErrInvalidGovernanceConfig)
	}
	if cfg.QuorumPercentage > 100 {
		return fmt.Errorf("%w: quorum %d%%", ErrInvalidGovernanceConfig, cfg.QuorumPercentage)
	}
	if cfg.VotingBaseTime == 0 {
		return fmt.Errorf("%w: voting base time is 0", ErrInvalidGovernanceConfig)
	}
	if cfg.VotingCoolOffTime >= cfg.VotingBaseTime {
		return fmt.Errorf("%w: cool off %ds not below base time %ds", ErrInvalidGovernanceConfig,
			cfg.VotingCoolOffTime, cfg.VotingBaseTime)
	}
	if cfg.MinVotingTime > cfg.VotingBaseTime {
		return fmt.Errorf("%w: min voting time above base time", ErrInvalidGovernanceConfig)
	}
	if cfg.VoteTipping > dao.VoteTippingEarlyOnEither {
		return fmt.Errorf("%w: vote tipping %d", ErrInvalidGovernanceConfig, cfg.VoteTipping)
	}
	return nil
}

// canCreateGovernance passes for the realm authority, or a token owner whose weight
// reaches the realm minimum.
func (p *Processor) canCreateGovernance(ctx *sdk.Context, realmAddr Address, realm *dao.Realm,
	rc *dao.RealmConfigAccount, torAddr, authority Address) error {
	if realm.Authority != nil && realm.Authority.Equals(authority) && ctx.IsSigner(authority) {
		return nil
	}
	tor, err := loadTokenOwnerRecordFor(ctx, torAddr, realmAddr, nil)
	if err != nil {
		return err
	}
	if err := requireOwnerOrDelegate(ctx, tor, authority); err != nil {
		return err
	}
	weight, err := p.voterWeight(ctx, realmAddr, rc.TokenConfigFor(realm, tor.GoverningMint), tor,
		dao.VoterWeightCreateGovernance, &realmAddr)
	if err != nil {
		return err
	}
	required := realm.Config.MinCommunityWeightToCreateGovernance
	if _, council := isRealmMint(realm, tor.GoverningMint); council {
		required = 1
	}
	if weight < required {
		return fmt.Errorf("%w: %d of %d", ErrNotEnoughTokensToCreateGovernance, weight, required)
	}
	return nil
}

// transferResourceAuthority hands the governed resource to the governance.
func transferResourceAuthority(ctx *sdk.Context, kind dao.GovernanceKind, governed, current, governance Address) error {
	var ix sdk.Instruction
	switch kind {
	case dao.GovernanceKindProgram:
		ix = sdk.NewSetUpgradeAuthorityInstruction(governed, current, &governance)
	case dao.GovernanceKindMint:
		ix = sdk.NewSetAuthorityInstruction(governed, current, sdk.AuthorityMintTokens, &governance)
	case dao.GovernanceKindToken:
		ix = sdk.NewSetAuthorityInstruction(governed, current, sdk.AuthorityAccountOwner, &governance)
	default:
		return nil
	}
	if err := ctx.Invoke(ix); err != nil {
		return fmt.Errorf("transfer %s authority: %w", kind, err)
	}
	return nil
}

func checkGovernedAccount(ctx *sdk.Context, kind dao.GovernanceKind, governed Address) error {
	var err error
	switch kind {
	case dao.GovernanceKindProgram:
		_, err = sdk.LoadProgramData(ctx.State, governed)
	case dao.GovernanceKindMint:
		_, err = sdk.LoadMint(ctx.State, governed)
	case dao.GovernanceKindToken:
		_, err = sdk.LoadTokenAccount(ctx.State, governed)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidGovernedAccount, governed, err)
	}
	return nil
}

// createGovernance handles all four governance kinds.
// Accounts: [realm, governance, governed, tokenOwnerRecord, payer(s), createAuthority(s),
// realmConfig, currentResourceAuthority(s)?]
func (p *Processor) createGovernance(ctx *sdk.Context, accs accountList, kind dao.GovernanceKind,
	cfg dao.GovernanceConfig, transferAuthority bool) error {
	if err := accs.need(7, "CreateGovernance"); err != nil {
		return err
	}
	realmAddr, govAddr, governed := accs.at(0), accs.at(1), accs.at(2)
	torAddr, payer, authority, configAddr := accs.at(3), accs.at(4), accs.at(5), accs.at(6)

	if err := ValidateGovernanceConfig(&cfg); err != nil {
		return err
	}
	realm, rc, err := loadRealmWithConfig(ctx, realmAddr, configAddr)
	if err != nil {
		return err
	}
	if err := requireSigner(ctx, payer, "payer"); err != nil {
		return err
	}
	pa, err := expect(govAddr, "governance", ctx.ProgramID, governanceSeeds(realmAddr, governed)...)
	if err != nil {
		return err
	}
	if err := p.canCreateGovernance(ctx, realmAddr, realm, rc, torAddr, authority); err != nil {
		return err
	}
	if err := checkGovernedAccount(ctx, kind, governed); err != nil {
		return err
	}
	if transferAuthority {
		current, ok := accs.optional(7)
		if !ok {
			return fmt.Errorf("%w: current %s authority", ErrMissingAccounts, kind)
		}
		if err := transferResourceAuthority(ctx, kind, governed, current, govAddr); err != nil {
			return err
		}
	}

	gov := &dao.Governance{
		Realm:           realmAddr,
		GovernedAccount: governed,
		Kind:            kind,
		Config:          cfg,
	}
	if err := createRecord(ctx, payer, pa, dao.EncodeGovernance(gov), 0); err != nil {
		return err
	}
	emitGovernanceCreatedEvent(ctx, govAddr, governed, kind)
	return nil
}

// setGovernanceConfig only runs signed by the governance itself, which means from
// inside a passed proposal's transaction.
// Accounts: [governance(s)]
func (p *Processor) setGovernanceConfig(ctx *sdk.Context, accs accountList, ix dao.SetGovernanceConfig) error {
	if err := accs.need(1, "SetGovernanceConfig"); err != nil {
		return err
	}
	govAddr := accs.at(0)
	if !ctx.IsSigner(govAddr) {
		return fmt.Errorf("%w: %s", ErrGovernancePdaMustSign, govAddr)
	}
	gov, err := load(ctx, govAddr, dao.DecodeGovernance)
	if err != nil {
		return err
	}
	if err := ValidateGovernanceConfig(&ix.Config); err != nil {
		return err
	}
	gov.Config = ix.Config
	if err := saveGovernance(ctx, govAddr, gov); err != nil {
		return err
	}
	emitGovernanceConfigEvent(ctx, govAddr, &gov.Config)
	return nil
}

// createNativeTreasury opens the system account a governance holds lamports in.
// Accounts: [governance, treasury, payer(s)]
func (p *Processor) createNativeTreasury(ctx *sdk.Context, accs accountList) error {
	if err := accs.need(3, "CreateNativeTreasury"); err != nil {
		return err
	}
	govAddr, treasury, payer := accs.at(0), accs.at(1), accs.at(2)
	if _, err := load(ctx, govAddr, dao.DecodeGovernance); err != nil {
		return err
	}
	if err := requireSigner(ctx, payer, "payer"); err != nil {
		return err
	}
	pa, err := expect(treasury, "native treasury", ctx.ProgramID, nativeTreasurySeeds(govAddr)...)
	if err != nil {
		return err
	}
	if ok, err := exists(ctx, treasury); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("%w: treasury %s", ErrAccountAlreadyInitialized, treasury)
	}
	create := sdk.NewCreateAccountInstruction(payer, treasury, sdk.RentExemptMinimum, sdk.SystemProgramID)
	if err := ctx.Invoke(create, pa.signerSeeds()); err != nil {
		return err
	}
	emitTreasuryCreatedEvent(ctx, govAddr, treasury)
	return nil
}
