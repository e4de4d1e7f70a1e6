package contract

import (
	"fmt"
	"math/bits"

	"realms_dao/contract/dao"
	"realms_dao/sdk"
)

const (
	maxProposalOptions  = 32
	maxOptionLabelBytes = 256
)

// transitionTo moves the proposal forward. Moving to a lower or equal rank fails, with
// ExecutingWithErrors allowed to stay where it is.
func transitionTo(prop *dao.Proposal, next dao.ProposalState) error {
	cur := prop.State
	if cur == next && cur == dao.ProposalStateExecutingWithErrors {
		return nil
	}
	if next.Rank() <= cur.Rank() {
		return fmt.Errorf("%w: %s to %s", ErrInvalidStateTransition, cur, next)
	}
	prop.State = next
	return nil
}

func requireState(prop *dao.Proposal, allowed ...dao.ProposalState) error {
	for _, s := range allowed {
		if prop.State == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidProposalState, prop.State)
}

// loadProposalOf loads a proposal and checks it belongs to the governance.
func loadProposalOf(ctx *sdk.Context, propAddr, govAddr Address) (*dao.Proposal, error) {
	prop, err := load(ctx, propAddr, dao.DecodeProposal)
	if err != nil {
		return nil, err
	}
	if !prop.Governance.Equals(govAddr) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidGovernanceForProposal, propAddr)
	}
	return prop, nil
}

// requireProposalOwner checks torAddr is the proposal's owner record and that its
// owner or delegate signed.
func requireProposalOwner(ctx *sdk.Context, prop *dao.Proposal, torAddr, authority Address) (*dao.TokenOwnerRecord, error) {
	if !prop.TokenOwnerRecord.Equals(torAddr) {
		return nil, fmt.Errorf("%w: not the proposal owner record", ErrInvalidTokenOwnerRecord)
	}
	tor, err := load(ctx, torAddr, dao.DecodeTokenOwnerRecord)
	if err != nil {
		return nil, err
	}
	if err := requireOwnerOrDelegate(ctx, tor, authority); err != nil {
		return nil, err
	}
	return tor, nil
}

func validateOptionLabels(existing int, labels []string) error {
	if existing+len(labels) > maxProposalOptions {
		return fmt.Errorf("%w: more than %d options", ErrInvalidProposalOptions, maxProposalOptions)
	}
	for _, l := range labels {
		if l == "" || len(l) > maxOptionLabelBytes {
			return fmt.Errorf("%w: option label %q", ErrInvalidProposalOptions, l)
		}
	}
	return nil
}

func validateVoteType(vt dao.VoteType) error {
	switch vt.Kind {
	case dao.VoteTypeSingleChoice:
		return nil
	case dao.VoteTypeMultiChoice:
		if vt.ChoiceType > dao.MultiChoiceWeighted {
			return fmt.Errorf("%w: multi choice type %d", ErrInvalidProposalOptions, vt.ChoiceType)
		}
		if vt.MaxWinningOptions == 0 {
			return fmt.Errorf("%w: no winning options allowed", ErrInvalidProposalOptions)
		}
		return nil
	default:
		return fmt.Errorf("%w: vote type %d", ErrInvalidProposalOptions, vt.Kind)
	}
}

// voteThresholds picks the thresholds for the proposal mint and the veto of the opposite mint.
func voteThresholds(realm *dao.Realm, cfg *dao.GovernanceConfig, mint Address) (vote, veto dao.VoteThreshold, council bool) {
	_, council = isRealmMint(realm, mint)
	if council {
		return cfg.CouncilVoteThreshold, cfg.CommunityVetoVoteThreshold, true
	}
	return cfg.CommunityVoteThreshold, cfg.CouncilVetoVoteThreshold, false
}

// proposalConfig is the config frozen at voting start, or the live one before that.
func proposalConfig(prop *dao.Proposal, gov *dao.Governance) *dao.GovernanceConfig {
	if prop.Config != nil {
		return prop.Config
	}
	return &gov.Config
}

func (p *Processor) depositAmount(gov *dao.Governance) (uint64, error) {
	exempt := uint64(gov.Config.DepositExemptProposalCount)
	if gov.ActiveProposalCount <= exempt {
		return 0, nil
	}
	hi, lo := bits.Mul64(p.cfg.DepositBase, gov.ActiveProposalCount-exempt)
	if hi != 0 {
		return 0, fmt.Errorf("%w: proposal deposit", ErrCounterOverflow)
	}
	return lo, nil
}

// createProposal opens a draft proposal under a governance.
// Accounts: [realm, proposal, governance, tokenOwnerRecord, mint, governanceAuthority(s),
// payer(s), realmConfig, proposalDeposit]
func (p *Processor) createProposal(ctx *sdk.Context, accs accountList, ix dao.CreateProposal) error {
	if err := accs.need(9, "CreateProposal"); err != nil {
		return err
	}
	realmAddr, propAddr, govAddr := accs.at(0), accs.at(1), accs.at(2)
	torAddr, mint, authority := accs.at(3), accs.at(4), accs.at(5)
	payer, configAddr, depositAddr := accs.at(6), accs.at(7), accs.at(8)

	if ix.Name == "" {
		return fmt.Errorf("%w: empty proposal name", ErrInvalidProposalOptions)
	}
	if err := validateVoteType(ix.VoteType); err != nil {
		return err
	}
	if err := validateOptionLabels(0, ix.Options); err != nil {
		return err
	}
	realm, rc, err := loadRealmWithConfig(ctx, realmAddr, configAddr)
	if err != nil {
		return err
	}
	if ok, _ := isRealmMint(realm, mint); !ok {
		return fmt.Errorf("%w: %s", ErrInvalidGoverningMint, mint)
	}
	gov, err := load(ctx, govAddr, dao.DecodeGovernance)
	if err != nil {
		return err
	}
	if !gov.Realm.Equals(realmAddr) {
		return fmt.Errorf("%w: governance of another realm", ErrInvalidAccountAddress)
	}
	voteThreshold, _, council := voteThresholds(realm, &gov.Config, mint)
	if !voteThreshold.Enabled() {
		return ErrGoverningTokenVotingDisabled
	}
	tor, err := loadTokenOwnerRecordFor(ctx, torAddr, realmAddr, &mint)
	if err != nil {
		return err
	}
	if err := requireOwnerOrDelegate(ctx, tor, authority); err != nil {
		return err
	}
	if err := requireSigner(ctx, payer, "payer"); err != nil {
		return err
	}

	weight, err := p.voterWeight(ctx, realmAddr, rc.TokenConfigFor(realm, mint), tor, dao.VoterWeightCreateProposal, &govAddr)
	if err != nil {
		return err
	}
	required := gov.Config.MinCommunityWeightToCreateProposal
	if council {
		required = gov.Config.MinCouncilWeightToCreateProposal
	}
	if weight < required {
		return fmt.Errorf("%w: %d of %d", ErrNotEnoughTokensToCreateProposal, weight, required)
	}

	propPA, err := expect(propAddr, "proposal", ctx.ProgramID, proposalSeeds(govAddr, mint, ix.ProposalSeed)...)
	if err != nil {
		return err
	}
	depositPA, err := expect(depositAddr, "proposal deposit", ctx.ProgramID, proposalDepositSeeds(propAddr, payer)...)
	if err != nil {
		return err
	}
	amount, err := p.depositAmount(gov)
	if err != nil {
		return err
	}
	if err := p.ledger.RecordProposal(tor, gov); err != nil {
		return err
	}

	options := make([]dao.ProposalOption, 0, len(ix.Options))
	for _, label := range ix.Options {
		options = append(options, dao.ProposalOption{Label: label})
	}
	prop := &dao.Proposal{
		Governance:       govAddr,
		GoverningMint:    mint,
		State:            dao.ProposalStateDraft,
		TokenOwnerRecord: torAddr,
		VoteType:         ix.VoteType,
		Options:          options,
		DraftAt:          ctx.Clock().UnixTimestamp,
		Name:             ix.Name,
		DescriptionLink:  ix.DescriptionLink,
	}
	if ix.UseDenyOption {
		prop.DenyVoteWeight = new(uint64)
	}
	if err := createRecord(ctx, payer, propPA, dao.EncodeProposal(prop), 0); err != nil {
		return err
	}
	deposit := &dao.ProposalDeposit{Proposal: propAddr, DepositPayer: payer, Amount: amount}
	if err := createRecord(ctx, payer, depositPA, dao.EncodeProposalDeposit(deposit), amount); err != nil {
		return err
	}
	if err := saveTokenOwnerRecord(ctx, torAddr, tor); err != nil {
		return err
	}
	if err := saveGovernance(ctx, govAddr, gov); err != nil {
		return err
	}
	emitProposalCreatedEvent(ctx, propAddr, tor.Owner, amount)
	return nil
}

// insertProposalOptions appends options to a draft.
// Accounts: [governance, proposal, tokenOwnerRecord, authority(s)]
func (p *Processor) insertProposalOptions(ctx *sdk.Context, accs accountList, ix dao.InsertProposalOptions) error {
	if err := accs.need(4, "InsertProposalOptions"); err != nil {
		return err
	}
	govAddr, propAddr, torAddr, authority := accs.at(0), accs.at(1), accs.at(2), accs.at(3)
	prop, err := loadProposalOf(ctx, propAddr, govAddr)
	if err != nil {
		return err
	}
	if err := requireState(prop, dao.ProposalStateDraft); err != nil {
		return err
	}
	if _, err := requireProposalOwner(ctx, prop, torAddr, authority); err != nil {
		return err
	}
	if len(ix.Options) == 0 {
		return fmt.Errorf("%w: no options given", ErrInvalidProposalOptions)
	}
	if err := validateOptionLabels(len(prop.Options), ix.Options); err != nil {
		return err
	}
	for _, label := range ix.Options {
		prop.Options = append(prop.Options, dao.ProposalOption{Label: label})
	}
	return saveProposal(ctx, propAddr, prop)
}

// addSignatory requires one more sign off before the draft can go to vote.
// Accounts: [governance, proposal, signatoryRecord, tokenOwnerRecord, authority(s), payer(s)]
func (p *Processor) addSignatory(ctx *sdk.Context, accs accountList, ix dao.AddSignatory) error {
	if err := accs.need(6, "AddSignatory"); err != nil {
		return err
	}
	govAddr, propAddr, sigAddr := accs.at(0), accs.at(1), accs.at(2)
	torAddr, authority, payer := accs.at(3), accs.at(4), accs.at(5)
	prop, err := loadProposalOf(ctx, propAddr, govAddr)
	if err != nil {
		return err
	}
	if err := requireState(prop, dao.ProposalStateDraft); err != nil {
		return err
	}
	if _, err := requireProposalOwner(ctx, prop, torAddr, authority); err != nil {
		return err
	}
	if err := requireSigner(ctx, payer, "payer"); err != nil {
		return err
	}
	pa, err := expect(sigAddr, "signatory record", ctx.ProgramID, signatoryRecordSeeds(propAddr, ix.Signatory)...)
	if err != nil {
		return err
	}
	if ok, err := exists(ctx, sigAddr); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("%w: %s", ErrSignatoryAlreadyExists, ix.Signatory)
	}
	if prop.SignatoriesCount == ^uint8(0) {
		return fmt.Errorf("%w: signatories", ErrCounterOverflow)
	}
	rec := &dao.SignatoryRecord{Proposal: propAddr, Signatory: ix.Signatory}
	if err := createRecord(ctx, payer, pa, dao.EncodeSignatoryRecord(rec), 0); err != nil {
		return err
	}
	prop.SignatoriesCount++
	if err := saveProposal(ctx, propAddr, prop); err != nil {
		return err
	}
	emitSignatoryEvent(ctx, propAddr, ix.Signatory, "add")
	return nil
}

// removeSignatory drops a signatory from a draft and refunds its record.
// Accounts: [proposal, tokenOwnerRecord, authority(s), signatoryRecord, beneficiary]
func (p *Processor) removeSignatory(ctx *sdk.Context, accs accountList, ix dao.RemoveSignatory) error {
	if err := accs.need(5, "RemoveSignatory"); err != nil {
		return err
	}
	propAddr, torAddr, authority := accs.at(0), accs.at(1), accs.at(2)
	sigAddr, beneficiary := accs.at(3), accs.at(4)
	prop, err := load(ctx, propAddr, dao.DecodeProposal)
	if err != nil {
		return err
	}
	if err := requireState(prop, dao.ProposalStateDraft); err != nil {
		return err
	}
	if _, err := requireProposalOwner(ctx, prop, torAddr, authority); err != nil {
		return err
	}
	if _, err := expect(sigAddr, "signatory record", ctx.ProgramID, signatoryRecordSeeds(propAddr, ix.Signatory)...); err != nil {
		return err
	}
	rec, err := load(ctx, sigAddr, dao.DecodeSignatoryRecord)
	if err != nil {
		return err
	}
	if rec.SignedOff {
		return ErrSignatoryAlreadySignedOff
	}
	if err := closeRecord(ctx, sigAddr, beneficiary); err != nil {
		return err
	}
	prop.SignatoriesCount--
	if err := saveProposal(ctx, propAddr, prop); err != nil {
		return err
	}
	emitSignatoryEvent(ctx, propAddr, ix.Signatory, "remove")
	return nil
}

// startVoting opens the voting window and freezes the limits the tally is measured against.
func (p *Processor) startVoting(ctx *sdk.Context, prop *dao.Proposal, realmAddr Address, realm *dao.Realm,
	rc *dao.RealmConfigAccount, gov *dao.Governance) error {
	maxWeight, err := p.maxVoteWeight(ctx, realmAddr, realm, rc.TokenConfigFor(realm, prop.GoverningMint), prop.GoverningMint)
	if err != nil {
		return err
	}
	if opposite, ok := oppositeMint(realm, prop.GoverningMint); ok {
		vetoMax, err := p.maxVoteWeight(ctx, realmAddr, realm, rc.TokenConfigFor(realm, opposite), opposite)
		if err != nil {
			return err
		}
		prop.VetoMaxVoteWeight = &vetoMax
	}
	if err := transitionTo(prop, dao.ProposalStateVoting); err != nil {
		return err
	}
	clock := ctx.Clock()
	now, slot := clock.UnixTimestamp, clock.Slot
	cfg := gov.Config
	prop.VotingAt = &now
	prop.VotingAtSlot = &slot
	prop.MaxVoteWeight = &maxWeight
	prop.Config = &cfg
	return nil
}

// signOffProposal records a sign off. The last signatory, or the owner when there are
// none, starts the vote.
// Accounts: [realm, governance, proposal, signatory(s), signatoryRecord | ownerTokenOwnerRecord, realmConfig]
func (p *Processor) signOffProposal(ctx *sdk.Context, accs accountList) error {
	if err := accs.need(6, "SignOffProposal"); err != nil {
		return err
	}
	realmAddr, govAddr, propAddr := accs.at(0), accs.at(1), accs.at(2)
	signatory, recordAddr, configAddr := accs.at(3), accs.at(4), accs.at(5)

	realm, rc, err := loadRealmWithConfig(ctx, realmAddr, configAddr)
	if err != nil {
		return err
	}
	gov, err := load(ctx, govAddr, dao.DecodeGovernance)
	if err != nil {
		return err
	}
	if !gov.Realm.Equals(realmAddr) {
		return fmt.Errorf("%w: governance of another realm", ErrInvalidAccountAddress)
	}
	prop, err := loadProposalOf(ctx, propAddr, govAddr)
	if err != nil {
		return err
	}
	if err := requireState(prop, dao.ProposalStateDraft, dao.ProposalStateSigningOff); err != nil {
		return err
	}
	if len(prop.Options) == 0 {
		return fmt.Errorf("%w: proposal has no options", ErrInvalidProposalOptions)
	}

	if prop.SignatoriesCount == 0 {
		if _, err := requireProposalOwner(ctx, prop, recordAddr, signatory); err != nil {
			return err
		}
		if err := p.startVoting(ctx, prop, realmAddr, realm, rc, gov); err != nil {
			return err
		}
	} else {
		if _, err := expect(recordAddr, "signatory record", ctx.ProgramID, signatoryRecordSeeds(propAddr, signatory)...); err != nil {
			return err
		}
		rec, err := load(ctx, recordAddr, dao.DecodeSignatoryRecord)
		if err != nil {
			return err
		}
		if rec.SignedOff {
			return ErrSignatoryAlreadySignedOff
		}
		if err := requireSigner(ctx, signatory, "signatory"); err != nil {
			return err
		}
		rec.SignedOff = true
		if err := storeRecord(ctx, recordAddr, dao.EncodeSignatoryRecord(rec)); err != nil {
			return err
		}
		prop.SignatoriesSignedOffCount++
		if prop.State == dao.ProposalStateDraft {
			now := ctx.Clock().UnixTimestamp
			prop.SigningOffAt = &now
			if err := transitionTo(prop, dao.ProposalStateSigningOff); err != nil {
				return err
			}
		}
		if prop.SignatoriesSignedOffCount == prop.SignatoriesCount {
			if err := p.startVoting(ctx, prop, realmAddr, realm, rc, gov); err != nil {
				return err
			}
		}
		emitSignatoryEvent(ctx, propAddr, signatory, "sign-off")
	}
	if err := saveProposal(ctx, propAddr, prop); err != nil {
		return err
	}
	emitProposalStateChangedEvent(ctx, propAddr, prop.State)
	return nil
}

// releaseProposal stops counting an active proposal against its owner and governance.
// owner may be nil, in which case the record at ownerAddr is loaded and saved here.
func (p *Processor) releaseProposal(ctx *sdk.Context, prop *dao.Proposal, ownerAddr Address,
	owner *dao.TokenOwnerRecord, govAddr Address, gov *dao.Governance) error {
	if !prop.TokenOwnerRecord.Equals(ownerAddr) {
		return fmt.Errorf("%w: not the proposal owner record", ErrInvalidTokenOwnerRecord)
	}
	if owner == nil {
		var err error
		if owner, err = load(ctx, ownerAddr, dao.DecodeTokenOwnerRecord); err != nil {
			return err
		}
	}
	if err := p.ledger.ReleaseProposal(owner, gov); err != nil {
		return err
	}
	if err := saveTokenOwnerRecord(ctx, ownerAddr, owner); err != nil {
		return err
	}
	return saveGovernance(ctx, govAddr, gov)
}

// cancelProposal withdraws a proposal that has not collected any weight yet.
// Cancelling a proposal that already ended does nothing.
// Accounts: [realm, governance, proposal, tokenOwnerRecord, authority(s)]
func (p *Processor) cancelProposal(ctx *sdk.Context, accs accountList) error {
	if err := accs.need(5, "CancelProposal"); err != nil {
		return err
	}
	govAddr, propAddr, torAddr, authority := accs.at(1), accs.at(2), accs.at(3), accs.at(4)
	gov, err := load(ctx, govAddr, dao.DecodeGovernance)
	if err != nil {
		return err
	}
	if !gov.Realm.Equals(accs.at(0)) {
		return fmt.Errorf("%w: governance of another realm", ErrInvalidAccountAddress)
	}
	prop, err := loadProposalOf(ctx, propAddr, govAddr)
	if err != nil {
		return err
	}
	tor, err := requireProposalOwner(ctx, prop, torAddr, authority)
	if err != nil {
		return err
	}
	if prop.State.IsTerminal() {
		ctx.Log("proposal already " + prop.State.String())
		return nil
	}
	now := ctx.Clock().UnixTimestamp
	switch prop.State {
	case dao.ProposalStateDraft, dao.ProposalStateSigningOff:
	case dao.ProposalStateVoting:
		if prop.CastWeight() > 0 {
			return fmt.Errorf("%w: votes already cast", ErrInvalidProposalState)
		}
		cfg := proposalConfig(prop, gov)
		if now >= *prop.VotingAt+int64(cfg.VotingBaseTime) {
			return ErrProposalVotingTimeExpired
		}
	default:
		return fmt.Errorf("%w: cannot cancel %s", ErrInvalidProposalState, prop.State)
	}
	if err := transitionTo(prop, dao.ProposalStateCancelled); err != nil {
		return err
	}
	prop.ClosedAt = &now
	if err := p.releaseProposal(ctx, prop, torAddr, tor, govAddr, gov); err != nil {
		return err
	}
	if err := saveProposal(ctx, propAddr, prop); err != nil {
		return err
	}
	emitProposalStateChangedEvent(ctx, propAddr, prop.State)
	return nil
}

// completeProposal closes a passed proposal that has nothing to execute.
// Accounts: [proposal, tokenOwnerRecord, authority(s)]
func (p *Processor) completeProposal(ctx *sdk.Context, accs accountList) error {
	if err := accs.need(3, "CompleteProposal"); err != nil {
		return err
	}
	propAddr, torAddr, authority := accs.at(0), accs.at(1), accs.at(2)
	prop, err := load(ctx, propAddr, dao.DecodeProposal)
	if err != nil {
		return err
	}
	if _, err := requireProposalOwner(ctx, prop, torAddr, authority); err != nil {
		return err
	}
	if err := requireState(prop, dao.ProposalStateSucceeded); err != nil {
		return err
	}
	// transactions of defeated options never run and do not hold the proposal open
	if !allExecuted(prop) {
		return ErrProposalHasTransactions
	}
	if err := transitionTo(prop, dao.ProposalStateCompleted); err != nil {
		return err
	}
	now := ctx.Clock().UnixTimestamp
	prop.ClosedAt = &now
	if err := saveProposal(ctx, propAddr, prop); err != nil {
		return err
	}
	emitProposalStateChangedEvent(ctx, propAddr, prop.State)
	return nil
}

// refundProposalDeposit returns the deposit to whoever paid it, once the proposal is over.
// Accounts: [proposal, proposalDeposit, payer]
func (p *Processor) refundProposalDeposit(ctx *sdk.Context, accs accountList) error {
	if err := accs.need(3, "RefundProposalDeposit"); err != nil {
		return err
	}
	propAddr, depositAddr, payer := accs.at(0), accs.at(1), accs.at(2)
	prop, err := load(ctx, propAddr, dao.DecodeProposal)
	if err != nil {
		return err
	}
	if !prop.State.IsTerminal() {
		return fmt.Errorf("%w: deposit locked while %s", ErrInvalidProposalState, prop.State)
	}
	if _, err := expect(depositAddr, "proposal deposit", ctx.ProgramID, proposalDepositSeeds(propAddr, payer)...); err != nil {
		return err
	}
	ok, err := exists(ctx, depositAddr)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProposalDepositRefunded
	}
	deposit, err := load(ctx, depositAddr, dao.DecodeProposalDeposit)
	if err != nil {
		return err
	}
	if !deposit.Proposal.Equals(propAddr) || !deposit.DepositPayer.Equals(payer) {
		return fmt.Errorf("%w: deposit of another proposal", ErrInvalidAccountAddress)
	}
	acc, err := ctx.LoadAccount(depositAddr)
	if err != nil {
		return err
	}
	if err := closeRecord(ctx, depositAddr, payer); err != nil {
		return err
	}
	emitDepositRefundedEvent(ctx, propAddr, payer, acc.Lamports)
	return nil
}
