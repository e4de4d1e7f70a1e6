package contract

import (
	"fmt"

	"realms_dao/contract/dao"
	"realms_dao/sdk"
)

// -----------------------------------------------------------------------------
// Ballots
// -----------------------------------------------------------------------------

// validateBallot checks the vote fits the proposal's vote type. Approve carries one
// choice per proposal option.
func validateBallot(prop *dao.Proposal, vote dao.Vote) error {
	switch vote.Kind {
	case dao.VoteApprove:
	case dao.VoteDeny:
		if !prop.UseDenyOption() {
			return fmt.Errorf("%w: proposal has no deny option", ErrInvalidVote)
		}
		fallthrough
	case dao.VoteAbstain, dao.VoteVeto:
		if len(vote.Choices) != 0 {
			return fmt.Errorf("%w: %s takes no choices", ErrInvalidVote, vote.Kind)
		}
		return nil
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidVote, vote.Kind)
	}

	if len(vote.Choices) != len(prop.Options) {
		return fmt.Errorf("%w: %d choices for %d options", ErrInvalidVote, len(vote.Choices), len(prop.Options))
	}
	picked, sum := 0, 0
	for _, c := range vote.Choices {
		if c.Rank != 0 {
			return fmt.Errorf("%w: ranked choices are not supported", ErrInvalidVote)
		}
		if c.WeightPercentage > 100 {
			return fmt.Errorf("%w: choice weight %d%%", ErrInvalidVote, c.WeightPercentage)
		}
		if c.WeightPercentage > 0 {
			picked++
		}
		sum += int(c.WeightPercentage)
	}

	vt := prop.VoteType
	switch {
	case vt.Kind == dao.VoteTypeSingleChoice:
		if picked != 1 || sum != 100 {
			return fmt.Errorf("%w: single choice needs one option at 100%%", ErrInvalidVote)
		}
	case vt.ChoiceType == dao.MultiChoiceFullWeight:
		for _, c := range vote.Choices {
			if c.WeightPercentage != 0 && c.WeightPercentage != 100 {
				return fmt.Errorf("%w: full weight choices are 0 or 100", ErrInvalidVote)
			}
		}
		if picked == 0 {
			return fmt.Errorf("%w: no option chosen", ErrInvalidVote)
		}
	default:
		if sum != 100 {
			return fmt.Errorf("%w: weighted choices sum to %d%%", ErrInvalidVote, sum)
		}
	}
	if vt.Kind == dao.VoteTypeMultiChoice && vt.MaxVoterOptions > 0 && picked > int(vt.MaxVoterOptions) {
		return fmt.Errorf("%w: %d options chosen, max %d", ErrInvalidVote, picked, vt.MaxVoterOptions)
	}
	return nil
}

func addWeight(dst *uint64, w uint64) error {
	if *dst+w < *dst {
		return fmt.Errorf("%w: vote weight", ErrCounterOverflow)
	}
	*dst += w
	return nil
}

func subWeight(dst *uint64, w uint64) error {
	if *dst < w {
		return fmt.Errorf("%w: vote weight", ErrCounterUnderflow)
	}
	*dst -= w
	return nil
}

// applyVote adds weight to the proposal tallies, or takes it back when undo is set.
func applyVote(prop *dao.Proposal, vote dao.Vote, weight uint64, undo bool) error {
	move := addWeight
	if undo {
		move = subWeight
	}
	switch vote.Kind {
	case dao.VoteApprove:
		for i, c := range vote.Choices {
			if err := move(&prop.Options[i].VoteWeight, shareOf(weight, c.WeightPercentage)); err != nil {
				return err
			}
		}
	case dao.VoteDeny:
		if err := move(prop.DenyVoteWeight, weight); err != nil {
			return err
		}
	case dao.VoteAbstain:
		if err := move(&prop.AbstainVoteWeight, weight); err != nil {
			return err
		}
	case dao.VoteVeto:
		return move(&prop.VetoVoteWeight, weight)
	}
	return move(&prop.Turnout, weight)
}

// settleVote records the outcome of the vote on the proposal.
func settleVote(prop *dao.Proposal, state dao.ProposalState, results []dao.OptionVoteResult, now int64) error {
	if err := transitionTo(prop, state); err != nil {
		return err
	}
	for i := range results {
		prop.Options[i].VoteResult = results[i]
	}
	prop.VotingCompletedAt = &now
	if state != dao.ProposalStateSucceeded {
		prop.ClosedAt = &now
	}
	return nil
}

// votingWindow reports whether the proposal still takes votes at now.
func votingWindow(prop *dao.Proposal, cfg *dao.GovernanceConfig, now int64) error {
	votingAt := *prop.VotingAt
	if now >= votingAt+int64(cfg.VotingBaseTime) {
		return ErrProposalVotingTimeExpired
	}
	if now < votingAt+int64(cfg.VotingCoolOffTime) {
		return ErrVotingCoolOff
	}
	return nil
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

// castVote records one ballot and tips the proposal when the tally allows it.
// Accounts: [realm, governance, proposal, proposalOwnerRecord, voterRecord,
// governanceAuthority(s), voteRecord, voteMint, payer(s), realmConfig]
func (p *Processor) castVote(ctx *sdk.Context, accs accountList, ix dao.CastVote) error {
	if err := accs.need(10, "CastVote"); err != nil {
		return err
	}
	realmAddr, govAddr, propAddr := accs.at(0), accs.at(1), accs.at(2)
	ownerAddr, voterAddr, authority := accs.at(3), accs.at(4), accs.at(5)
	vrAddr, voteMint, payer, configAddr := accs.at(6), accs.at(7), accs.at(8), accs.at(9)

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
	if err := requireState(prop, dao.ProposalStateVoting); err != nil {
		return err
	}
	if !prop.TokenOwnerRecord.Equals(ownerAddr) {
		return fmt.Errorf("%w: not the proposal owner record", ErrInvalidTokenOwnerRecord)
	}
	cfg := proposalConfig(prop, gov)
	now := ctx.Clock().UnixTimestamp
	if err := votingWindow(prop, cfg, now); err != nil {
		return err
	}

	voteThreshold, vetoThreshold, council := voteThresholds(realm, cfg, prop.GoverningMint)
	if ix.Vote.Kind == dao.VoteVeto {
		opposite, ok := oppositeMint(realm, prop.GoverningMint)
		if !ok || !voteMint.Equals(opposite) {
			return fmt.Errorf("%w: veto must come from the opposite mint", ErrInvalidGoverningMint)
		}
		if !vetoThreshold.Enabled() {
			return fmt.Errorf("%w: veto", ErrGoverningTokenVotingDisabled)
		}
	} else if !voteMint.Equals(prop.GoverningMint) {
		return fmt.Errorf("%w: %s", ErrInvalidGoverningMint, voteMint)
	}
	if err := validateBallot(prop, ix.Vote); err != nil {
		return err
	}

	voter, err := loadTokenOwnerRecordFor(ctx, voterAddr, realmAddr, &voteMint)
	if err != nil {
		return err
	}
	if err := requireOwnerOrDelegate(ctx, voter, authority); err != nil {
		return err
	}
	if err := requireSigner(ctx, payer, "payer"); err != nil {
		return err
	}
	vrPA, err := expect(vrAddr, "vote record", ctx.ProgramID, voteRecordSeeds(propAddr, voterAddr)...)
	if err != nil {
		return err
	}
	if ok, err := exists(ctx, vrAddr); err != nil {
		return err
	} else if ok {
		return ErrVoteAlreadyExists
	}

	weight, err := p.voterWeight(ctx, realmAddr, rc.TokenConfigFor(realm, voteMint), voter, dao.VoterWeightCastVote, &propAddr)
	if err != nil {
		return err
	}
	if weight == 0 {
		return fmt.Errorf("%w: no voting weight", ErrInvalidVote)
	}
	if err := applyVote(prop, ix.Vote, weight, false); err != nil {
		return err
	}
	if err := p.ledger.RecordVote(voter); err != nil {
		return err
	}
	vr := &dao.VoteRecord{
		Proposal:            propAddr,
		GoverningTokenOwner: voter.Owner,
		VoterWeight:         weight,
		Vote:                ix.Vote,
	}
	if err := createRecord(ctx, payer, vrPA, dao.EncodeVoteRecord(vr), 0); err != nil {
		return err
	}
	emitVoteEvent(ctx, propAddr, voter.Owner, ix.Vote.Kind, weight)

	tipped := false
	if now >= *prop.VotingAt+int64(cfg.MinVotingTime) {
		t := newTally(prop, cfg, voteThreshold, vetoThreshold)
		if state, results, ok := t.tip(cfg.VoteTipping, council); ok {
			if err := settleVote(prop, state, results, now); err != nil {
				return err
			}
			tipped = true
		}
	}

	if tipped {
		// The voter may be the proposal owner, so both must go through one record.
		owner := voter
		if !ownerAddr.Equals(voterAddr) {
			if owner, err = load(ctx, ownerAddr, dao.DecodeTokenOwnerRecord); err != nil {
				return err
			}
		}
		if err := p.ledger.ReleaseProposal(owner, gov); err != nil {
			return err
		}
		if !ownerAddr.Equals(voterAddr) {
			if err := saveTokenOwnerRecord(ctx, ownerAddr, owner); err != nil {
				return err
			}
		}
		if err := saveGovernance(ctx, govAddr, gov); err != nil {
			return err
		}
	}
	if err := saveTokenOwnerRecord(ctx, voterAddr, voter); err != nil {
		return err
	}
	if err := saveProposal(ctx, propAddr, prop); err != nil {
		return err
	}
	if tipped {
		emitProposalStateChangedEvent(ctx, propAddr, prop.State)
	}
	return nil
}

// finalizeVote closes a vote whose window has ended.
// Accounts: [realm, governance, proposal, proposalOwnerRecord, mint, realmConfig]
func (p *Processor) finalizeVote(ctx *sdk.Context, accs accountList) error {
	if err := accs.need(6, "FinalizeVote"); err != nil {
		return err
	}
	realmAddr, govAddr, propAddr := accs.at(0), accs.at(1), accs.at(2)
	ownerAddr, mint, configAddr := accs.at(3), accs.at(4), accs.at(5)

	realm, _, err := loadRealmWithConfig(ctx, realmAddr, configAddr)
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
	if err := requireState(prop, dao.ProposalStateVoting); err != nil {
		return err
	}
	if !prop.GoverningMint.Equals(mint) {
		return fmt.Errorf("%w: %s", ErrInvalidGoverningMint, mint)
	}
	cfg := proposalConfig(prop, gov)
	now := ctx.Clock().UnixTimestamp
	if now < *prop.VotingAt+int64(cfg.VotingBaseTime) {
		return ErrVotingInProgress
	}

	voteThreshold, vetoThreshold, _ := voteThresholds(realm, cfg, prop.GoverningMint)
	state, results := newTally(prop, cfg, voteThreshold, vetoThreshold).final()
	if err := settleVote(prop, state, results, now); err != nil {
		return err
	}
	if err := p.releaseProposal(ctx, prop, ownerAddr, nil, govAddr, gov); err != nil {
		return err
	}
	if err := saveProposal(ctx, propAddr, prop); err != nil {
		return err
	}
	emitProposalStateChangedEvent(ctx, propAddr, prop.State)
	return nil
}

// relinquishVote releases a vote from the owner's record. While the proposal still
// takes votes the ballot is withdrawn and its record closed; afterwards the record
// is only marked.
// Accounts: [realm, governance, proposal, tokenOwnerRecord, voteRecord, voteMint,
// authority(s)?, beneficiary?]
func (p *Processor) relinquishVote(ctx *sdk.Context, accs accountList) error {
	if err := accs.need(6, "RelinquishVote"); err != nil {
		return err
	}
	realmAddr, govAddr, propAddr := accs.at(0), accs.at(1), accs.at(2)
	torAddr, vrAddr, voteMint := accs.at(3), accs.at(4), accs.at(5)

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
	tor, err := loadTokenOwnerRecordFor(ctx, torAddr, realmAddr, &voteMint)
	if err != nil {
		return err
	}
	if _, err := expect(vrAddr, "vote record", ctx.ProgramID, voteRecordSeeds(propAddr, torAddr)...); err != nil {
		return err
	}
	vr, err := load(ctx, vrAddr, dao.DecodeVoteRecord)
	if err != nil {
		return err
	}
	if !vr.Proposal.Equals(propAddr) || !vr.GoverningTokenOwner.Equals(tor.Owner) {
		return fmt.Errorf("%w: vote record of another voter", ErrInvalidAccountAddress)
	}
	if vr.IsRelinquished {
		return ErrVoteAlreadyRelinquished
	}

	withdrawn := false
	if prop.State == dao.ProposalStateVoting {
		now := ctx.Clock().UnixTimestamp
		if now >= *prop.VotingAt+int64(proposalConfig(prop, gov).VotingBaseTime) {
			return fmt.Errorf("%w: vote ended, finalize it first", ErrInvalidProposalState)
		}
		authority, ok := accs.optional(6)
		beneficiary, ok2 := accs.optional(7)
		if !ok || !ok2 {
			return fmt.Errorf("%w: authority and beneficiary", ErrMissingAccounts)
		}
		if err := requireOwnerOrDelegate(ctx, tor, authority); err != nil {
			return err
		}
		if err := applyVote(prop, vr.Vote, vr.VoterWeight, true); err != nil {
			return err
		}
		if err := closeRecord(ctx, vrAddr, beneficiary); err != nil {
			return err
		}
		if err := saveProposal(ctx, propAddr, prop); err != nil {
			return err
		}
		withdrawn = true
	} else {
		vr.IsRelinquished = true
		if err := storeRecord(ctx, vrAddr, dao.EncodeVoteRecord(vr)); err != nil {
			return err
		}
	}

	if err := p.ledger.ReleaseVote(tor); err != nil {
		return err
	}
	if err := saveTokenOwnerRecord(ctx, torAddr, tor); err != nil {
		return err
	}
	emitRelinquishEvent(ctx, propAddr, tor.Owner, withdrawn)
	return nil
}
