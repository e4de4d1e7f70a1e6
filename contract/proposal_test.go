package contract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realms_dao/contract"
	"realms_dao/contract/dao"
	"realms_dao/sdk"
)

func noVetoConfig() dao.GovernanceConfig {
	cfg := defaultConfig()
	cfg.CouncilVetoVoteThreshold = dao.DisabledThreshold()
	return cfg
}

// =============================================================================
// Proposal Lifecycle Tests
// =============================================================================

// TestProposalLifecycle checks the proposal lifecycle flow so we dont break it again.
func TestProposalLifecycle(t *testing.T) {
	d := SetupDAO(t, defaultConfig())

	prop := d.Propose(d.Alice, "payout", dao.SingleChoice(), "Approve")
	tx := d.InsertTransfer(d.Alice, prop, 0, 0, 3600, d.Carol.Wallet, lamportsSOL)
	assert.Equal(t, dao.ProposalStateDraft, d.Proposal(prop).State)

	d.SignOff(d.Alice, prop)
	p := d.Proposal(prop)
	assert.Equal(t, dao.ProposalStateVoting, p.State)
	require.NotNil(t, p.MaxVoteWeight)
	assert.Equal(t, uint64(200), *p.MaxVoteWeight)
	require.NotNil(t, p.VetoMaxVoteWeight)
	assert.Equal(t, uint64(2), *p.VetoMaxVoteWeight)

	d.Vote(d.Alice, prop, dao.ApproveOption(1, 0))
	d.Vote(d.Bob, prop, dao.ApproveOption(1, 0))
	d.Vote(d.Carol, prop, dao.Vote{Kind: dao.VoteDeny})
	// council veto weight is still outstanding
	assert.Equal(t, dao.ProposalStateVoting, d.Proposal(prop).State)

	p = d.Proposal(prop)
	d.CallErr(contract.ErrVotingInProgress, nil,
		d.Client.FinalizeVote(d.Realm, d.Governance, prop, p.TokenOwnerRecord, p.GoverningMint))

	d.Warp(3 * day)
	d.Finalize(prop)
	p = d.Proposal(prop)
	assert.Equal(t, dao.ProposalStateSucceeded, p.State)
	assert.Equal(t, dao.OptionVoteSucceeded, p.Options[0].VoteResult)
	assert.Equal(t, uint64(160), p.Options[0].VoteWeight)
	assert.Equal(t, uint64(40), *p.DenyVoteWeight)
	assert.Equal(t, uint64(200), p.Turnout)
	assert.Equal(t, uint64(0), d.GovernanceRecord(d.Governance).ActiveProposalCount)

	d.CallErr(contract.ErrTransactionHoldUp, nil, d.executeIx(tx))
	d.Warp(3600)

	carolBefore := d.Lamports(d.Carol.Wallet)
	d.Execute(tx)
	assert.Equal(t, carolBefore+lamportsSOL, d.Lamports(d.Carol.Wallet))
	assert.Equal(t, dao.TransactionStatusSuccess, d.Transaction(tx).ExecutionStatus)
	p = d.Proposal(prop)
	assert.Equal(t, dao.ProposalStateCompleted, p.State)
	assert.NotNil(t, p.ExecutingAt)
	assert.NotNil(t, p.ClosedAt)

	// a second run must not pay twice
	d.CallErr(contract.ErrInvalidProposalState, nil, d.executeIx(tx))
	assert.Equal(t, carolBefore+lamportsSOL, d.Lamports(d.Carol.Wallet))
	d.CheckInvariants()
}

// TestWithdrawAfterRelinquish checks deposits stay locked until every vote is released.
func TestWithdrawAfterRelinquish(t *testing.T) {
	d := SetupDAO(t, noVetoConfig())
	prop := d.Propose(d.Alice, "signal", dao.SingleChoice(), "Approve")

	withdraw := d.Client.WithdrawGoverningTokens(d.Realm, d.CommunityMint, d.Alice.CommunityToken, d.Alice.Wallet)
	d.CallErr(contract.ErrCannotWithdrawWithOutstandingProposal, []sdk.Address{d.Alice.Wallet}, withdraw)

	d.SignOff(d.Alice, prop)
	d.Vote(d.Alice, prop, dao.ApproveOption(1, 0))
	d.Vote(d.Bob, prop, dao.ApproveOption(1, 0))
	assert.Equal(t, dao.ProposalStateSucceeded, d.Proposal(prop).State)

	d.CallErr(contract.ErrCannotWithdrawWithOutstandingVotes, []sdk.Address{d.Alice.Wallet}, withdraw)

	relinquish := d.Client.RelinquishVote(d.Realm, d.Governance, prop, d.RecordOf(d.Alice, false), d.CommunityMint, nil, nil)
	d.Call(true, nil, relinquish)
	d.CallErr(contract.ErrVoteAlreadyRelinquished, nil, relinquish)

	d.Call(true, []sdk.Address{d.Alice.Wallet}, withdraw)
	assert.Equal(t, uint64(100), d.TokenBalance(d.Alice.CommunityToken))
	assert.Equal(t, uint64(0), d.Record(d.RecordOf(d.Alice, false)).DepositAmount)
	assert.Equal(t, uint64(100), d.TokenBalance(contract.HoldingAddress(d.ProgramID, d.Realm, d.CommunityMint)))
	d.CheckInvariants()
}

// =============================================================================
// Tipping Tests
// =============================================================================

// TestStrictTippingClosesVote checks a vote closes as soon as no outstanding weight can change it.
func TestStrictTippingClosesVote(t *testing.T) {
	d := SetupDAO(t, noVetoConfig())
	prop := d.Propose(d.Alice, "tip", dao.SingleChoice(), "Approve")
	d.SignOff(d.Alice, prop)

	d.Vote(d.Alice, prop, dao.ApproveOption(1, 0))
	assert.Equal(t, dao.ProposalStateVoting, d.Proposal(prop).State)

	d.Vote(d.Bob, prop, dao.ApproveOption(1, 0))
	p := d.Proposal(prop)
	assert.Equal(t, dao.ProposalStateSucceeded, p.State)
	assert.NotNil(t, p.VotingCompletedAt)
	assert.Nil(t, p.ClosedAt)
	assert.Equal(t, uint8(0), d.Record(d.RecordOf(d.Alice, false)).OutstandingProposalCount)

	d.CallErr(contract.ErrInvalidProposalState, []sdk.Address{d.Carol.Wallet},
		d.voteIx(d.Carol, prop, dao.Vote{Kind: dao.VoteDeny}))
	d.CallErr(contract.ErrInvalidProposalState, []sdk.Address{d.Alice.Wallet},
		d.Client.CancelProposal(d.Realm, d.Governance, prop, d.RecordOf(d.Alice, false), d.Alice.Wallet))

	d.Call(true, []sdk.Address{d.Alice.Wallet}, d.Client.CompleteProposal(prop, d.RecordOf(d.Alice, false), d.Alice.Wallet))
	assert.Equal(t, dao.ProposalStateCompleted, d.Proposal(prop).State)
	d.CheckInvariants()
}

// TestStrictTippingDefeat checks a vote closes defeated once the deny side is out of reach.
func TestStrictTippingDefeat(t *testing.T) {
	d := SetupDAO(t, noVetoConfig())
	prop := d.Propose(d.Carol, "reject me", dao.SingleChoice(), "Approve")
	d.SignOff(d.Carol, prop)

	d.Vote(d.Alice, prop, dao.Vote{Kind: dao.VoteDeny})
	p := d.Proposal(prop)
	assert.Equal(t, dao.ProposalStateDefeated, p.State)
	assert.Equal(t, dao.OptionVoteDefeated, p.Options[0].VoteResult)
	assert.NotNil(t, p.ClosedAt)
	d.CheckInvariants()
}

// TestTippingDisabledWaitsForFinalize checks nothing closes early without tipping.
func TestTippingDisabledWaitsForFinalize(t *testing.T) {
	cfg := noVetoConfig()
	cfg.VoteTipping = dao.VoteTippingDisabled
	d := SetupDAO(t, cfg)
	prop := d.Propose(d.Alice, "slow", dao.SingleChoice(), "Approve")
	d.SignOff(d.Alice, prop)

	d.Vote(d.Alice, prop, dao.ApproveOption(1, 0))
	d.Vote(d.Bob, prop, dao.ApproveOption(1, 0))
	d.Vote(d.Carol, prop, dao.ApproveOption(1, 0))
	assert.Equal(t, dao.ProposalStateVoting, d.Proposal(prop).State)

	d.Warp(3 * day)
	d.CallErr(contract.ErrProposalVotingTimeExpired, []sdk.Address{d.Alice.Wallet},
		d.voteIx(d.Alice, prop, dao.Vote{Kind: dao.VoteAbstain}))
	d.Finalize(prop)
	assert.Equal(t, dao.ProposalStateSucceeded, d.Proposal(prop).State)
	d.CheckInvariants()
}

// TestCouncilVeto checks the council can veto a community proposal that would pass.
func TestCouncilVeto(t *testing.T) {
	d := SetupDAO(t, defaultConfig())
	prop := d.Propose(d.Alice, "contested", dao.SingleChoice(), "Approve")
	d.SignOff(d.Alice, prop)

	d.Vote(d.Alice, prop, dao.ApproveOption(1, 0))
	d.Vote(d.Bob, prop, dao.ApproveOption(1, 0))

	// a veto has to come from the other mint
	p := d.Proposal(prop)
	wrongMint := d.Client.CastVote(d.Realm, d.Governance, prop, p.TokenOwnerRecord, d.RecordOf(d.Carol, false),
		d.Carol.Wallet, d.CommunityMint, d.Carol.Wallet, dao.Vote{Kind: dao.VoteVeto})
	d.CallErr(contract.ErrInvalidGoverningMint, []sdk.Address{d.Carol.Wallet}, wrongMint)

	d.Vote(d.Alice, prop, dao.Vote{Kind: dao.VoteVeto})
	assert.Equal(t, dao.ProposalStateVoting, d.Proposal(prop).State)
	d.Vote(d.Bob, prop, dao.Vote{Kind: dao.VoteVeto})

	p = d.Proposal(prop)
	assert.Equal(t, dao.ProposalStateVetoed, p.State)
	assert.Equal(t, uint64(2), p.VetoVoteWeight)
	assert.Equal(t, dao.OptionVoteDefeated, p.Options[0].VoteResult)
	assert.Equal(t, uint64(0), d.GovernanceRecord(d.Governance).ActiveProposalCount)
	d.CheckInvariants()
}

// =============================================================================
// Multi Choice Tests
// =============================================================================

// TestMultiChoiceProposal checks each option is decided on its own and only winning
// options can run their transactions.
func TestMultiChoiceProposal(t *testing.T) {
	cfg := noVetoConfig()
	cfg.VoteTipping = dao.VoteTippingDisabled
	d := SetupDAO(t, cfg)

	prop := d.Propose(d.Alice, "grants", dao.MultiChoice(3, 3), "infra", "docs", "events")
	txA := d.InsertTransfer(d.Alice, prop, 0, 0, 0, d.Bob.Wallet, lamportsSOL)
	txB := d.InsertTransfer(d.Alice, prop, 1, 0, 0, d.Carol.Wallet, lamportsSOL)
	d.SignOff(d.Alice, prop)

	d.Vote(d.Alice, prop, dao.ApproveOptions(3, 0, 1))
	d.Vote(d.Bob, prop, dao.ApproveOptions(3, 0))
	d.Vote(d.Carol, prop, dao.ApproveOptions(3, 2))

	d.Warp(3 * day)
	d.Finalize(prop)
	p := d.Proposal(prop)
	assert.Equal(t, dao.ProposalStateSucceeded, p.State)
	assert.Equal(t, []uint64{160, 100, 40}, []uint64{p.Options[0].VoteWeight, p.Options[1].VoteWeight, p.Options[2].VoteWeight})
	assert.Equal(t, dao.OptionVoteSucceeded, p.Options[0].VoteResult)
	assert.Equal(t, dao.OptionVoteDefeated, p.Options[1].VoteResult)
	assert.Equal(t, dao.OptionVoteDefeated, p.Options[2].VoteResult)

	d.CallErr(contract.ErrOptionNotSucceeded, nil, d.executeIx(txB))
	d.Execute(txA)
	assert.Equal(t, dao.ProposalStateCompleted, d.Proposal(prop).State)
	d.CheckInvariants()
}

// TestBallotValidation checks ballots that do not fit the proposal are refused.
func TestBallotValidation(t *testing.T) {
	d := SetupDAO(t, noVetoConfig())
	single := d.Propose(d.Alice, "single", dao.SingleChoice(), "a", "b")
	multi := d.Propose(d.Bob, "multi", dao.MultiChoice(1, 2), "a", "b")
	d.SignOff(d.Alice, single)
	d.SignOff(d.Bob, multi)

	signers := []sdk.Address{d.Carol.Wallet}
	d.CallErr(contract.ErrInvalidVote, signers, d.voteIx(d.Carol, single, dao.ApproveOptions(2, 0, 1)))
	d.CallErr(contract.ErrInvalidVote, signers, d.voteIx(d.Carol, single, dao.ApproveOptions(3, 0)))
	d.CallErr(contract.ErrInvalidVote, signers, d.voteIx(d.Carol, multi, dao.ApproveOptions(2, 0, 1)))
	ranked := dao.ApproveOption(2, 0)
	ranked.Choices[0].Rank = 1
	d.CallErr(contract.ErrInvalidVote, signers, d.voteIx(d.Carol, single, ranked))

	d.Vote(d.Carol, multi, dao.ApproveOptions(2, 1))
	d.CallErr(contract.ErrVoteAlreadyExists, signers, d.voteIx(d.Carol, multi, dao.ApproveOptions(2, 0)))
	d.CheckInvariants()
}

// TestZeroWeightVoteRejected checks a record without deposit cannot vote.
func TestZeroWeightVoteRejected(t *testing.T) {
	d := SetupDAO(t, noVetoConfig())
	prop := d.Propose(d.Alice, "empty voter", dao.SingleChoice(), "Approve")
	d.SignOff(d.Alice, prop)

	dave := Member{Wallet: d.Wallet(lamportsSOL)}
	d.Call(true, []sdk.Address{dave.Wallet}, d.Client.CreateTokenOwnerRecord(d.Realm, dave.Wallet, d.CommunityMint, dave.Wallet))
	d.CallErr(contract.ErrInvalidVote, []sdk.Address{dave.Wallet}, d.voteIx(dave, prop, dao.ApproveOption(1, 0)))
}

// TestRelinquishWhileVoting checks a withdrawn ballot leaves no weight behind.
func TestRelinquishWhileVoting(t *testing.T) {
	d := SetupDAO(t, noVetoConfig())
	prop := d.Propose(d.Alice, "change of mind", dao.SingleChoice(), "Approve")
	d.SignOff(d.Alice, prop)

	d.Vote(d.Carol, prop, dao.ApproveOption(1, 0))
	assert.Equal(t, uint64(40), d.Proposal(prop).Options[0].VoteWeight)

	carolRecord := d.RecordOf(d.Carol, false)
	d.Call(true, []sdk.Address{d.Carol.Wallet},
		d.Client.RelinquishVote(d.Realm, d.Governance, prop, carolRecord, d.CommunityMint, &d.Carol.Wallet, &d.Carol.Wallet))
	p := d.Proposal(prop)
	assert.Equal(t, uint64(0), p.Options[0].VoteWeight)
	assert.Equal(t, uint64(0), p.Turnout)
	assert.False(t, d.Exists(contract.VoteRecordAddress(d.ProgramID, prop, carolRecord)))
	assert.Equal(t, uint64(0), d.Record(carolRecord).UnrelinquishedVotesCount)

	d.Vote(d.Carol, prop, dao.Vote{Kind: dao.VoteDeny})
	assert.Equal(t, uint64(40), *d.Proposal(prop).DenyVoteWeight)

	// after the window the record can only be released through finalize first
	d.Warp(3 * day)
	d.CallErr(contract.ErrInvalidProposalState, []sdk.Address{d.Carol.Wallet},
		d.Client.RelinquishVote(d.Realm, d.Governance, prop, carolRecord, d.CommunityMint, &d.Carol.Wallet, &d.Carol.Wallet))
	d.CheckInvariants()
}

// =============================================================================
// Drafts, Signatories and Deposits
// =============================================================================

// TestCancelProposal checks cancelling frees the owner and is a no-op once closed.
func TestCancelProposal(t *testing.T) {
	d := SetupDAO(t, noVetoConfig())
	prop := d.Propose(d.Alice, "withdrawn", dao.SingleChoice(), "Approve")
	cancel := d.Client.CancelProposal(d.Realm, d.Governance, prop, d.RecordOf(d.Alice, false), d.Alice.Wallet)

	d.CallErr(contract.ErrGoverningTokenOwnerOrDelegateMustSign, []sdk.Address{d.Bob.Wallet},
		d.Client.CancelProposal(d.Realm, d.Governance, prop, d.RecordOf(d.Alice, false), d.Bob.Wallet))

	d.Call(true, []sdk.Address{d.Alice.Wallet}, cancel)
	p := d.Proposal(prop)
	assert.Equal(t, dao.ProposalStateCancelled, p.State)
	closedAt := *p.ClosedAt
	assert.Equal(t, uint8(0), d.Record(d.RecordOf(d.Alice, false)).OutstandingProposalCount)

	d.Warp(60)
	d.Call(true, []sdk.Address{d.Alice.Wallet}, cancel)
	assert.Equal(t, closedAt, *d.Proposal(prop).ClosedAt)

	voted := d.Propose(d.Alice, "voted", dao.SingleChoice(), "Approve")
	d.SignOff(d.Alice, voted)
	d.Vote(d.Carol, voted, dao.ApproveOption(1, 0))
	d.CallErr(contract.ErrInvalidProposalState, []sdk.Address{d.Alice.Wallet},
		d.Client.CancelProposal(d.Realm, d.Governance, voted, d.RecordOf(d.Alice, false), d.Alice.Wallet))
	d.CheckInvariants()
}

// TestSignatoriesGateVoting checks voting starts only when the last signatory signs off.
func TestSignatoriesGateVoting(t *testing.T) {
	d := SetupDAO(t, noVetoConfig())
	prop := d.Propose(d.Alice, "reviewed", dao.SingleChoice(), "Approve")
	record := d.RecordOf(d.Alice, false)

	d.Call(true, []sdk.Address{d.Alice.Wallet},
		d.Client.AddSignatory(d.Governance, prop, record, d.Alice.Wallet, d.Alice.Wallet, d.Bob.Wallet),
		d.Client.AddSignatory(d.Governance, prop, record, d.Alice.Wallet, d.Alice.Wallet, d.Carol.Wallet))
	d.CallErr(contract.ErrSignatoryAlreadyExists, []sdk.Address{d.Alice.Wallet},
		d.Client.AddSignatory(d.Governance, prop, record, d.Alice.Wallet, d.Alice.Wallet, d.Carol.Wallet))
	assert.Equal(t, uint8(2), d.Proposal(prop).SignatoriesCount)

	// the owner cannot skip its signatories
	d.Call(false, []sdk.Address{d.Alice.Wallet}, d.Client.SignOffProposal(d.Realm, d.Governance, prop, d.Alice.Wallet, &record))

	d.Call(true, []sdk.Address{d.Bob.Wallet}, d.Client.SignOffProposal(d.Realm, d.Governance, prop, d.Bob.Wallet, nil))
	p := d.Proposal(prop)
	assert.Equal(t, dao.ProposalStateSigningOff, p.State)
	assert.NotNil(t, p.SigningOffAt)
	d.CallErr(contract.ErrSignatoryAlreadySignedOff, []sdk.Address{d.Bob.Wallet},
		d.Client.SignOffProposal(d.Realm, d.Governance, prop, d.Bob.Wallet, nil))

	d.Call(true, []sdk.Address{d.Carol.Wallet}, d.Client.SignOffProposal(d.Realm, d.Governance, prop, d.Carol.Wallet, nil))
	assert.Equal(t, dao.ProposalStateVoting, d.Proposal(prop).State)
	d.CheckInvariants()
}

// TestProposalOptionsAndTransactions checks drafts can be edited until sign off.
func TestProposalOptionsAndTransactions(t *testing.T) {
	d := SetupDAO(t, noVetoConfig())
	prop := d.Propose(d.Alice, "editable", dao.MultiChoice(2, 2), "first")
	record := d.RecordOf(d.Alice, false)
	signers := []sdk.Address{d.Alice.Wallet}

	d.Call(true, signers, d.Client.InsertProposalOptions(d.Governance, prop, record, d.Alice.Wallet, "second"))
	d.CallErr(contract.ErrInvalidProposalOptions, signers,
		d.Client.InsertProposalOptions(d.Governance, prop, record, d.Alice.Wallet, ""))
	assert.Len(t, d.Proposal(prop).Options, 2)

	tx := d.InsertTransfer(d.Alice, prop, 1, 0, 0, d.Bob.Wallet, 10)
	d.CallErr(contract.ErrInvalidTransactionIndex, signers, d.Client.InsertTransaction(d.Governance, prop, record,
		d.Alice.Wallet, d.Alice.Wallet, 1, 5, 0, sdk.NewTransferInstruction(d.Treasury, d.Bob.Wallet, 10)))
	d.CallErr(contract.ErrInvalidOptionIndex, signers, d.Client.InsertTransaction(d.Governance, prop, record,
		d.Alice.Wallet, d.Alice.Wallet, 2, 0, 0, sdk.NewTransferInstruction(d.Treasury, d.Bob.Wallet, 10)))
	assert.Equal(t, uint16(1), d.Proposal(prop).Options[1].TransactionsCount)

	d.Call(true, signers, d.Client.RemoveTransaction(prop, record, d.Alice.Wallet, tx, d.Alice.Wallet))
	assert.False(t, d.Exists(tx))
	p := d.Proposal(prop)
	assert.Equal(t, uint16(0), p.Options[1].TransactionsCount)
	assert.Equal(t, uint16(1), p.Options[1].TransactionsNextIndex)

	d.SignOff(d.Alice, prop)
	d.CallErr(contract.ErrInvalidProposalState, signers,
		d.Client.InsertProposalOptions(d.Governance, prop, record, d.Alice.Wallet, "late"))
	d.CheckInvariants()
}

// TestProposalDeposits checks deposits grow with the active proposals and come back once.
func TestProposalDeposits(t *testing.T) {
	d := SetupDAO(t, noVetoConfig())
	first := d.Propose(d.Alice, "first", dao.SingleChoice(), "Approve")
	second := d.Propose(d.Bob, "second", dao.SingleChoice(), "Approve")
	third := d.Propose(d.Carol, "third", dao.SingleChoice(), "Approve")

	deposit := func(prop, payer sdk.Address) *dao.ProposalDeposit {
		dep, err := contract.ReadRecord(d.State, d.ProgramID, contract.ProposalDepositAddress(d.ProgramID, prop, payer), dao.DecodeProposalDeposit)
		require.NoError(t, err)
		return dep
	}
	assert.Equal(t, uint64(0), deposit(first, d.Alice.Wallet).Amount)
	assert.Equal(t, contract.DefaultDepositBase, deposit(second, d.Bob.Wallet).Amount)
	assert.Equal(t, 2*contract.DefaultDepositBase, deposit(third, d.Carol.Wallet).Amount)
	assert.Equal(t, uint64(3), d.GovernanceRecord(d.Governance).ActiveProposalCount)

	d.CallErr(contract.ErrInvalidProposalState, nil, d.Client.RefundProposalDeposit(second, d.Bob.Wallet))

	d.Call(true, []sdk.Address{d.Bob.Wallet},
		d.Client.CancelProposal(d.Realm, d.Governance, second, d.RecordOf(d.Bob, false), d.Bob.Wallet))
	depositAddr := contract.ProposalDepositAddress(d.ProgramID, second, d.Bob.Wallet)
	held := d.Lamports(depositAddr)
	assert.GreaterOrEqual(t, held, contract.DefaultDepositBase)

	before := d.Lamports(d.Bob.Wallet)
	d.Call(true, nil, d.Client.RefundProposalDeposit(second, d.Bob.Wallet))
	assert.Equal(t, before+held, d.Lamports(d.Bob.Wallet))
	assert.False(t, d.Exists(depositAddr))
	d.CallErr(contract.ErrProposalDepositRefunded, nil, d.Client.RefundProposalDeposit(second, d.Bob.Wallet))
	d.CheckInvariants()
}

// =============================================================================
// Outcome Scenarios
// =============================================================================

// finalizeWithQuorum runs one yes/no proposal on an electorate of 100 with a 60%
// threshold: alice votes 50 and bob 20 approve, carol stays home.
func finalizeWithQuorum(t *testing.T, quorum uint8) *dao.Proposal {
	cfg := noVetoConfig()
	cfg.QuorumPercentage = quorum
	cfg.VoteTipping = dao.VoteTippingDisabled
	d := SetupDAOWith(t, cfg, 50, 20, 30)
	prop := d.ProposeWith(d.Alice, false, contract.ProposalArgs{
		Name:     "quorum",
		VoteType: dao.SingleChoice(),
		Options:  []string{"Approve"},
	})
	d.SignOff(d.Alice, prop)
	require.Equal(t, uint64(100), *d.Proposal(prop).MaxVoteWeight)
	d.Vote(d.Alice, prop, dao.ApproveOption(1, 0))
	d.Vote(d.Bob, prop, dao.ApproveOption(1, 0))
	require.Equal(t, dao.ProposalStateVoting, d.Proposal(prop).State)

	d.Warp(3 * day)
	d.Finalize(prop)
	d.CheckInvariants()
	return d.Proposal(prop)
}

// TestThresholdMetWithQuorum checks 70 of 100 passes a 60% threshold at finalize once
// the 50% quorum is reached, even though 30 never voted.
func TestThresholdMetWithQuorum(t *testing.T) {
	p := finalizeWithQuorum(t, 50)
	assert.Equal(t, dao.ProposalStateSucceeded, p.State)
	assert.Equal(t, uint64(70), p.Options[0].VoteWeight)
	assert.Equal(t, uint64(70), p.Turnout)
	assert.Nil(t, p.DenyVoteWeight)
}

// TestQuorumMissedDefeats checks the same 70 votes lose under an 80% quorum.
func TestQuorumMissedDefeats(t *testing.T) {
	p := finalizeWithQuorum(t, 80)
	assert.Equal(t, dao.ProposalStateDefeated, p.State)
	assert.Equal(t, dao.OptionVoteDefeated, p.Options[0].VoteResult)
}

// TestCompleteIgnoresDefeatedOptions checks transactions on a losing option do not keep
// a passed proposal open, so it can complete and refund its deposit.
func TestCompleteIgnoresDefeatedOptions(t *testing.T) {
	cfg := noVetoConfig()
	cfg.VoteTipping = dao.VoteTippingDisabled
	d := SetupDAO(t, cfg)
	// the second proposal pays a deposit
	d.Propose(d.Carol, "placeholder", dao.SingleChoice(), "Approve")
	prop := d.Propose(d.Alice, "keep or spend", dao.MultiChoice(2, 2), "keep", "spend")
	spend := d.InsertTransfer(d.Alice, prop, 1, 0, 0, d.Carol.Wallet, lamportsSOL)
	d.SignOff(d.Alice, prop)
	d.Vote(d.Alice, prop, dao.ApproveOptions(2, 0))
	d.Vote(d.Bob, prop, dao.ApproveOptions(2, 0))
	d.Warp(3 * day)
	d.Finalize(prop)
	p := d.Proposal(prop)
	require.Equal(t, dao.ProposalStateSucceeded, p.State)
	require.Equal(t, dao.OptionVoteDefeated, p.Options[1].VoteResult)

	d.CallErr(contract.ErrOptionNotSucceeded, nil, d.executeIx(spend))
	d.Call(true, []sdk.Address{d.Alice.Wallet}, d.Client.CompleteProposal(prop, d.RecordOf(d.Alice, false), d.Alice.Wallet))
	assert.Equal(t, dao.ProposalStateCompleted, d.Proposal(prop).State)

	depositAddr := contract.ProposalDepositAddress(d.ProgramID, prop, d.Alice.Wallet)
	held := d.Lamports(depositAddr)
	assert.GreaterOrEqual(t, held, contract.DefaultDepositBase)
	before := d.Lamports(d.Alice.Wallet)
	d.Call(true, nil, d.Client.RefundProposalDeposit(prop, d.Alice.Wallet))
	assert.Equal(t, before+held, d.Lamports(d.Alice.Wallet))
	d.CheckInvariants()
}

// TestCompleteNeedsWinningTransactionsRun checks a winner with transactions still has
// to execute them.
func TestCompleteNeedsWinningTransactionsRun(t *testing.T) {
	d := SetupDAO(t, noVetoConfig())
	prop := d.Propose(d.Alice, "pay", dao.SingleChoice(), "Approve")
	d.InsertTransfer(d.Alice, prop, 0, 0, 0, d.Carol.Wallet, lamportsSOL)
	d.SignOff(d.Alice, prop)
	d.Vote(d.Alice, prop, dao.ApproveOption(1, 0))
	d.Vote(d.Bob, prop, dao.ApproveOption(1, 0))
	require.Equal(t, dao.ProposalStateSucceeded, d.Proposal(prop).State)
	d.CallErr(contract.ErrProposalHasTransactions, []sdk.Address{d.Alice.Wallet},
		d.Client.CompleteProposal(prop, d.RecordOf(d.Alice, false), d.Alice.Wallet))
}

// TestMaxWinningOptionsEnforced checks a multi choice vote capped at one winner keeps
// only the heaviest option, and a cap of zero is refused up front.
func TestMaxWinningOptionsEnforced(t *testing.T) {
	cfg := noVetoConfig()
	cfg.VoteTipping = dao.VoteTippingDisabled
	d := SetupDAO(t, cfg)

	ix, _ := d.Client.CreateProposal(d.Realm, d.Governance, d.RecordOf(d.Alice, false), d.CommunityMint,
		d.Alice.Wallet, d.Alice.Wallet, contract.ProposalArgs{Name: "nobody wins", VoteType: dao.MultiChoice(2, 0),
			Options: []string{"a", "b"}, Seed: newAddress(t)})
	d.CallErr(contract.ErrInvalidProposalOptions, []sdk.Address{d.Alice.Wallet}, ix)

	prop := d.Propose(d.Alice, "one winner", dao.MultiChoice(2, 1), "a", "b")
	d.SignOff(d.Alice, prop)
	d.Vote(d.Alice, prop, dao.ApproveOptions(2, 0, 1))
	d.Vote(d.Bob, prop, dao.ApproveOptions(2, 0))
	d.Vote(d.Carol, prop, dao.ApproveOptions(2, 1))
	d.Warp(3 * day)
	d.Finalize(prop)

	p := d.Proposal(prop)
	assert.Equal(t, []uint64{160, 140}, []uint64{p.Options[0].VoteWeight, p.Options[1].VoteWeight})
	assert.Equal(t, dao.ProposalStateSucceeded, p.State)
	assert.Equal(t, dao.OptionVoteSucceeded, p.Options[0].VoteResult)
	assert.Equal(t, dao.OptionVoteDefeated, p.Options[1].VoteResult)
	d.CheckInvariants()
}
