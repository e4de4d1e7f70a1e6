package contract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realms_dao/contract"
	"realms_dao/contract/dao"
	"realms_dao/sdk"
)

// passWith opens a proposal owned by alice carrying the given transactions on its only
// option and votes it through.
func passWith(d *DAO, name string, holdUp uint32, ixs ...sdk.Instruction) (sdk.Address, sdk.Address) {
	d.t.Helper()
	prop := d.Propose(d.Alice, name, dao.SingleChoice(), "Approve")
	d.Call(true, []sdk.Address{d.Alice.Wallet}, d.Client.InsertTransaction(d.Governance, prop, d.RecordOf(d.Alice, false),
		d.Alice.Wallet, d.Alice.Wallet, 0, 0, holdUp, ixs...))
	d.SignOff(d.Alice, prop)
	d.Vote(d.Alice, prop, dao.ApproveOption(1, 0))
	d.Vote(d.Bob, prop, dao.ApproveOption(1, 0))
	require.Equal(d.t, dao.ProposalStateSucceeded, d.Proposal(prop).State)
	return prop, contract.ProposalTransactionAddress(d.ProgramID, prop, 0, 0)
}

// =============================================================================
// Execution Tests
// =============================================================================

// TestFailedTransactionCanBeRetried checks a failing payout is recorded, not lost, and
// can run once the treasury is funded.
func TestFailedTransactionCanBeRetried(t *testing.T) {
	d := SetupDAO(t, noVetoConfig())
	payout := 100 * lamportsSOL
	prop, tx := passWith(d, "big payout", 0, sdk.NewTransferInstruction(d.Treasury, d.Carol.Wallet, payout))

	carolBefore := d.Lamports(d.Carol.Wallet)
	d.Execute(tx)
	assert.Equal(t, dao.TransactionStatusError, d.Transaction(tx).ExecutionStatus)
	assert.Equal(t, dao.ProposalStateExecutingWithErrors, d.Proposal(prop).State)
	assert.Equal(t, carolBefore, d.Lamports(d.Carol.Wallet))

	require.NoError(t, sdk.Airdrop(d.State, d.Treasury, payout))
	d.Execute(tx)
	assert.Equal(t, carolBefore+payout, d.Lamports(d.Carol.Wallet))
	stored := d.Transaction(tx)
	assert.Equal(t, dao.TransactionStatusSuccess, stored.ExecutionStatus)
	assert.NotNil(t, stored.ExecutedAt)
	p := d.Proposal(prop)
	assert.Equal(t, dao.ProposalStateExecutingWithErrors, p.State)
	assert.Equal(t, uint16(1), p.Options[0].TransactionsExecutedCount)

	d.CallErr(contract.ErrTransactionAlreadyExecuted, nil, d.executeIx(tx))
	assert.Equal(t, carolBefore+payout, d.Lamports(d.Carol.Wallet))
	d.CheckInvariants()
}

// TestFlagTransactionError checks the owner can give up on a transaction after its hold up.
func TestFlagTransactionError(t *testing.T) {
	d := SetupDAO(t, noVetoConfig())
	prop, tx := passWith(d, "stuck", 600, sdk.NewTransferInstruction(d.Treasury, d.Bob.Wallet, 1))
	record := d.RecordOf(d.Alice, false)
	flag := d.Client.FlagTransactionError(prop, record, d.Alice.Wallet, tx)

	d.CallErr(contract.ErrTransactionHoldUp, []sdk.Address{d.Alice.Wallet}, flag)
	d.Warp(600)
	d.CallErr(contract.ErrGoverningTokenOwnerOrDelegateMustSign, []sdk.Address{d.Bob.Wallet},
		d.Client.FlagTransactionError(prop, record, d.Bob.Wallet, tx))
	d.Call(true, []sdk.Address{d.Alice.Wallet}, flag)

	assert.Equal(t, dao.TransactionStatusError, d.Transaction(tx).ExecutionStatus)
	assert.Equal(t, dao.ProposalStateExecutingWithErrors, d.Proposal(prop).State)
	d.CheckInvariants()
}

// TestGovernanceConfigChangesOnlyThroughProposal checks the governance signs its own
// config change and nobody else can.
func TestGovernanceConfigChangesOnlyThroughProposal(t *testing.T) {
	d := SetupDAO(t, noVetoConfig())
	next := noVetoConfig()
	next.QuorumPercentage = 10
	next.VotingBaseTime = 5 * day
	next.MinTransactionHoldUpTime = 60

	d.Call(false, []sdk.Address{d.Alice.Wallet}, d.Client.SetGovernanceConfig(d.Governance, next))

	broken := next
	broken.VotingBaseTime = 0
	_, badTx := passWith(d, "broken config", 0, d.Client.SetGovernanceConfig(d.Governance, broken))
	d.Execute(badTx)
	assert.Equal(t, dao.TransactionStatusError, d.Transaction(badTx).ExecutionStatus)
	assert.Equal(t, 3*day, d.GovernanceRecord(d.Governance).Config.VotingBaseTime)

	prop, tx := passWith(d, "new config", 0, d.Client.SetGovernanceConfig(d.Governance, next))
	frozen := *d.Proposal(prop).Config
	d.Execute(tx)
	assert.Equal(t, next, d.GovernanceRecord(d.Governance).Config)
	assert.Equal(t, dao.ProposalStateCompleted, d.Proposal(prop).State)
	// the config a proposal voted under never changes afterwards
	assert.Equal(t, frozen, *d.Proposal(prop).Config)

	late := d.Propose(d.Alice, "too fast", dao.SingleChoice(), "Approve")
	d.CallErr(contract.ErrHoldUpTimeBelowMinimum, []sdk.Address{d.Alice.Wallet},
		d.Client.InsertTransaction(d.Governance, late, d.RecordOf(d.Alice, false), d.Alice.Wallet, d.Alice.Wallet,
			0, 0, 0, sdk.NewTransferInstruction(d.Treasury, d.Bob.Wallet, 1)))
	d.CheckInvariants()
}

// TestMintGovernance checks a mint handed to a governance can only mint through proposals.
func TestMintGovernance(t *testing.T) {
	d := SetupDAO(t, noVetoConfig())
	rewards := newAddress(t)
	require.NoError(t, sdk.CreateMint(d.State, rewards, d.MintAuthority, 0))
	bobRewards := newAddress(t)
	require.NoError(t, sdk.CreateTokenAccount(d.State, bobRewards, rewards, d.Bob.Wallet))

	mintGov := contract.GovernanceAddress(d.ProgramID, d.Realm, rewards)
	d.Call(true, []sdk.Address{d.Alice.Wallet, d.MintAuthority},
		d.Client.CreateMintGovernance(d.Realm, rewards, d.MintAuthority, d.RecordOf(d.Alice, false),
			d.Alice.Wallet, d.Alice.Wallet, noVetoConfig(), true))

	m, err := sdk.LoadMint(d.State, rewards)
	require.NoError(t, err)
	require.NotNil(t, m.MintAuthority)
	assert.Equal(t, mintGov, *m.MintAuthority)
	assert.Equal(t, dao.GovernanceKindMint, d.GovernanceRecord(mintGov).Kind)

	d.Call(false, []sdk.Address{d.MintAuthority}, sdk.NewMintToInstruction(rewards, bobRewards, d.MintAuthority, 5))

	d.Governance = mintGov
	_, tx := passWith(d, "mint rewards", 0, sdk.NewMintToInstruction(rewards, bobRewards, mintGov, 500))
	d.Execute(tx)
	assert.Equal(t, uint64(500), d.TokenBalance(bobRewards))
	assert.Equal(t, dao.TransactionStatusSuccess, d.Transaction(tx).ExecutionStatus)
	d.CheckInvariants()
}

// TestExecuteOrder checks each transaction of an option waits for its own hold up, and
// the proposal completes once all of them ran.
func TestExecuteOrder(t *testing.T) {
	d := SetupDAO(t, noVetoConfig())
	prop := d.Propose(d.Alice, "two payouts", dao.SingleChoice(), "Approve")
	first := d.InsertTransfer(d.Alice, prop, 0, 0, 0, d.Carol.Wallet, lamportsSOL)
	second := d.InsertTransfer(d.Alice, prop, 0, 1, 3600, d.Carol.Wallet, lamportsSOL)
	d.CallErr(contract.ErrInvalidTransactionIndex, []sdk.Address{d.Alice.Wallet},
		d.Client.InsertTransaction(d.Governance, prop, d.RecordOf(d.Alice, false), d.Alice.Wallet, d.Alice.Wallet,
			0, 3, 0, sdk.NewTransferInstruction(d.Treasury, d.Carol.Wallet, 1)))
	d.CallErr(contract.ErrEmptyProposalTransaction, []sdk.Address{d.Alice.Wallet},
		d.Client.InsertTransaction(d.Governance, prop, d.RecordOf(d.Alice, false), d.Alice.Wallet, d.Alice.Wallet, 0, 2, 0))
	d.SignOff(d.Alice, prop)
	d.Vote(d.Alice, prop, dao.ApproveOption(1, 0))
	d.Vote(d.Bob, prop, dao.ApproveOption(1, 0))

	d.CallErr(contract.ErrTransactionHoldUp, nil, d.executeIx(second))
	d.Execute(first)
	assert.Equal(t, dao.ProposalStateExecuting, d.Proposal(prop).State)
	d.Warp(3600)
	d.Execute(second)
	assert.Equal(t, dao.ProposalStateCompleted, d.Proposal(prop).State)
	d.CheckInvariants()
}

// TestTransactionCannotExecuteItself checks a stored transaction that calls
// ExecuteTransaction on itself pays out nothing and is recorded as failed.
func TestTransactionCannotExecuteItself(t *testing.T) {
	d := SetupDAO(t, noVetoConfig())
	prop := d.Propose(d.Alice, "reentrant", dao.SingleChoice(), "Approve")
	tx := contract.ProposalTransactionAddress(d.ProgramID, prop, 0, 0)
	payout := sdk.NewTransferInstruction(d.Treasury, d.Carol.Wallet, lamportsSOL)
	again := d.Client.ExecuteTransaction(d.Governance, prop, tx, []dao.InstructionData{contract.InstructionDataOf(payout)})
	d.Call(true, []sdk.Address{d.Alice.Wallet}, d.Client.InsertTransaction(d.Governance, prop, d.RecordOf(d.Alice, false),
		d.Alice.Wallet, d.Alice.Wallet, 0, 0, 0, payout, again))
	d.SignOff(d.Alice, prop)
	d.Vote(d.Alice, prop, dao.ApproveOption(1, 0))
	d.Vote(d.Bob, prop, dao.ApproveOption(1, 0))
	require.Equal(t, dao.ProposalStateSucceeded, d.Proposal(prop).State)

	carolBefore := d.Lamports(d.Carol.Wallet)
	d.Execute(tx)
	assert.Equal(t, carolBefore, d.Lamports(d.Carol.Wallet))
	stored := d.Transaction(tx)
	assert.Equal(t, dao.TransactionStatusError, stored.ExecutionStatus)
	assert.Nil(t, stored.ExecutedAt)
	p := d.Proposal(prop)
	assert.Equal(t, dao.ProposalStateExecutingWithErrors, p.State)
	assert.Equal(t, uint16(0), p.Options[0].TransactionsExecutedCount)

	// a retry hits the same wall
	d.Execute(tx)
	assert.Equal(t, carolBefore, d.Lamports(d.Carol.Wallet))
	assert.Equal(t, dao.TransactionStatusError, d.Transaction(tx).ExecutionStatus)
	d.CheckInvariants()
}

// TestHoldUpPerOption checks each option's transaction waits for its own hold up: one
// with none runs right away, one a day out is refused until the day has passed.
func TestHoldUpPerOption(t *testing.T) {
	d := SetupDAO(t, noVetoConfig())
	prop := d.Propose(d.Alice, "two options", dao.MultiChoice(2, 2), "now", "later")
	now := d.InsertTransfer(d.Alice, prop, 0, 0, 0, d.Carol.Wallet, lamportsSOL)
	later := d.InsertTransfer(d.Alice, prop, 1, 0, day, d.Carol.Wallet, lamportsSOL)
	d.SignOff(d.Alice, prop)
	d.Vote(d.Alice, prop, dao.ApproveOptions(2, 0, 1))
	d.Vote(d.Bob, prop, dao.ApproveOptions(2, 0, 1))
	p := d.Proposal(prop)
	require.Equal(t, dao.ProposalStateSucceeded, p.State)
	require.Equal(t, dao.OptionVoteSucceeded, p.Options[1].VoteResult)

	d.Execute(now)
	assert.Equal(t, dao.TransactionStatusSuccess, d.Transaction(now).ExecutionStatus)
	assert.Equal(t, dao.ProposalStateExecuting, d.Proposal(prop).State)

	d.CallErr(contract.ErrTransactionHoldUp, nil, d.executeIx(later))
	d.Warp(day - 1)
	d.CallErr(contract.ErrTransactionHoldUp, nil, d.executeIx(later))
	d.Warp(1)
	d.Execute(later)
	assert.Equal(t, dao.TransactionStatusSuccess, d.Transaction(later).ExecutionStatus)
	assert.Equal(t, dao.ProposalStateCompleted, d.Proposal(prop).State)
	d.CheckInvariants()
}
