package contract

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"realms_dao/contract/dao"
	"realms_dao/sdk"
)

// maxInstructionsPerTransaction bounds what one stored transaction may invoke.
const maxInstructionsPerTransaction = 16

func optionAt(prop *dao.Proposal, index uint8) (*dao.ProposalOption, error) {
	if int(index) >= len(prop.Options) {
		return nil, fmt.Errorf("%w: %d of %d", ErrInvalidOptionIndex, index, len(prop.Options))
	}
	return &prop.Options[index], nil
}

// toInstructions turns stored instructions into runtime calls.
func toInstructions(data []dao.InstructionData) []sdk.Instruction {
	out := make([]sdk.Instruction, 0, len(data))
	for _, d := range data {
		metas := make([]*solana.AccountMeta, 0, len(d.Accounts))
		for _, a := range d.Accounts {
			metas = append(metas, solana.NewAccountMeta(a.Pubkey, a.IsWritable, a.IsSigner))
		}
		out = append(out, sdk.Instruction{ProgramID: d.ProgramID, Accounts: metas, Data: d.Data})
	}
	return out
}

// allExecuted holds once every transaction of every succeeded option ran.
func allExecuted(prop *dao.Proposal) bool {
	for _, o := range prop.Options {
		if o.VoteResult == dao.OptionVoteSucceeded && o.TransactionsExecutedCount < o.TransactionsCount {
			return false
		}
	}
	return true
}

// insertTransaction attaches instructions to an option of a draft.
// Accounts: [governance, proposal, tokenOwnerRecord, authority(s), proposalTransaction, payer(s)]
func (p *Processor) insertTransaction(ctx *sdk.Context, accs accountList, ix dao.InsertTransaction) error {
	if err := accs.need(6, "InsertTransaction"); err != nil {
		return err
	}
	govAddr, propAddr, torAddr := accs.at(0), accs.at(1), accs.at(2)
	authority, txAddr, payer := accs.at(3), accs.at(4), accs.at(5)

	gov, err := load(ctx, govAddr, dao.DecodeGovernance)
	if err != nil {
		return err
	}
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
	opt, err := optionAt(prop, ix.OptionIndex)
	if err != nil {
		return err
	}
	if len(ix.Instructions) == 0 {
		return ErrEmptyProposalTransaction
	}
	if len(ix.Instructions) > maxInstructionsPerTransaction {
		return fmt.Errorf("%w: %d instructions", ErrInvalidInstructionData, len(ix.Instructions))
	}
	if ix.HoldUpTime < gov.Config.MinTransactionHoldUpTime {
		return fmt.Errorf("%w: %ds below %ds", ErrHoldUpTimeBelowMinimum, ix.HoldUpTime, gov.Config.MinTransactionHoldUpTime)
	}
	if ix.Index > opt.TransactionsNextIndex {
		return fmt.Errorf("%w: %d, next is %d", ErrInvalidTransactionIndex, ix.Index, opt.TransactionsNextIndex)
	}
	pa, err := expect(txAddr, "proposal transaction", ctx.ProgramID,
		proposalTransactionSeeds(propAddr, ix.OptionIndex, ix.Index)...)
	if err != nil {
		return err
	}
	if ok, err := exists(ctx, txAddr); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("%w: slot %d is taken", ErrInvalidTransactionIndex, ix.Index)
	}

	tx := &dao.ProposalTransaction{
		Proposal:         propAddr,
		OptionIndex:      ix.OptionIndex,
		TransactionIndex: ix.Index,
		HoldUpTime:       ix.HoldUpTime,
		Instructions:     ix.Instructions,
	}
	if err := createRecord(ctx, payer, pa, dao.EncodeProposalTransaction(tx), 0); err != nil {
		return err
	}
	opt.TransactionsCount++
	if ix.Index == opt.TransactionsNextIndex {
		opt.TransactionsNextIndex++
	}
	if err := saveProposal(ctx, propAddr, prop); err != nil {
		return err
	}
	emitTransactionHoldUpEvent(ctx, txAddr, ix.HoldUpTime)
	return nil
}

// removeTransaction detaches a transaction from a draft and refunds its rent.
// Accounts: [proposal, tokenOwnerRecord, authority(s), proposalTransaction, beneficiary]
func (p *Processor) removeTransaction(ctx *sdk.Context, accs accountList) error {
	if err := accs.need(5, "RemoveTransaction"); err != nil {
		return err
	}
	propAddr, torAddr, authority := accs.at(0), accs.at(1), accs.at(2)
	txAddr, beneficiary := accs.at(3), accs.at(4)

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
	tx, err := load(ctx, txAddr, dao.DecodeProposalTransaction)
	if err != nil {
		return err
	}
	if !tx.Proposal.Equals(propAddr) {
		return fmt.Errorf("%w: transaction of another proposal", ErrInvalidAccountAddress)
	}
	opt, err := optionAt(prop, tx.OptionIndex)
	if err != nil {
		return err
	}
	if err := closeRecord(ctx, txAddr, beneficiary); err != nil {
		return err
	}
	opt.TransactionsCount--
	return saveProposal(ctx, propAddr, prop)
}

// checkExecutable holds the rules shared by execution and error flagging.
func checkExecutable(prop *dao.Proposal, tx *dao.ProposalTransaction, now int64) error {
	opt, err := optionAt(prop, tx.OptionIndex)
	if err != nil {
		return err
	}
	if opt.VoteResult != dao.OptionVoteSucceeded {
		return fmt.Errorf("%w: option %d", ErrOptionNotSucceeded, tx.OptionIndex)
	}
	if tx.ExecutionStatus == dao.TransactionStatusSuccess {
		return ErrTransactionAlreadyExecuted
	}
	if prop.VotingCompletedAt == nil || now < *prop.VotingCompletedAt+int64(tx.HoldUpTime) {
		return fmt.Errorf("%w: %ds hold up", ErrTransactionHoldUp, tx.HoldUpTime)
	}
	return nil
}

// executeTransaction runs a stored transaction signed by the governance. A failing
// transaction is recorded as an error and the proposal moves to ExecutingWithErrors;
// the instruction itself still succeeds so the record sticks. Errored transactions
// may be executed again. A transaction runs at most once successfully, also when its own
// instructions try to execute it.
// Accounts: [governance, proposal, proposalTransaction, ...accounts of the stored instructions]
func (p *Processor) executeTransaction(ctx *sdk.Context, accs accountList) error {
	if err := accs.need(3, "ExecuteTransaction"); err != nil {
		return err
	}
	govAddr, propAddr, txAddr := accs.at(0), accs.at(1), accs.at(2)

	gov, err := load(ctx, govAddr, dao.DecodeGovernance)
	if err != nil {
		return err
	}
	prop, err := loadProposalOf(ctx, propAddr, govAddr)
	if err != nil {
		return err
	}
	tx, err := load(ctx, txAddr, dao.DecodeProposalTransaction)
	if err != nil {
		return err
	}
	if !tx.Proposal.Equals(propAddr) {
		return fmt.Errorf("%w: transaction of another proposal", ErrInvalidAccountAddress)
	}
	signer, err := signerFor(ctx, govAddr, gov, prop)
	if err != nil {
		return err
	}
	now := ctx.Clock().UnixTimestamp
	if err := checkExecutable(prop, tx, now); err != nil {
		return err
	}

	// claim the transaction before running it, so a stored instruction that executes
	// it again finds it already taken
	tx.ExecutionStatus = dao.TransactionStatusSuccess
	if err := saveProposalTransaction(ctx, txAddr, tx); err != nil {
		return err
	}
	runErr := signer.Invoke(ctx, toInstructions(tx.Instructions))

	// the stored instructions may have touched this program's accounts
	if prop, err = load(ctx, propAddr, dao.DecodeProposal); err != nil {
		return err
	}
	if tx, err = load(ctx, txAddr, dao.DecodeProposalTransaction); err != nil {
		return err
	}

	if runErr != nil {
		ctx.Log("transaction failed: " + runErr.Error())
		tx.ExecutionStatus = dao.TransactionStatusError
		tx.ExecutedAt = nil
		if err := transitionTo(prop, dao.ProposalStateExecutingWithErrors); err != nil {
			return err
		}
		if err := saveProposalTransaction(ctx, txAddr, tx); err != nil {
			return err
		}
		if err := saveProposal(ctx, propAddr, prop); err != nil {
			return err
		}
		emitTransactionEvent(ctx, txAddr, tx.ExecutionStatus)
		emitProposalStateChangedEvent(ctx, propAddr, prop.State)
		return nil
	}

	tx.ExecutionStatus = dao.TransactionStatusSuccess
	tx.ExecutedAt = &now
	prop.Options[tx.OptionIndex].TransactionsExecutedCount++
	if prop.State == dao.ProposalStateSucceeded {
		prop.ExecutingAt = &now
		if err := transitionTo(prop, dao.ProposalStateExecuting); err != nil {
			return err
		}
	}
	if prop.State == dao.ProposalStateExecuting && allExecuted(prop) {
		if err := transitionTo(prop, dao.ProposalStateCompleted); err != nil {
			return err
		}
		prop.ClosedAt = &now
	}
	if err := saveProposalTransaction(ctx, txAddr, tx); err != nil {
		return err
	}
	if err := saveProposal(ctx, propAddr, prop); err != nil {
		return err
	}
	emitTransactionEvent(ctx, txAddr, tx.ExecutionStatus)
	emitProposalStateChangedEvent(ctx, propAddr, prop.State)
	return nil
}

// flagTransactionError lets the proposal owner mark a transaction that cannot run.
// Accounts: [proposal, tokenOwnerRecord, authority(s), proposalTransaction]
func (p *Processor) flagTransactionError(ctx *sdk.Context, accs accountList) error {
	if err := accs.need(4, "FlagTransactionError"); err != nil {
		return err
	}
	propAddr, torAddr, authority, txAddr := accs.at(0), accs.at(1), accs.at(2), accs.at(3)

	prop, err := load(ctx, propAddr, dao.DecodeProposal)
	if err != nil {
		return err
	}
	if err := requireState(prop, dao.ProposalStateSucceeded, dao.ProposalStateExecuting,
		dao.ProposalStateExecutingWithErrors); err != nil {
		return err
	}
	if _, err := requireProposalOwner(ctx, prop, torAddr, authority); err != nil {
		return err
	}
	tx, err := load(ctx, txAddr, dao.DecodeProposalTransaction)
	if err != nil {
		return err
	}
	if !tx.Proposal.Equals(propAddr) {
		return fmt.Errorf("%w: transaction of another proposal", ErrInvalidAccountAddress)
	}
	if err := checkExecutable(prop, tx, ctx.Clock().UnixTimestamp); err != nil {
		return err
	}
	tx.ExecutionStatus = dao.TransactionStatusError
	if err := transitionTo(prop, dao.ProposalStateExecutingWithErrors); err != nil {
		return err
	}
	if err := saveProposalTransaction(ctx, txAddr, tx); err != nil {
		return err
	}
	if err := saveProposal(ctx, propAddr, prop); err != nil {
		return err
	}
	emitTransactionEvent(ctx, txAddr, tx.ExecutionStatus)
	return nil
}
