package contract

import (
	"fmt"

	"realms_dao/contract/dao"
)

// MaxOutstandingProposals caps the proposals one token owner may have open at once.
const MaxOutstandingProposals = 10

// VotingPowerLedger is the one place the deposit and the counters of a token owner
// record change. Each method mutates the record in memory; the caller persists it.
type VotingPowerLedger struct{}

// CurrentWeight is the deposit based weight of the record.
func (VotingPowerLedger) CurrentWeight(tor *dao.TokenOwnerRecord) uint64 {
	return tor.DepositAmount
}

func (VotingPowerLedger) Deposit(tor *dao.TokenOwnerRecord, amount uint64) error {
	if tor.DepositAmount+amount < tor.DepositAmount {
		return fmt.Errorf("%w: deposit of %s", ErrCounterOverflow, tor.Owner)
	}
	tor.DepositAmount += amount
	return nil
}

// Withdraw empties the deposit and returns what was in it.
func (l VotingPowerLedger) Withdraw(tor *dao.TokenOwnerRecord) (uint64, error) {
	if err := l.CanWithdraw(tor); err != nil {
		return 0, err
	}
	amount := tor.DepositAmount
	tor.DepositAmount = 0
	return amount, nil
}

func (VotingPowerLedger) Revoke(tor *dao.TokenOwnerRecord, amount uint64) error {
	if amount > tor.DepositAmount {
		return fmt.Errorf("%w: revoke %d of %d", ErrInvalidAmount, amount, tor.DepositAmount)
	}
	tor.DepositAmount -= amount
	return nil
}

// CanWithdraw holds while no vote or proposal is still counted against the record.
func (VotingPowerLedger) CanWithdraw(tor *dao.TokenOwnerRecord) error {
	if tor.UnrelinquishedVotesCount > 0 {
		return fmt.Errorf("%w: %d votes", ErrCannotWithdrawWithOutstandingVotes, tor.UnrelinquishedVotesCount)
	}
	if tor.OutstandingProposalCount > 0 {
		return fmt.Errorf("%w: %d proposals", ErrCannotWithdrawWithOutstandingProposal, tor.OutstandingProposalCount)
	}
	return nil
}

func (VotingPowerLedger) Delegate(tor *dao.TokenOwnerRecord, delegate *Address) {
	if delegate == nil {
		tor.GovernanceDelegate = nil
		return
	}
	d := *delegate
	tor.GovernanceDelegate = &d
}

func (VotingPowerLedger) RecordVote(tor *dao.TokenOwnerRecord) error {
	if tor.UnrelinquishedVotesCount == ^uint64(0) {
		return fmt.Errorf("%w: votes of %s", ErrCounterOverflow, tor.Owner)
	}
	tor.UnrelinquishedVotesCount++
	return nil
}

func (VotingPowerLedger) ReleaseVote(tor *dao.TokenOwnerRecord) error {
	if tor.UnrelinquishedVotesCount == 0 {
		return fmt.Errorf("%w: votes of %s", ErrCounterUnderflow, tor.Owner)
	}
	tor.UnrelinquishedVotesCount--
	return nil
}

// RecordProposal counts a new proposal against its owner and its governance.
func (VotingPowerLedger) RecordProposal(tor *dao.TokenOwnerRecord, gov *dao.Governance) error {
	if tor.OutstandingProposalCount >= MaxOutstandingProposals {
		return fmt.Errorf("%w: %s has %d", ErrTooManyOutstandingProposals, tor.Owner, tor.OutstandingProposalCount)
	}
	if gov.ProposalsCount == ^uint32(0) {
		return fmt.Errorf("%w: proposals of governance", ErrCounterOverflow)
	}
	tor.OutstandingProposalCount++
	gov.ActiveProposalCount++
	gov.ProposalsCount++
	return nil
}

// ReleaseProposal is the inverse of RecordProposal once a proposal stops being active.
func (VotingPowerLedger) ReleaseProposal(tor *dao.TokenOwnerRecord, gov *dao.Governance) error {
	if tor.OutstandingProposalCount == 0 {
		return fmt.Errorf("%w: outstanding proposals of %s", ErrCounterUnderflow, tor.Owner)
	}
	if gov.ActiveProposalCount == 0 {
		return fmt.Errorf("%w: active proposals of governance", ErrCounterUnderflow)
	}
	tor.OutstandingProposalCount--
	gov.ActiveProposalCount--
	return nil
}
