package contract

import (
	"fmt"
	"strconv"

	"realms_dao/contract/dao"
	"realms_dao/sdk"
)

// emitRealmCreatedEvent gives explorers a neat ping without scanning full account diffs.
func emitRealmCreatedEvent(ctx *sdk.Context, realm Address, name string) {
	ctx.Log(fmt.Sprintf(
		"rc|id:%s|n:%s",
		realm,
		name,
	))
}

// emitRealmAuthorityEvent logs the realm authority hand over, "-" when removed.
func emitRealmAuthorityEvent(ctx *sdk.Context, realm Address, authority *Address) {
	next := "-"
	if authority != nil {
		next = authority.String()
	}
	ctx.Log(fmt.Sprintf(
		"ra|id:%s|to:%s",
		realm,
		next,
	))
}

func emitRealmConfigEvent(ctx *sdk.Context, realm Address) {
	ctx.Log(fmt.Sprintf("rf|id:%s", realm))
}

// emitDepositEvent tracks governing tokens entering the realm holding.
func emitDepositEvent(ctx *sdk.Context, record Address, amount, total uint64) {
	ctx.Log(fmt.Sprintf(
		"td|id:%s|a:%d|t:%d",
		record,
		amount,
		total,
	))
}

// emitWithdrawEvent mirrors the deposit ping when tokens leave the holding.
func emitWithdrawEvent(ctx *sdk.Context, record Address, amount uint64) {
	ctx.Log(fmt.Sprintf(
		"tw|id:%s|a:%d",
		record,
		amount,
	))
}

func emitRevokeEvent(ctx *sdk.Context, record Address, amount uint64) {
	ctx.Log(fmt.Sprintf(
		"tr|id:%s|a:%d",
		record,
		amount,
	))
}

func emitDelegateEvent(ctx *sdk.Context, record Address, delegate *Address) {
	d := "-"
	if delegate != nil {
		d = delegate.String()
	}
	ctx.Log(fmt.Sprintf("tg|id:%s|d:%s", record, d))
}

// emitGovernanceCreatedEvent names the governed account so watchers can map authorities.
func emitGovernanceCreatedEvent(ctx *sdk.Context, governance, governed Address, kind dao.GovernanceKind) {
	ctx.Log(fmt.Sprintf(
		"gc|id:%s|g:%s|k:%s",
		governance,
		governed,
		kind.String(),
	))
}

// emitGovernanceConfigEvent fires when a passed proposal rewrote the governance rules.
func emitGovernanceConfigEvent(ctx *sdk.Context, governance Address, cfg *dao.GovernanceConfig) {
	ctx.Log(fmt.Sprintf(
		"gu|id:%s|q:%d|t:%s|base:%d",
		governance,
		cfg.QuorumPercentage,
		cfg.VoteTipping.String(),
		cfg.VotingBaseTime,
	))
}

func emitTreasuryCreatedEvent(ctx *sdk.Context, governance, treasury Address) {
	ctx.Log(fmt.Sprintf("nt|id:%s|g:%s", treasury, governance))
}

// emitProposalCreatedEvent keeps observers updated with a short pc line for every new idea.
func emitProposalCreatedEvent(ctx *sdk.Context, proposal, owner Address, deposit uint64) {
	ctx.Log(fmt.Sprintf(
		"pc|id:%s|by:%s|dep:%d",
		proposal,
		owner,
		deposit,
	))
}

// emitProposalStateChangedEvent is the swiss army knife log entry for any state flip.
func emitProposalStateChangedEvent(ctx *sdk.Context, proposal Address, state dao.ProposalState) {
	ctx.Log(fmt.Sprintf(
		"ps|id:%s|s:%s",
		proposal,
		state.String(),
	))
}

func emitSignatoryEvent(ctx *sdk.Context, proposal, signatory Address, action string) {
	ctx.Log(fmt.Sprintf(
		"sg|id:%s|by:%s|a:%s",
		proposal,
		signatory,
		action,
	))
}

// emitVoteEvent writes who voted what and with how much weight.
func emitVoteEvent(ctx *sdk.Context, proposal, owner Address, kind dao.VoteKind, weight uint64) {
	ctx.Log(fmt.Sprintf(
		"v|id:%s|by:%s|k:%s|w:%d",
		proposal,
		owner,
		kind.String(),
		weight,
	))
}

func emitRelinquishEvent(ctx *sdk.Context, proposal, owner Address, withdrawn bool) {
	ctx.Log(fmt.Sprintf(
		"vr|id:%s|by:%s|w:%t",
		proposal,
		owner,
		withdrawn,
	))
}

// emitTransactionEvent leaves a hint whether an attached transaction ran or failed.
func emitTransactionEvent(ctx *sdk.Context, tx Address, status dao.TransactionExecutionStatus) {
	ctx.Log(fmt.Sprintf(
		"px|id:%s|r:%s",
		tx,
		status.String(),
	))
}

// emitTransactionHoldUpEvent tells runners when an inserted transaction becomes executable after voting.
func emitTransactionHoldUpEvent(ctx *sdk.Context, tx Address, holdUp uint32) {
	ctx.Log(fmt.Sprintf(
		"pt|id:%s|hold:%s",
		tx,
		strconv.FormatUint(uint64(holdUp), 10),
	))
}

func emitDepositRefundedEvent(ctx *sdk.Context, proposal, payer Address, lamports uint64) {
	ctx.Log(fmt.Sprintf(
		"dr|id:%s|to:%s|l:%d",
		proposal,
		payer,
		lamports,
	))
}
