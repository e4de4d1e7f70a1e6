package dao

import (
	"strconv"

	"realms_dao/sdk"
)

type Address = sdk.Address

// AccountType is the leading tag byte of every record the program owns.
// Numbers follow the on-chain layout history, so retired versions keep their slot.
type AccountType uint8

const (
	AccountTypeUninitialized         AccountType = 0
	AccountTypeRealmConfig           AccountType = 11
	AccountTypeVoteRecordV2          AccountType = 12
	AccountTypeProposalTransactionV2 AccountType = 13
	AccountTypeProposalV2            AccountType = 14
	AccountTypeProgramMetadata       AccountType = 15
	AccountTypeRealmV2               AccountType = 16
	AccountTypeTokenOwnerRecordV2    AccountType = 17
	AccountTypeGovernanceV2          AccountType = 18
	AccountTypeSignatoryRecordV2     AccountType = 22
	AccountTypeProposalDeposit       AccountType = 23
)

// String gives short names for logs and the cli.
func (t AccountType) String() string {
	switch t {
	case AccountTypeRealmConfig:
		return "realm-config"
	case AccountTypeVoteRecordV2:
		return "vote-record"
	case AccountTypeProposalTransactionV2:
		return "proposal-transaction"
	case AccountTypeProposalV2:
		return "proposal"
	case AccountTypeProgramMetadata:
		return "program-metadata"
	case AccountTypeRealmV2:
		return "realm"
	case AccountTypeTokenOwnerRecordV2:
		return "token-owner-record"
	case AccountTypeGovernanceV2:
		return "governance"
	case AccountTypeSignatoryRecordV2:
		return "signatory-record"
	case AccountTypeProposalDeposit:
		return "proposal-deposit"
	default:
		return "uninitialized"
	}
}

// ProposalState captures a proposal's lifecycle.
type ProposalState uint8

const (
	ProposalStateDraft               ProposalState = 0
	ProposalStateSigningOff          ProposalState = 1
	ProposalStateVoting              ProposalState = 2
	ProposalStateSucceeded           ProposalState = 3
	ProposalStateExecuting           ProposalState = 4
	ProposalStateCompleted           ProposalState = 5
	ProposalStateCancelled           ProposalState = 6
	ProposalStateDefeated            ProposalState = 7
	ProposalStateExecutingWithErrors ProposalState = 8
	ProposalStateVetoed              ProposalState = 9
)

// String prints the proposal state as lower-case text for events and logs.
// Example payload: dao.ProposalStateSucceeded.String()
func (ps ProposalState) String() string {
	switch ps {
	case ProposalStateDraft:
		return "draft"
	case ProposalStateSigningOff:
		return "signing-off"
	case ProposalStateVoting:
		return "voting"
	case ProposalStateSucceeded:
		return "succeeded"
	case ProposalStateExecuting:
		return "executing"
	case ProposalStateCompleted:
		return "completed"
	case ProposalStateCancelled:
		return "cancelled"
	case ProposalStateDefeated:
		return "defeated"
	case ProposalStateExecutingWithErrors:
		return "executing-with-errors"
	case ProposalStateVetoed:
		return "vetoed"
	default:
		return "unspecified"
	}
}

// Rank orders states along the lifecycle. A proposal never moves to a lower rank.
// Draft < SigningOff < Voting < {Succeeded|Defeated|Cancelled|Vetoed} < Executing < {Completed|ExecutingWithErrors}
func (ps ProposalState) Rank() int {
	switch ps {
	case ProposalStateDraft:
		return 0
	case ProposalStateSigningOff:
		return 1
	case ProposalStateVoting:
		return 2
	case ProposalStateSucceeded, ProposalStateDefeated, ProposalStateCancelled, ProposalStateVetoed:
		return 3
	case ProposalStateExecuting:
		return 4
	case ProposalStateCompleted, ProposalStateExecutingWithErrors:
		return 5
	default:
		return -1
	}
}

// IsTerminal is true for states nothing can move out of.
func (ps ProposalState) IsTerminal() bool {
	switch ps {
	case ProposalStateCompleted, ProposalStateCancelled, ProposalStateDefeated,
		ProposalStateVetoed, ProposalStateExecutingWithErrors:
		return true
	}
	return false
}

func (ps ProposalState) valid() bool { return ps <= ProposalStateVetoed }

// VoteThresholdKind selects how a threshold is expressed.
type VoteThresholdKind uint8

const (
	VoteThresholdYesVotePercentage VoteThresholdKind = 0
	VoteThresholdDisabled          VoteThresholdKind = 2
)

// VoteThreshold is a percentage of the max voting weight, or disabled.
type VoteThreshold struct {
	Kind       VoteThresholdKind
	Percentage uint8
}

func YesVotePercentage(pct uint8) VoteThreshold {
	return VoteThreshold{Kind: VoteThresholdYesVotePercentage, Percentage: pct}
}

func DisabledThreshold() VoteThreshold {
	return VoteThreshold{Kind: VoteThresholdDisabled}
}

func (t VoteThreshold) Enabled() bool { return t.Kind == VoteThresholdYesVotePercentage }

func (t VoteThreshold) String() string {
	if !t.Enabled() {
		return "disabled"
	}
	return "yes:" + strconv.Itoa(int(t.Percentage)) + "%"
}

// VoteTipping decides whether a vote can close before its window ends.
type VoteTipping uint8

const (
	VoteTippingDisabled       VoteTipping = 0
	VoteTippingStrict         VoteTipping = 1
	VoteTippingEarlyOnCouncil VoteTipping = 2
	VoteTippingEarlyOnEither  VoteTipping = 3
)

func (v VoteTipping) String() string {
	switch v {
	case VoteTippingStrict:
		return "strict"
	case VoteTippingEarlyOnCouncil:
		return "early-on-council"
	case VoteTippingEarlyOnEither:
		return "early-on-either"
	default:
		return "disabled"
	}
}

// ParseVoteTipping is the inverse of String, used by config files and flags.
func ParseVoteTipping(s string) (VoteTipping, bool) {
	for _, v := range []VoteTipping{VoteTippingDisabled, VoteTippingStrict, VoteTippingEarlyOnCouncil, VoteTippingEarlyOnEither} {
		if v.String() == s {
			return v, true
		}
	}
	return VoteTippingDisabled, false
}

// GoverningTokenType limits what holders of a governing mint may do with their deposit.
type GoverningTokenType uint8

const (
	GoverningTokenLiquid     GoverningTokenType = 0
	GoverningTokenMembership GoverningTokenType = 1
	GoverningTokenDormant    GoverningTokenType = 2
)

func (t GoverningTokenType) String() string {
	switch t {
	case GoverningTokenMembership:
		return "membership"
	case GoverningTokenDormant:
		return "dormant"
	default:
		return "liquid"
	}
}

// MaxVoterWeightSourceKind picks how the community max voter weight is derived.
type MaxVoterWeightSourceKind uint8

const (
	MaxVoterWeightSupplyFraction MaxVoterWeightSourceKind = 0
	MaxVoterWeightAbsolute       MaxVoterWeightSourceKind = 1
)

// SupplyFractionBase is 100% when the source is a fraction of mint supply.
const SupplyFractionBase uint64 = 10_000_000_000

type MintMaxVoterWeightSource struct {
	Kind  MaxVoterWeightSourceKind
	Value uint64
}

// FullSupplyFraction uses the whole community supply as max voter weight.
func FullSupplyFraction() MintMaxVoterWeightSource {
	return MintMaxVoterWeightSource{Kind: MaxVoterWeightSupplyFraction, Value: SupplyFractionBase}
}

// GovernanceKind is the type of resource a governance holds authority over.
type GovernanceKind uint8

const (
	GovernanceKindGeneric GovernanceKind = 0
	GovernanceKindProgram GovernanceKind = 1
	GovernanceKindMint    GovernanceKind = 2
	GovernanceKindToken   GovernanceKind = 3
)

func (k GovernanceKind) String() string {
	switch k {
	case GovernanceKindProgram:
		return "program"
	case GovernanceKindMint:
		return "mint"
	case GovernanceKindToken:
		return "token"
	default:
		return "generic"
	}
}

// VoteKind is the closed set of ballots a voter can cast.
type VoteKind uint8

const (
	VoteApprove VoteKind = 0
	VoteDeny    VoteKind = 1
	VoteAbstain VoteKind = 2
	VoteVeto    VoteKind = 3
)

func (k VoteKind) String() string {
	switch k {
	case VoteApprove:
		return "approve"
	case VoteDeny:
		return "deny"
	case VoteAbstain:
		return "abstain"
	case VoteVeto:
		return "veto"
	default:
		return "unknown"
	}
}

// VoteChoice is the share of a voter's weight given to one option.
type VoteChoice struct {
	Rank             uint8
	WeightPercentage uint8
}

// Vote is Approve(choices) | Deny | Abstain | Veto. Choices is only set for Approve.
type Vote struct {
	Kind    VoteKind
	Choices []VoteChoice
}

// ApproveOption is a single choice ballot giving all weight to option index.
func ApproveOption(optionCount, index int) Vote {
	return ApproveOptions(optionCount, index)
}

// ApproveOptions gives full weight to every listed option, one choice per proposal option.
func ApproveOptions(optionCount int, indexes ...int) Vote {
	choices := make([]VoteChoice, optionCount)
	for _, i := range indexes {
		if i >= 0 && i < optionCount {
			choices[i].WeightPercentage = 100
		}
	}
	return Vote{Kind: VoteApprove, Choices: choices}
}

// VoteTypeKind distinguishes single from multi choice proposals.
type VoteTypeKind uint8

const (
	VoteTypeSingleChoice VoteTypeKind = 0
	VoteTypeMultiChoice  VoteTypeKind = 1
)

// MultiChoiceType tells how a multi choice ballot spreads the voter weight.
type MultiChoiceType uint8

const (
	MultiChoiceFullWeight MultiChoiceType = 0
	MultiChoiceWeighted   MultiChoiceType = 1
)

type VoteType struct {
	Kind              VoteTypeKind
	ChoiceType        MultiChoiceType
	MaxVoterOptions   uint8
	MaxWinningOptions uint8
}

func SingleChoice() VoteType { return VoteType{Kind: VoteTypeSingleChoice} }

// MultiChoice lets voters pick up to maxVoterOptions options with full weight each.
func MultiChoice(maxVoterOptions, maxWinningOptions uint8) VoteType {
	return VoteType{
		Kind:              VoteTypeMultiChoice,
		ChoiceType:        MultiChoiceFullWeight,
		MaxVoterOptions:   maxVoterOptions,
		MaxWinningOptions: maxWinningOptions,
	}
}

func (v VoteType) String() string {
	if v.Kind == VoteTypeSingleChoice {
		return "single-choice"
	}
	if v.ChoiceType == MultiChoiceWeighted {
		return "multi-choice(weighted)"
	}
	return "multi-choice"
}

// OptionVoteResult is filled in when voting ends.
type OptionVoteResult uint8

const (
	OptionVoteNone      OptionVoteResult = 0
	OptionVoteSucceeded OptionVoteResult = 1
	OptionVoteDefeated  OptionVoteResult = 2
)

// TransactionExecutionStatus records the last execution attempt of a transaction.
type TransactionExecutionStatus uint8

const (
	TransactionStatusNone    TransactionExecutionStatus = 0
	TransactionStatusSuccess TransactionExecutionStatus = 1
	TransactionStatusError   TransactionExecutionStatus = 2
)

func (s TransactionExecutionStatus) String() string {
	switch s {
	case TransactionStatusSuccess:
		return "success"
	case TransactionStatusError:
		return "error"
	default:
		return "none"
	}
}

// SetRealmAuthorityAction picks how the realm authority changes hands.
type SetRealmAuthorityAction uint8

const (
	SetRealmAuthorityUnchecked SetRealmAuthorityAction = 0
	SetRealmAuthorityChecked   SetRealmAuthorityAction = 1
	RemoveRealmAuthority       SetRealmAuthorityAction = 2
)

// VoterWeightAction names what an attested voter weight may be used for.
type VoterWeightAction uint8

const (
	VoterWeightCastVote         VoterWeightAction = 0
	VoterWeightCreateGovernance VoterWeightAction = 2
	VoterWeightCreateProposal   VoterWeightAction = 3
	VoterWeightSignOffProposal  VoterWeightAction = 4
)
