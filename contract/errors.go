package contract

import (
	"errors"
	"fmt"

	"realms_dao/contract/dao"
	"realms_dao/sdk"
)

// Kind groups failures by what the caller got wrong.
type Kind uint8

const (
	KindAuthorization Kind = iota + 1
	KindState
	KindData
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindAuthorization:
		return "authorization"
	case KindState:
		return "state"
	case KindData:
		return "data"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// Error is a program failure with a stable code. Sentinels below are compared with errors.Is,
// detail is added by wrapping.
type Error struct {
	Code uint32
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d)", e.Msg, e.Code)
}

func newError(code uint32, kind Kind, msg string) *Error {
	return &Error{Code: code, Kind: kind, Msg: msg}
}

// authorization
var (
	ErrInvalidAccountAddress                 = newError(500, KindAuthorization, "invalid account address")
	ErrInvalidAccountOwner                   = newError(501, KindAuthorization, "account not owned by the governance program")
	ErrMissingSignature                      = newError(502, KindAuthorization, "required signature missing")
	ErrGoverningTokenOwnerOrDelegateMustSign = newError(503, KindAuthorization, "governing token owner or delegate must sign")
	ErrInvalidRealmAuthority                 = newError(504, KindAuthorization, "invalid realm authority")
	ErrGovernancePdaMustSign                 = newError(505, KindAuthorization, "governance account must sign")
	ErrInvalidVoterWeightAttestation         = newError(506, KindAuthorization, "invalid voter weight attestation")
	ErrInvalidTokenOwnerRecord               = newError(507, KindAuthorization, "token owner record does not match")
	ErrInvalidGovernanceForProposal          = newError(508, KindAuthorization, "proposal belongs to another governance")
	ErrInvalidRevokeAuthority                = newError(509, KindAuthorization, "invalid revoke authority")
)

// state
var (
	ErrInvalidProposalState                  = newError(520, KindState, "invalid proposal state")
	ErrInvalidStateTransition                = newError(521, KindState, "proposal cannot move back in its lifecycle")
	ErrVoteAlreadyExists                     = newError(522, KindState, "vote already cast")
	ErrVoteAlreadyRelinquished               = newError(523, KindState, "vote already relinquished")
	ErrCannotWithdrawWithOutstandingVotes    = newError(524, KindState, "token owner has unrelinquished votes")
	ErrCannotWithdrawWithOutstandingProposal = newError(525, KindState, "token owner has outstanding proposals")
	ErrTooManyOutstandingProposals           = newError(526, KindState, "too many outstanding proposals")
	ErrVotingCoolOff                         = newError(527, KindState, "proposal is in voting cool off")
	ErrProposalVotingTimeExpired             = newError(528, KindState, "proposal voting time expired")
	ErrVotingInProgress                      = newError(529, KindState, "voting is still in progress")
	ErrTransactionHoldUp                     = newError(530, KindState, "transaction is within its hold up time")
	ErrTransactionAlreadyExecuted            = newError(531, KindState, "transaction already executed")
	ErrOptionNotSucceeded                    = newError(532, KindState, "proposal option did not succeed")
	ErrProposalDepositRefunded               = newError(533, KindState, "proposal deposit already refunded")
	ErrCounterUnderflow                      = newError(534, KindState, "counter released below zero")
	ErrSignatoryAlreadySignedOff             = newError(535, KindState, "signatory already signed off")
	ErrGoverningTokenVotingDisabled          = newError(536, KindState, "voting with this governing mint is disabled")
	ErrCannotDepositDormantTokens            = newError(537, KindState, "dormant governing tokens cannot be deposited")
	ErrCannotWithdrawMembershipTokens        = newError(538, KindState, "membership tokens cannot be withdrawn")
	ErrCannotRevokeGoverningTokens           = newError(539, KindState, "only membership tokens can be revoked")
	ErrProposalHasTransactions               = newError(540, KindState, "proposal has transactions to execute")
	ErrCouncilMintImmutable                  = newError(541, KindState, "realm council mint cannot change")
	ErrNotEnoughTokensToCreateProposal       = newError(542, KindState, "not enough governing tokens to create proposal")
	ErrNotEnoughTokensToCreateGovernance     = newError(543, KindState, "not enough governing tokens to create governance")
)

// data
var (
	ErrInvalidInstructionData   = newError(560, KindData, "invalid instruction data")
	ErrInvalidAccountData       = newError(561, KindData, "invalid account data")
	ErrInvalidAccountType       = newError(562, KindData, "invalid account type")
	ErrMissingAccounts          = newError(563, KindData, "not enough accounts")
	ErrInvalidRealmName         = newError(564, KindData, "invalid realm name")
	ErrInvalidRealmConfig       = newError(565, KindData, "invalid realm config")
	ErrInvalidGovernanceConfig  = newError(566, KindData, "invalid governance config")
	ErrInvalidGoverningMint     = newError(567, KindData, "invalid governing mint")
	ErrInvalidProposalOptions   = newError(568, KindData, "invalid proposal options")
	ErrInvalidVote              = newError(569, KindData, "invalid vote")
	ErrSignatoryAlreadyExists   = newError(570, KindData, "signatory already added")
	ErrInvalidTransactionIndex  = newError(571, KindData, "invalid transaction index")
	ErrInvalidOptionIndex       = newError(572, KindData, "invalid option index")
	ErrHoldUpTimeBelowMinimum   = newError(573, KindData, "transaction hold up time below governance minimum")
	ErrInvalidAmount            = newError(574, KindData, "invalid amount")
	ErrInvalidGovernedAccount   = newError(575, KindData, "invalid governed account")
	ErrEmptyProposalTransaction = newError(576, KindData, "proposal transaction has no instructions")
)

// resource
var (
	ErrAccountAlreadyInitialized = newError(580, KindResource, "account already initialized")
	ErrAccountDoesNotExist       = newError(581, KindResource, "account does not exist")
	ErrInsufficientFunds         = newError(582, KindResource, "insufficient funds")
	ErrCounterOverflow           = newError(583, KindResource, "counter overflow")
)

// KindOf classifies err, looking through wrapping. Host errors get the closest kind.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	switch {
	case errors.Is(err, sdk.ErrMissingSignature), errors.Is(err, sdk.ErrIllegalOwner), errors.Is(err, sdk.ErrOwnerMismatch):
		return KindAuthorization, true
	case errors.Is(err, sdk.ErrInsufficientFunds), errors.Is(err, sdk.ErrAccountExists), errors.Is(err, sdk.ErrAccountNotFound):
		return KindResource, true
	case errors.Is(err, sdk.ErrInvalidEncoding), errors.Is(err, sdk.ErrInvalidInstruction),
		errors.Is(err, dao.ErrMalformed), errors.Is(err, dao.ErrUnknownInstruction):
		return KindData, true
	}
	return 0, false
}
