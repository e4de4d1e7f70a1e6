package dao

// RealmConfig is the part of the realm that never leaves the realm account.
type RealmConfig struct {
	CouncilMint                          *Address
	CommunityMintMaxVoterWeightSource    MintMaxVoterWeightSource
	MinCommunityWeightToCreateGovernance uint64
}

// Realm is the root of one DAO. Its mints never change after creation.
type Realm struct {
	CommunityMint Address
	Config        RealmConfig
	Authority     *Address
	Name          string
}

// GoverningTokenConfig holds per mint addins and the token type.
type GoverningTokenConfig struct {
	VoterWeightAddin    *Address
	MaxVoterWeightAddin *Address
	TokenType           GoverningTokenType
}

// RealmConfigAccount sits next to the realm and carries the addin wiring.
type RealmConfigAccount struct {
	Realm                Address
	CommunityTokenConfig GoverningTokenConfig
	CouncilTokenConfig   GoverningTokenConfig
}

// TokenConfigFor picks the token config of the given mint.
func (c *RealmConfigAccount) TokenConfigFor(realm *Realm, mint Address) GoverningTokenConfig {
	if mint.Equals(realm.CommunityMint) {
		return c.CommunityTokenConfig
	}
	return c.CouncilTokenConfig
}

// TokenOwnerRecord is one participant's deposit for one governing mint.
type TokenOwnerRecord struct {
	Realm                    Address
	GoverningMint            Address
	Owner                    Address
	DepositAmount            uint64
	UnrelinquishedVotesCount uint64
	OutstandingProposalCount uint8
	Version                  uint8
	GovernanceDelegate       *Address
}

// GovernanceConfig parameterizes the proposals of one governance.
type GovernanceConfig struct {
	CommunityVoteThreshold             VoteThreshold
	CouncilVoteThreshold               VoteThreshold
	CommunityVetoVoteThreshold         VoteThreshold
	CouncilVetoVoteThreshold           VoteThreshold
	QuorumPercentage                   uint8
	MinCommunityWeightToCreateProposal uint64
	MinCouncilWeightToCreateProposal   uint64
	MinTransactionHoldUpTime           uint32
	MinVotingTime                      uint32
	VotingBaseTime                     uint32
	VotingCoolOffTime                  uint32
	VoteTipping                        VoteTipping
	DepositExemptProposalCount         uint8
}

// Governance is the programmatic authority over one governed account.
type Governance struct {
	Realm               Address
	GovernedAccount     Address
	Kind                GovernanceKind
	Config              GovernanceConfig
	ActiveProposalCount uint64
	ProposalsCount      uint32
}

// ProposalOption accumulates the weight of one outcome and tracks its transactions.
type ProposalOption struct {
	Label                     string
	VoteWeight                uint64
	VoteResult                OptionVoteResult
	TransactionsExecutedCount uint16
	TransactionsCount         uint16
	TransactionsNextIndex     uint16
}

// Proposal is one decision under vote.
type Proposal struct {
	Governance                Address
	GoverningMint             Address
	State                     ProposalState
	TokenOwnerRecord          Address
	SignatoriesCount          uint8
	SignatoriesSignedOffCount uint8
	VoteType                  VoteType
	Options                   []ProposalOption
	DenyVoteWeight            *uint64
	AbstainVoteWeight         uint64
	VetoVoteWeight            uint64
	Turnout                   uint64
	DraftAt                   int64
	SigningOffAt              *int64
	VotingAt                  *int64
	VotingAtSlot              *uint64
	VotingCompletedAt         *int64
	ExecutingAt               *int64
	ClosedAt                  *int64
	MaxVoteWeight             *uint64
	VetoMaxVoteWeight         *uint64
	Config                    *GovernanceConfig
	Name                      string
	DescriptionLink           string
}

// UseDenyOption is set when the proposal was created with a deny option.
func (p *Proposal) UseDenyOption() bool { return p.DenyVoteWeight != nil }

// CastWeight is everything tallied so far, veto included.
func (p *Proposal) CastWeight() uint64 { return p.Turnout + p.VetoVoteWeight }

// TransactionsCount sums attached transactions over all options.
func (p *Proposal) TransactionsCount() int {
	n := 0
	for _, o := range p.Options {
		n += int(o.TransactionsCount)
	}
	return n
}

// SignatoryRecord gates a proposal leaving draft.
type SignatoryRecord struct {
	Proposal  Address
	Signatory Address
	SignedOff bool
}

// VoteRecord is one cast ballot. Weight is frozen at cast time.
type VoteRecord struct {
	Proposal            Address
	GoverningTokenOwner Address
	IsRelinquished      bool
	VoterWeight         uint64
	Vote                Vote
}

// AccountMetaData is one account reference inside a stored instruction.
type AccountMetaData struct {
	Pubkey     Address
	IsSigner   bool
	IsWritable bool
}

// InstructionData is an instruction stored on a proposal until execution.
type InstructionData struct {
	ProgramID Address
	Accounts  []AccountMetaData
	Data      []byte
}

// ProposalTransaction is one bundle of instructions attached to an option.
type ProposalTransaction struct {
	Proposal         Address
	OptionIndex      uint8
	TransactionIndex uint16
	HoldUpTime       uint32
	Instructions     []InstructionData
	ExecutedAt       *int64
	ExecutionStatus  TransactionExecutionStatus
}

// ProposalDeposit holds the lamports charged for creating a proposal.
type ProposalDeposit struct {
	Proposal     Address
	DepositPayer Address
	Amount       uint64
}

// ProgramMetadata tells clients which program version is deployed.
type ProgramMetadata struct {
	UpdatedAt uint64
	Version   string
}
