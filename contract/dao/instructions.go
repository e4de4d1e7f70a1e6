package dao

import (
	"errors"
	"fmt"

	"realms_dao/sdk"
)

// ErrUnknownInstruction is returned for a tag no variant claims.
var ErrUnknownInstruction = errors.New("unknown instruction")

// InstructionTag is the leading byte of instruction data.
type InstructionTag uint8

const (
	TagCreateRealm             InstructionTag = 0
	TagDepositGoverningTokens  InstructionTag = 1
	TagWithdrawGoverningTokens InstructionTag = 2
	TagSetGovernanceDelegate   InstructionTag = 3
	TagCreateGovernance        InstructionTag = 4
	TagCreateProgramGovernance InstructionTag = 5
	TagCreateProposal          InstructionTag = 6
	TagAddSignatory            InstructionTag = 7
	TagRemoveSignatory         InstructionTag = 8
	TagInsertTransaction       InstructionTag = 9
	TagRemoveTransaction       InstructionTag = 10
	TagCancelProposal          InstructionTag = 11
	TagSignOffProposal         InstructionTag = 12
	TagCastVote                InstructionTag = 13
	TagFinalizeVote            InstructionTag = 14
	TagRelinquishVote          InstructionTag = 15
	TagExecuteTransaction      InstructionTag = 16
	TagCreateMintGovernance    InstructionTag = 17
	TagCreateTokenGovernance   InstructionTag = 18
	TagSetGovernanceConfig     InstructionTag = 19
	TagFlagTransactionError    InstructionTag = 20
	TagSetRealmAuthority       InstructionTag = 21
	TagSetRealmConfig          InstructionTag = 22
	TagCreateTokenOwnerRecord  InstructionTag = 23
	TagUpdateProgramMetadata   InstructionTag = 24
	TagCreateNativeTreasury    InstructionTag = 25
	TagRevokeGoverningTokens   InstructionTag = 26
	TagRefundProposalDeposit   InstructionTag = 27
	TagCompleteProposal        InstructionTag = 28
	TagInsertProposalOptions   InstructionTag = 29
)

var tagNames = map[InstructionTag]string{
	TagCreateRealm:             "CreateRealm",
	TagDepositGoverningTokens:  "DepositGoverningTokens",
	TagWithdrawGoverningTokens: "WithdrawGoverningTokens",
	TagSetGovernanceDelegate:   "SetGovernanceDelegate",
	TagCreateGovernance:        "CreateGovernance",
	TagCreateProgramGovernance: "CreateProgramGovernance",
	TagCreateProposal:          "CreateProposal",
	TagAddSignatory:            "AddSignatory",
	TagRemoveSignatory:         "RemoveSignatory",
	TagInsertTransaction:       "InsertTransaction",
	TagRemoveTransaction:       "RemoveTransaction",
	TagCancelProposal:          "CancelProposal",
	TagSignOffProposal:         "SignOffProposal",
	TagCastVote:                "CastVote",
	TagFinalizeVote:            "FinalizeVote",
	TagRelinquishVote:          "RelinquishVote",
	TagExecuteTransaction:      "ExecuteTransaction",
	TagCreateMintGovernance:    "CreateMintGovernance",
	TagCreateTokenGovernance:   "CreateTokenGovernance",
	TagSetGovernanceConfig:     "SetGovernanceConfig",
	TagFlagTransactionError:    "FlagTransactionError",
	TagSetRealmAuthority:       "SetRealmAuthority",
	TagSetRealmConfig:          "SetRealmConfig",
	TagCreateTokenOwnerRecord:  "CreateTokenOwnerRecord",
	TagUpdateProgramMetadata:   "UpdateProgramMetadata",
	TagCreateNativeTreasury:    "CreateNativeTreasury",
	TagRevokeGoverningTokens:   "RevokeGoverningTokens",
	TagRefundProposalDeposit:   "RefundProposalDeposit",
	TagCompleteProposal:        "CompleteProposal",
	TagInsertProposalOptions:   "InsertProposalOptions",
}

func (t InstructionTag) String() string {
	if n, ok := tagNames[t]; ok {
		return n
	}
	return fmt.Sprintf("Unknown(%d)", uint8(t))
}

// Instruction is the closed set of operations the program accepts. The unexported
// method keeps other packages from adding variants.
type Instruction interface {
	Tag() InstructionTag
	encode(w *sdk.Writer)
}

// RealmConfigArgs is the realm configuration as supplied by CreateRealm and SetRealmConfig.
type RealmConfigArgs struct {
	UseCouncilMint                       bool
	MinCommunityWeightToCreateGovernance uint64
	CommunityMintMaxVoterWeightSource    MintMaxVoterWeightSource
	CommunityTokenConfig                 GoverningTokenConfig
	CouncilTokenConfig                   GoverningTokenConfig
}

type CreateRealm struct {
	Name   string
	Config RealmConfigArgs
}

type DepositGoverningTokens struct{ Amount uint64 }

type WithdrawGoverningTokens struct{}

type SetGovernanceDelegate struct{ NewDelegate *Address }

type CreateGovernance struct{ Config GovernanceConfig }

type CreateProgramGovernance struct {
	Config                   GovernanceConfig
	TransferUpgradeAuthority bool
}

type CreateMintGovernance struct {
	Config                GovernanceConfig
	TransferMintAuthority bool
}

type CreateTokenGovernance struct {
	Config                     GovernanceConfig
	TransferAccountAuthorities bool
}

type CreateProposal struct {
	Name            string
	DescriptionLink string
	VoteType        VoteType
	Options         []string
	UseDenyOption   bool
	ProposalSeed    Address
}

type AddSignatory struct{ Signatory Address }

type RemoveSignatory struct{ Signatory Address }

type InsertTransaction struct {
	OptionIndex  uint8
	Index        uint16
	HoldUpTime   uint32
	Instructions []InstructionData
}

type RemoveTransaction struct{}

type CancelProposal struct{}

type SignOffProposal struct{}

type CastVote struct{ Vote Vote }

type FinalizeVote struct{}

type RelinquishVote struct{}

type ExecuteTransaction struct{}

type SetGovernanceConfig struct{ Config GovernanceConfig }

type FlagTransactionError struct{}

type SetRealmAuthority struct{ Action SetRealmAuthorityAction }

type SetRealmConfig struct{ Config RealmConfigArgs }

type CreateTokenOwnerRecord struct{}

type UpdateProgramMetadata struct{}

type CreateNativeTreasury struct{}

type RevokeGoverningTokens struct{ Amount uint64 }

type RefundProposalDeposit struct{}

type CompleteProposal struct{}

type InsertProposalOptions struct{ Options []string }

func (CreateRealm) Tag() InstructionTag             { return TagCreateRealm }
func (DepositGoverningTokens) Tag() InstructionTag  { return TagDepositGoverningTokens }
func (WithdrawGoverningTokens) Tag() InstructionTag { return TagWithdrawGoverningTokens }
func (SetGovernanceDelegate) Tag() InstructionTag   { return TagSetGovernanceDelegate }
func (CreateGovernance) Tag() InstructionTag        { return TagCreateGovernance }
func (CreateProgramGovernance) Tag() InstructionTag { return TagCreateProgramGovernance }
func (CreateProposal) Tag() InstructionTag          { return TagCreateProposal }
func (AddSignatory) Tag() InstructionTag            { return TagAddSignatory }
func (RemoveSignatory) Tag() InstructionTag         { return TagRemoveSignatory }
func (InsertTransaction) Tag() InstructionTag       { return TagInsertTransaction }
func (RemoveTransaction) Tag() InstructionTag       { return TagRemoveTransaction }
func (CancelProposal) Tag() InstructionTag          { return TagCancelProposal }
func (SignOffProposal) Tag() InstructionTag         { return TagSignOffProposal }
func (CastVote) Tag() InstructionTag                { return TagCastVote }
func (FinalizeVote) Tag() InstructionTag            { return TagFinalizeVote }
func (RelinquishVote) Tag() InstructionTag          { return TagRelinquishVote }
func (ExecuteTransaction) Tag() InstructionTag      { return TagExecuteTransaction }
func (CreateMintGovernance) Tag() InstructionTag    { return TagCreateMintGovernance }
func (CreateTokenGovernance) Tag() InstructionTag   { return TagCreateTokenGovernance }
func (SetGovernanceConfig) Tag() InstructionTag     { return TagSetGovernanceConfig }
func (FlagTransactionError) Tag() InstructionTag    { return TagFlagTransactionError }
func (SetRealmAuthority) Tag() InstructionTag       { return TagSetRealmAuthority }
func (SetRealmConfig) Tag() InstructionTag          { return TagSetRealmConfig }
func (CreateTokenOwnerRecord) Tag() InstructionTag  { return TagCreateTokenOwnerRecord }
func (UpdateProgramMetadata) Tag() InstructionTag   { return TagUpdateProgramMetadata }
func (CreateNativeTreasury) Tag() InstructionTag    { return TagCreateNativeTreasury }
func (RevokeGoverningTokens) Tag() InstructionTag   { return TagRevokeGoverningTokens }
func (RefundProposalDeposit) Tag() InstructionTag   { return TagRefundProposalDeposit }
func (CompleteProposal) Tag() InstructionTag        { return TagCompleteProposal }
func (InsertProposalOptions) Tag() InstructionTag   { return TagInsertProposalOptions }

func writeRealmConfigArgs(w *sdk.Writer, c *RealmConfigArgs) {
	w.Bool(c.UseCouncilMint)
	w.Uint64(c.MinCommunityWeightToCreateGovernance)
	w.Uint8(uint8(c.CommunityMintMaxVoterWeightSource.Kind))
	w.Uint64(c.CommunityMintMaxVoterWeightSource.Value)
	writeTokenConfig(w, &c.CommunityTokenConfig)
	writeTokenConfig(w, &c.CouncilTokenConfig)
}

func readRealmConfigArgs(r *sdk.Reader) RealmConfigArgs {
	return RealmConfigArgs{
		UseCouncilMint:                       r.Bool(),
		MinCommunityWeightToCreateGovernance: r.Uint64(),
		CommunityMintMaxVoterWeightSource: MintMaxVoterWeightSource{
			Kind:  MaxVoterWeightSourceKind(r.Uint8()),
			Value: r.Uint64(),
		},
		CommunityTokenConfig: readTokenConfig(r),
		CouncilTokenConfig:   readTokenConfig(r),
	}
}

func writeStrings(w *sdk.Writer, ss []string) {
	w.Uint32(uint32(len(ss)))
	for _, s := range ss {
		w.Str(s)
	}
}

func readStrings(r *sdk.Reader) []string {
	n := r.Len(4)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, r.Str())
	}
	return out
}

func (ix CreateRealm) encode(w *sdk.Writer) {
	w.Str(ix.Name)
	writeRealmConfigArgs(w, &ix.Config)
}
func (ix DepositGoverningTokens) encode(w *sdk.Writer) { w.Uint64(ix.Amount) }
func (WithdrawGoverningTokens) encode(*sdk.Writer)     {}
func (ix SetGovernanceDelegate) encode(w *sdk.Writer)  { w.OptionAddress(ix.NewDelegate) }
func (ix CreateGovernance) encode(w *sdk.Writer)       { writeGovernanceConfig(w, &ix.Config) }
func (ix CreateProgramGovernance) encode(w *sdk.Writer) {
	writeGovernanceConfig(w, &ix.Config)
	w.Bool(ix.TransferUpgradeAuthority)
}
func (ix CreateProposal) encode(w *sdk.Writer) {
	w.Str(ix.Name)
	w.Str(ix.DescriptionLink)
	writeVoteType(w, ix.VoteType)
	writeStrings(w, ix.Options)
	w.Bool(ix.UseDenyOption)
	w.Address(ix.ProposalSeed)
}
func (ix AddSignatory) encode(w *sdk.Writer)    { w.Address(ix.Signatory) }
func (ix RemoveSignatory) encode(w *sdk.Writer) { w.Address(ix.Signatory) }
func (ix InsertTransaction) encode(w *sdk.Writer) {
	w.Uint8(ix.OptionIndex)
	w.Uint16(ix.Index)
	w.Uint32(ix.HoldUpTime)
	w.Uint32(uint32(len(ix.Instructions)))
	for i := range ix.Instructions {
		writeInstructionData(w, &ix.Instructions[i])
	}
}
func (RemoveTransaction) encode(*sdk.Writer) {}
func (CancelProposal) encode(*sdk.Writer)    {}
func (SignOffProposal) encode(*sdk.Writer)   {}
func (ix CastVote) encode(w *sdk.Writer)     { writeVote(w, &ix.Vote) }
func (FinalizeVote) encode(*sdk.Writer)      {}
func (RelinquishVote) encode(*sdk.Writer)    {}
func (ExecuteTransaction) encode(*sdk.Writer) {}
func (ix CreateMintGovernance) encode(w *sdk.Writer) {
	writeGovernanceConfig(w, &ix.Config)
	w.Bool(ix.TransferMintAuthority)
}
func (ix CreateTokenGovernance) encode(w *sdk.Writer) {
	writeGovernanceConfig(w, &ix.Config)
	w.Bool(ix.TransferAccountAuthorities)
}
func (ix SetGovernanceConfig) encode(w *sdk.Writer)   { writeGovernanceConfig(w, &ix.Config) }
func (FlagTransactionError) encode(*sdk.Writer)       {}
func (ix SetRealmAuthority) encode(w *sdk.Writer)     { w.Uint8(uint8(ix.Action)) }
func (ix SetRealmConfig) encode(w *sdk.Writer)        { writeRealmConfigArgs(w, &ix.Config) }
func (CreateTokenOwnerRecord) encode(*sdk.Writer)     {}
func (UpdateProgramMetadata) encode(*sdk.Writer)      {}
func (CreateNativeTreasury) encode(*sdk.Writer)       {}
func (ix RevokeGoverningTokens) encode(w *sdk.Writer) { w.Uint64(ix.Amount) }
func (RefundProposalDeposit) encode(*sdk.Writer)      {}
func (CompleteProposal) encode(*sdk.Writer)           {}
func (ix InsertProposalOptions) encode(w *sdk.Writer) { writeStrings(w, ix.Options) }

// EncodeInstruction serializes an instruction behind its tag byte.
func EncodeInstruction(ix Instruction) []byte {
	w := sdk.NewWriter()
	w.Uint8(uint8(ix.Tag()))
	ix.encode(w)
	return w.Bytes()
}

// DecodeInstruction parses instruction data. Bytes after the known fields are ignored.
func DecodeInstruction(data []byte) (Instruction, error) {
	r := sdk.NewReader(data)
	tag := InstructionTag(r.Uint8())
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var ix Instruction
	switch tag {
	case TagCreateRealm:
		ix = CreateRealm{Name: r.Str(), Config: readRealmConfigArgs(r)}
	case TagDepositGoverningTokens:
		ix = DepositGoverningTokens{Amount: r.Uint64()}
	case TagWithdrawGoverningTokens:
		ix = WithdrawGoverningTokens{}
	case TagSetGovernanceDelegate:
		ix = SetGovernanceDelegate{NewDelegate: r.OptionAddress()}
	case TagCreateGovernance:
		ix = CreateGovernance{Config: readGovernanceConfig(r)}
	case TagCreateProgramGovernance:
		ix = CreateProgramGovernance{Config: readGovernanceConfig(r), TransferUpgradeAuthority: r.Bool()}
	case TagCreateProposal:
		ix = CreateProposal{
			Name:            r.Str(),
			DescriptionLink: r.Str(),
			VoteType:        readVoteType(r),
			Options:         readStrings(r),
			UseDenyOption:   r.Bool(),
			ProposalSeed:    r.Address(),
		}
	case TagAddSignatory:
		ix = AddSignatory{Signatory: r.Address()}
	case TagRemoveSignatory:
		ix = RemoveSignatory{Signatory: r.Address()}
	case TagInsertTransaction:
		ins := InsertTransaction{OptionIndex: r.Uint8(), Index: r.Uint16(), HoldUpTime: r.Uint32()}
		n := r.Len(40)
		ins.Instructions = make([]InstructionData, 0, n)
		for i := 0; i < n; i++ {
			ins.Instructions = append(ins.Instructions, readInstructionData(r))
		}
		ix = ins
	case TagRemoveTransaction:
		ix = RemoveTransaction{}
	case TagCancelProposal:
		ix = CancelProposal{}
	case TagSignOffProposal:
		ix = SignOffProposal{}
	case TagCastVote:
		ix = CastVote{Vote: readVote(r)}
	case TagFinalizeVote:
		ix = FinalizeVote{}
	case TagRelinquishVote:
		ix = RelinquishVote{}
	case TagExecuteTransaction:
		ix = ExecuteTransaction{}
	case TagCreateMintGovernance:
		ix = CreateMintGovernance{Config: readGovernanceConfig(r), TransferMintAuthority: r.Bool()}
	case TagCreateTokenGovernance:
		ix = CreateTokenGovernance{Config: readGovernanceConfig(r), TransferAccountAuthorities: r.Bool()}
	case TagSetGovernanceConfig:
		ix = SetGovernanceConfig{Config: readGovernanceConfig(r)}
	case TagFlagTransactionError:
		ix = FlagTransactionError{}
	case TagSetRealmAuthority:
		action := SetRealmAuthorityAction(r.Uint8())
		if action > RemoveRealmAuthority {
			r.Reject("realm authority action", uint8(action))
		}
		ix = SetRealmAuthority{Action: action}
	case TagSetRealmConfig:
		ix = SetRealmConfig{Config: readRealmConfigArgs(r)}
	case TagCreateTokenOwnerRecord:
		ix = CreateTokenOwnerRecord{}
	case TagUpdateProgramMetadata:
		ix = UpdateProgramMetadata{}
	case TagCreateNativeTreasury:
		ix = CreateNativeTreasury{}
	case TagRevokeGoverningTokens:
		ix = RevokeGoverningTokens{Amount: r.Uint64()}
	case TagRefundProposalDeposit:
		ix = RefundProposalDeposit{}
	case TagCompleteProposal:
		ix = CompleteProposal{}
	case TagInsertProposalOptions:
		ix = InsertProposalOptions{Options: readStrings(r)}
	default:
		return nil, fmt.Errorf("%w: tag %d", ErrUnknownInstruction, uint8(tag))
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, tag, err)
	}
	return ix, nil
}
