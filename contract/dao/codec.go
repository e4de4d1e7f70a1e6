package dao

import (
	"errors"
	"fmt"

	"realms_dao/sdk"
)

var (
	// ErrAccountTypeMismatch is returned when the tag byte names another record.
	ErrAccountTypeMismatch = errors.New("account type mismatch")
	// ErrMalformed wraps structural decode failures.
	ErrMalformed = errors.New("malformed record")
)

// Records are borsh encoded behind a one byte AccountType tag. Decoders read the
// fields they know and ignore whatever follows, so newer layouts with appended
// fields still load. Fields marked as tail were appended in a later layout and
// default to zero when absent.

func header(t AccountType) *sdk.Writer {
	w := sdk.NewWriter()
	w.Uint8(uint8(t))
	return w
}

func openRecord(data []byte, want AccountType) (*sdk.Reader, error) {
	r := sdk.NewReader(data)
	got := AccountType(r.Uint8())
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if got != want {
		return nil, fmt.Errorf("%w: want %s, got %s", ErrAccountTypeMismatch, want, got)
	}
	return r, nil
}

func closeRecord(r *sdk.Reader) error {
	if err := r.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// PeekAccountType returns the tag of an encoded record.
func PeekAccountType(data []byte) AccountType {
	if len(data) == 0 {
		return AccountTypeUninitialized
	}
	return AccountType(data[0])
}

func writeThreshold(w *sdk.Writer, t VoteThreshold) {
	w.Uint8(uint8(t.Kind))
	if t.Kind == VoteThresholdYesVotePercentage {
		w.Uint8(t.Percentage)
	}
}

func readThreshold(r *sdk.Reader) VoteThreshold {
	kind := VoteThresholdKind(r.Uint8())
	switch kind {
	case VoteThresholdYesVotePercentage:
		return VoteThreshold{Kind: kind, Percentage: r.Uint8()}
	case VoteThresholdDisabled:
		return VoteThreshold{Kind: kind}
	default:
		r.Reject("vote threshold", uint8(kind))
		return VoteThreshold{Kind: VoteThresholdDisabled}
	}
}

func writeGovernanceConfig(w *sdk.Writer, c *GovernanceConfig) {
	writeThreshold(w, c.CommunityVoteThreshold)
	writeThreshold(w, c.CouncilVoteThreshold)
	writeThreshold(w, c.CommunityVetoVoteThreshold)
	writeThreshold(w, c.CouncilVetoVoteThreshold)
	w.Uint8(c.QuorumPercentage)
	w.Uint64(c.MinCommunityWeightToCreateProposal)
	w.Uint64(c.MinCouncilWeightToCreateProposal)
	w.Uint32(c.MinTransactionHoldUpTime)
	w.Uint32(c.MinVotingTime)
	w.Uint32(c.VotingBaseTime)
	w.Uint32(c.VotingCoolOffTime)
	w.Uint8(uint8(c.VoteTipping))
	w.Uint8(c.DepositExemptProposalCount)
}

func readGovernanceConfig(r *sdk.Reader) GovernanceConfig {
	return GovernanceConfig{
		CommunityVoteThreshold:             readThreshold(r),
		CouncilVoteThreshold:               readThreshold(r),
		CommunityVetoVoteThreshold:         readThreshold(r),
		CouncilVetoVoteThreshold:           readThreshold(r),
		QuorumPercentage:                   r.Uint8(),
		MinCommunityWeightToCreateProposal: r.Uint64(),
		MinCouncilWeightToCreateProposal:   r.Uint64(),
		MinTransactionHoldUpTime:           r.Uint32(),
		MinVotingTime:                      r.Uint32(),
		VotingBaseTime:                     r.Uint32(),
		VotingCoolOffTime:                  r.Uint32(),
		VoteTipping:                        VoteTipping(r.Uint8()),
		DepositExemptProposalCount:         r.Uint8(),
	}
}

func writeTokenConfig(w *sdk.Writer, c *GoverningTokenConfig) {
	w.OptionAddress(c.VoterWeightAddin)
	w.OptionAddress(c.MaxVoterWeightAddin)
	w.Uint8(uint8(c.TokenType))
}

func readTokenConfig(r *sdk.Reader) GoverningTokenConfig {
	return GoverningTokenConfig{
		VoterWeightAddin:    r.OptionAddress(),
		MaxVoterWeightAddin: r.OptionAddress(),
		TokenType:           GoverningTokenType(r.Uint8()),
	}
}

func writeRealmConfig(w *sdk.Writer, c *RealmConfig) {
	w.OptionAddress(c.CouncilMint)
	w.Uint8(uint8(c.CommunityMintMaxVoterWeightSource.Kind))
	w.Uint64(c.CommunityMintMaxVoterWeightSource.Value)
	w.Uint64(c.MinCommunityWeightToCreateGovernance)
}

func readRealmConfig(r *sdk.Reader) RealmConfig {
	return RealmConfig{
		CouncilMint: r.OptionAddress(),
		CommunityMintMaxVoterWeightSource: MintMaxVoterWeightSource{
			Kind:  MaxVoterWeightSourceKind(r.Uint8()),
			Value: r.Uint64(),
		},
		MinCommunityWeightToCreateGovernance: r.Uint64(),
	}
}

func writeVote(w *sdk.Writer, v *Vote) {
	w.Uint8(uint8(v.Kind))
	if v.Kind == VoteApprove {
		w.Uint32(uint32(len(v.Choices)))
		for _, c := range v.Choices {
			w.Uint8(c.Rank)
			w.Uint8(c.WeightPercentage)
		}
	}
}

func readVote(r *sdk.Reader) Vote {
	v := Vote{Kind: VoteKind(r.Uint8())}
	switch v.Kind {
	case VoteApprove:
		n := r.Len(2)
		v.Choices = make([]VoteChoice, 0, n)
		for i := 0; i < n; i++ {
			v.Choices = append(v.Choices, VoteChoice{Rank: r.Uint8(), WeightPercentage: r.Uint8()})
		}
	case VoteDeny, VoteAbstain, VoteVeto:
	default:
		r.Reject("vote", uint8(v.Kind))
	}
	return v
}

func writeVoteType(w *sdk.Writer, v VoteType) {
	w.Uint8(uint8(v.Kind))
	if v.Kind == VoteTypeMultiChoice {
		w.Uint8(uint8(v.ChoiceType))
		w.Uint8(v.MaxVoterOptions)
		w.Uint8(v.MaxWinningOptions)
	}
}

func readVoteType(r *sdk.Reader) VoteType {
	v := VoteType{Kind: VoteTypeKind(r.Uint8())}
	switch v.Kind {
	case VoteTypeSingleChoice:
	case VoteTypeMultiChoice:
		v.ChoiceType = MultiChoiceType(r.Uint8())
		v.MaxVoterOptions = r.Uint8()
		v.MaxWinningOptions = r.Uint8()
	default:
		r.Reject("vote type", uint8(v.Kind))
	}
	return v
}

func writeInstructionData(w *sdk.Writer, ix *InstructionData) {
	w.Address(ix.ProgramID)
	w.Uint32(uint32(len(ix.Accounts)))
	for _, a := range ix.Accounts {
		w.Address(a.Pubkey)
		w.Bool(a.IsSigner)
		w.Bool(a.IsWritable)
	}
	w.ByteSlice(ix.Data)
}

func readInstructionData(r *sdk.Reader) InstructionData {
	ix := InstructionData{ProgramID: r.Address()}
	n := r.Len(34)
	ix.Accounts = make([]AccountMetaData, 0, n)
	for i := 0; i < n; i++ {
		ix.Accounts = append(ix.Accounts, AccountMetaData{Pubkey: r.Address(), IsSigner: r.Bool(), IsWritable: r.Bool()})
	}
	ix.Data = r.ByteSlice()
	return ix
}

// EncodeRealm serializes a realm.
func EncodeRealm(v *Realm) []byte {
	w := header(AccountTypeRealmV2)
	w.Address(v.CommunityMint)
	writeRealmConfig(w, &v.Config)
	w.OptionAddress(v.Authority)
	w.Str(v.Name)
	return w.Bytes()
}

func DecodeRealm(data []byte) (*Realm, error) {
	r, err := openRecord(data, AccountTypeRealmV2)
	if err != nil {
		return nil, err
	}
	v := &Realm{
		CommunityMint: r.Address(),
		Config:        readRealmConfig(r),
		Authority:     r.OptionAddress(),
		Name:          r.Str(),
	}
	return v, closeRecord(r)
}

func EncodeRealmConfigAccount(v *RealmConfigAccount) []byte {
	w := header(AccountTypeRealmConfig)
	w.Address(v.Realm)
	writeTokenConfig(w, &v.CommunityTokenConfig)
	writeTokenConfig(w, &v.CouncilTokenConfig)
	return w.Bytes()
}

func DecodeRealmConfigAccount(data []byte) (*RealmConfigAccount, error) {
	r, err := openRecord(data, AccountTypeRealmConfig)
	if err != nil {
		return nil, err
	}
	v := &RealmConfigAccount{
		Realm:                r.Address(),
		CommunityTokenConfig: readTokenConfig(r),
		CouncilTokenConfig:   readTokenConfig(r),
	}
	return v, closeRecord(r)
}

func EncodeTokenOwnerRecord(v *TokenOwnerRecord) []byte {
	w := header(AccountTypeTokenOwnerRecordV2)
	w.Address(v.Realm)
	w.Address(v.GoverningMint)
	w.Address(v.Owner)
	w.Uint64(v.DepositAmount)
	w.Uint64(v.UnrelinquishedVotesCount)
	w.Uint8(v.OutstandingProposalCount)
	w.Uint8(v.Version)
	w.OptionAddress(v.GovernanceDelegate)
	return w.Bytes()
}

func DecodeTokenOwnerRecord(data []byte) (*TokenOwnerRecord, error) {
	r, err := openRecord(data, AccountTypeTokenOwnerRecordV2)
	if err != nil {
		return nil, err
	}
	v := &TokenOwnerRecord{
		Realm:                    r.Address(),
		GoverningMint:            r.Address(),
		Owner:                    r.Address(),
		DepositAmount:            r.Uint64(),
		UnrelinquishedVotesCount: r.Uint64(),
		OutstandingProposalCount: r.Uint8(),
		Version:                  r.Uint8(),
		GovernanceDelegate:       r.OptionAddress(),
	}
	return v, closeRecord(r)
}

// EncodeGovernanceConfig is also the payload of SetGovernanceConfig.
func EncodeGovernanceConfig(c *GovernanceConfig) []byte {
	w := sdk.NewWriter()
	writeGovernanceConfig(w, c)
	return w.Bytes()
}

func EncodeGovernance(v *Governance) []byte {
	w := header(AccountTypeGovernanceV2)
	w.Address(v.Realm)
	w.Address(v.GovernedAccount)
	w.Uint8(uint8(v.Kind))
	writeGovernanceConfig(w, &v.Config)
	w.Uint64(v.ActiveProposalCount)
	w.Uint32(v.ProposalsCount)
	return w.Bytes()
}

func DecodeGovernance(data []byte) (*Governance, error) {
	r, err := openRecord(data, AccountTypeGovernanceV2)
	if err != nil {
		return nil, err
	}
	v := &Governance{
		Realm:               r.Address(),
		GovernedAccount:     r.Address(),
		Kind:                GovernanceKind(r.Uint8()),
		Config:              readGovernanceConfig(r),
		ActiveProposalCount: r.Uint64(),
		ProposalsCount:      r.Uint32(),
	}
	return v, closeRecord(r)
}

// EncodeProposal serializes a proposal.
func EncodeProposal(v *Proposal) []byte {
	w := header(AccountTypeProposalV2)
	w.Address(v.Governance)
	w.Address(v.GoverningMint)
	w.Uint8(uint8(v.State))
	w.Address(v.TokenOwnerRecord)
	w.Uint8(v.SignatoriesCount)
	w.Uint8(v.SignatoriesSignedOffCount)
	writeVoteType(w, v.VoteType)
	w.Uint32(uint32(len(v.Options)))
	for _, o := range v.Options {
		w.Str(o.Label)
		w.Uint64(o.VoteWeight)
		w.Uint8(uint8(o.VoteResult))
		w.Uint16(o.TransactionsExecutedCount)
		w.Uint16(o.TransactionsCount)
		w.Uint16(o.TransactionsNextIndex)
	}
	w.OptionUint64(v.DenyVoteWeight)
	w.Uint64(v.AbstainVoteWeight)
	w.Uint64(v.VetoVoteWeight)
	w.Uint64(v.Turnout)
	w.Int64(v.DraftAt)
	w.OptionInt64(v.SigningOffAt)
	w.OptionInt64(v.VotingAt)
	w.OptionUint64(v.VotingAtSlot)
	w.OptionInt64(v.VotingCompletedAt)
	w.OptionInt64(v.ExecutingAt)
	w.OptionInt64(v.ClosedAt)
	w.OptionUint64(v.MaxVoteWeight)
	w.Str(v.Name)
	w.Str(v.DescriptionLink)
	// tail
	w.OptionUint64(v.VetoMaxVoteWeight)
	if v.Config == nil {
		w.Uint8(0)
	} else {
		w.Uint8(1)
		writeGovernanceConfig(w, v.Config)
	}
	return w.Bytes()
}

func DecodeProposal(data []byte) (*Proposal, error) {
	r, err := openRecord(data, AccountTypeProposalV2)
	if err != nil {
		return nil, err
	}
	v := &Proposal{
		Governance:                r.Address(),
		GoverningMint:             r.Address(),
		State:                     ProposalState(r.Uint8()),
		TokenOwnerRecord:          r.Address(),
		SignatoriesCount:          r.Uint8(),
		SignatoriesSignedOffCount: r.Uint8(),
		VoteType:                  readVoteType(r),
	}
	n := r.Len(15)
	v.Options = make([]ProposalOption, 0, n)
	for i := 0; i < n; i++ {
		v.Options = append(v.Options, ProposalOption{
			Label:                     r.Str(),
			VoteWeight:                r.Uint64(),
			VoteResult:                OptionVoteResult(r.Uint8()),
			TransactionsExecutedCount: r.Uint16(),
			TransactionsCount:         r.Uint16(),
			TransactionsNextIndex:     r.Uint16(),
		})
	}
	v.DenyVoteWeight = r.OptionUint64()
	v.AbstainVoteWeight = r.Uint64()
	v.VetoVoteWeight = r.Uint64()
	v.Turnout = r.Uint64()
	v.DraftAt = r.Int64()
	v.SigningOffAt = r.OptionInt64()
	v.VotingAt = r.OptionInt64()
	v.VotingAtSlot = r.OptionUint64()
	v.VotingCompletedAt = r.OptionInt64()
	v.ExecutingAt = r.OptionInt64()
	v.ClosedAt = r.OptionInt64()
	v.MaxVoteWeight = r.OptionUint64()
	v.Name = r.Str()
	v.DescriptionLink = r.Str()
	if r.Remaining() > 0 {
		v.VetoMaxVoteWeight = r.OptionUint64()
	}
	if r.Remaining() > 0 && r.Uint8() == 1 {
		cfg := readGovernanceConfig(r)
		v.Config = &cfg
	}
	if r.Err() == nil && !v.State.valid() {
		return nil, fmt.Errorf("%w: proposal state %d", ErrMalformed, v.State)
	}
	return v, closeRecord(r)
}

func EncodeSignatoryRecord(v *SignatoryRecord) []byte {
	w := header(AccountTypeSignatoryRecordV2)
	w.Address(v.Proposal)
	w.Address(v.Signatory)
	w.Bool(v.SignedOff)
	return w.Bytes()
}

func DecodeSignatoryRecord(data []byte) (*SignatoryRecord, error) {
	r, err := openRecord(data, AccountTypeSignatoryRecordV2)
	if err != nil {
		return nil, err
	}
	v := &SignatoryRecord{Proposal: r.Address(), Signatory: r.Address(), SignedOff: r.Bool()}
	return v, closeRecord(r)
}

func EncodeVoteRecord(v *VoteRecord) []byte {
	w := header(AccountTypeVoteRecordV2)
	w.Address(v.Proposal)
	w.Address(v.GoverningTokenOwner)
	w.Bool(v.IsRelinquished)
	w.Uint64(v.VoterWeight)
	writeVote(w, &v.Vote)
	return w.Bytes()
}

func DecodeVoteRecord(data []byte) (*VoteRecord, error) {
	r, err := openRecord(data, AccountTypeVoteRecordV2)
	if err != nil {
		return nil, err
	}
	v := &VoteRecord{
		Proposal:            r.Address(),
		GoverningTokenOwner: r.Address(),
		IsRelinquished:      r.Bool(),
		VoterWeight:         r.Uint64(),
		Vote:                readVote(r),
	}
	return v, closeRecord(r)
}

func EncodeProposalTransaction(v *ProposalTransaction) []byte {
	w := header(AccountTypeProposalTransactionV2)
	w.Address(v.Proposal)
	w.Uint8(v.OptionIndex)
	w.Uint16(v.TransactionIndex)
	w.Uint32(v.HoldUpTime)
	w.Uint32(uint32(len(v.Instructions)))
	for i := range v.Instructions {
		writeInstructionData(w, &v.Instructions[i])
	}
	w.OptionInt64(v.ExecutedAt)
	w.Uint8(uint8(v.ExecutionStatus))
	return w.Bytes()
}

func DecodeProposalTransaction(data []byte) (*ProposalTransaction, error) {
	r, err := openRecord(data, AccountTypeProposalTransactionV2)
	if err != nil {
		return nil, err
	}
	v := &ProposalTransaction{
		Proposal:         r.Address(),
		OptionIndex:      r.Uint8(),
		TransactionIndex: r.Uint16(),
		HoldUpTime:       r.Uint32(),
	}
	n := r.Len(40)
	v.Instructions = make([]InstructionData, 0, n)
	for i := 0; i < n; i++ {
		v.Instructions = append(v.Instructions, readInstructionData(r))
	}
	v.ExecutedAt = r.OptionInt64()
	v.ExecutionStatus = TransactionExecutionStatus(r.Uint8())
	return v, closeRecord(r)
}

func EncodeProposalDeposit(v *ProposalDeposit) []byte {
	w := header(AccountTypeProposalDeposit)
	w.Address(v.Proposal)
	w.Address(v.DepositPayer)
	w.Uint64(v.Amount)
	return w.Bytes()
}

func DecodeProposalDeposit(data []byte) (*ProposalDeposit, error) {
	r, err := openRecord(data, AccountTypeProposalDeposit)
	if err != nil {
		return nil, err
	}
	v := &ProposalDeposit{Proposal: r.Address(), DepositPayer: r.Address(), Amount: r.Uint64()}
	return v, closeRecord(r)
}

func EncodeProgramMetadata(v *ProgramMetadata) []byte {
	w := header(AccountTypeProgramMetadata)
	w.Uint64(v.UpdatedAt)
	w.Str(v.Version)
	return w.Bytes()
}

func DecodeProgramMetadata(data []byte) (*ProgramMetadata, error) {
	r, err := openRecord(data, AccountTypeProgramMetadata)
	if err != nil {
		return nil, err
	}
	v := &ProgramMetadata{UpdatedAt: r.Uint64(), Version: r.Str()}
	return v, closeRecord(r)
}
