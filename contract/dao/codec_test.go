package dao

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addr(t *testing.T) Address {
	t.Helper()
	kp, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return kp.PublicKey()
}

func sampleProposal(t *testing.T) *Proposal {
	deny := uint64(7)
	max := uint64(1_000)
	votingAt := int64(1_700_000_000)
	slot := uint64(42)
	return &Proposal{
		Governance:       addr(t),
		GoverningMint:    addr(t),
		State:            ProposalStateVoting,
		TokenOwnerRecord: addr(t),
		VoteType:         MultiChoice(2, 2),
		Options: []ProposalOption{
			{Label: "fund", VoteWeight: 400, TransactionsCount: 2, TransactionsNextIndex: 2},
			{Label: "hire", VoteWeight: 90},
		},
		DenyVoteWeight:  &deny,
		Turnout:         497,
		DraftAt:         votingAt - 60,
		VotingAt:        &votingAt,
		VotingAtSlot:    &slot,
		MaxVoteWeight:   &max,
		Name:            "budget",
		DescriptionLink: "https://example.org/budget",
	}
}

// =============================================================================
// Records
// =============================================================================

// TestProposalRoundTrip checks the full layout, tail included.
func TestProposalRoundTrip(t *testing.T) {
	p := sampleProposal(t)
	vetoMax := uint64(3)
	p.VetoMaxVoteWeight = &vetoMax
	p.Config = &GovernanceConfig{
		CommunityVoteThreshold:     YesVotePercentage(60),
		CouncilVoteThreshold:       DisabledThreshold(),
		CommunityVetoVoteThreshold: DisabledThreshold(),
		CouncilVetoVoteThreshold:   YesVotePercentage(40),
		QuorumPercentage:           10,
		VotingBaseTime:             86_400,
		VoteTipping:                VoteTippingEarlyOnCouncil,
	}
	got, err := DecodeProposal(EncodeProposal(p))
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

// TestProposalWithoutTail checks a record written before the tail fields still loads.
func TestProposalWithoutTail(t *testing.T) {
	p := sampleProposal(t)
	data := EncodeProposal(p)
	// no veto max and no config are one zero byte each
	legacy := data[:len(data)-2]

	got, err := DecodeProposal(legacy)
	require.NoError(t, err)
	assert.Nil(t, got.VetoMaxVoteWeight)
	assert.Nil(t, got.Config)
	assert.Equal(t, p.Options, got.Options)
	assert.Equal(t, p.Name, got.Name)
}

// TestDecodeIgnoresTrailingBytes checks newer layouts with appended fields still load.
func TestDecodeIgnoresTrailingBytes(t *testing.T) {
	delegate := addr(t)
	tor := &TokenOwnerRecord{Realm: addr(t), GoverningMint: addr(t), Owner: addr(t), DepositAmount: 5,
		Version: 1, GovernanceDelegate: &delegate}
	data := append(EncodeTokenOwnerRecord(tor), 9, 9, 9)
	got, err := DecodeTokenOwnerRecord(data)
	require.NoError(t, err)
	assert.Equal(t, tor, got)
}

// TestDecodeRejects checks wrong tags, truncation and impossible values.
func TestDecodeRejects(t *testing.T) {
	gov := EncodeGovernance(&Governance{Realm: addr(t), GovernedAccount: addr(t)})
	_, err := DecodeProposal(gov)
	assert.ErrorIs(t, err, ErrAccountTypeMismatch)
	assert.Equal(t, AccountTypeGovernanceV2, PeekAccountType(gov))
	assert.Equal(t, AccountTypeUninitialized, PeekAccountType(nil))

	_, err = DecodeGovernance(nil)
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = DecodeGovernance(gov[:20])
	assert.ErrorIs(t, err, ErrMalformed)

	p := sampleProposal(t)
	p.State = ProposalState(200)
	_, err = DecodeProposal(EncodeProposal(p))
	assert.ErrorIs(t, err, ErrMalformed)
}

// =============================================================================
// Instructions
// =============================================================================

// TestInsertTransactionRoundTrip checks stored instructions survive the wire.
func TestInsertTransactionRoundTrip(t *testing.T) {
	ix := InsertTransaction{
		OptionIndex: 1,
		Index:       3,
		HoldUpTime:  600,
		Instructions: []InstructionData{{
			ProgramID: addr(t),
			Accounts: []AccountMetaData{
				{Pubkey: addr(t), IsSigner: true, IsWritable: true},
				{Pubkey: addr(t)},
			},
			Data: []byte{2, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0},
		}},
	}
	got, err := DecodeInstruction(EncodeInstruction(ix))
	require.NoError(t, err)
	assert.Equal(t, ix, got)
}

// TestCastVoteRoundTrip checks each ballot kind keeps its shape.
func TestCastVoteRoundTrip(t *testing.T) {
	for _, v := range []Vote{ApproveOptions(3, 0, 2), {Kind: VoteDeny}, {Kind: VoteAbstain}, {Kind: VoteVeto}} {
		got, err := DecodeInstruction(EncodeInstruction(CastVote{Vote: v}))
		require.NoError(t, err)
		assert.Equal(t, CastVote{Vote: v}, got)
	}
}

// TestDecodeInstructionRejects checks unknown tags and broken payloads.
func TestDecodeInstructionRejects(t *testing.T) {
	_, err := DecodeInstruction(nil)
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = DecodeInstruction([]byte{250})
	assert.ErrorIs(t, err, ErrUnknownInstruction)

	data := EncodeInstruction(DepositGoverningTokens{Amount: 10})
	_, err = DecodeInstruction(data[:4])
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeInstruction([]byte{uint8(TagSetRealmAuthority), 9})
	assert.ErrorIs(t, err, ErrMalformed)
	_, err = DecodeInstruction([]byte{uint8(TagCastVote), 7})
	assert.ErrorIs(t, err, ErrMalformed)

	// a vec length that cannot fit the input
	_, err = DecodeInstruction([]byte{uint8(TagInsertProposalOptions), 255, 255, 255, 0})
	assert.ErrorIs(t, err, ErrMalformed)
}

// TestTagNames checks every tag has a printable name.
func TestTagNames(t *testing.T) {
	for tag := TagCreateRealm; tag <= TagInsertProposalOptions; tag++ {
		assert.NotEmpty(t, tagNames[tag], "tag %d", tag)
	}
}

// =============================================================================
// States
// =============================================================================

// TestProposalStateOrder checks ranks only grow along the lifecycle.
func TestProposalStateOrder(t *testing.T) {
	path := []ProposalState{ProposalStateDraft, ProposalStateSigningOff, ProposalStateVoting,
		ProposalStateSucceeded, ProposalStateExecuting, ProposalStateCompleted}
	for i := 1; i < len(path); i++ {
		assert.Greater(t, path[i].Rank(), path[i-1].Rank(), "%s after %s", path[i], path[i-1])
	}
	for _, s := range []ProposalState{ProposalStateCompleted, ProposalStateCancelled, ProposalStateDefeated,
		ProposalStateVetoed, ProposalStateExecutingWithErrors} {
		assert.True(t, s.IsTerminal(), s.String())
	}
	for _, s := range []ProposalState{ProposalStateDraft, ProposalStateVoting, ProposalStateSucceeded, ProposalStateExecuting} {
		assert.False(t, s.IsTerminal(), s.String())
	}
}
