package contract_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realms_dao/contract"
	"realms_dao/contract/dao"
	"realms_dao/sdk"
)

const (
	startTime   int64  = 1_756_857_600 // 2025-09-03T00:00:00Z
	lamportsSOL uint64 = 1_000_000_000
	day         uint32 = 24 * 60 * 60
)

// Harness runs instructions against an in memory ledger with the program installed.
type Harness struct {
	t         *testing.T
	State     *sdk.MemoryState
	Runtime   *sdk.Runtime
	Processor *contract.Processor
	Client    *contract.Client
	ProgramID sdk.Address
	Now       int64
	Slot      uint64
}

// NewHarness sets up a fresh ledger for one test.
func NewHarness(t *testing.T) *Harness {
	t.Helper()
	programID := newAddress(t)
	h := &Harness{
		t:         t,
		State:     sdk.NewMemoryState(""),
		Runtime:   sdk.NewRuntime(nil),
		Processor: contract.NewProcessor(contract.Config{ProgramID: programID}, nil),
		Client:    contract.NewClient(programID),
		ProgramID: programID,
		Now:       startTime,
	}
	h.Processor.Install(h.Runtime)
	return h
}

func newAddress(t *testing.T) sdk.Address {
	t.Helper()
	kp, err := sdk.NewKeypair()
	require.NoError(t, err)
	return kp.PublicKey()
}

// Wallet creates a system account holding lamports.
func (h *Harness) Wallet(lamports uint64) sdk.Address {
	h.t.Helper()
	a := newAddress(h.t)
	require.NoError(h.t, sdk.Airdrop(h.State, a, lamports))
	return a
}

// Warp moves the ledger clock forward.
func (h *Harness) Warp(seconds uint32) {
	h.Now += int64(seconds)
}

// Call executes the instructions as one transaction and asserts the outcome.
func (h *Harness) Call(expectedResult bool, signers []sdk.Address, ixs ...sdk.Instruction) *sdk.Receipt {
	h.t.Helper()
	h.Slot++
	env := sdk.Env{
		TxID:    fmt.Sprintf("tx-%d", h.Slot),
		Signers: signers,
		Clock:   sdk.Clock{Slot: h.Slot, UnixTimestamp: h.Now},
	}
	receipt, err := h.Runtime.Execute(context.Background(), h.State, env, ixs...)
	for _, line := range receipt.Logs {
		fmt.Println(line)
	}
	if expectedResult {
		require.NoError(h.t, err, "transaction %s", env.TxID)
	} else {
		require.Error(h.t, err, "transaction %s should have failed", env.TxID)
	}
	return receipt
}

// CallErr expects the transaction to fail with target.
func (h *Harness) CallErr(target error, signers []sdk.Address, ixs ...sdk.Instruction) {
	h.t.Helper()
	receipt := h.Call(false, signers, ixs...)
	assert.ErrorIs(h.t, receipt.Err, target)
}

func (h *Harness) Lamports(a sdk.Address) uint64 {
	h.t.Helper()
	acc, err := sdk.ReadAccount(h.State, a)
	if err != nil {
		return 0
	}
	return acc.Lamports
}

func (h *Harness) Exists(a sdk.Address) bool {
	h.t.Helper()
	ok, err := sdk.AccountExists(h.State, a)
	require.NoError(h.t, err)
	return ok
}

func (h *Harness) TokenBalance(account sdk.Address) uint64 {
	h.t.Helper()
	ta, err := sdk.LoadTokenAccount(h.State, account)
	require.NoError(h.t, err)
	return ta.Amount
}

func (h *Harness) Proposal(addr sdk.Address) *dao.Proposal {
	h.t.Helper()
	p, err := contract.ReadRecord(h.State, h.ProgramID, addr, dao.DecodeProposal)
	require.NoError(h.t, err)
	return p
}

func (h *Harness) GovernanceRecord(addr sdk.Address) *dao.Governance {
	h.t.Helper()
	g, err := contract.ReadRecord(h.State, h.ProgramID, addr, dao.DecodeGovernance)
	require.NoError(h.t, err)
	return g
}

func (h *Harness) Record(addr sdk.Address) *dao.TokenOwnerRecord {
	h.t.Helper()
	r, err := contract.ReadRecord(h.State, h.ProgramID, addr, dao.DecodeTokenOwnerRecord)
	require.NoError(h.t, err)
	return r
}

func (h *Harness) Transaction(addr sdk.Address) *dao.ProposalTransaction {
	h.t.Helper()
	tx, err := contract.ReadRecord(h.State, h.ProgramID, addr, dao.DecodeProposalTransaction)
	require.NoError(h.t, err)
	return tx
}

// CheckInvariants asserts the cross record invariants still hold.
func (h *Harness) CheckInvariants() {
	h.t.Helper()
	assert.NoError(h.t, contract.CheckInvariants(h.State, h.ProgramID))
}

// =============================================================================
// DAO fixture
// =============================================================================

// Member is a wallet with community tokens and optionally a council seat.
type Member struct {
	Wallet         sdk.Address
	CommunityToken sdk.Address
	CouncilToken   sdk.Address
}

// DAO is a realm with a community and a council mint, three depositing members and
// one generic governance with a funded native treasury.
type DAO struct {
	*Harness
	MintAuthority  sdk.Address
	RealmAuthority sdk.Address
	CommunityMint  sdk.Address
	CouncilMint    sdk.Address
	Realm          sdk.Address
	Governed       sdk.Address
	Governance     sdk.Address
	Treasury       sdk.Address

	Alice, Bob, Carol Member
}

// defaultConfig needs 60% yes of the electorate and lets the council veto community
// proposals at 60%.
func defaultConfig() dao.GovernanceConfig {
	return dao.GovernanceConfig{
		CommunityVoteThreshold:             dao.YesVotePercentage(60),
		CouncilVoteThreshold:               dao.YesVotePercentage(60),
		CommunityVetoVoteThreshold:         dao.DisabledThreshold(),
		CouncilVetoVoteThreshold:           dao.YesVotePercentage(60),
		MinCommunityWeightToCreateProposal: 1,
		MinCouncilWeightToCreateProposal:   1,
		VotingBaseTime:                     3 * day,
		VoteTipping:                        dao.VoteTippingStrict,
	}
}

// SetupDAO builds the fixture: alice 100, bob 60 and carol 40 community tokens,
// alice and bob each hold one council token.
func SetupDAO(t *testing.T, cfg dao.GovernanceConfig) *DAO {
	t.Helper()
	return SetupDAOWith(t, cfg, 100, 60, 40)
}

// SetupDAOWith is SetupDAO with the community deposits of alice, bob and carol given.
// The community max vote weight is their sum.
func SetupDAOWith(t *testing.T, cfg dao.GovernanceConfig, alice, bob, carol uint64) *DAO {
	t.Helper()
	h := NewHarness(t)
	d := &DAO{
		Harness:        h,
		MintAuthority:  h.Wallet(10 * lamportsSOL),
		RealmAuthority: h.Wallet(10 * lamportsSOL),
		CommunityMint:  newAddress(t),
		CouncilMint:    newAddress(t),
		Governed:       newAddress(t),
	}
	require.NoError(t, sdk.CreateMint(h.State, d.CommunityMint, d.MintAuthority, 6))
	require.NoError(t, sdk.CreateMint(h.State, d.CouncilMint, d.MintAuthority, 0))

	d.Alice = d.newMember(alice, 1)
	d.Bob = d.newMember(bob, 1)
	d.Carol = d.newMember(carol, 0)

	d.Realm = contract.RealmAddress(h.ProgramID, "Test DAO")
	h.Call(true, []sdk.Address{d.RealmAuthority},
		h.Client.CreateRealm("Test DAO", d.RealmAuthority, d.CommunityMint, d.RealmAuthority, &d.CouncilMint,
			dao.RealmConfigArgs{
				MinCommunityWeightToCreateGovernance: 1,
				CommunityMintMaxVoterWeightSource:    dao.FullSupplyFraction(),
			}))

	d.Deposit(d.Alice, false, alice)
	d.Deposit(d.Bob, false, bob)
	d.Deposit(d.Carol, false, carol)
	d.Deposit(d.Alice, true, 1)
	d.Deposit(d.Bob, true, 1)

	d.Governance = contract.GovernanceAddress(h.ProgramID, d.Realm, d.Governed)
	d.Treasury = contract.NativeTreasuryAddress(h.ProgramID, d.Governance)
	h.Call(true, []sdk.Address{d.Alice.Wallet},
		h.Client.CreateGovernance(d.Realm, d.Governed, d.RecordOf(d.Alice, false), d.Alice.Wallet, d.Alice.Wallet, cfg),
		h.Client.CreateNativeTreasury(d.Governance, d.Alice.Wallet),
	)
	require.NoError(t, sdk.Airdrop(h.State, d.Treasury, 5*lamportsSOL))
	return d
}

func (d *DAO) newMember(community, council uint64) Member {
	d.t.Helper()
	m := Member{
		Wallet:         d.Wallet(10 * lamportsSOL),
		CommunityToken: newAddress(d.t),
		CouncilToken:   newAddress(d.t),
	}
	require.NoError(d.t, sdk.CreateTokenAccount(d.State, m.CommunityToken, d.CommunityMint, m.Wallet))
	require.NoError(d.t, sdk.CreateTokenAccount(d.State, m.CouncilToken, d.CouncilMint, m.Wallet))
	require.NoError(d.t, sdk.MintTokens(d.State, d.CommunityMint, m.CommunityToken, community))
	if council > 0 {
		require.NoError(d.t, sdk.MintTokens(d.State, d.CouncilMint, m.CouncilToken, council))
	}
	return m
}

func (d *DAO) mint(council bool) sdk.Address {
	if council {
		return d.CouncilMint
	}
	return d.CommunityMint
}

// RecordOf is the token owner record of m for the community or council mint.
func (d *DAO) RecordOf(m Member, council bool) sdk.Address {
	return contract.TokenOwnerRecordAddress(d.ProgramID, d.Realm, d.mint(council), m.Wallet)
}

func (d *DAO) Deposit(m Member, council bool, amount uint64) {
	d.t.Helper()
	source := m.CommunityToken
	if council {
		source = m.CouncilToken
	}
	d.Call(true, []sdk.Address{m.Wallet},
		d.Client.DepositGoverningTokens(d.Realm, d.mint(council), source, m.Wallet, m.Wallet, m.Wallet, amount))
}

// Propose opens a draft owned by m's community record.
func (d *DAO) Propose(m Member, name string, voteType dao.VoteType, options ...string) sdk.Address {
	d.t.Helper()
	return d.ProposeWith(m, false, contract.ProposalArgs{
		Name:            name,
		DescriptionLink: "https://example.org/" + name,
		VoteType:        voteType,
		Options:         options,
		UseDenyOption:   true,
	})
}

func (d *DAO) ProposeWith(m Member, council bool, args contract.ProposalArgs) sdk.Address {
	d.t.Helper()
	args.Seed = newAddress(d.t)
	ix, proposal := d.Client.CreateProposal(d.Realm, d.Governance, d.RecordOf(m, council), d.mint(council),
		m.Wallet, m.Wallet, args)
	d.Call(true, []sdk.Address{m.Wallet}, ix)
	return proposal
}

// SignOff opens voting on a proposal without signatories.
func (d *DAO) SignOff(m Member, proposal sdk.Address) {
	d.t.Helper()
	owner := d.Proposal(proposal).TokenOwnerRecord
	d.Call(true, []sdk.Address{m.Wallet}, d.Client.SignOffProposal(d.Realm, d.Governance, proposal, m.Wallet, &owner))
}

func (d *DAO) voteIx(m Member, proposal sdk.Address, vote dao.Vote) sdk.Instruction {
	p := d.Proposal(proposal)
	council := p.GoverningMint.Equals(d.CouncilMint)
	if vote.Kind == dao.VoteVeto {
		council = !council
	}
	return d.Client.CastVote(d.Realm, d.Governance, proposal, p.TokenOwnerRecord, d.RecordOf(m, council),
		m.Wallet, d.mint(council), m.Wallet, vote)
}

func (d *DAO) Vote(m Member, proposal sdk.Address, vote dao.Vote) {
	d.t.Helper()
	d.Call(true, []sdk.Address{m.Wallet}, d.voteIx(m, proposal, vote))
}

func (d *DAO) Finalize(proposal sdk.Address) {
	d.t.Helper()
	p := d.Proposal(proposal)
	d.Call(true, nil, d.Client.FinalizeVote(d.Realm, d.Governance, proposal, p.TokenOwnerRecord, p.GoverningMint))
}

// InsertTransfer stores a treasury payout on option of a draft owned by m.
func (d *DAO) InsertTransfer(m Member, proposal sdk.Address, option uint8, index uint16, holdUp uint32,
	to sdk.Address, lamports uint64) sdk.Address {
	d.t.Helper()
	d.Call(true, []sdk.Address{m.Wallet}, d.Client.InsertTransaction(d.Governance, proposal, d.RecordOf(m, false),
		m.Wallet, m.Wallet, option, index, holdUp, sdk.NewTransferInstruction(d.Treasury, to, lamports)))
	return contract.ProposalTransactionAddress(d.ProgramID, proposal, option, index)
}

func (d *DAO) executeIx(tx sdk.Address) sdk.Instruction {
	stored := d.Transaction(tx)
	return d.Client.ExecuteTransaction(d.Governance, stored.Proposal, tx, stored.Instructions)
}

func (d *DAO) Execute(tx sdk.Address) {
	d.t.Helper()
	d.Call(true, nil, d.executeIx(tx))
}
