package contract

import (
	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"

	"realms_dao/contract/dao"
	"realms_dao/sdk"
)

// Client builds instructions for one deployment of the program, deriving every
// program address the accounts list needs.
type Client struct {
	ProgramID Address
}

func NewClient(programID Address) *Client {
	return &Client{ProgramID: programID}
}

func ro(a Address) *solana.AccountMeta     { return solana.NewAccountMeta(a, false, false) }
func rw(a Address) *solana.AccountMeta     { return solana.NewAccountMeta(a, true, false) }
func signer(a Address) *solana.AccountMeta { return solana.NewAccountMeta(a, false, true) }
func payerMeta(a Address) *solana.AccountMeta {
	return solana.NewAccountMeta(a, true, true)
}

func (c *Client) build(ix dao.Instruction, metas ...*solana.AccountMeta) sdk.Instruction {
	return sdk.Instruction{
		ProgramID: c.ProgramID,
		Accounts:  metas,
		Data:      dao.EncodeInstruction(ix),
	}
}

// InstructionDataOf stores a runtime instruction on a proposal.
func InstructionDataOf(ix sdk.Instruction) dao.InstructionData {
	return dao.InstructionData{
		ProgramID: ix.ProgramID,
		Accounts: lo.Map(ix.Accounts, func(m *solana.AccountMeta, _ int) dao.AccountMetaData {
			return dao.AccountMetaData{Pubkey: m.PublicKey, IsSigner: m.IsSigner, IsWritable: m.IsWritable}
		}),
		Data: ix.Data,
	}
}

// -----------------------------------------------------------------------------
// Realm and tokens
// -----------------------------------------------------------------------------

// CreateRealm needs councilMint exactly when args.UseCouncilMint is set.
func (c *Client) CreateRealm(name string, authority, communityMint, payer Address, councilMint *Address,
	args dao.RealmConfigArgs) sdk.Instruction {
	realm := RealmAddress(c.ProgramID, name)
	metas := []*solana.AccountMeta{
		rw(realm),
		ro(authority),
		ro(communityMint),
		rw(HoldingAddress(c.ProgramID, realm, communityMint)),
		payerMeta(payer),
		rw(RealmConfigAddress(c.ProgramID, realm)),
	}
	if councilMint != nil {
		args.UseCouncilMint = true
		metas = append(metas, ro(*councilMint), rw(HoldingAddress(c.ProgramID, realm, *councilMint)))
	}
	return c.build(dao.CreateRealm{Name: name, Config: args}, metas...)
}

func (c *Client) SetRealmAuthority(realm, authority Address, next *Address, action dao.SetRealmAuthorityAction) sdk.Instruction {
	metas := []*solana.AccountMeta{rw(realm), signer(authority)}
	if next != nil {
		metas = append(metas, ro(*next))
	}
	return c.build(dao.SetRealmAuthority{Action: action}, metas...)
}

func (c *Client) SetRealmConfig(realm, authority, payer Address, args dao.RealmConfigArgs) sdk.Instruction {
	return c.build(dao.SetRealmConfig{Config: args},
		rw(realm),
		signer(authority),
		rw(RealmConfigAddress(c.ProgramID, realm)),
		payerMeta(payer),
	)
}

func (c *Client) CreateTokenOwnerRecord(realm, owner, mint, payer Address) sdk.Instruction {
	return c.build(dao.CreateTokenOwnerRecord{},
		ro(realm),
		ro(owner),
		rw(TokenOwnerRecordAddress(c.ProgramID, realm, mint, owner)),
		ro(mint),
		payerMeta(payer),
	)
}

// DepositGoverningTokens moves amount from source, a token account sourceAuthority controls.
func (c *Client) DepositGoverningTokens(realm, mint, source, owner, sourceAuthority, payer Address, amount uint64) sdk.Instruction {
	return c.build(dao.DepositGoverningTokens{Amount: amount},
		ro(realm),
		rw(HoldingAddress(c.ProgramID, realm, mint)),
		rw(source),
		signer(owner),
		signer(sourceAuthority),
		rw(TokenOwnerRecordAddress(c.ProgramID, realm, mint, owner)),
		payerMeta(payer),
		ro(mint),
		ro(RealmConfigAddress(c.ProgramID, realm)),
	)
}

func (c *Client) WithdrawGoverningTokens(realm, mint, destination, owner Address) sdk.Instruction {
	return c.build(dao.WithdrawGoverningTokens{},
		ro(realm),
		rw(HoldingAddress(c.ProgramID, realm, mint)),
		rw(destination),
		signer(owner),
		rw(TokenOwnerRecordAddress(c.ProgramID, realm, mint, owner)),
		ro(mint),
		ro(RealmConfigAddress(c.ProgramID, realm)),
	)
}

func (c *Client) RevokeGoverningTokens(realm, mint, owner, authority Address, amount uint64) sdk.Instruction {
	return c.build(dao.RevokeGoverningTokens{Amount: amount},
		ro(realm),
		rw(HoldingAddress(c.ProgramID, realm, mint)),
		rw(TokenOwnerRecordAddress(c.ProgramID, realm, mint, owner)),
		rw(mint),
		signer(authority),
		ro(RealmConfigAddress(c.ProgramID, realm)),
	)
}

func (c *Client) SetGovernanceDelegate(record, authority Address, delegate *Address) sdk.Instruction {
	return c.build(dao.SetGovernanceDelegate{NewDelegate: delegate}, signer(authority), rw(record))
}

// -----------------------------------------------------------------------------
// Governances
// -----------------------------------------------------------------------------

func (c *Client) governanceMetas(realm, governed, record, payer, authority Address) []*solana.AccountMeta {
	return []*solana.AccountMeta{
		ro(realm),
		rw(GovernanceAddress(c.ProgramID, realm, governed)),
		rw(governed),
		ro(record),
		payerMeta(payer),
		signer(authority),
		ro(RealmConfigAddress(c.ProgramID, realm)),
	}
}

// CreateGovernance creates a generic governance. governed only seeds its address.
func (c *Client) CreateGovernance(realm, governed, record, payer, authority Address, cfg dao.GovernanceConfig) sdk.Instruction {
	return c.build(dao.CreateGovernance{Config: cfg}, c.governanceMetas(realm, governed, record, payer, authority)...)
}

func (c *Client) CreateProgramGovernance(realm, program, upgradeAuthority, record, payer, authority Address,
	cfg dao.GovernanceConfig, transfer bool) sdk.Instruction {
	metas := append(c.governanceMetas(realm, program, record, payer, authority), signer(upgradeAuthority))
	return c.build(dao.CreateProgramGovernance{Config: cfg, TransferUpgradeAuthority: transfer}, metas...)
}

func (c *Client) CreateMintGovernance(realm, mint, mintAuthority, record, payer, authority Address,
	cfg dao.GovernanceConfig, transfer bool) sdk.Instruction {
	metas := append(c.governanceMetas(realm, mint, record, payer, authority), signer(mintAuthority))
	return c.build(dao.CreateMintGovernance{Config: cfg, TransferMintAuthority: transfer}, metas...)
}

func (c *Client) CreateTokenGovernance(realm, account, accountOwner, record, payer, authority Address,
	cfg dao.GovernanceConfig, transfer bool) sdk.Instruction {
	metas := append(c.governanceMetas(realm, account, record, payer, authority), signer(accountOwner))
	return c.build(dao.CreateTokenGovernance{Config: cfg, TransferAccountAuthorities: transfer}, metas...)
}

// SetGovernanceConfig is only useful stored in a proposal transaction, where the
// governance signs.
func (c *Client) SetGovernanceConfig(governance Address, cfg dao.GovernanceConfig) sdk.Instruction {
	return c.build(dao.SetGovernanceConfig{Config: cfg}, solana.NewAccountMeta(governance, true, true))
}

func (c *Client) CreateNativeTreasury(governance, payer Address) sdk.Instruction {
	return c.build(dao.CreateNativeTreasury{},
		ro(governance),
		rw(NativeTreasuryAddress(c.ProgramID, governance)),
		payerMeta(payer),
	)
}

// -----------------------------------------------------------------------------
// Proposals
// -----------------------------------------------------------------------------

// ProposalArgs is what a proposer chooses when opening a proposal.
type ProposalArgs struct {
	Name            string
	DescriptionLink string
	VoteType        dao.VoteType
	Options         []string
	UseDenyOption   bool
	Seed            Address
}

// CreateProposal also returns the address the proposal will live at.
func (c *Client) CreateProposal(realm, governance, record, mint, authority, payer Address, args ProposalArgs) (sdk.Instruction, Address) {
	proposal := ProposalAddress(c.ProgramID, governance, mint, args.Seed)
	ix := c.build(dao.CreateProposal{
		Name:            args.Name,
		DescriptionLink: args.DescriptionLink,
		VoteType:        args.VoteType,
		Options:         args.Options,
		UseDenyOption:   args.UseDenyOption,
		ProposalSeed:    args.Seed,
	},
		ro(realm),
		rw(proposal),
		rw(governance),
		rw(record),
		ro(mint),
		signer(authority),
		payerMeta(payer),
		ro(RealmConfigAddress(c.ProgramID, realm)),
		rw(ProposalDepositAddress(c.ProgramID, proposal, payer)),
	)
	return ix, proposal
}

func (c *Client) InsertProposalOptions(governance, proposal, record, authority Address, options ...string) sdk.Instruction {
	return c.build(dao.InsertProposalOptions{Options: options},
		ro(governance), rw(proposal), ro(record), signer(authority))
}

func (c *Client) AddSignatory(governance, proposal, record, authority, payer, signatory Address) sdk.Instruction {
	return c.build(dao.AddSignatory{Signatory: signatory},
		ro(governance),
		rw(proposal),
		rw(SignatoryRecordAddress(c.ProgramID, proposal, signatory)),
		ro(record),
		signer(authority),
		payerMeta(payer),
	)
}

func (c *Client) RemoveSignatory(proposal, record, authority, signatory, beneficiary Address) sdk.Instruction {
	return c.build(dao.RemoveSignatory{Signatory: signatory},
		rw(proposal),
		ro(record),
		signer(authority),
		rw(SignatoryRecordAddress(c.ProgramID, proposal, signatory)),
		rw(beneficiary),
	)
}

// SignOffProposal signs as an added signatory, or as the owner when ownerRecord is
// given and the proposal has no signatories.
func (c *Client) SignOffProposal(realm, governance, proposal, signatory Address, ownerRecord *Address) sdk.Instruction {
	record := SignatoryRecordAddress(c.ProgramID, proposal, signatory)
	if ownerRecord != nil {
		record = *ownerRecord
	}
	return c.build(dao.SignOffProposal{},
		ro(realm),
		ro(governance),
		rw(proposal),
		signer(signatory),
		rw(record),
		ro(RealmConfigAddress(c.ProgramID, realm)),
	)
}

func (c *Client) CancelProposal(realm, governance, proposal, record, authority Address) sdk.Instruction {
	return c.build(dao.CancelProposal{},
		ro(realm), rw(governance), rw(proposal), rw(record), signer(authority))
}

func (c *Client) CompleteProposal(proposal, record, authority Address) sdk.Instruction {
	return c.build(dao.CompleteProposal{}, rw(proposal), ro(record), signer(authority))
}

func (c *Client) RefundProposalDeposit(proposal, payer Address) sdk.Instruction {
	return c.build(dao.RefundProposalDeposit{},
		ro(proposal),
		rw(ProposalDepositAddress(c.ProgramID, proposal, payer)),
		rw(payer),
	)
}

// -----------------------------------------------------------------------------
// Votes
// -----------------------------------------------------------------------------

func (c *Client) CastVote(realm, governance, proposal, ownerRecord, voterRecord, authority, voteMint, payer Address,
	vote dao.Vote) sdk.Instruction {
	return c.build(dao.CastVote{Vote: vote},
		ro(realm),
		rw(governance),
		rw(proposal),
		rw(ownerRecord),
		rw(voterRecord),
		signer(authority),
		rw(VoteRecordAddress(c.ProgramID, proposal, voterRecord)),
		ro(voteMint),
		payerMeta(payer),
		ro(RealmConfigAddress(c.ProgramID, realm)),
	)
}

func (c *Client) FinalizeVote(realm, governance, proposal, ownerRecord, mint Address) sdk.Instruction {
	return c.build(dao.FinalizeVote{},
		ro(realm),
		rw(governance),
		rw(proposal),
		rw(ownerRecord),
		ro(mint),
		ro(RealmConfigAddress(c.ProgramID, realm)),
	)
}

// RelinquishVote needs authority and beneficiary only while the vote is still open.
func (c *Client) RelinquishVote(realm, governance, proposal, record, mint Address, authority, beneficiary *Address) sdk.Instruction {
	metas := []*solana.AccountMeta{
		ro(realm),
		ro(governance),
		rw(proposal),
		rw(record),
		rw(VoteRecordAddress(c.ProgramID, proposal, record)),
		ro(mint),
	}
	if authority != nil && beneficiary != nil {
		metas = append(metas, signer(*authority), rw(*beneficiary))
	}
	return c.build(dao.RelinquishVote{}, metas...)
}

// -----------------------------------------------------------------------------
// Transactions
// -----------------------------------------------------------------------------

func (c *Client) InsertTransaction(governance, proposal, record, authority, payer Address,
	option uint8, index uint16, holdUp uint32, ixs ...sdk.Instruction) sdk.Instruction {
	return c.build(dao.InsertTransaction{
		OptionIndex:  option,
		Index:        index,
		HoldUpTime:   holdUp,
		Instructions: lo.Map(ixs, func(ix sdk.Instruction, _ int) dao.InstructionData { return InstructionDataOf(ix) }),
	},
		ro(governance),
		rw(proposal),
		ro(record),
		signer(authority),
		rw(ProposalTransactionAddress(c.ProgramID, proposal, option, index)),
		payerMeta(payer),
	)
}

func (c *Client) RemoveTransaction(proposal, record, authority, tx, beneficiary Address) sdk.Instruction {
	return c.build(dao.RemoveTransaction{},
		rw(proposal), ro(record), signer(authority), rw(tx), rw(beneficiary))
}

// ExecuteTransaction lists the accounts of the stored instructions after the fixed
// ones. Signatures come from the governance, so none are requested here.
func (c *Client) ExecuteTransaction(governance, proposal, tx Address, stored []dao.InstructionData) sdk.Instruction {
	metas := []*solana.AccountMeta{ro(governance), rw(proposal), rw(tx)}
	for _, d := range stored {
		metas = append(metas, ro(d.ProgramID))
		for _, a := range d.Accounts {
			metas = append(metas, solana.NewAccountMeta(a.Pubkey, a.IsWritable, false))
		}
	}
	return c.build(dao.ExecuteTransaction{}, metas...)
}

func (c *Client) FlagTransactionError(proposal, record, authority, tx Address) sdk.Instruction {
	return c.build(dao.FlagTransactionError{}, rw(proposal), ro(record), signer(authority), rw(tx))
}

func (c *Client) UpdateProgramMetadata(payer Address) sdk.Instruction {
	return c.build(dao.UpdateProgramMetadata{},
		rw(ProgramMetadataAddress(c.ProgramID)),
		payerMeta(payer),
	)
}
