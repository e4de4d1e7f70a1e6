package contract

import (
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"realms_dao/contract/dao"
	"realms_dao/sdk"
)

// Version is logged by every instruction and written by UpdateProgramMetadata.
const Version = "3.1.1"

// DefaultDepositBase is charged per active proposal above the exempt count.
const DefaultDepositBase uint64 = 100_000_000

// Config parameterizes one deployment of the program.
type Config struct {
	ProgramID   Address
	DepositBase uint64
	Version     string
}

// Processor is the governance program. It is registered with an sdk.Runtime under
// its program id and handles one instruction per call.
type Processor struct {
	cfg         Config
	logger      *slog.Logger
	ledger      VotingPowerLedger
	voterAddins map[Address]VoterWeightSource
	maxAddins   map[Address]MaxVoterWeightSource
}

func NewProcessor(cfg Config, logger *slog.Logger) *Processor {
	if cfg.Version == "" {
		cfg.Version = Version
	}
	if cfg.DepositBase == 0 {
		cfg.DepositBase = DefaultDepositBase
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		cfg:         cfg,
		logger:      logger.With("program", cfg.ProgramID.String()),
		voterAddins: make(map[Address]VoterWeightSource),
		maxAddins:   make(map[Address]MaxVoterWeightSource),
	}
}

func (p *Processor) ProgramID() Address { return p.cfg.ProgramID }

// Install registers the program with rt.
func (p *Processor) Install(rt *sdk.Runtime) {
	rt.Register(p.cfg.ProgramID, p)
}

// RegisterVoterWeightAddin makes src answer for realms configuring addin id.
func (p *Processor) RegisterVoterWeightAddin(id Address, src VoterWeightSource) {
	p.voterAddins[id] = src
}

func (p *Processor) RegisterMaxVoterWeightAddin(id Address, src MaxVoterWeightSource) {
	p.maxAddins[id] = src
}

// -----------------------------------------------------------------------------
// Dispatch
// -----------------------------------------------------------------------------

// Process decodes one instruction and runs its handler. The runtime discards every
// write of a failed instruction.
func (p *Processor) Process(ctx *sdk.Context, metas []*solana.AccountMeta, data []byte) error {
	ix, err := dao.DecodeInstruction(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstructionData, err)
	}
	ctx.Log("VERSION:" + p.cfg.Version)
	ctx.Log(summarize(ix))

	accs := accountList(metas)
	switch ix := ix.(type) {
	case dao.CreateRealm:
		err = p.createRealm(ctx, accs, ix)
	case dao.DepositGoverningTokens:
		err = p.depositGoverningTokens(ctx, accs, ix)
	case dao.WithdrawGoverningTokens:
		err = p.withdrawGoverningTokens(ctx, accs)
	case dao.SetGovernanceDelegate:
		err = p.setGovernanceDelegate(ctx, accs, ix)
	case dao.CreateGovernance:
		err = p.createGovernance(ctx, accs, dao.GovernanceKindGeneric, ix.Config, false)
	case dao.CreateProgramGovernance:
		err = p.createGovernance(ctx, accs, dao.GovernanceKindProgram, ix.Config, ix.TransferUpgradeAuthority)
	case dao.CreateMintGovernance:
		err = p.createGovernance(ctx, accs, dao.GovernanceKindMint, ix.Config, ix.TransferMintAuthority)
	case dao.CreateTokenGovernance:
		err = p.createGovernance(ctx, accs, dao.GovernanceKindToken, ix.Config, ix.TransferAccountAuthorities)
	case dao.CreateProposal:
		err = p.createProposal(ctx, accs, ix)
	case dao.InsertProposalOptions:
		err = p.insertProposalOptions(ctx, accs, ix)
	case dao.AddSignatory:
		err = p.addSignatory(ctx, accs, ix)
	case dao.RemoveSignatory:
		err = p.removeSignatory(ctx, accs, ix)
	case dao.InsertTransaction:
		err = p.insertTransaction(ctx, accs, ix)
	case dao.RemoveTransaction:
		err = p.removeTransaction(ctx, accs)
	case dao.CancelProposal:
		err = p.cancelProposal(ctx, accs)
	case dao.SignOffProposal:
		err = p.signOffProposal(ctx, accs)
	case dao.CastVote:
		err = p.castVote(ctx, accs, ix)
	case dao.FinalizeVote:
		err = p.finalizeVote(ctx, accs)
	case dao.RelinquishVote:
		err = p.relinquishVote(ctx, accs)
	case dao.ExecuteTransaction:
		err = p.executeTransaction(ctx, accs)
	case dao.SetGovernanceConfig:
		err = p.setGovernanceConfig(ctx, accs, ix)
	case dao.FlagTransactionError:
		err = p.flagTransactionError(ctx, accs)
	case dao.SetRealmAuthority:
		err = p.setRealmAuthority(ctx, accs, ix)
	case dao.SetRealmConfig:
		err = p.setRealmConfig(ctx, accs, ix)
	case dao.CreateTokenOwnerRecord:
		err = p.createTokenOwnerRecord(ctx, accs)
	case dao.UpdateProgramMetadata:
		err = p.updateProgramMetadata(ctx, accs)
	case dao.CreateNativeTreasury:
		err = p.createNativeTreasury(ctx, accs)
	case dao.RevokeGoverningTokens:
		err = p.revokeGoverningTokens(ctx, accs, ix)
	case dao.RefundProposalDeposit:
		err = p.refundProposalDeposit(ctx, accs)
	case dao.CompleteProposal:
		err = p.completeProposal(ctx, accs)
	default:
		err = fmt.Errorf("%w: %s", ErrInvalidInstructionData, ix.Tag())
	}
	if err != nil {
		p.logger.Debug("instruction failed", "ix", ix.Tag().String(), "tx", ctx.Env.TxID, "err", err)
	}
	return err
}

// summarize names the instruction without dumping payloads such as stored transactions.
func summarize(ix dao.Instruction) string {
	switch ix := ix.(type) {
	case dao.InsertTransaction:
		return fmt.Sprintf("GOVERNANCE-INSTRUCTION: InsertTransaction option:%d index:%d hold_up:%d instructions:%d",
			ix.OptionIndex, ix.Index, ix.HoldUpTime, len(ix.Instructions))
	case dao.CreateProposal:
		return fmt.Sprintf("GOVERNANCE-INSTRUCTION: CreateProposal name:%q options:%d %s",
			ix.Name, len(ix.Options), ix.VoteType)
	case dao.CastVote:
		return fmt.Sprintf("GOVERNANCE-INSTRUCTION: CastVote %s", ix.Vote.Kind)
	case dao.DepositGoverningTokens:
		return fmt.Sprintf("GOVERNANCE-INSTRUCTION: DepositGoverningTokens amount:%d", ix.Amount)
	case dao.RevokeGoverningTokens:
		return fmt.Sprintf("GOVERNANCE-INSTRUCTION: RevokeGoverningTokens amount:%d", ix.Amount)
	default:
		return "GOVERNANCE-INSTRUCTION: " + ix.Tag().String()
	}
}

// -----------------------------------------------------------------------------
// Program metadata
// -----------------------------------------------------------------------------

// updateProgramMetadata writes the running version so clients can tell which layout
// the deployment speaks.
// Accounts: [metadata, payer(s)]
func (p *Processor) updateProgramMetadata(ctx *sdk.Context, accs accountList) error {
	if err := accs.need(2, "UpdateProgramMetadata"); err != nil {
		return err
	}
	metaAddr, payer := accs.at(0), accs.at(1)
	pa, err := expect(metaAddr, "program metadata", ctx.ProgramID, seedMetadata)
	if err != nil {
		return err
	}
	md := &dao.ProgramMetadata{UpdatedAt: ctx.Clock().Slot, Version: p.cfg.Version}
	ok, err := exists(ctx, metaAddr)
	if err != nil {
		return err
	}
	if !ok {
		if err := requireSigner(ctx, payer, "payer"); err != nil {
			return err
		}
		err = createRecord(ctx, payer, pa, dao.EncodeProgramMetadata(md), 0)
	} else {
		if _, err := load(ctx, metaAddr, dao.DecodeProgramMetadata); err != nil {
			return err
		}
		err = storeRecord(ctx, metaAddr, dao.EncodeProgramMetadata(md))
	}
	if err != nil {
		return err
	}
	ctx.Log("PROGRAM-VERSION:" + p.cfg.Version)
	return nil
}
