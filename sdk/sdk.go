package sdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"
)

// MaxInvokeDepth bounds nested program invocations.
const MaxInvokeDepth = 4

// RentExemptMinimum is what a bare system account needs to stay alive.
const RentExemptMinimum uint64 = 890_880

// MinimumBalance is the rent exempt balance for an account carrying size data bytes.
func MinimumBalance(size int) uint64 {
	return RentExemptMinimum + uint64(size)*6_960
}

// Instruction is one call into a program with the accounts it may touch.
type Instruction struct {
	ProgramID Address
	Accounts  []*solana.AccountMeta
	Data      []byte
}

// Program is anything the runtime can dispatch instructions to.
type Program interface {
	Process(ctx *Context, accounts []*solana.AccountMeta, data []byte) error
}

// ProgramFunc adapts a plain function into a Program.
type ProgramFunc func(ctx *Context, accounts []*solana.AccountMeta, data []byte) error

func (f ProgramFunc) Process(ctx *Context, accounts []*solana.AccountMeta, data []byte) error {
	return f(ctx, accounts, data)
}

// Runtime owns the program registry and runs transactions one at a time.
type Runtime struct {
	programs map[Address]Program
	logger   *slog.Logger
}

// NewRuntime registers the built in system, token and loader programs.
func NewRuntime(logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runtime{
		programs: make(map[Address]Program),
		logger:   logger,
	}
	r.Register(SystemProgramID, ProgramFunc(processSystem))
	r.Register(TokenProgramID, ProgramFunc(processToken))
	r.Register(LoaderProgramID, ProgramFunc(processLoader))
	return r
}

func (r *Runtime) Register(id Address, p Program) {
	r.programs[id] = p
}

// Receipt is what a transaction leaves behind besides state.
type Receipt struct {
	TxID string
	Logs []string
	Err  error
}

// Execute runs the instructions in order against an overlay and commits only if all
// of them succeed. Logs are returned either way.
func (r *Runtime) Execute(ctx context.Context, state State, env Env, ixs ...Instruction) (*Receipt, error) {
	overlay := NewOverlay(state)
	receipt := &Receipt{TxID: env.TxID}
	for i, ix := range ixs {
		c := &Context{
			ctx:     ctx,
			State:   overlay,
			Env:     env,
			runtime: r,
			receipt: receipt,
		}
		if err := c.dispatch(ix, nil); err != nil {
			overlay.Discard()
			receipt.Err = fmt.Errorf("instruction %d: %w", i, err)
			r.logger.Debug("transaction failed", "tx", env.TxID, "err", receipt.Err)
			return receipt, receipt.Err
		}
	}
	if err := overlay.Commit(); err != nil {
		receipt.Err = fmt.Errorf("commit: %w", err)
		return receipt, receipt.Err
	}
	return receipt, nil
}

// Context is handed to a program while it processes one instruction.
type Context struct {
	ctx       context.Context
	State     State
	Env       Env
	ProgramID Address
	runtime   *Runtime
	receipt   *Receipt
	signers   []Address
	depth     int
}

// Context returns the caller's context.Context.
func (c *Context) Context() context.Context { return c.ctx }

func (c *Context) Clock() Clock { return c.Env.Clock }

// Log appends a program log line to the receipt and the runtime logger.
func (c *Context) Log(msg string) {
	line := "Program log: " + msg
	c.receipt.Logs = append(c.receipt.Logs, line)
	c.runtime.logger.Debug(msg, "program", c.ProgramID.String(), "depth", c.depth)
}

// IsSigner reports whether the address signed the current instruction, either as a
// transaction signer or as a program address vouched for by the caller.
func (c *Context) IsSigner(a Address) bool {
	return lo.ContainsBy(c.signers, func(s Address) bool { return s.Equals(a) })
}

// dispatch verifies the signer claims of ix against what the caller can vouch for
// and runs the target program.
func (c *Context) dispatch(ix Instruction, pdaSigners []Address) error {
	prog, ok := c.runtime.programs[ix.ProgramID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProgram, ix.ProgramID)
	}
	allowed := append([]Address{}, c.Env.Signers...)
	allowed = append(allowed, c.signers...)
	allowed = append(allowed, pdaSigners...)

	signers := make([]Address, 0)
	for _, m := range ix.Accounts {
		if !m.IsSigner {
			continue
		}
		if !lo.ContainsBy(allowed, func(s Address) bool { return s.Equals(m.PublicKey) }) {
			return fmt.Errorf("%w: %s", ErrMissingSignature, m.PublicKey)
		}
		signers = append(signers, m.PublicKey)
	}
	child := &Context{
		ctx:       c.ctx,
		State:     c.State,
		Env:       c.Env,
		ProgramID: ix.ProgramID,
		runtime:   c.runtime,
		receipt:   c.receipt,
		signers:   signers,
		depth:     c.depth + 1,
	}
	return prog.Process(child, ix.Accounts, ix.Data)
}

// Invoke calls another program. Its writes land in a child overlay that is merged
// only when the callee succeeds, so a failed call leaves no trace.
// signerSeeds are seed sets (bump included) of addresses the calling program signs for.
func (c *Context) Invoke(ix Instruction, signerSeeds ...[][]byte) error {
	if c.depth >= MaxInvokeDepth {
		return ErrCallDepthExceeded
	}
	pdas := make([]Address, 0, len(signerSeeds))
	for _, seeds := range signerSeeds {
		pda, err := CreateAddress(seeds, c.ProgramID)
		if err != nil {
			return fmt.Errorf("invalid signer seeds: %w", err)
		}
		pdas = append(pdas, pda)
	}
	overlay := NewOverlay(c.State)
	scoped := *c
	scoped.State = overlay
	if err := scoped.dispatch(ix, pdas); err != nil {
		overlay.Discard()
		return err
	}
	return overlay.Commit()
}

// InvokeGroup runs several instructions as one unit: either all of their writes land
// or none do.
func (c *Context) InvokeGroup(ixs []Instruction, signerSeeds ...[][]byte) error {
	overlay := NewOverlay(c.State)
	scoped := *c
	scoped.State = overlay
	for i, ix := range ixs {
		if err := scoped.Invoke(ix, signerSeeds...); err != nil {
			overlay.Discard()
			return fmt.Errorf("instruction %d: %w", i, err)
		}
	}
	return overlay.Commit()
}

// LoadAccount reads an account through the current overlay.
func (c *Context) LoadAccount(a Address) (*Account, error) {
	return ReadAccount(c.State, a)
}

// StoreAccount writes an account. Only the owning program may write data, and a new
// account may only be created owned by the caller.
func (c *Context) StoreAccount(a Address, acc *Account) error {
	existing, err := c.LoadAccount(a)
	if err == nil && !existing.Owner.Equals(c.ProgramID) {
		return fmt.Errorf("%w: %s", ErrIllegalOwner, a)
	}
	if err != nil && !isNotFound(err) {
		return err
	}
	if !acc.Owner.Equals(c.ProgramID) {
		return fmt.Errorf("%w: %s", ErrIllegalOwner, a)
	}
	return WriteAccount(c.State, a, acc)
}

// MoveLamports debits an account owned by the caller and credits any account.
func (c *Context) MoveLamports(from, to Address, amount uint64) error {
	src, err := c.LoadAccount(from)
	if err != nil {
		return err
	}
	if !src.Owner.Equals(c.ProgramID) {
		return fmt.Errorf("%w: %s", ErrIllegalOwner, from)
	}
	return moveLamports(c.State, from, src, to, amount)
}

// CloseAccount moves every lamport of an owned account to the beneficiary and removes it.
func (c *Context) CloseAccount(a, beneficiary Address) error {
	acc, err := c.LoadAccount(a)
	if err != nil {
		return err
	}
	if !acc.Owner.Equals(c.ProgramID) {
		return fmt.Errorf("%w: %s", ErrIllegalOwner, a)
	}
	if acc.Lamports > 0 {
		if err := moveLamports(c.State, a, acc, beneficiary, acc.Lamports); err != nil {
			return err
		}
	}
	return c.State.Delete(AccountKey(a))
}

func moveLamports(s State, from Address, src *Account, to Address, amount uint64) error {
	if src.Lamports < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, from, src.Lamports, amount)
	}
	if from.Equals(to) {
		return nil
	}
	src.Lamports -= amount
	dst, err := ReadAccount(s, to)
	if err != nil {
		if !isNotFound(err) {
			return err
		}
		dst = &Account{Owner: SystemProgramID}
	}
	dst.Lamports += amount
	if err := WriteAccount(s, from, src); err != nil {
		return err
	}
	return WriteAccount(s, to, dst)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}
