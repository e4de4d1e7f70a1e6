package node

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/wire"
	"github.com/mr-tron/base58"

	"realms_dao/contract"
	"realms_dao/internal/config"
	"realms_dao/sdk"
	"realms_dao/storage"
)

// meta keys live outside the 0x01 account prefix so listings never see them.
const (
	slotKey = "\x02slot"
	warpKey = "\x02warp"
)

// Store is what the node needs from a backend: raw state plus prefix listings.
type Store interface {
	sdk.State
	sdk.Scanner
}

// OpenStore opens the SQLite database at cfg.DBPath. A path ending in .json gets a
// MemoryState snapshotting to that file instead.
func OpenStore(cfg *config.RuntimeConfig) (Store, func(), error) {
	if strings.HasSuffix(cfg.DBPath, ".json") {
		mem := sdk.NewMemoryState(cfg.DBPath)
		if err := mem.LoadFromFile(); err != nil {
			return nil, nil, fmt.Errorf("load %s: %w", cfg.DBPath, err)
		}
		return mem, func() {}, nil
	}
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = db.Close() }, nil
}

// Node is a local single writer ledger: one store, one runtime with the governance
// program installed, and a clock that advances one slot per submitted transaction.
type Node struct {
	cfg     *config.RuntimeConfig
	store   Store
	runtime *sdk.Runtime
	program *contract.Processor
	client  *contract.Client
	logger  *slog.Logger
	now     func() time.Time
}

func NewNode(cfg *config.RuntimeConfig, store Store, logger *slog.Logger) *Node {
	program := contract.NewProcessor(contract.Config{
		ProgramID:   cfg.ProgramID,
		DepositBase: cfg.DepositBase,
	}, logger)
	rt := sdk.NewRuntime(logger)
	program.Install(rt)
	return &Node{
		cfg:     cfg,
		store:   store,
		runtime: rt,
		program: program,
		client:  contract.NewClient(cfg.ProgramID),
		logger:  logger,
		now:     time.Now,
	}
}

func (n *Node) Store() Store                 { return n.store }
func (n *Node) Client() *contract.Client     { return n.client }
func (n *Node) Program() *contract.Processor { return n.program }
func (n *Node) ProgramID() sdk.Address       { return n.cfg.ProgramID }

func (n *Node) readUint64(key string) (uint64, error) {
	raw, ok, err := n.store.Get(key)
	if err != nil || !ok {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("corrupt meta key %q", key)
	}
	return binary.LittleEndian.Uint64(raw), nil
}

func (n *Node) writeUint64(key string, v uint64) error {
	return n.store.Set(key, binary.LittleEndian.AppendUint64(nil, v))
}

// Clock is what the next transaction will observe.
func (n *Node) Clock() (sdk.Clock, error) {
	slot, err := n.readUint64(slotKey)
	if err != nil {
		return sdk.Clock{}, err
	}
	warp, err := n.readUint64(warpKey)
	if err != nil {
		return sdk.Clock{}, err
	}
	ts := n.now().Add(n.cfg.ClockOffset).Unix() + int64(warp)
	return sdk.Clock{Slot: slot + 1, UnixTimestamp: ts}, nil
}

// Warp moves the ledger clock forward for good. Local voting windows are otherwise
// measured in days.
func (n *Node) Warp(d time.Duration) (sdk.Clock, error) {
	if d < 0 {
		return sdk.Clock{}, fmt.Errorf("cannot warp backwards (%s)", d)
	}
	warp, err := n.readUint64(warpKey)
	if err != nil {
		return sdk.Clock{}, err
	}
	if err := n.writeUint64(warpKey, warp+uint64(d/time.Second)); err != nil {
		return sdk.Clock{}, err
	}
	n.logger.Info("clock warped", "by", d.String())
	return n.Clock()
}

func txID(clock sdk.Clock, ixs []sdk.Instruction) string {
	h := sha256.New()
	_ = binary.Write(h, binary.LittleEndian, clock.Slot)
	for _, ix := range ixs {
		h.Write(ix.ProgramID[:])
		for _, m := range ix.Accounts {
			h.Write(m.PublicKey[:])
		}
		h.Write(ix.Data)
	}
	return base58.Encode(h.Sum(nil))
}

// Submit runs ixs as one transaction signed by signers. The slot advances whether
// or not the transaction succeeds.
func (n *Node) Submit(ctx context.Context, signers []sdk.Address, ixs ...sdk.Instruction) (*sdk.Receipt, error) {
	clock, err := n.Clock()
	if err != nil {
		return nil, err
	}
	env := sdk.Env{TxID: txID(clock, ixs), Signers: signers, Clock: clock}
	receipt, execErr := n.runtime.Execute(ctx, n.store, env, ixs...)
	if err := n.writeUint64(slotKey, clock.Slot); err != nil {
		return receipt, err
	}
	if execErr != nil {
		n.logger.Warn("transaction failed", "tx", env.TxID, "slot", clock.Slot, "err", execErr)
		return receipt, execErr
	}
	n.logger.Debug("transaction committed", "tx", env.TxID, "slot", clock.Slot, "instructions", len(ixs))
	return receipt, nil
}

// -----------------------------------------------------------------------------
// Genesis
// -----------------------------------------------------------------------------

func (n *Node) Airdrop(to sdk.Address, lamports uint64) error {
	return sdk.Airdrop(n.store, to, lamports)
}

func (n *Node) CreateMint(mint, authority sdk.Address, decimals uint8) error {
	return sdk.CreateMint(n.store, mint, authority, decimals)
}

func (n *Node) CreateTokenAccount(account, mint, owner sdk.Address) error {
	return sdk.CreateTokenAccount(n.store, account, mint, owner)
}

func (n *Node) MintTokens(mint, account sdk.Address, amount uint64) error {
	return sdk.MintTokens(n.store, mint, account, amount)
}

func (n *Node) DeployProgram(program, upgradeAuthority sdk.Address) error {
	return sdk.DeployProgram(n.store, program, upgradeAuthority)
}

// CheckInvariants cross checks every governance record in the store.
func (n *Node) CheckInvariants() error {
	return contract.CheckInvariants(n.store, n.cfg.ProgramID)
}

// Snapshot decodes every governance record in the store.
func (n *Node) Snapshot() (*contract.Snapshot, error) {
	return contract.LoadSnapshot(n.store, n.cfg.ProgramID)
}

var NodeSet = wire.NewSet(
	OpenStore,
	NewNode,
	NewKeystore,
)
