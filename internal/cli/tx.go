package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"realms_dao/contract"
	"realms_dao/contract/dao"
	"realms_dao/internal/app"
	"realms_dao/internal/config"
	"realms_dao/sdk"
)

// storedInstructions builds what a governance signs when the transaction runs.
type storedInstructions struct {
	transfers []string
	mintTos   []string
	configs   []string
}

func (s *storedInstructions) build(a *app.App, gov sdk.Address) ([]sdk.Instruction, error) {
	out := make([]sdk.Instruction, 0)
	treasury := contract.NativeTreasuryAddress(a.Node.ProgramID(), gov)
	for _, t := range s.transfers {
		to, amount, ok := strings.Cut(t, ":")
		if !ok {
			return nil, fmt.Errorf("transfer %q: want TO:LAMPORTS", t)
		}
		dst, err := a.Keystore.Resolve(to)
		if err != nil {
			return nil, err
		}
		lamports, err := strconv.ParseUint(amount, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("transfer %q: %w", t, err)
		}
		out = append(out, sdk.NewTransferInstruction(treasury, dst, lamports))
	}
	for _, m := range s.mintTos {
		parts := strings.Split(m, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("mint-to %q: want MINT:OWNER:AMOUNT", m)
		}
		mint, err := a.Keystore.Resolve(parts[0])
		if err != nil {
			return nil, err
		}
		owner, err := a.Keystore.Resolve(parts[1])
		if err != nil {
			return nil, err
		}
		amount, err := strconv.ParseUint(parts[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("mint-to %q: %w", m, err)
		}
		out = append(out, sdk.NewMintToInstruction(mint, TokenAccountFor(owner, mint), gov, amount))
	}
	for _, path := range s.configs {
		cfg, err := config.LoadGovernanceConfig(path)
		if err != nil {
			return nil, err
		}
		out = append(out, a.Node.Client().SetGovernanceConfig(gov, cfg))
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("nothing to store: pass --transfer, --mint-to or --set-config")
	}
	return out, nil
}

func newTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Store, execute and flag proposal transactions",
	}

	var ins struct {
		ownerFlags
		storedInstructions
		payer  string
		option uint8
		index  int
		holdUp uint32
	}
	insertCmd := &cobra.Command{
		Use:   "insert PROPOSAL",
		Short: "Store a transaction on a draft proposal option",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			p, err := loadProposal(a, args[0])
			if err != nil {
				return err
			}
			if int(ins.option) >= len(p.proposal.Options) {
				return fmt.Errorf("proposal has %d options", len(p.proposal.Options))
			}
			ixs, err := ins.build(a, p.govAddr)
			if err != nil {
				return err
			}
			index := uint16(p.proposal.Options[ins.option].TransactionsNextIndex)
			if ins.index >= 0 {
				index = uint16(ins.index)
			}
			authority, err := a.Keystore.Signer(ins.owner)
			if err != nil {
				return err
			}
			payer, err := a.Keystore.Signer(ins.payer)
			if err != nil {
				return err
			}
			tx := contract.ProposalTransactionAddress(a.Node.ProgramID(), p.addr, ins.option, index)
			return submit(cmd, a, []string{ins.owner, ins.payer}, []any{"transaction", tx},
				a.Node.Client().InsertTransaction(p.govAddr, p.addr, p.ownerRecord(), authority, payer,
					ins.option, index, ins.holdUp, ixs...))
		},
	}
	ins.ownerFlags.register(insertCmd)
	insertCmd.Flags().StringVar(&ins.payer, "payer", "", "fee payer key")
	insertCmd.Flags().Uint8Var(&ins.option, "option", 0, "option the transaction runs for")
	insertCmd.Flags().IntVar(&ins.index, "index", -1, "transaction index, next free by default")
	insertCmd.Flags().Uint32Var(&ins.holdUp, "hold-up", 0, "seconds to wait after voting before it may run")
	insertCmd.Flags().StringArrayVar(&ins.transfers, "transfer", nil, "TO:LAMPORTS paid from the native treasury")
	insertCmd.Flags().StringArrayVar(&ins.mintTos, "mint-to", nil, "MINT:OWNER:AMOUNT minted with the governance as authority")
	insertCmd.Flags().StringArrayVar(&ins.configs, "set-config", nil, "governance config yaml to apply")
	_ = insertCmd.MarkFlagRequired("payer")

	var rm ownerFlags
	removeCmd := &cobra.Command{
		Use:   "remove PROPOSAL TRANSACTION",
		Short: "Remove a stored transaction from a draft proposal",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			p, err := loadProposal(a, args[0])
			if err != nil {
				return err
			}
			tx, err := sdk.AddressFromString(args[1])
			if err != nil {
				return err
			}
			authority, err := a.Keystore.Signer(rm.owner)
			if err != nil {
				return err
			}
			return submit(cmd, a, []string{rm.owner}, nil,
				a.Node.Client().RemoveTransaction(p.addr, p.ownerRecord(), authority, tx, authority))
		},
	}
	rm.register(removeCmd)

	executeCmd := &cobra.Command{
		Use:   "execute TRANSACTION",
		Short: "Run a stored transaction of a passed proposal; anyone may call it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			txAddr, err := sdk.AddressFromString(args[0])
			if err != nil {
				return err
			}
			tx, err := loadRecord(a, txAddr, dao.DecodeProposalTransaction)
			if err != nil {
				return err
			}
			p, err := loadProposal(a, tx.Proposal.String())
			if err != nil {
				return err
			}
			return submit(cmd, a, nil, nil,
				a.Node.Client().ExecuteTransaction(p.govAddr, p.addr, txAddr, tx.Instructions))
		},
	}

	var fl ownerFlags
	flagCmd := &cobra.Command{
		Use:   "flag-error PROPOSAL TRANSACTION",
		Short: "Mark a transaction that cannot run as failed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			p, err := loadProposal(a, args[0])
			if err != nil {
				return err
			}
			tx, err := sdk.AddressFromString(args[1])
			if err != nil {
				return err
			}
			authority, err := a.Keystore.Signer(fl.owner)
			if err != nil {
				return err
			}
			return submit(cmd, a, []string{fl.owner}, nil,
				a.Node.Client().FlagTransactionError(p.addr, p.ownerRecord(), authority, tx))
		},
	}
	fl.register(flagCmd)

	cmd.AddCommand(insertCmd, removeCmd, executeCmd, flagCmd)
	return cmd
}
