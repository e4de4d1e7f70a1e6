package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"realms_dao/sdk"
)

// newDevCmd groups the genesis helpers that write straight into the ledger.
func newDevCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Seed and inspect the local ledger",
	}

	airdrop := &cobra.Command{
		Use:   "airdrop ADDRESS LAMPORTS",
		Short: "Credit lamports to an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			to, err := a.Keystore.Resolve(args[0])
			if err != nil {
				return err
			}
			lamports, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("lamports: %w", err)
			}
			if err := a.Node.Airdrop(to, lamports); err != nil {
				return err
			}
			return renderer(cmd, a).Message("airdropped", fmt.Sprintf("%d to %s", lamports, to))
		},
	}

	var authority string
	var decimals uint8
	createMint := &cobra.Command{
		Use:   "create-mint NAME",
		Short: "Create a mint whose address is stored as key NAME",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			auth, err := a.Keystore.Resolve(authority)
			if err != nil {
				return err
			}
			key, err := a.Keystore.Generate(args[0])
			if err != nil {
				return err
			}
			if err := a.Node.CreateMint(key.PublicKey(), auth, decimals); err != nil {
				return err
			}
			return renderer(cmd, a).Message("mint", key.PublicKey())
		},
	}
	createMint.Flags().StringVar(&authority, "authority", "", "mint authority (key name or address)")
	createMint.Flags().Uint8Var(&decimals, "decimals", 6, "mint decimals")
	_ = createMint.MarkFlagRequired("authority")

	mintTo := &cobra.Command{
		Use:   "mint-to MINT OWNER AMOUNT",
		Short: "Mint tokens into the owner's token account, opening it if needed",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			mint, err := a.Keystore.Resolve(args[0])
			if err != nil {
				return err
			}
			owner, err := a.Keystore.Resolve(args[1])
			if err != nil {
				return err
			}
			amount, err := strconv.ParseUint(args[2], 10, 64)
			if err != nil {
				return fmt.Errorf("amount: %w", err)
			}
			account := TokenAccountFor(owner, mint)
			if ok, err := sdk.AccountExists(a.Node.Store(), account); err != nil {
				return err
			} else if !ok {
				if err := a.Node.CreateTokenAccount(account, mint, owner); err != nil {
					return err
				}
			}
			if err := a.Node.MintTokens(mint, account, amount); err != nil {
				return err
			}
			return renderer(cmd, a).Message("token account", account)
		},
	}

	var upgradeAuthority string
	deploy := &cobra.Command{
		Use:   "deploy NAME",
		Short: "Register an upgradeable program whose address is stored as key NAME",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			auth, err := a.Keystore.Resolve(upgradeAuthority)
			if err != nil {
				return err
			}
			key, err := a.Keystore.Generate(args[0])
			if err != nil {
				return err
			}
			if err := a.Node.DeployProgram(key.PublicKey(), auth); err != nil {
				return err
			}
			return renderer(cmd, a).Message("program", key.PublicKey())
		},
	}
	deploy.Flags().StringVar(&upgradeAuthority, "upgrade-authority", "", "upgrade authority (key name or address)")
	_ = deploy.MarkFlagRequired("upgrade-authority")

	warp := &cobra.Command{
		Use:   "warp DURATION",
		Short: "Move the ledger clock forward, e.g. 72h",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			d, err := time.ParseDuration(args[0])
			if err != nil {
				return err
			}
			clock, err := a.Node.Warp(d)
			if err != nil {
				return err
			}
			return renderer(cmd, a).Message("unix_timestamp", clock.UnixTimestamp)
		},
	}

	check := &cobra.Command{
		Use:   "check",
		Short: "Cross check record counters against the records behind them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			return renderer(cmd, a).Invariants(a.Node.CheckInvariants())
		},
	}

	var payer string
	metadata := &cobra.Command{
		Use:   "metadata",
		Short: "Write the program version into the metadata account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			p, err := a.Keystore.Signer(payer)
			if err != nil {
				return err
			}
			return submit(cmd, a, []string{payer}, nil, a.Node.Client().UpdateProgramMetadata(p))
		},
	}
	metadata.Flags().StringVar(&payer, "payer", "", "fee payer key")
	_ = metadata.MarkFlagRequired("payer")

	cmd.AddCommand(airdrop, createMint, mintTo, deploy, warp, check, metadata)
	return cmd
}
