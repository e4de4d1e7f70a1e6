package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"realms_dao/contract"
	"realms_dao/contract/dao"
	"realms_dao/internal/app"
	"realms_dao/internal/config"
	"realms_dao/sdk"
)

// governanceConfig reads --config, or the defaults when no file is given.
func governanceConfig(path string) (dao.GovernanceConfig, error) {
	if path == "" {
		return config.DefaultGovernanceFile().GovernanceConfig()
	}
	return config.LoadGovernanceConfig(path)
}

func newGovernanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "governance",
		Short: "Create governances and their treasuries",
	}

	var f struct {
		realm, governed, currentAuthority, owner, payer, kind, configPath string
		council, transfer                                                bool
	}
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a governance over an account, program, mint or token account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			realmAddr, realm, err := realmRef(a, f.realm)
			if err != nil {
				return err
			}
			mint, err := mintOf(realm, f.council)
			if err != nil {
				return err
			}
			cfg, err := governanceConfig(f.configPath)
			if err != nil {
				return err
			}
			governed, err := a.Keystore.Resolve(f.governed)
			if err != nil {
				return err
			}
			owner, err := a.Keystore.Signer(f.owner)
			if err != nil {
				return err
			}
			payer, err := a.Keystore.Signer(f.payer)
			if err != nil {
				return err
			}
			record := recordOf(a, realmAddr, mint, owner)
			signerNames := []string{f.owner, f.payer}
			c := a.Node.Client()

			var ix sdk.Instruction
			switch f.kind {
			case "generic":
				ix = c.CreateGovernance(realmAddr, governed, record, payer, owner, cfg)
			case "program", "mint", "token":
				if f.currentAuthority == "" {
					return fmt.Errorf("--current-authority is required for %s governances", f.kind)
				}
				current, err := a.Keystore.Signer(f.currentAuthority)
				if err != nil {
					return err
				}
				signerNames = append(signerNames, f.currentAuthority)
				switch f.kind {
				case "program":
					ix = c.CreateProgramGovernance(realmAddr, governed, current, record, payer, owner, cfg, f.transfer)
				case "mint":
					ix = c.CreateMintGovernance(realmAddr, governed, current, record, payer, owner, cfg, f.transfer)
				default:
					ix = c.CreateTokenGovernance(realmAddr, governed, current, record, payer, owner, cfg, f.transfer)
				}
			default:
				return fmt.Errorf("unknown governance kind %q", f.kind)
			}
			gov := contract.GovernanceAddress(a.Node.ProgramID(), realmAddr, governed)
			return submit(cmd, a, signerNames, []any{"governance", gov}, ix)
		},
	}
	createCmd.Flags().StringVar(&f.realm, "realm", "", "realm name or address")
	createCmd.Flags().StringVar(&f.governed, "governed", "", "account the governance holds authority over")
	createCmd.Flags().StringVar(&f.kind, "kind", "generic", "generic, program, mint or token")
	createCmd.Flags().StringVar(&f.currentAuthority, "current-authority", "", "key currently holding the authority to hand over")
	createCmd.Flags().BoolVar(&f.transfer, "transfer", true, "move the authority to the governance")
	createCmd.Flags().StringVar(&f.owner, "owner", "", "token owner whose record authorizes the creation")
	createCmd.Flags().BoolVar(&f.council, "council", false, "authorize with the council record")
	createCmd.Flags().StringVar(&f.payer, "payer", "", "fee payer key")
	createCmd.Flags().StringVar(&f.configPath, "config", "", "governance config yaml, defaults apply when omitted")
	for _, n := range []string{"realm", "governed", "owner", "payer"} {
		_ = createCmd.MarkFlagRequired(n)
	}

	var treasuryPayer string
	treasuryCmd := &cobra.Command{
		Use:   "treasury GOVERNANCE",
		Short: "Create the native SOL treasury of a governance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			gov, err := sdk.AddressFromString(args[0])
			if err != nil {
				return err
			}
			payer, err := a.Keystore.Signer(treasuryPayer)
			if err != nil {
				return err
			}
			treasury := contract.NativeTreasuryAddress(a.Node.ProgramID(), gov)
			return submit(cmd, a, []string{treasuryPayer}, []any{"treasury", treasury},
				a.Node.Client().CreateNativeTreasury(gov, payer))
		},
	}
	treasuryCmd.Flags().StringVar(&treasuryPayer, "payer", "", "fee payer key")
	_ = treasuryCmd.MarkFlagRequired("payer")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List governances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			snap, err := a.Node.Snapshot()
			if err != nil {
				return err
			}
			return renderer(cmd, a).Governances(snap)
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [GOVERNANCE]",
		Short: "Print a governance config as yaml, or the defaults",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			cfg, err := configOf(a, args)
			if err != nil {
				return err
			}
			raw, err := config.MarshalGovernanceConfig(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(raw)
			return err
		},
	}

	cmd.AddCommand(createCmd, treasuryCmd, listCmd, configCmd)
	return cmd
}

func configOf(a *app.App, args []string) (dao.GovernanceConfig, error) {
	if len(args) == 0 {
		return config.DefaultGovernanceFile().GovernanceConfig()
	}
	addr, err := sdk.AddressFromString(args[0])
	if err != nil {
		return dao.GovernanceConfig{}, err
	}
	gov, err := loadRecord(a, addr, dao.DecodeGovernance)
	if err != nil {
		return dao.GovernanceConfig{}, err
	}
	return gov.Config, nil
}
