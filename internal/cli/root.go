package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"realms_dao/internal/app"
	"realms_dao/internal/config"
)

// NewRootCmd creates the realms command tree.
func NewRootCmd() *cobra.Command {
	var cleanup func()
	cobra.OnFinalize(func() {
		if cleanup != nil {
			cleanup()
		}
	})

	rootCmd := &cobra.Command{
		Use:   "realms",
		Short: "Local ledger and client for realm governance",
		Long: `realms runs the governance program against a local ledger kept in SQLite.

Realms hold governing token deposits, governances own proposals, and passed
proposals execute their stored instructions signed by the governance.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			v := config.SetupViper(cmd)
			appInstance, done, err := app.InitApp(v)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}
			cleanup = done
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("db-path", "", "ledger database (.json keeps a json snapshot instead)")
	flags.String("program-id", "", "address the governance program is installed at")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.Bool("json", false, "print results as json")
	flags.String("keys-dir", "", "directory holding named keypairs")
	flags.Duration("clock-offset", 0, "shift the ledger clock")

	rootCmd.AddGroup(
		&cobra.Group{ID: "governance", Title: "Governance Commands"},
		&cobra.Group{ID: "management", Title: "Management Commands"},
	)
	for _, c := range []*cobra.Command{
		newRealmCmd(),
		newTokenCmd(),
		newGovernanceCmd(),
		newProposalCmd(),
		newVoteCmd(),
		newTxCmd(),
	} {
		c.GroupID = "governance"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{
		newKeysCmd(),
		newDevCmd(),
	} {
		c.GroupID = "management"
		rootCmd.AddCommand(c)
	}
	return rootCmd
}
