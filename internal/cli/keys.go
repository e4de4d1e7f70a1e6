package cli

import (
	"github.com/spf13/cobra"

	"realms_dao/sdk"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage named keypairs",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "new NAME",
			Short: "Generate a keypair and store it under NAME",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := getApp(cmd)
				if err != nil {
					return err
				}
				key, err := a.Keystore.Generate(args[0])
				if err != nil {
					return err
				}
				return renderer(cmd, a).Message(args[0], key.PublicKey())
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List stored keypairs",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := getApp(cmd)
				if err != nil {
					return err
				}
				names, err := a.Keystore.List()
				if err != nil {
					return err
				}
				addrs := make([]sdk.Address, 0, len(names))
				for _, n := range names {
					addr, err := a.Keystore.Signer(n)
					if err != nil {
						return err
					}
					addrs = append(addrs, addr)
				}
				return renderer(cmd, a).Keys(names, addrs)
			},
		},
	)
	return cmd
}
