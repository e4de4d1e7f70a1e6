package cli

import (
	"github.com/spf13/cobra"
)

// tokenFlags select a realm, one of its mints and a member.
type tokenFlags struct {
	realm   string
	council bool
	owner   string
	payer   string
}

func (f *tokenFlags) register(cmd *cobra.Command, ownerHelp string) {
	cmd.Flags().StringVar(&f.realm, "realm", "", "realm name or address")
	cmd.Flags().BoolVar(&f.council, "council", false, "use the council mint instead of the community mint")
	cmd.Flags().StringVar(&f.owner, "owner", "", ownerHelp)
	_ = cmd.MarkFlagRequired("realm")
	_ = cmd.MarkFlagRequired("owner")
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Deposit, withdraw and delegate governing tokens",
	}

	var dep tokenFlags
	var amount uint64
	depositCmd := &cobra.Command{
		Use:   "deposit",
		Short: "Deposit governing tokens from the owner's token account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			realmAddr, realm, err := realmRef(a, dep.realm)
			if err != nil {
				return err
			}
			mint, err := mintOf(realm, dep.council)
			if err != nil {
				return err
			}
			owner, err := a.Keystore.Signer(dep.owner)
			if err != nil {
				return err
			}
			payerName := dep.payer
			if payerName == "" {
				payerName = dep.owner
			}
			payer, err := a.Keystore.Signer(payerName)
			if err != nil {
				return err
			}
			ix := a.Node.Client().DepositGoverningTokens(realmAddr, mint, TokenAccountFor(owner, mint), owner, owner, payer, amount)
			return submit(cmd, a, []string{dep.owner, payerName}, []any{"record", recordOf(a, realmAddr, mint, owner)}, ix)
		},
	}
	dep.register(depositCmd, "token owner key")
	depositCmd.Flags().StringVar(&dep.payer, "payer", "", "fee payer key, defaults to the owner")
	depositCmd.Flags().Uint64Var(&amount, "amount", 0, "amount to deposit")
	_ = depositCmd.MarkFlagRequired("amount")

	var wd tokenFlags
	withdrawCmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Withdraw the whole deposit back to the owner's token account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			realmAddr, realm, err := realmRef(a, wd.realm)
			if err != nil {
				return err
			}
			mint, err := mintOf(realm, wd.council)
			if err != nil {
				return err
			}
			owner, err := a.Keystore.Signer(wd.owner)
			if err != nil {
				return err
			}
			return submit(cmd, a, []string{wd.owner}, nil,
				a.Node.Client().WithdrawGoverningTokens(realmAddr, mint, TokenAccountFor(owner, mint), owner))
		},
	}
	wd.register(withdrawCmd, "token owner key")

	var rv tokenFlags
	var revokeAmount uint64
	var revokeAuthority string
	revokeCmd := &cobra.Command{
		Use:   "revoke",
		Short: "Burn membership tokens out of a member's deposit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			realmAddr, realm, err := realmRef(a, rv.realm)
			if err != nil {
				return err
			}
			mint, err := mintOf(realm, rv.council)
			if err != nil {
				return err
			}
			owner, err := a.Keystore.Resolve(rv.owner)
			if err != nil {
				return err
			}
			authority, err := a.Keystore.Signer(revokeAuthority)
			if err != nil {
				return err
			}
			return submit(cmd, a, []string{revokeAuthority}, nil,
				a.Node.Client().RevokeGoverningTokens(realmAddr, mint, owner, authority, revokeAmount))
		},
	}
	rv.register(revokeCmd, "member whose tokens are revoked")
	revokeCmd.Flags().Uint64Var(&revokeAmount, "amount", 0, "amount to revoke")
	revokeCmd.Flags().StringVar(&revokeAuthority, "authority", "", "mint authority key")
	_ = revokeCmd.MarkFlagRequired("amount")
	_ = revokeCmd.MarkFlagRequired("authority")

	var dg tokenFlags
	var delegate string
	delegateCmd := &cobra.Command{
		Use:   "delegate",
		Short: "Set or clear the governance delegate of a record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			realmAddr, realm, err := realmRef(a, dg.realm)
			if err != nil {
				return err
			}
			mint, err := mintOf(realm, dg.council)
			if err != nil {
				return err
			}
			owner, err := a.Keystore.Signer(dg.owner)
			if err != nil {
				return err
			}
			next, err := optionalAddress(a, delegate)
			if err != nil {
				return err
			}
			return submit(cmd, a, []string{dg.owner}, nil,
				a.Node.Client().SetGovernanceDelegate(recordOf(a, realmAddr, mint, owner), owner, next))
		},
	}
	dg.register(delegateCmd, "token owner key")
	delegateCmd.Flags().StringVar(&delegate, "delegate", "", "new delegate, empty clears it")

	var rec tokenFlags
	recordCmd := &cobra.Command{
		Use:   "create-record",
		Short: "Open an empty token owner record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			realmAddr, realm, err := realmRef(a, rec.realm)
			if err != nil {
				return err
			}
			mint, err := mintOf(realm, rec.council)
			if err != nil {
				return err
			}
			owner, err := a.Keystore.Resolve(rec.owner)
			if err != nil {
				return err
			}
			payer, err := a.Keystore.Signer(rec.payer)
			if err != nil {
				return err
			}
			return submit(cmd, a, []string{rec.payer}, []any{"record", recordOf(a, realmAddr, mint, owner)},
				a.Node.Client().CreateTokenOwnerRecord(realmAddr, owner, mint, payer))
		},
	}
	rec.register(recordCmd, "record owner")
	recordCmd.Flags().StringVar(&rec.payer, "payer", "", "fee payer key")
	_ = recordCmd.MarkFlagRequired("payer")

	cmd.AddCommand(depositCmd, withdrawCmd, revokeCmd, delegateCmd, recordCmd)
	return cmd
}
