package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"realms_dao/contract"
	"realms_dao/contract/dao"
	"realms_dao/internal/app"
)

// realmFlags are the configuration knobs shared by realm create and realm config.
type realmFlags struct {
	minCommunityWeight uint64
	maxVoterFraction   uint64
	maxVoterAbsolute   uint64
	communityType      string
	councilType        string
	communityAddin     string
	councilAddin       string
}

func (f *realmFlags) register(cmd *cobra.Command) {
	cmd.Flags().Uint64Var(&f.minCommunityWeight, "min-community-weight", 1, "community weight needed to create a governance")
	cmd.Flags().Uint64Var(&f.maxVoterFraction, "max-voter-fraction", dao.SupplyFractionBase,
		"community max voter weight as a fraction of supply (10^10 is 100%)")
	cmd.Flags().Uint64Var(&f.maxVoterAbsolute, "max-voter-absolute", 0, "absolute community max voter weight, overrides the fraction")
	cmd.Flags().StringVar(&f.communityType, "community-token-type", "liquid", "liquid, membership or dormant")
	cmd.Flags().StringVar(&f.councilType, "council-token-type", "liquid", "liquid, membership or dormant")
	cmd.Flags().StringVar(&f.communityAddin, "community-voter-addin", "", "voter weight addin for the community mint")
	cmd.Flags().StringVar(&f.councilAddin, "council-voter-addin", "", "voter weight addin for the council mint")
}

func parseTokenType(s string) (dao.GoverningTokenType, error) {
	for _, t := range []dao.GoverningTokenType{dao.GoverningTokenLiquid, dao.GoverningTokenMembership, dao.GoverningTokenDormant} {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown token type %q", s)
}

func (f *realmFlags) args(a *app.App) (dao.RealmConfigArgs, error) {
	var args dao.RealmConfigArgs
	communityType, err := parseTokenType(f.communityType)
	if err != nil {
		return args, err
	}
	councilType, err := parseTokenType(f.councilType)
	if err != nil {
		return args, err
	}
	communityAddin, err := optionalAddress(a, f.communityAddin)
	if err != nil {
		return args, err
	}
	councilAddin, err := optionalAddress(a, f.councilAddin)
	if err != nil {
		return args, err
	}
	args.MinCommunityWeightToCreateGovernance = f.minCommunityWeight
	args.CommunityMintMaxVoterWeightSource = dao.MintMaxVoterWeightSource{
		Kind: dao.MaxVoterWeightSupplyFraction, Value: f.maxVoterFraction,
	}
	if f.maxVoterAbsolute > 0 {
		args.CommunityMintMaxVoterWeightSource = dao.MintMaxVoterWeightSource{
			Kind: dao.MaxVoterWeightAbsolute, Value: f.maxVoterAbsolute,
		}
	}
	args.CommunityTokenConfig = dao.GoverningTokenConfig{TokenType: communityType, VoterWeightAddin: communityAddin}
	args.CouncilTokenConfig = dao.GoverningTokenConfig{TokenType: councilType, VoterWeightAddin: councilAddin}
	return args, nil
}

func newRealmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "realm",
		Short: "Create and configure realms",
	}

	var create struct {
		realmFlags
		communityMint, councilMint, authority, payer string
	}
	createCmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a realm with its token holdings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			cfg, err := create.args(a)
			if err != nil {
				return err
			}
			community, err := a.Keystore.Resolve(create.communityMint)
			if err != nil {
				return err
			}
			council, err := optionalAddress(a, create.councilMint)
			if err != nil {
				return err
			}
			authority, err := a.Keystore.Resolve(create.authority)
			if err != nil {
				return err
			}
			payer, err := a.Keystore.Signer(create.payer)
			if err != nil {
				return err
			}
			ix := a.Node.Client().CreateRealm(args[0], authority, community, payer, council, cfg)
			realm := contract.RealmAddress(a.Node.ProgramID(), args[0])
			return submit(cmd, a, []string{create.payer}, []any{"realm", realm}, ix)
		},
	}
	create.register(createCmd)
	createCmd.Flags().StringVar(&create.communityMint, "community-mint", "", "community mint")
	createCmd.Flags().StringVar(&create.councilMint, "council-mint", "", "optional council mint")
	createCmd.Flags().StringVar(&create.authority, "authority", "", "realm authority")
	createCmd.Flags().StringVar(&create.payer, "payer", "", "fee payer key")
	for _, f := range []string{"community-mint", "authority", "payer"} {
		_ = createCmd.MarkFlagRequired(f)
	}

	var cfgFlags struct {
		realmFlags
		authority, payer string
	}
	configCmd := &cobra.Command{
		Use:   "config REALM",
		Short: "Replace the realm configuration (realm authority only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			realmAddr, realm, err := realmRef(a, args[0])
			if err != nil {
				return err
			}
			cfg, err := cfgFlags.args(a)
			if err != nil {
				return err
			}
			cfg.UseCouncilMint = realm.Config.CouncilMint != nil
			authority, err := a.Keystore.Signer(cfgFlags.authority)
			if err != nil {
				return err
			}
			payer, err := a.Keystore.Signer(cfgFlags.payer)
			if err != nil {
				return err
			}
			return submit(cmd, a, []string{cfgFlags.authority, cfgFlags.payer}, nil,
				a.Node.Client().SetRealmConfig(realmAddr, authority, payer, cfg))
		},
	}
	cfgFlags.register(configCmd)
	configCmd.Flags().StringVar(&cfgFlags.authority, "authority", "", "realm authority key")
	configCmd.Flags().StringVar(&cfgFlags.payer, "payer", "", "fee payer key")
	_ = configCmd.MarkFlagRequired("authority")
	_ = configCmd.MarkFlagRequired("payer")

	var authFlags struct {
		authority, next string
		checked, remove bool
	}
	authorityCmd := &cobra.Command{
		Use:   "set-authority REALM",
		Short: "Hand the realm authority to another address, or remove it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			realmAddr, _, err := realmRef(a, args[0])
			if err != nil {
				return err
			}
			authority, err := a.Keystore.Signer(authFlags.authority)
			if err != nil {
				return err
			}
			action := dao.SetRealmAuthorityUnchecked
			if authFlags.checked {
				action = dao.SetRealmAuthorityChecked
			}
			next, err := optionalAddress(a, authFlags.next)
			if err != nil {
				return err
			}
			if authFlags.remove {
				action, next = dao.RemoveRealmAuthority, nil
			} else if next == nil {
				return fmt.Errorf("--new-authority or --remove is required")
			}
			return submit(cmd, a, []string{authFlags.authority}, nil,
				a.Node.Client().SetRealmAuthority(realmAddr, authority, next, action))
		},
	}
	authorityCmd.Flags().StringVar(&authFlags.authority, "authority", "", "current realm authority key")
	authorityCmd.Flags().StringVar(&authFlags.next, "new-authority", "", "new authority")
	authorityCmd.Flags().BoolVar(&authFlags.checked, "checked", false, "require the new authority to be a governance of the realm")
	authorityCmd.Flags().BoolVar(&authFlags.remove, "remove", false, "remove the authority for good")
	_ = authorityCmd.MarkFlagRequired("authority")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List realms",
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
			return renderer(cmd, a).Realms(snap)
		},
	}

	membersCmd := &cobra.Command{
		Use:   "members REALM",
		Short: "List the token owner records of a realm",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			realmAddr, _, err := realmRef(a, args[0])
			if err != nil {
				return err
			}
			snap, err := a.Node.Snapshot()
			if err != nil {
				return err
			}
			return renderer(cmd, a).Records(snap, &realmAddr)
		},
	}

	cmd.AddCommand(createCmd, configCmd, authorityCmd, listCmd, membersCmd)
	return cmd
}
