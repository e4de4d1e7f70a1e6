package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"realms_dao/contract"
	"realms_dao/contract/dao"
	"realms_dao/sdk"
)

// ownerFlags name the proposal owner acting on a proposal.
type ownerFlags struct {
	owner string
}

func (f *ownerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.owner, "owner", "", "key of the proposal owner or its delegate")
	_ = cmd.MarkFlagRequired("owner")
}

func newProposalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proposal",
		Short: "Draft, sign off and close proposals",
	}
	cmd.AddCommand(
		newProposalCreateCmd(),
		newProposalOptionsCmd(),
		newSignatoryCmd(),
		newSignOffCmd(),
		newProposalCloseCmd("cancel", "Cancel a proposal before voting ends"),
		newProposalCloseCmd("complete", "Complete a passed proposal that has nothing to execute"),
		newFinalizeCmd(),
		newRefundCmd(),
		newProposalListCmd(),
		newProposalShowCmd(),
	)
	return cmd
}

func newProposalCreateCmd() *cobra.Command {
	var f struct {
		realm, governance, owner, payer, name, link string
		options                                     []string
		council, deny, multi, weighted              bool
		maxVoterOptions                             uint8
	}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft proposal",
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
			gov, err := sdk.AddressFromString(f.governance)
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
			seed, err := sdk.NewKeypair()
			if err != nil {
				return err
			}
			voteType := dao.SingleChoice()
			if f.multi {
				n := f.maxVoterOptions
				if n == 0 {
					n = uint8(len(f.options))
				}
				voteType = dao.MultiChoice(n, n)
				if f.weighted {
					voteType.ChoiceType = dao.MultiChoiceWeighted
				}
			}
			ix, proposal := a.Node.Client().CreateProposal(realmAddr, gov, recordOf(a, realmAddr, mint, owner), mint, owner, payer,
				contract.ProposalArgs{
					Name:            f.name,
					DescriptionLink: f.link,
					VoteType:        voteType,
					Options:         f.options,
					UseDenyOption:   f.deny,
					Seed:            seed.PublicKey(),
				})
			return submit(cmd, a, []string{f.owner, f.payer}, []any{"proposal", proposal}, ix)
		},
	}
	cmd.Flags().StringVar(&f.realm, "realm", "", "realm name or address")
	cmd.Flags().StringVar(&f.governance, "governance", "", "governance address")
	cmd.Flags().StringVar(&f.owner, "owner", "", "proposing token owner key")
	cmd.Flags().StringVar(&f.payer, "payer", "", "fee and deposit payer key")
	cmd.Flags().StringVar(&f.name, "name", "", "proposal name")
	cmd.Flags().StringVar(&f.link, "description", "", "description link")
	cmd.Flags().StringSliceVar(&f.options, "option", []string{"Approve"}, "option label, repeat for several")
	cmd.Flags().BoolVar(&f.council, "council", false, "propose with the council mint")
	cmd.Flags().BoolVar(&f.deny, "deny", true, "add a deny option")
	cmd.Flags().BoolVar(&f.multi, "multi", false, "multiple choice proposal")
	cmd.Flags().BoolVar(&f.weighted, "weighted", false, "voters split their weight across options")
	cmd.Flags().Uint8Var(&f.maxVoterOptions, "max-voter-options", 0, "options a voter may pick, all by default")
	for _, n := range []string{"realm", "governance", "owner", "payer", "name"} {
		_ = cmd.MarkFlagRequired(n)
	}
	return cmd
}

func newProposalOptionsCmd() *cobra.Command {
	var f ownerFlags
	var options []string
	cmd := &cobra.Command{
		Use:   "add-options PROPOSAL",
		Short: "Append options to a draft proposal",
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
			authority, err := a.Keystore.Signer(f.owner)
			if err != nil {
				return err
			}
			return submit(cmd, a, []string{f.owner}, nil,
				a.Node.Client().InsertProposalOptions(p.govAddr, p.addr, p.ownerRecord(), authority, options...))
		},
	}
	f.register(cmd)
	cmd.Flags().StringSliceVar(&options, "option", nil, "option label, repeat for several")
	_ = cmd.MarkFlagRequired("option")
	return cmd
}

func newSignatoryCmd() *cobra.Command {
	var f ownerFlags
	var signatory, payer string
	var remove bool
	cmd := &cobra.Command{
		Use:   "signatory PROPOSAL",
		Short: "Add or remove a required signatory of a draft proposal",
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
			authority, err := a.Keystore.Signer(f.owner)
			if err != nil {
				return err
			}
			sig, err := a.Keystore.Resolve(signatory)
			if err != nil {
				return err
			}
			c := a.Node.Client()
			if remove {
				return submit(cmd, a, []string{f.owner}, nil,
					c.RemoveSignatory(p.addr, p.ownerRecord(), authority, sig, authority))
			}
			pay, err := a.Keystore.Signer(payer)
			if err != nil {
				return err
			}
			return submit(cmd, a, []string{f.owner, payer}, nil,
				c.AddSignatory(p.govAddr, p.addr, p.ownerRecord(), authority, pay, sig))
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&signatory, "signatory", "", "signatory key or address")
	cmd.Flags().StringVar(&payer, "payer", "", "fee payer key when adding")
	cmd.Flags().BoolVar(&remove, "remove", false, "remove instead of add; rent goes to the owner")
	_ = cmd.MarkFlagRequired("signatory")
	return cmd
}

func newSignOffCmd() *cobra.Command {
	var signatory string
	var asOwner bool
	cmd := &cobra.Command{
		Use:   "sign-off PROPOSAL",
		Short: "Sign off a proposal; the last sign off opens voting",
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
			sig, err := a.Keystore.Signer(signatory)
			if err != nil {
				return err
			}
			var ownerRecord *sdk.Address
			if asOwner {
				rec := p.ownerRecord()
				ownerRecord = &rec
			}
			return submit(cmd, a, []string{signatory}, nil,
				a.Node.Client().SignOffProposal(p.realm, p.govAddr, p.addr, sig, ownerRecord))
		},
	}
	cmd.Flags().StringVar(&signatory, "signatory", "", "signing key")
	cmd.Flags().BoolVar(&asOwner, "as-owner", false, "sign off as the owner of a proposal without signatories")
	_ = cmd.MarkFlagRequired("signatory")
	return cmd
}

func newProposalCloseCmd(use, short string) *cobra.Command {
	var f ownerFlags
	cmd := &cobra.Command{
		Use:   use + " PROPOSAL",
		Short: short,
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
			authority, err := a.Keystore.Signer(f.owner)
			if err != nil {
				return err
			}
			c := a.Node.Client()
			ix := c.CompleteProposal(p.addr, p.ownerRecord(), authority)
			if use == "cancel" {
				ix = c.CancelProposal(p.realm, p.govAddr, p.addr, p.ownerRecord(), authority)
			}
			return submit(cmd, a, []string{f.owner}, nil, ix)
		},
	}
	f.register(cmd)
	return cmd
}

func newFinalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "finalize PROPOSAL",
		Short: "Close voting once the voting time has passed",
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
			return submit(cmd, a, nil, nil,
				a.Node.Client().FinalizeVote(p.realm, p.govAddr, p.addr, p.ownerRecord(), p.proposal.GoverningMint))
		},
	}
}

func newRefundCmd() *cobra.Command {
	var payer string
	cmd := &cobra.Command{
		Use:   "refund PROPOSAL",
		Short: "Return the proposal deposit to its payer once the proposal is closed",
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
			to, err := a.Keystore.Resolve(payer)
			if err != nil {
				return err
			}
			return submit(cmd, a, nil, nil, a.Node.Client().RefundProposalDeposit(p.addr, to))
		},
	}
	cmd.Flags().StringVar(&payer, "payer", "", "who paid the deposit")
	_ = cmd.MarkFlagRequired("payer")
	return cmd
}

func newProposalListCmd() *cobra.Command {
	var governance string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List proposals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			var filter *sdk.Address
			if governance != "" {
				g, err := sdk.AddressFromString(governance)
				if err != nil {
					return err
				}
				filter = &g
			}
			snap, err := a.Node.Snapshot()
			if err != nil {
				return err
			}
			return renderer(cmd, a).Proposals(snap, filter)
		},
	}
	cmd.Flags().StringVar(&governance, "governance", "", "only proposals of this governance")
	return cmd
}

func newProposalShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show PROPOSAL",
		Short: "Show a proposal with its votes and transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}
			addr, err := sdk.AddressFromString(args[0])
			if err != nil {
				return fmt.Errorf("proposal: %w", err)
			}
			snap, err := a.Node.Snapshot()
			if err != nil {
				return err
			}
			return renderer(cmd, a).Proposal(snap, addr)
		},
	}
}
