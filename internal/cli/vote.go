package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"realms_dao/contract/dao"
	"realms_dao/internal/app"
	"realms_dao/sdk"
)

// parseApprove reads "0,2" (full weight each) or "0:60,1:40" (weighted) ballots.
func parseApprove(spec string, optionCount int) (dao.Vote, error) {
	choices := make([]dao.VoteChoice, optionCount)
	for _, part := range strings.Split(spec, ",") {
		idxStr, pctStr, weighted := strings.Cut(strings.TrimSpace(part), ":")
		idx, err := strconv.Atoi(idxStr)
		if err != nil {
			return dao.Vote{}, fmt.Errorf("option %q: %w", idxStr, err)
		}
		if idx < 0 || idx >= optionCount {
			return dao.Vote{}, fmt.Errorf("option %d out of range, proposal has %d", idx, optionCount)
		}
		pct := uint64(100)
		if weighted {
			if pct, err = strconv.ParseUint(pctStr, 10, 8); err != nil {
				return dao.Vote{}, fmt.Errorf("weight %q: %w", pctStr, err)
			}
		}
		choices[idx].WeightPercentage = uint8(pct)
	}
	return dao.Vote{Kind: dao.VoteApprove, Choices: choices}, nil
}

// voteMint is the proposal mint, or for a veto the realm's other mint.
func voteMint(a *app.App, p *proposalCtx, veto bool) (sdk.Address, error) {
	if !veto {
		return p.proposal.GoverningMint, nil
	}
	realm, err := loadRecord(a, p.realm, dao.DecodeRealm)
	if err != nil {
		return sdk.Address{}, err
	}
	if p.proposal.GoverningMint.Equals(realm.CommunityMint) {
		return mintOf(realm, true)
	}
	return realm.CommunityMint, nil
}

func newVoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vote",
		Short: "Cast and relinquish votes",
	}

	var cast struct {
		voter, approve        string
		deny, abstain, veto bool
	}
	castCmd := &cobra.Command{
		Use:   "cast PROPOSAL",
		Short: "Cast a vote with the voter's deposited weight",
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
			var vote dao.Vote
			switch {
			case cast.deny:
				vote = dao.Vote{Kind: dao.VoteDeny}
			case cast.abstain:
				vote = dao.Vote{Kind: dao.VoteAbstain}
			case cast.veto:
				vote = dao.Vote{Kind: dao.VoteVeto}
			case cast.approve != "":
				if vote, err = parseApprove(cast.approve, len(p.proposal.Options)); err != nil {
					return err
				}
			default:
				return fmt.Errorf("one of --approve, --deny, --abstain or --veto is required")
			}
			mint, err := voteMint(a, p, cast.veto)
			if err != nil {
				return err
			}
			voter, err := a.Keystore.Signer(cast.voter)
			if err != nil {
				return err
			}
			ix := a.Node.Client().CastVote(p.realm, p.govAddr, p.addr, p.ownerRecord(),
				recordOf(a, p.realm, mint, voter), voter, mint, voter, vote)
			return submit(cmd, a, []string{cast.voter}, nil, ix)
		},
	}
	castCmd.Flags().StringVar(&cast.voter, "voter", "", "voting token owner key")
	castCmd.Flags().StringVar(&cast.approve, "approve", "", `options to approve, "0,2" or weighted "0:60,1:40"`)
	castCmd.Flags().BoolVar(&cast.deny, "deny", false, "vote against")
	castCmd.Flags().BoolVar(&cast.abstain, "abstain", false, "abstain")
	castCmd.Flags().BoolVar(&cast.veto, "veto", false, "veto with the other mint")
	castCmd.MarkFlagsMutuallyExclusive("approve", "deny", "abstain", "veto")
	_ = castCmd.MarkFlagRequired("voter")

	var rel struct {
		voter    string
		veto     bool
		withdraw bool
	}
	relinquishCmd := &cobra.Command{
		Use:   "relinquish PROPOSAL",
		Short: "Release a vote so tokens can be withdrawn; withdraws it while voting is open",
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
			mint, err := voteMint(a, p, rel.veto)
			if err != nil {
				return err
			}
			voter, err := a.Keystore.Resolve(rel.voter)
			if err != nil {
				return err
			}
			var authority, beneficiary *sdk.Address
			var signerNames []string
			if rel.withdraw {
				if voter, err = a.Keystore.Signer(rel.voter); err != nil {
					return err
				}
				authority, beneficiary = &voter, &voter
				signerNames = []string{rel.voter}
			}
			return submit(cmd, a, signerNames, nil,
				a.Node.Client().RelinquishVote(p.realm, p.govAddr, p.addr, recordOf(a, p.realm, mint, voter), mint, authority, beneficiary))
		},
	}
	relinquishCmd.Flags().StringVar(&rel.voter, "voter", "", "voter key or address")
	relinquishCmd.Flags().BoolVar(&rel.veto, "veto", false, "the vote was a veto cast with the other mint")
	relinquishCmd.Flags().BoolVar(&rel.withdraw, "withdraw", false, "take the vote back while voting is still open")
	_ = relinquishCmd.MarkFlagRequired("voter")

	cmd.AddCommand(castCmd, relinquishCmd)
	return cmd
}
