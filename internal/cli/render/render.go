package render

import (
	"fmt"
	"io"
	"math/big"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"realms_dao/contract"
	"realms_dao/contract/dao"
	"realms_dao/sdk"
)

// Renderer prints command results either as tables or, with JSON set, as one json
// document per command.
type Renderer struct {
	out  io.Writer
	json bool
}

func New(out io.Writer, json bool) *Renderer {
	return &Renderer{out: out, json: json}
}

// StateColor picks the color a proposal state is shown in.
func StateColor(s dao.ProposalState) *color.Color {
	switch s {
	case dao.ProposalStateSucceeded, dao.ProposalStateCompleted:
		return color.New(color.FgGreen, color.Bold)
	case dao.ProposalStateVoting, dao.ProposalStateExecuting:
		return color.New(color.FgCyan, color.Bold)
	case dao.ProposalStateDefeated, dao.ProposalStateVetoed, dao.ProposalStateExecutingWithErrors:
		return color.New(color.FgRed, color.Bold)
	case dao.ProposalStateCancelled:
		return color.New(color.FgHiBlack)
	default:
		return color.New(color.FgYellow)
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Format.Header = text.FormatUpper
	return t
}

func optTime(ts *int64) string {
	if ts == nil {
		return "-"
	}
	return fmt.Sprint(*ts)
}

// share is weight as a percentage of max with two decimals, "-" before max is known.
func share(weight uint64, max *uint64) string {
	if max == nil || *max == 0 {
		return "-"
	}
	w := decimal.NewFromBigInt(new(big.Int).SetUint64(weight), 0)
	m := decimal.NewFromBigInt(new(big.Int).SetUint64(*max), 0)
	return w.Mul(decimal.NewFromInt(100)).Div(m).StringFixed(2) + "%"
}

func optAddr(a *sdk.Address) string {
	if a == nil {
		return "-"
	}
	return a.String()
}

// FormatSuccess formats a success message with the success icon
func FormatSuccess(message string) string {
	return color.New(color.FgGreen).Sprintf("✅ %s", message)
}

// FormatError formats an error message with the error icon
func FormatError(message string) string {
	return color.New(color.FgRed).Sprintf("❌ %s", message)
}

// -----------------------------------------------------------------------------
// Transactions
// -----------------------------------------------------------------------------

// Receipt prints the outcome of a submitted transaction with its program logs.
// extra fields, such as a created address, go first.
func (r *Renderer) Receipt(receipt *sdk.Receipt, err error, extra ...FieldValue) error {
	if r.json {
		obj := object(extra)
		if receipt != nil {
			obj = append(obj, FieldValue{"tx", receipt.TxID}, FieldValue{"logs", receipt.Logs})
		}
		if err != nil {
			obj = append(obj, FieldValue{"error", err.Error()})
		}
		if werr := writeJSON(r.out, obj); werr != nil {
			return werr
		}
		return err
	}
	for _, f := range extra {
		fmt.Fprintf(r.out, "%s: %s\n", f.Key, color.New(color.FgCyan).Sprint(f.Value))
	}
	if receipt != nil {
		for _, line := range receipt.Logs {
			fmt.Fprintln(r.out, color.New(color.FgHiBlack).Sprint("  "+line))
		}
	}
	if err != nil {
		fmt.Fprintln(r.out, FormatError(err.Error()))
		return err
	}
	if receipt != nil {
		fmt.Fprintln(r.out, FormatSuccess("tx "+receipt.TxID))
	}
	return nil
}

// Field lets callers attach a labelled value to a receipt.
func Field(key string, value any) FieldValue { return FieldValue{key, value} }

// Message prints a plain confirmation, or a one field json object.
func (r *Renderer) Message(key string, value any) error {
	if r.json {
		return writeJSON(r.out, object{{key, value}})
	}
	fmt.Fprintf(r.out, "%s: %s\n", key, color.New(color.FgCyan).Sprint(value))
	return nil
}

// -----------------------------------------------------------------------------
// Records
// -----------------------------------------------------------------------------

func realmObject(addr sdk.Address, realm *dao.Realm) object {
	return object{
		{"address", addr},
		{"name", realm.Name},
		{"community_mint", realm.CommunityMint},
		{"council_mint", realm.Config.CouncilMint},
		{"authority", realm.Authority},
		{"min_community_weight_to_create_governance", realm.Config.MinCommunityWeightToCreateGovernance},
	}
}

func recordObject(addr sdk.Address, tor *dao.TokenOwnerRecord) object {
	return object{
		{"address", addr},
		{"owner", tor.Owner},
		{"mint", tor.GoverningMint},
		{"deposit", tor.DepositAmount},
		{"unrelinquished_votes", tor.UnrelinquishedVotesCount},
		{"outstanding_proposals", tor.OutstandingProposalCount},
		{"delegate", tor.GovernanceDelegate},
	}
}

func proposalObject(addr sdk.Address, p *dao.Proposal) object {
	options := lo.Map(p.Options, func(o dao.ProposalOption, _ int) object {
		return object{
			{"label", o.Label},
			{"vote_weight", o.VoteWeight},
			{"result", resultString(o.VoteResult)},
			{"transactions", o.TransactionsCount},
			{"executed", o.TransactionsExecutedCount},
		}
	})
	return object{
		{"address", addr},
		{"name", p.Name},
		{"state", p.State},
		{"governance", p.Governance},
		{"mint", p.GoverningMint},
		{"owner_record", p.TokenOwnerRecord},
		{"vote_type", p.VoteType},
		{"options", options},
		{"deny_vote_weight", p.DenyVoteWeight},
		{"abstain_vote_weight", p.AbstainVoteWeight},
		{"veto_vote_weight", p.VetoVoteWeight},
		{"max_vote_weight", p.MaxVoteWeight},
		{"voting_at", p.VotingAt},
		{"voting_completed_at", p.VotingCompletedAt},
		{"closed_at", p.ClosedAt},
	}
}

func resultString(r dao.OptionVoteResult) string {
	switch r {
	case dao.OptionVoteSucceeded:
		return "succeeded"
	case dao.OptionVoteDefeated:
		return "defeated"
	default:
		return "none"
	}
}

func sortedKeys[V any](m map[sdk.Address]V) []sdk.Address {
	keys := lo.Keys(m)
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Realms lists every realm with its token owner records.
func (r *Renderer) Realms(snap *contract.Snapshot) error {
	if r.json {
		items := lo.Map(sortedKeys(snap.Realms), func(a sdk.Address, _ int) object {
			return realmObject(a, snap.Realms[a])
		})
		return writeJSONList(r.out, "realms", items)
	}
	if len(snap.Realms) == 0 {
		fmt.Fprintln(r.out, "No realms found")
		return nil
	}
	t := newTable()
	t.AppendHeader(table.Row{"Name", "Address", "Community mint", "Council mint", "Authority"})
	for _, a := range sortedKeys(snap.Realms) {
		realm := snap.Realms[a]
		t.AppendRow(table.Row{
			color.New(color.FgCyan, color.Bold).Sprint(realm.Name),
			a, realm.CommunityMint, optAddr(realm.Config.CouncilMint), optAddr(realm.Authority),
		})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

// Records lists token owner records, optionally filtered to one realm.
func (r *Renderer) Records(snap *contract.Snapshot, realm *sdk.Address) error {
	addrs := lo.Filter(sortedKeys(snap.Records), func(a sdk.Address, _ int) bool {
		return realm == nil || snap.Records[a].Realm.Equals(*realm)
	})
	if r.json {
		return writeJSONList(r.out, "records", lo.Map(addrs, func(a sdk.Address, _ int) object {
			return recordObject(a, snap.Records[a])
		}))
	}
	t := newTable()
	t.AppendHeader(table.Row{"Owner", "Mint", "Deposit", "Votes", "Proposals", "Delegate"})
	for _, a := range addrs {
		tor := snap.Records[a]
		t.AppendRow(table.Row{tor.Owner, tor.GoverningMint, tor.DepositAmount,
			tor.UnrelinquishedVotesCount, tor.OutstandingProposalCount, optAddr(tor.GovernanceDelegate)})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

// Governances lists governances with their thresholds and voting times.
func (r *Renderer) Governances(snap *contract.Snapshot) error {
	addrs := sortedKeys(snap.Governances)
	if r.json {
		return writeJSONList(r.out, "governances", lo.Map(addrs, func(a sdk.Address, _ int) object {
			g := snap.Governances[a]
			return object{
				{"address", a},
				{"realm", g.Realm},
				{"governed", g.GovernedAccount},
				{"kind", g.Kind},
				{"community_threshold", g.Config.CommunityVoteThreshold},
				{"council_threshold", g.Config.CouncilVoteThreshold},
				{"voting_time", g.Config.VotingBaseTime},
				{"tipping", g.Config.VoteTipping},
				{"active_proposals", g.ActiveProposalCount},
				{"proposals", g.ProposalsCount},
			}
		}))
	}
	t := newTable()
	t.AppendHeader(table.Row{"Address", "Kind", "Governed", "Community", "Council", "Voting", "Tipping", "Active"})
	for _, a := range addrs {
		g := snap.Governances[a]
		t.AppendRow(table.Row{a, g.Kind, g.GovernedAccount, g.Config.CommunityVoteThreshold,
			g.Config.CouncilVoteThreshold, fmt.Sprintf("%ds", g.Config.VotingBaseTime), g.Config.VoteTipping,
			g.ActiveProposalCount})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

// Proposals lists proposals, newest draft first.
func (r *Renderer) Proposals(snap *contract.Snapshot, governance *sdk.Address) error {
	addrs := lo.Filter(lo.Keys(snap.Proposals), func(a sdk.Address, _ int) bool {
		return governance == nil || snap.Proposals[a].Governance.Equals(*governance)
	})
	sort.Slice(addrs, func(i, j int) bool {
		return snap.Proposals[addrs[i]].DraftAt > snap.Proposals[addrs[j]].DraftAt
	})
	if r.json {
		return writeJSONList(r.out, "proposals", lo.Map(addrs, func(a sdk.Address, _ int) object {
			return proposalObject(a, snap.Proposals[a])
		}))
	}
	if len(addrs) == 0 {
		fmt.Fprintln(r.out, "No proposals found")
		return nil
	}
	t := newTable()
	t.AppendHeader(table.Row{"Name", "State", "Address", "Options", "Turnout", "Closed"})
	for _, a := range addrs {
		p := snap.Proposals[a]
		t.AppendRow(table.Row{p.Name, StateColor(p.State).Sprint(p.State), a, len(p.Options), p.Turnout, optTime(p.ClosedAt)})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

// Proposal prints one proposal with its options, votes and stored transactions.
func (r *Renderer) Proposal(snap *contract.Snapshot, addr sdk.Address) error {
	p, ok := snap.Proposals[addr]
	if !ok {
		return fmt.Errorf("proposal %s not found", addr)
	}
	votes := lo.Filter(sortedKeys(snap.Votes), func(a sdk.Address, _ int) bool {
		return snap.Votes[a].Proposal.Equals(addr)
	})
	txs := lo.Filter(lo.Keys(snap.Transactions), func(a sdk.Address, _ int) bool {
		return snap.Transactions[a].Proposal.Equals(addr)
	})
	sort.Slice(txs, func(i, j int) bool {
		a, b := snap.Transactions[txs[i]], snap.Transactions[txs[j]]
		if a.OptionIndex != b.OptionIndex {
			return a.OptionIndex < b.OptionIndex
		}
		return a.TransactionIndex < b.TransactionIndex
	})

	if r.json {
		obj := proposalObject(addr, p)
		obj = append(obj,
			FieldValue{"votes", lo.Map(votes, func(a sdk.Address, _ int) object {
				v := snap.Votes[a]
				return object{{"voter", v.GoverningTokenOwner}, {"kind", v.Vote.Kind},
					{"weight", v.VoterWeight}, {"relinquished", v.IsRelinquished}}
			})},
			FieldValue{"transactions", lo.Map(txs, func(a sdk.Address, _ int) object {
				tx := snap.Transactions[a]
				return object{{"address", a}, {"option", tx.OptionIndex}, {"index", tx.TransactionIndex},
					{"hold_up", tx.HoldUpTime}, {"status", tx.ExecutionStatus}, {"executed_at", tx.ExecutedAt}}
			})},
		)
		return writeJSON(r.out, obj)
	}

	color.New(color.FgCyan, color.Bold).Fprintf(r.out, "Proposal: %s\n", p.Name)
	fmt.Fprintf(r.out, "  Address: %s\n", addr)
	fmt.Fprintf(r.out, "  State: %s\n", StateColor(p.State).Sprint(p.State))
	fmt.Fprintf(r.out, "  Vote type: %s\n", p.VoteType)
	if p.DescriptionLink != "" {
		fmt.Fprintf(r.out, "  Description: %s\n", p.DescriptionLink)
	}
	fmt.Fprintf(r.out, "  Signatories: %d/%d signed off\n", p.SignatoriesSignedOffCount, p.SignatoriesCount)
	if p.MaxVoteWeight != nil {
		fmt.Fprintf(r.out, "  Max vote weight: %d\n", *p.MaxVoteWeight)
	}
	fmt.Fprintf(r.out, "  Voting: %s .. %s\n", optTime(p.VotingAt), optTime(p.VotingCompletedAt))

	t := newTable()
	t.AppendHeader(table.Row{"#", "Option", "Weight", "Share", "Result", "Txs", "Executed"})
	for i, o := range p.Options {
		t.AppendRow(table.Row{i, o.Label, o.VoteWeight, share(o.VoteWeight, p.MaxVoteWeight), resultString(o.VoteResult),
			o.TransactionsCount, o.TransactionsExecutedCount})
	}
	if p.DenyVoteWeight != nil {
		t.AppendRow(table.Row{"-", "deny", *p.DenyVoteWeight, share(*p.DenyVoteWeight, p.MaxVoteWeight), "", "", ""})
	}
	t.AppendFooter(table.Row{"", "abstain / veto", fmt.Sprintf("%d / %d", p.AbstainVoteWeight, p.VetoVoteWeight),
		"turnout " + share(p.Turnout, p.MaxVoteWeight), "", "", ""})
	fmt.Fprintln(r.out, t.Render())

	if len(votes) > 0 {
		vt := newTable()
		vt.AppendHeader(table.Row{"Voter", "Vote", "Weight", "Relinquished"})
		for _, a := range votes {
			v := snap.Votes[a]
			vt.AppendRow(table.Row{v.GoverningTokenOwner, v.Vote.Kind, v.VoterWeight, v.IsRelinquished})
		}
		fmt.Fprintln(r.out, vt.Render())
	}
	if len(txs) > 0 {
		tt := newTable()
		tt.AppendHeader(table.Row{"Transaction", "Option", "Index", "Hold up", "Status"})
		for _, a := range txs {
			tx := snap.Transactions[a]
			tt.AppendRow(table.Row{a, tx.OptionIndex, tx.TransactionIndex, fmt.Sprintf("%ds", tx.HoldUpTime), tx.ExecutionStatus})
		}
		fmt.Fprintln(r.out, tt.Render())
	}
	return nil
}

// Keys lists the keystore.
func (r *Renderer) Keys(names []string, addrs []sdk.Address) error {
	if r.json {
		return writeJSONList(r.out, "keys", lo.Map(names, func(n string, i int) object {
			return object{{"name", n}, {"address", addrs[i]}}
		}))
	}
	t := newTable()
	t.AppendHeader(table.Row{"Name", "Address"})
	for i, n := range names {
		t.AppendRow(table.Row{n, addrs[i]})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

// Invariants reports a CheckInvariants result, one violation per line.
func (r *Renderer) Invariants(err error) error {
	var lines []string
	if err != nil {
		lines = strings.Split(err.Error(), "\n")
	}
	if r.json {
		if werr := writeJSON(r.out, object{{"ok", err == nil}, {"violations", lines}}); werr != nil {
			return werr
		}
		return err
	}
	if err == nil {
		fmt.Fprintln(r.out, FormatSuccess("all records consistent"))
		return nil
	}
	for _, l := range lines {
		fmt.Fprintln(r.out, FormatError(l))
	}
	return err
}
