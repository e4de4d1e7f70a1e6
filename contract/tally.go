package contract

import (
	"math/big"
	"slices"

	"github.com/shopspring/decimal"

	"realms_dao/contract/dao"
)

func dec(x uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(x), 0)
}

// percentOf is ceil(pct% of max).
func percentOf(pct uint8, max uint64) uint64 {
	if pct == 0 || max == 0 {
		return 0
	}
	v := dec(max).Mul(dec(uint64(pct))).Div(dec(100)).Ceil()
	return v.BigInt().Uint64()
}

// shareOf is floor(pct% of weight), the part of a ballot given to one option.
func shareOf(weight uint64, pct uint8) uint64 {
	if pct >= 100 {
		return weight
	}
	return dec(weight).Mul(dec(uint64(pct))).Div(dec(100)).Floor().BigInt().Uint64()
}

// tally is a snapshot of a proposal's weights against its frozen limits.
type tally struct {
	single  bool
	options []uint64
	// maxWinning caps succeeded options of a multi choice vote, 0 for no cap
	maxWinning int
	deny    uint64
	turnout uint64
	veto    uint64

	max       uint64
	threshold uint64
	quorum    uint64

	vetoEnabled   bool
	vetoMax       uint64
	vetoThreshold uint64
}

// newTally reads the weights of p. voteThreshold applies to the proposal mint and
// vetoThreshold to the opposite mint.
func newTally(p *dao.Proposal, cfg *dao.GovernanceConfig, voteThreshold, vetoThreshold dao.VoteThreshold) tally {
	t := tally{
		single:  p.VoteType.Kind == dao.VoteTypeSingleChoice,
		options: make([]uint64, len(p.Options)),
		veto:    p.VetoVoteWeight,
		turnout: p.Turnout,
	}
	for i, o := range p.Options {
		t.options[i] = o.VoteWeight
	}
	if !t.single && int(p.VoteType.MaxWinningOptions) < len(p.Options) {
		t.maxWinning = int(p.VoteType.MaxWinningOptions)
	}
	if p.DenyVoteWeight != nil {
		t.deny = *p.DenyVoteWeight
	}
	if p.MaxVoteWeight != nil {
		t.max = *p.MaxVoteWeight
	}
	t.threshold = percentOf(voteThreshold.Percentage, t.max)
	if t.threshold == 0 {
		t.threshold = 1
	}
	t.quorum = percentOf(cfg.QuorumPercentage, t.max)
	if p.VetoMaxVoteWeight != nil && vetoThreshold.Enabled() {
		t.vetoMax = *p.VetoMaxVoteWeight
		t.vetoThreshold = percentOf(vetoThreshold.Percentage, t.vetoMax)
		t.vetoEnabled = t.vetoThreshold > 0
	}
	return t
}

func (t tally) remaining() uint64 {
	if t.turnout >= t.max {
		return 0
	}
	return t.max - t.turnout
}

func (t tally) vetoed() bool {
	return t.vetoEnabled && t.veto >= t.vetoThreshold
}

func (t tally) passes(w uint64) bool {
	return w >= t.threshold && w > t.deny
}

// capWinners keeps the maxWinning heaviest succeeded options. Options tied across the
// cut are all defeated.
func (t tally) capWinners(results []dao.OptionVoteResult) {
	if t.maxWinning == 0 {
		return
	}
	weights := make([]uint64, 0, len(results))
	for i, r := range results {
		if r == dao.OptionVoteSucceeded {
			weights = append(weights, t.options[i])
		}
	}
	if len(weights) <= t.maxWinning {
		return
	}
	slices.SortFunc(weights, func(a, b uint64) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	})
	cut, next := weights[t.maxWinning-1], weights[t.maxWinning]
	for i, r := range results {
		w := t.options[i]
		if r == dao.OptionVoteSucceeded && (w < cut || (w == cut && cut == next)) {
			results[i] = dao.OptionVoteDefeated
		}
	}
}

func allResults(n int, r dao.OptionVoteResult) []dao.OptionVoteResult {
	out := make([]dao.OptionVoteResult, n)
	for i := range out {
		out[i] = r
	}
	return out
}

// final decides the outcome as if no more votes will come.
func (t tally) final() (dao.ProposalState, []dao.OptionVoteResult) {
	n := len(t.options)
	if t.vetoed() {
		return dao.ProposalStateVetoed, allResults(n, dao.OptionVoteDefeated)
	}
	if t.turnout < t.quorum {
		return dao.ProposalStateDefeated, allResults(n, dao.OptionVoteDefeated)
	}
	results := allResults(n, dao.OptionVoteDefeated)
	if t.single {
		best, ties := -1, 0
		for i, w := range t.options {
			if !t.passes(w) {
				continue
			}
			switch {
			case best < 0 || w > t.options[best]:
				best, ties = i, 0
			case w == t.options[best]:
				ties++
			}
		}
		if best < 0 || ties > 0 {
			return dao.ProposalStateDefeated, results
		}
		results[best] = dao.OptionVoteSucceeded
		return dao.ProposalStateSucceeded, results
	}
	for i, w := range t.options {
		if t.passes(w) {
			results[i] = dao.OptionVoteSucceeded
		}
	}
	t.capWinners(results)
	if slices.Contains(results, dao.OptionVoteSucceeded) {
		return dao.ProposalStateSucceeded, results
	}
	return dao.ProposalStateDefeated, results
}

// tip decides the outcome before the voting window ends when the mode allows it.
// council tells if the proposal is voted with the council mint.
func (t tally) tip(mode dao.VoteTipping, council bool) (dao.ProposalState, []dao.OptionVoteResult, bool) {
	if t.vetoed() {
		return dao.ProposalStateVetoed, allResults(len(t.options), dao.OptionVoteDefeated), true
	}
	switch mode {
	case dao.VoteTippingDisabled:
		return 0, nil, false
	case dao.VoteTippingEarlyOnEither:
		if s, r, ok := t.early(); ok {
			return s, r, true
		}
	case dao.VoteTippingEarlyOnCouncil:
		if council {
			if s, r, ok := t.early(); ok {
				return s, r, true
			}
		}
	}
	return t.strict()
}

// early tips to success as soon as the current weights already pass.
func (t tally) early() (dao.ProposalState, []dao.OptionVoteResult, bool) {
	s, r := t.final()
	if s != dao.ProposalStateSucceeded {
		return 0, nil, false
	}
	return s, r, true
}

// strict tips only when no distribution of the weight still outstanding can change
// the result. Outstanding weight may all go to deny, to any single competitor, or to
// the veto.
func (t tally) strict() (dao.ProposalState, []dao.OptionVoteResult, bool) {
	n := len(t.options)
	rem := t.remaining()
	vetoSettled := !t.vetoEnabled || t.vetoMax < t.vetoThreshold

	canPass := func(w uint64) bool {
		return w+rem >= t.threshold && w+rem > t.deny
	}
	surePass := func(w uint64) bool {
		return w >= t.threshold && w > t.deny+rem
	}

	anyCanPass := false
	for _, w := range t.options {
		if canPass(w) {
			anyCanPass = true
			break
		}
	}
	if !anyCanPass && vetoSettled {
		return dao.ProposalStateDefeated, allResults(n, dao.OptionVoteDefeated), true
	}
	if !vetoSettled || t.turnout < t.quorum {
		return 0, nil, false
	}

	results := allResults(n, dao.OptionVoteDefeated)
	if t.single {
		leader := -1
		for i, w := range t.options {
			if leader < 0 || w > t.options[leader] {
				leader = i
			}
		}
		if leader < 0 || !surePass(t.options[leader]) {
			return 0, nil, false
		}
		lw := t.options[leader]
		for i, w := range t.options {
			if i != leader && lw <= w+rem {
				return 0, nil, false
			}
		}
		results[leader] = dao.OptionVoteSucceeded
		return dao.ProposalStateSucceeded, results, true
	}

	// with more contenders than winning slots the ranking can still change
	if t.maxWinning > 0 {
		contenders := 0
		for _, w := range t.options {
			if canPass(w) {
				contenders++
			}
		}
		if contenders > t.maxWinning {
			return 0, nil, false
		}
	}

	anyPass := false
	for i, w := range t.options {
		switch {
		case surePass(w):
			results[i] = dao.OptionVoteSucceeded
			anyPass = true
		case canPass(w):
			return 0, nil, false
		}
	}
	if !anyPass {
		return dao.ProposalStateDefeated, results, true
	}
	return dao.ProposalStateSucceeded, results, true
}
