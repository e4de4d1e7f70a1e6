package contract

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"realms_dao/contract/dao"
)

// =============================================================================
// Arithmetic
// =============================================================================

// TestPercentOfRoundsUp checks thresholds are never rounded in favour of a proposal.
func TestPercentOfRoundsUp(t *testing.T) {
	assert.Equal(t, uint64(60), percentOf(60, 100))
	assert.Equal(t, uint64(61), percentOf(60, 101))
	assert.Equal(t, uint64(1), percentOf(1, 1))
	assert.Equal(t, uint64(0), percentOf(0, 1_000))
	assert.Equal(t, uint64(0), percentOf(50, 0))
	assert.Equal(t, ^uint64(0), percentOf(100, ^uint64(0)))
}

// TestShareOfRoundsDown checks a weighted ballot never hands out more than the voter holds.
func TestShareOfRoundsDown(t *testing.T) {
	assert.Equal(t, uint64(50), shareOf(101, 50))
	assert.Equal(t, uint64(101), shareOf(101, 100))
	assert.Equal(t, uint64(0), shareOf(1, 99))
	assert.Equal(t, uint64(0), shareOf(1_000, 0))
}

// =============================================================================
// Final outcome
// =============================================================================

func proposalWith(single bool, max uint64, options ...uint64) *dao.Proposal {
	p := &dao.Proposal{VoteType: dao.SingleChoice(), MaxVoteWeight: &max, DenyVoteWeight: new(uint64)}
	if !single {
		p.VoteType = dao.MultiChoice(uint8(len(options)), uint8(len(options)))
	}
	for _, w := range options {
		p.Options = append(p.Options, dao.ProposalOption{VoteWeight: w})
		p.Turnout += w
	}
	return p
}

// TestThresholdNeverZero checks an empty electorate cannot pass a proposal with no votes.
func TestThresholdNeverZero(t *testing.T) {
	p := proposalWith(true, 0, 0)
	tl := newTally(p, &dao.GovernanceConfig{}, dao.YesVotePercentage(60), dao.DisabledThreshold())
	assert.Equal(t, uint64(1), tl.threshold)
	state, results := tl.final()
	assert.Equal(t, dao.ProposalStateDefeated, state)
	assert.Equal(t, []dao.OptionVoteResult{dao.OptionVoteDefeated}, results)
}

// TestSingleChoiceTieIsDefeated checks two equally supported options both lose.
func TestSingleChoiceTieIsDefeated(t *testing.T) {
	p := proposalWith(true, 100, 40, 40, 10)
	tl := newTally(p, &dao.GovernanceConfig{}, dao.YesVotePercentage(30), dao.DisabledThreshold())
	state, results := tl.final()
	assert.Equal(t, dao.ProposalStateDefeated, state)
	for _, r := range results {
		assert.Equal(t, dao.OptionVoteDefeated, r)
	}

	p.Options[1].VoteWeight = 39
	state, results = newTally(p, &dao.GovernanceConfig{}, dao.YesVotePercentage(30), dao.DisabledThreshold()).final()
	assert.Equal(t, dao.ProposalStateSucceeded, state)
	assert.Equal(t, []dao.OptionVoteResult{dao.OptionVoteSucceeded, dao.OptionVoteDefeated, dao.OptionVoteDefeated}, results)
}

// TestMultiChoiceEachOptionOnItsOwn checks options pass or fail independently.
func TestMultiChoiceEachOptionOnItsOwn(t *testing.T) {
	p := proposalWith(false, 100, 70, 20, 60)
	*p.DenyVoteWeight = 25
	state, results := newTally(p, &dao.GovernanceConfig{}, dao.YesVotePercentage(50), dao.DisabledThreshold()).final()
	assert.Equal(t, dao.ProposalStateSucceeded, state)
	assert.Equal(t, []dao.OptionVoteResult{dao.OptionVoteSucceeded, dao.OptionVoteDefeated, dao.OptionVoteSucceeded}, results)
}

// TestDenyBeatsOption checks an option needs more weight than deny even above threshold.
func TestDenyBeatsOption(t *testing.T) {
	p := proposalWith(true, 100, 45)
	*p.DenyVoteWeight = 45
	p.Turnout += 45
	state, _ := newTally(p, &dao.GovernanceConfig{}, dao.YesVotePercentage(40), dao.DisabledThreshold()).final()
	assert.Equal(t, dao.ProposalStateDefeated, state)
}

// TestVetoTakesPrecedence checks a veto defeats an otherwise winning proposal.
func TestVetoTakesPrecedence(t *testing.T) {
	p := proposalWith(true, 100, 90)
	vetoMax := uint64(10)
	p.VetoMaxVoteWeight = &vetoMax
	p.VetoVoteWeight = 5
	tl := newTally(p, &dao.GovernanceConfig{}, dao.YesVotePercentage(60), dao.YesVotePercentage(50))
	state, results := tl.final()
	assert.Equal(t, dao.ProposalStateVetoed, state)
	assert.Equal(t, []dao.OptionVoteResult{dao.OptionVoteDefeated}, results)

	state, _, ok := tl.tip(dao.VoteTippingDisabled, false)
	assert.True(t, ok)
	assert.Equal(t, dao.ProposalStateVetoed, state)

	p.VetoVoteWeight = 4
	state, _ = newTally(p, &dao.GovernanceConfig{}, dao.YesVotePercentage(60), dao.YesVotePercentage(50)).final()
	assert.Equal(t, dao.ProposalStateSucceeded, state)
}

// TestQuorumDefeats checks turnout below quorum defeats even a unanimous vote.
func TestQuorumDefeats(t *testing.T) {
	p := proposalWith(true, 100, 20)
	cfg := &dao.GovernanceConfig{QuorumPercentage: 25}
	state, _ := newTally(p, cfg, dao.YesVotePercentage(10), dao.DisabledThreshold()).final()
	assert.Equal(t, dao.ProposalStateDefeated, state)

	p.AbstainVoteWeight = 5
	p.Turnout += 5
	state, _ = newTally(p, cfg, dao.YesVotePercentage(10), dao.DisabledThreshold()).final()
	assert.Equal(t, dao.ProposalStateSucceeded, state)
}

// TestMaxWinningOptions checks a multi choice vote never ends with more winners than
// allowed, and a tie across the cut defeats every tied option.
func TestMaxWinningOptions(t *testing.T) {
	p := proposalWith(false, 200, 160, 160)
	p.VoteType.MaxWinningOptions = 1
	state, results := newTally(p, &dao.GovernanceConfig{}, dao.YesVotePercentage(60), dao.DisabledThreshold()).final()
	assert.Equal(t, dao.ProposalStateDefeated, state)
	assert.Equal(t, []dao.OptionVoteResult{dao.OptionVoteDefeated, dao.OptionVoteDefeated}, results)

	p.Options[1].VoteWeight = 150
	state, results = newTally(p, &dao.GovernanceConfig{}, dao.YesVotePercentage(60), dao.DisabledThreshold()).final()
	assert.Equal(t, dao.ProposalStateSucceeded, state)
	assert.Equal(t, []dao.OptionVoteResult{dao.OptionVoteSucceeded, dao.OptionVoteDefeated}, results)

	p = proposalWith(false, 200, 90, 80, 80, 10)
	p.VoteType.MaxWinningOptions = 2
	state, results = newTally(p, &dao.GovernanceConfig{}, dao.YesVotePercentage(30), dao.DisabledThreshold()).final()
	assert.Equal(t, dao.ProposalStateSucceeded, state)
	assert.Equal(t, []dao.OptionVoteResult{dao.OptionVoteSucceeded, dao.OptionVoteDefeated,
		dao.OptionVoteDefeated, dao.OptionVoteDefeated}, results)

	// a cap at the option count is no cap
	p.VoteType.MaxWinningOptions = 4
	_, results = newTally(p, &dao.GovernanceConfig{}, dao.YesVotePercentage(30), dao.DisabledThreshold()).final()
	assert.Equal(t, []dao.OptionVoteResult{dao.OptionVoteSucceeded, dao.OptionVoteSucceeded,
		dao.OptionVoteSucceeded, dao.OptionVoteDefeated}, results)
}

// =============================================================================
// Tipping
// =============================================================================

// TestStrictTipping walks one proposal through the strict tipping points.
func TestStrictTipping(t *testing.T) {
	p := proposalWith(true, 100, 50)
	tl := newTally(p, &dao.GovernanceConfig{}, dao.YesVotePercentage(60), dao.DisabledThreshold())
	_, _, ok := tl.tip(dao.VoteTippingStrict, false)
	assert.False(t, ok, "50 of 100 with 50 outstanding must wait")

	p.Options[0].VoteWeight, p.Turnout = 59, 59
	_, _, ok = newTally(p, &dao.GovernanceConfig{}, dao.YesVotePercentage(60), dao.DisabledThreshold()).tip(dao.VoteTippingStrict, false)
	assert.False(t, ok, "one short of the threshold")

	p.Options[0].VoteWeight, p.Turnout = 60, 60
	state, results, ok := newTally(p, &dao.GovernanceConfig{}, dao.YesVotePercentage(60), dao.DisabledThreshold()).tip(dao.VoteTippingStrict, false)
	require.True(t, ok)
	assert.Equal(t, dao.ProposalStateSucceeded, state)
	assert.Equal(t, dao.OptionVoteSucceeded, results[0])

	q := proposalWith(true, 100, 0)
	*q.DenyVoteWeight, q.Turnout = 60, 60
	state, _, ok = newTally(q, &dao.GovernanceConfig{}, dao.YesVotePercentage(60), dao.DisabledThreshold()).tip(dao.VoteTippingStrict, false)
	require.True(t, ok)
	assert.Equal(t, dao.ProposalStateDefeated, state)
}

// TestEarlyTipping checks early modes tip as soon as the current weights pass.
func TestEarlyTipping(t *testing.T) {
	p := proposalWith(true, 100, 40)
	tl := newTally(p, &dao.GovernanceConfig{}, dao.YesVotePercentage(30), dao.DisabledThreshold())

	state, _, ok := tl.tip(dao.VoteTippingEarlyOnEither, false)
	require.True(t, ok)
	assert.Equal(t, dao.ProposalStateSucceeded, state)

	_, _, ok = tl.tip(dao.VoteTippingEarlyOnCouncil, false)
	assert.False(t, ok, "60 outstanding could still deny a community vote")
	_, _, ok = tl.tip(dao.VoteTippingEarlyOnCouncil, true)
	assert.True(t, ok)
	_, _, ok = tl.tip(dao.VoteTippingDisabled, true)
	assert.False(t, ok)
}

// TestStrictTippingWaitsOnVeto checks outstanding veto weight holds a passing vote open.
func TestStrictTippingWaitsOnVeto(t *testing.T) {
	p := proposalWith(true, 100, 90)
	vetoMax := uint64(10)
	p.VetoMaxVoteWeight = &vetoMax
	_, _, ok := newTally(p, &dao.GovernanceConfig{}, dao.YesVotePercentage(60), dao.YesVotePercentage(50)).tip(dao.VoteTippingStrict, false)
	assert.False(t, ok)
}

// completion is one way the outstanding weight of a tally could still be cast.
func completion(f *gofakeit.Faker, t tally) tally {
	c := t
	c.options = append([]uint64(nil), t.options...)
	rem := t.remaining()
	d := f.Uint64() % (rem + 1)
	a := f.Uint64() % (rem - d + 1)
	abstain := f.Uint64() % (rem - d - a + 1)
	c.deny += d
	c.turnout += d + a + abstain
	if c.single {
		left := a
		for i := range c.options {
			share := f.Uint64() % (left + 1)
			if i == len(c.options)-1 {
				share = left
			}
			c.options[i] += share
			left -= share
		}
		return c
	}
	for i := range c.options {
		c.options[i] += f.Uint64() % (a + 1)
	}
	return c
}

// randomTally builds a consistent tally with veto disabled.
func randomTally(f *gofakeit.Faker) tally {
	max := uint64(f.IntRange(1, 1_000))
	turnout := f.Uint64() % (max + 1)
	deny := f.Uint64() % (turnout + 1)
	approve := f.Uint64() % (turnout - deny + 1)
	n := f.IntRange(1, 4)
	t := tally{
		single:  f.Bool(),
		options: make([]uint64, n),
		deny:    deny,
		turnout: turnout,
		max:     max,
	}
	t.threshold = percentOf(uint8(f.IntRange(1, 100)), max)
	if t.threshold == 0 {
		t.threshold = 1
	}
	t.quorum = percentOf(uint8(f.IntRange(0, 100)), max)
	if t.single {
		left := approve
		for i := range t.options {
			share := f.Uint64() % (left + 1)
			t.options[i] = share
			left -= share
		}
		return t
	}
	for i := range t.options {
		t.options[i] = f.Uint64() % (approve + 1)
	}
	if n > 1 && f.Bool() {
		t.maxWinning = f.IntRange(1, n-1)
	}
	return t
}

// TestStrictTippingIsFinal checks that whenever strict tipping closes a vote, every way
// the outstanding weight could still have been cast ends in the same outcome.
func TestStrictTippingIsFinal(t *testing.T) {
	f := gofakeit.New(7)
	tipped := 0
	for i := 0; i < 5_000; i++ {
		tl := randomTally(f)
		state, results, ok := tl.strict()
		if !ok {
			continue
		}
		tipped++
		for j := 0; j < 20; j++ {
			c := completion(f, tl)
			gotState, gotResults := c.final()
			if !assert.Equal(t, state, gotState, "tally %+v completed as %+v", tl, c) {
				return
			}
			if state == dao.ProposalStateSucceeded {
				assert.Equal(t, results, gotResults, "tally %+v completed as %+v", tl, c)
			}
		}
	}
	assert.Greater(t, tipped, 0)
}
