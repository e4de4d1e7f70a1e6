package contract

import (
	"fmt"

	"realms_dao/contract/dao"
	"realms_dao/sdk"
)

// AttestationRequest describes what a voter weight is about to be used for.
type AttestationRequest struct {
	Realm         Address
	GoverningMint Address
	Owner         Address
	Action        dao.VoterWeightAction
	// Target is the proposal for CastVote, the governance for CreateProposal and the
	// realm for CreateGovernance.
	Target *Address
	Record *dao.TokenOwnerRecord
}

// VoterWeightAttestation is an addin's statement of one owner's weight.
type VoterWeightAttestation struct {
	Realm         Address
	GoverningMint Address
	Owner         Address
	Weight        uint64
	ExpirySlot    *uint64
	Action        dao.VoterWeightAction
	ActionTarget  *Address
}

// VoterWeightSource computes voter weight outside the deposit ledger.
type VoterWeightSource interface {
	AttestedWeight(ctx *sdk.Context, req AttestationRequest) (VoterWeightAttestation, error)
}

// MaxVoterWeightAttestation is an addin's statement of the max weight of a mint.
type MaxVoterWeightAttestation struct {
	Realm         Address
	GoverningMint Address
	MaxWeight     uint64
	ExpirySlot    *uint64
}

type MaxVoterWeightSource interface {
	AttestedMaxWeight(ctx *sdk.Context, realm, mint Address) (MaxVoterWeightAttestation, error)
}

func fresh(ctx *sdk.Context, expiry *uint64) bool {
	return expiry != nil && *expiry == ctx.Clock().Slot
}

func sameTarget(a, b *Address) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equals(*b)
}

// voterWeight resolves the weight of tor for action, through the addin when the realm
// configures one for the mint.
func (p *Processor) voterWeight(ctx *sdk.Context, realmAddr Address, tc dao.GoverningTokenConfig,
	tor *dao.TokenOwnerRecord, action dao.VoterWeightAction, target *Address) (uint64, error) {
	if tc.VoterWeightAddin == nil {
		return p.ledger.CurrentWeight(tor), nil
	}
	src, ok := p.voterAddins[*tc.VoterWeightAddin]
	if !ok {
		return 0, fmt.Errorf("%w: addin %s not registered", ErrInvalidVoterWeightAttestation, *tc.VoterWeightAddin)
	}
	req := AttestationRequest{
		Realm:         realmAddr,
		GoverningMint: tor.GoverningMint,
		Owner:         tor.Owner,
		Action:        action,
		Target:        target,
		Record:        tor,
	}
	att, err := src.AttestedWeight(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidVoterWeightAttestation, err)
	}
	switch {
	case !fresh(ctx, att.ExpirySlot):
		return 0, fmt.Errorf("%w: stale", ErrInvalidVoterWeightAttestation)
	case !att.Realm.Equals(realmAddr), !att.GoverningMint.Equals(tor.GoverningMint), !att.Owner.Equals(tor.Owner):
		return 0, fmt.Errorf("%w: issued for another voter", ErrInvalidVoterWeightAttestation)
	case att.Action != action:
		return 0, fmt.Errorf("%w: issued for action %d", ErrInvalidVoterWeightAttestation, att.Action)
	case !sameTarget(att.ActionTarget, target):
		return 0, fmt.Errorf("%w: issued for another target", ErrInvalidVoterWeightAttestation)
	}
	return att.Weight, nil
}

// maxVoteWeight is the weight all holders of mint could cast together.
func (p *Processor) maxVoteWeight(ctx *sdk.Context, realmAddr Address, realm *dao.Realm,
	tc dao.GoverningTokenConfig, mint Address) (uint64, error) {
	if tc.MaxVoterWeightAddin != nil {
		src, ok := p.maxAddins[*tc.MaxVoterWeightAddin]
		if !ok {
			return 0, fmt.Errorf("%w: max addin %s not registered", ErrInvalidVoterWeightAttestation, *tc.MaxVoterWeightAddin)
		}
		att, err := src.AttestedMaxWeight(ctx, realmAddr, mint)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInvalidVoterWeightAttestation, err)
		}
		if !fresh(ctx, att.ExpirySlot) || !att.Realm.Equals(realmAddr) || !att.GoverningMint.Equals(mint) {
			return 0, fmt.Errorf("%w: max voter weight", ErrInvalidVoterWeightAttestation)
		}
		return att.MaxWeight, nil
	}
	m, err := sdk.LoadMint(ctx.State, mint)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidGoverningMint, err)
	}
	if !realm.CommunityMint.Equals(mint) {
		return m.Supply, nil
	}
	src := realm.Config.CommunityMintMaxVoterWeightSource
	if src.Kind == dao.MaxVoterWeightAbsolute {
		return src.Value, nil
	}
	return supplyFraction(m.Supply, src.Value), nil
}

func supplyFraction(supply, fraction uint64) uint64 {
	if fraction == dao.SupplyFractionBase {
		return supply
	}
	return dec(supply).Mul(dec(fraction)).Div(dec(dao.SupplyFractionBase)).Floor().BigInt().Uint64()
}
