package contract

import (
	"fmt"

	"realms_dao/contract/dao"
	"realms_dao/sdk"
)

// requireSigner fails unless addr signed the instruction.
func requireSigner(ctx *sdk.Context, addr Address, what string) error {
	if !ctx.IsSigner(addr) {
		return fmt.Errorf("%w: %s %s", ErrMissingSignature, what, addr)
	}
	return nil
}

// requireOwnerOrDelegate accepts the record owner or its governance delegate, signed.
func requireOwnerOrDelegate(ctx *sdk.Context, tor *dao.TokenOwnerRecord, authority Address) error {
	isOwner := tor.Owner.Equals(authority)
	isDelegate := tor.GovernanceDelegate != nil && tor.GovernanceDelegate.Equals(authority)
	if !isOwner && !isDelegate {
		return fmt.Errorf("%w: %s", ErrGoverningTokenOwnerOrDelegateMustSign, authority)
	}
	if !ctx.IsSigner(authority) {
		return fmt.Errorf("%w: %s", ErrGoverningTokenOwnerOrDelegateMustSign, authority)
	}
	return nil
}

// requireRealmAuthority checks the realm authority is set, matches and signed.
func requireRealmAuthority(ctx *sdk.Context, realm *dao.Realm, authority Address) error {
	if realm.Authority == nil || !realm.Authority.Equals(authority) {
		return fmt.Errorf("%w: %s", ErrInvalidRealmAuthority, authority)
	}
	return requireSigner(ctx, authority, "realm authority")
}

// GovernanceSigner lets a nested invocation act as a governance and its native treasury.
// Only signerFor hands one out, once the proposal is checked to belong to the
// governance and to have passed.
type GovernanceSigner struct {
	governance Address
	seeds      [][][]byte
}

// Governance is the address the capability signs for.
func (s *GovernanceSigner) Governance() Address { return s.governance }

// Invoke runs the instructions as one unit, signed by the governance and its treasury.
func (s *GovernanceSigner) Invoke(ctx *sdk.Context, ixs []sdk.Instruction) error {
	return ctx.InvokeGroup(ixs, s.seeds...)
}

func signerFor(ctx *sdk.Context, govAddr Address, gov *dao.Governance, proposal *dao.Proposal) (*GovernanceSigner, error) {
	if !proposal.Governance.Equals(govAddr) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidGovernanceForProposal, proposal.Governance)
	}
	switch proposal.State {
	case dao.ProposalStateSucceeded, dao.ProposalStateExecuting, dao.ProposalStateExecutingWithErrors:
	default:
		return nil, fmt.Errorf("%w: %s cannot execute", ErrInvalidProposalState, proposal.State)
	}
	govPA, err := expect(govAddr, "governance", ctx.ProgramID, governanceSeeds(gov.Realm, gov.GovernedAccount)...)
	if err != nil {
		return nil, err
	}
	treasury, err := derive(ctx.ProgramID, nativeTreasurySeeds(govAddr)...)
	if err != nil {
		return nil, err
	}
	return &GovernanceSigner{
		governance: govAddr,
		seeds:      [][][]byte{govPA.signerSeeds(), treasury.signerSeeds()},
	}, nil
}
