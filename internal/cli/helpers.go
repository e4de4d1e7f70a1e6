package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"realms_dao/contract"
	"realms_dao/contract/dao"
	"realms_dao/internal/app"
	"realms_dao/internal/cli/render"
	"realms_dao/sdk"
)

// contextKey is the type for context keys
type contextKey string

const appKey contextKey = "app"

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	a, ok := cmd.Context().Value(appKey).(*app.App)
	if !ok || a == nil {
		return nil, fmt.Errorf("app not initialized")
	}
	return a, nil
}

func renderer(cmd *cobra.Command, a *app.App) *render.Renderer {
	return render.New(cmd.OutOrStdout(), a.Config.JSON)
}

// signers loads the named keys. The first one usually pays.
func signers(a *app.App, names ...string) ([]sdk.Address, error) {
	out := make([]sdk.Address, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		addr, err := a.Keystore.Signer(n)
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// submit signs with the named keys, runs ixs and renders the receipt. extra holds
// key/value pairs printed ahead of the logs.
func submit(cmd *cobra.Command, a *app.App, signerNames []string, extra []any, ixs ...sdk.Instruction) error {
	keys, err := signers(a, signerNames...)
	if err != nil {
		return err
	}
	receipt, err := a.Node.Submit(cmd.Context(), keys, ixs...)
	return renderer(cmd, a).Receipt(receipt, err, toFields(extra)...)
}

func toFields(kv []any) []render.FieldValue {
	out := make([]render.FieldValue, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, render.Field(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}

// realmRef accepts a realm name or address.
func realmRef(a *app.App, ref string) (sdk.Address, *dao.Realm, error) {
	if addr, err := sdk.AddressFromString(ref); err == nil {
		if realm, err := loadRecord(a, addr, dao.DecodeRealm); err == nil {
			return addr, realm, nil
		}
	}
	addr := contract.RealmAddress(a.Node.ProgramID(), ref)
	realm, err := loadRecord(a, addr, dao.DecodeRealm)
	if err != nil {
		return sdk.Address{}, nil, fmt.Errorf("realm %q: %w", ref, err)
	}
	return addr, realm, nil
}

func loadRecord[T any](a *app.App, addr sdk.Address, decode func([]byte) (*T, error)) (*T, error) {
	acc, err := sdk.ReadAccount(a.Node.Store(), addr)
	if err != nil {
		return nil, err
	}
	if !acc.Owner.Equals(a.Node.ProgramID()) {
		return nil, fmt.Errorf("%s is not a governance record", addr)
	}
	return decode(acc.Data)
}

// proposalCtx is everything commands acting on a proposal need to build accounts.
type proposalCtx struct {
	addr       sdk.Address
	proposal   *dao.Proposal
	govAddr    sdk.Address
	governance *dao.Governance
	realm      sdk.Address
}

func loadProposal(a *app.App, ref string) (*proposalCtx, error) {
	addr, err := sdk.AddressFromString(ref)
	if err != nil {
		return nil, err
	}
	prop, err := loadRecord(a, addr, dao.DecodeProposal)
	if err != nil {
		return nil, fmt.Errorf("proposal %s: %w", addr, err)
	}
	gov, err := loadRecord(a, prop.Governance, dao.DecodeGovernance)
	if err != nil {
		return nil, fmt.Errorf("governance %s: %w", prop.Governance, err)
	}
	return &proposalCtx{addr: addr, proposal: prop, govAddr: prop.Governance, governance: gov, realm: gov.Realm}, nil
}

// ownerRecord is the record of the proposal's owner.
func (p *proposalCtx) ownerRecord() sdk.Address { return p.proposal.TokenOwnerRecord }

// recordOf derives the token owner record of owner for mint in realm.
func recordOf(a *app.App, realm, mint, owner sdk.Address) sdk.Address {
	return contract.TokenOwnerRecordAddress(a.Node.ProgramID(), realm, mint, owner)
}

// TokenAccountFor is the deterministic token account the dev tooling keeps for
// owner and mint.
func TokenAccountFor(owner, mint sdk.Address) sdk.Address {
	addr, _, err := sdk.FindAddress([][]byte{owner[:], mint[:]}, sdk.TokenProgramID)
	if err != nil {
		panic(err)
	}
	return addr
}

// mintOf picks the realm's community or council mint.
func mintOf(realm *dao.Realm, council bool) (sdk.Address, error) {
	if !council {
		return realm.CommunityMint, nil
	}
	if realm.Config.CouncilMint == nil {
		return sdk.Address{}, fmt.Errorf("realm %s has no council mint", realm.Name)
	}
	return *realm.Config.CouncilMint, nil
}

// parseIndexes reads "0,2,3" style option lists.
func parseIndexes(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		i, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("option index %q: %w", p, err)
		}
		out = append(out, i)
	}
	return out, nil
}

func optionalAddress(a *app.App, ref string) (*sdk.Address, error) {
	if ref == "" {
		return nil, nil
	}
	addr, err := a.Keystore.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}
