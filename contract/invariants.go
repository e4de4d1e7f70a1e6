package contract

import (
	"errors"
	"fmt"

	"realms_dao/contract/dao"
	"realms_dao/sdk"
)

// Snapshot is every record of the program, decoded and grouped by type.
type Snapshot struct {
	Realms        map[Address]*dao.Realm
	Records       map[Address]*dao.TokenOwnerRecord
	Governances   map[Address]*dao.Governance
	Proposals     map[Address]*dao.Proposal
	Signatories   map[Address]*dao.SignatoryRecord
	Votes         map[Address]*dao.VoteRecord
	Transactions  map[Address]*dao.ProposalTransaction
	Deposits      map[Address]*dao.ProposalDeposit
	Configs       map[Address]*dao.RealmConfigAccount
	Uninterpreted []Address
}

// LoadSnapshot reads all accounts owned by programID. s has to be an sdk.Scanner.
func LoadSnapshot(s sdk.State, programID Address) (*Snapshot, error) {
	accounts, err := sdk.ListAccounts(s, programID)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{
		Realms:       map[Address]*dao.Realm{},
		Records:      map[Address]*dao.TokenOwnerRecord{},
		Governances:  map[Address]*dao.Governance{},
		Proposals:    map[Address]*dao.Proposal{},
		Signatories:  map[Address]*dao.SignatoryRecord{},
		Votes:        map[Address]*dao.VoteRecord{},
		Transactions: map[Address]*dao.ProposalTransaction{},
		Deposits:     map[Address]*dao.ProposalDeposit{},
		Configs:      map[Address]*dao.RealmConfigAccount{},
	}
	for addr, acc := range accounts {
		var derr error
		switch dao.PeekAccountType(acc.Data) {
		case dao.AccountTypeRealmV2:
			snap.Realms[addr], derr = dao.DecodeRealm(acc.Data)
		case dao.AccountTypeTokenOwnerRecordV2:
			snap.Records[addr], derr = dao.DecodeTokenOwnerRecord(acc.Data)
		case dao.AccountTypeGovernanceV2:
			snap.Governances[addr], derr = dao.DecodeGovernance(acc.Data)
		case dao.AccountTypeProposalV2:
			snap.Proposals[addr], derr = dao.DecodeProposal(acc.Data)
		case dao.AccountTypeSignatoryRecordV2:
			snap.Signatories[addr], derr = dao.DecodeSignatoryRecord(acc.Data)
		case dao.AccountTypeVoteRecordV2:
			snap.Votes[addr], derr = dao.DecodeVoteRecord(acc.Data)
		case dao.AccountTypeProposalTransactionV2:
			snap.Transactions[addr], derr = dao.DecodeProposalTransaction(acc.Data)
		case dao.AccountTypeProposalDeposit:
			snap.Deposits[addr], derr = dao.DecodeProposalDeposit(acc.Data)
		case dao.AccountTypeRealmConfig:
			snap.Configs[addr], derr = dao.DecodeRealmConfigAccount(acc.Data)
		default:
			snap.Uninterpreted = append(snap.Uninterpreted, addr)
		}
		if derr != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidAccountData, addr, derr)
		}
	}
	return snap, nil
}

func isActive(s dao.ProposalState) bool {
	return s == dao.ProposalStateDraft || s == dao.ProposalStateSigningOff || s == dao.ProposalStateVoting
}

// CheckInvariants cross checks the counters kept on records against the records that
// back them. It returns every violation found, joined.
func CheckInvariants(s sdk.State, programID Address) error {
	snap, err := LoadSnapshot(s, programID)
	if err != nil {
		return err
	}
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	outstanding := map[Address]int{}
	active := map[Address]int{}
	for _, prop := range snap.Proposals {
		if isActive(prop.State) {
			outstanding[prop.TokenOwnerRecord]++
			active[prop.Governance]++
		}
	}

	for torAddr, tor := range snap.Records {
		votes := 0
		for propAddr := range snap.Proposals {
			vr, ok := snap.Votes[VoteRecordAddress(programID, propAddr, torAddr)]
			if ok && !vr.IsRelinquished {
				votes++
			}
		}
		if uint64(votes) != tor.UnrelinquishedVotesCount {
			fail("record %s: %d unrelinquished votes counted, %d vote records", torAddr, tor.UnrelinquishedVotesCount, votes)
		}
		if int(tor.OutstandingProposalCount) != outstanding[torAddr] {
			fail("record %s: %d outstanding proposals counted, %d active", torAddr, tor.OutstandingProposalCount, outstanding[torAddr])
		}
	}

	for govAddr, gov := range snap.Governances {
		if gov.ActiveProposalCount != uint64(active[govAddr]) {
			fail("governance %s: %d active proposals counted, %d found", govAddr, gov.ActiveProposalCount, active[govAddr])
		}
	}

	type slot struct {
		proposal Address
		option   uint8
	}
	txs := map[slot]int{}
	executed := map[slot]int{}
	for _, tx := range snap.Transactions {
		k := slot{tx.Proposal, tx.OptionIndex}
		txs[k]++
		if tx.ExecutionStatus == dao.TransactionStatusSuccess {
			executed[k]++
		}
	}
	signatories := map[Address]int{}
	signedOff := map[Address]int{}
	for _, sr := range snap.Signatories {
		signatories[sr.Proposal]++
		if sr.SignedOff {
			signedOff[sr.Proposal]++
		}
	}

	for propAddr, prop := range snap.Proposals {
		for i, o := range prop.Options {
			k := slot{propAddr, uint8(i)}
			if int(o.TransactionsCount) != txs[k] {
				fail("proposal %s option %d: %d transactions counted, %d found", propAddr, i, o.TransactionsCount, txs[k])
			}
			if int(o.TransactionsExecutedCount) != executed[k] {
				fail("proposal %s option %d: %d executed counted, %d found", propAddr, i, o.TransactionsExecutedCount, executed[k])
			}
		}
		if int(prop.SignatoriesCount) != signatories[propAddr] {
			fail("proposal %s: %d signatories counted, %d found", propAddr, prop.SignatoriesCount, signatories[propAddr])
		}
		if int(prop.SignatoriesSignedOffCount) != signedOff[propAddr] {
			fail("proposal %s: %d sign offs counted, %d found", propAddr, prop.SignatoriesSignedOffCount, signedOff[propAddr])
		}
		if prop.State.Rank() >= dao.ProposalStateVoting.Rank() && prop.State != dao.ProposalStateCancelled &&
			(prop.VotingAt == nil || prop.MaxVoteWeight == nil) {
			fail("proposal %s: %s without a voting snapshot", propAddr, prop.State)
		}
	}

	for realmAddr, realm := range snap.Realms {
		mints := []Address{realm.CommunityMint}
		if realm.Config.CouncilMint != nil {
			mints = append(mints, *realm.Config.CouncilMint)
		}
		for _, mint := range mints {
			var deposited uint64
			for _, tor := range snap.Records {
				if tor.Realm.Equals(realmAddr) && tor.GoverningMint.Equals(mint) {
					deposited += tor.DepositAmount
				}
			}
			holding, err := sdk.LoadTokenAccount(s, HoldingAddress(programID, realmAddr, mint))
			if err != nil {
				fail("realm %s: holding of %s: %v", realmAddr, mint, err)
				continue
			}
			if holding.Amount != deposited {
				fail("realm %s: holding of %s has %d, records hold %d", realmAddr, mint, holding.Amount, deposited)
			}
		}
	}
	return errors.Join(errs...)
}
