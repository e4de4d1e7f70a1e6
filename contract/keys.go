package contract

import (
	"fmt"

	"realms_dao/sdk"
)

type Address = sdk.Address

var (
	// seedGovernance prefixes realms, holdings, token owner records, proposals,
	// signatory records, vote records and proposal transactions.
	seedGovernance = []byte("governance")
	// seedRealmConfig keys the per realm addin wiring.
	seedRealmConfig = []byte("realm-config")
	// seedAccountGovernance keys governances by realm and governed account.
	seedAccountGovernance = []byte("account-governance")
	// seedNativeTreasury keys the lamport treasury of a governance.
	seedNativeTreasury = []byte("native-treasury")
	// seedProposalDeposit keys deposits by proposal and payer.
	seedProposalDeposit = []byte("proposal-deposit")
	// seedMetadata is the single program metadata account.
	seedMetadata = []byte("metadata")
)

// packU16LE appends the little endian form of x to dst.
func packU16LE(x uint16, dst []byte) []byte {
	return append(dst, byte(x), byte(x>>8))
}

// programAddress is a derived address together with the seeds that sign for it.
type programAddress struct {
	Address Address
	seeds   [][]byte
}

// signerSeeds returns the derivation seeds with the bump appended.
func (pa programAddress) signerSeeds() [][]byte {
	return pa.seeds
}

func derive(programID Address, seeds ...[]byte) (programAddress, error) {
	addr, bump, err := sdk.FindAddress(seeds, programID)
	if err != nil {
		return programAddress{}, err
	}
	full := make([][]byte, 0, len(seeds)+1)
	full = append(full, seeds...)
	full = append(full, []byte{bump})
	return programAddress{Address: addr, seeds: full}, nil
}

// expect derives the address and rejects got when it differs.
func expect(got Address, what string, programID Address, seeds ...[]byte) (programAddress, error) {
	pa, err := derive(programID, seeds...)
	if err != nil {
		return programAddress{}, fmt.Errorf("%w: %s: %v", ErrInvalidAccountAddress, what, err)
	}
	if !pa.Address.Equals(got) {
		return programAddress{}, fmt.Errorf("%w: %s %s, expected %s", ErrInvalidAccountAddress, what, got, pa.Address)
	}
	return pa, nil
}

func realmSeeds(name string) [][]byte {
	return [][]byte{seedGovernance, []byte(name)}
}

func realmConfigSeeds(realm Address) [][]byte {
	return [][]byte{seedRealmConfig, realm[:]}
}

func holdingSeeds(realm, mint Address) [][]byte {
	return [][]byte{seedGovernance, realm[:], mint[:]}
}

func tokenOwnerRecordSeeds(realm, mint, owner Address) [][]byte {
	return [][]byte{seedGovernance, realm[:], mint[:], owner[:]}
}

func governanceSeeds(realm, governed Address) [][]byte {
	return [][]byte{seedAccountGovernance, realm[:], governed[:]}
}

func nativeTreasurySeeds(governance Address) [][]byte {
	return [][]byte{seedNativeTreasury, governance[:]}
}

func proposalSeeds(governance, mint, seed Address) [][]byte {
	return [][]byte{seedGovernance, governance[:], mint[:], seed[:]}
}

func proposalDepositSeeds(proposal, payer Address) [][]byte {
	return [][]byte{seedProposalDeposit, proposal[:], payer[:]}
}

func signatoryRecordSeeds(proposal, signatory Address) [][]byte {
	return [][]byte{seedGovernance, proposal[:], signatory[:]}
}

func voteRecordSeeds(proposal, tokenOwnerRecord Address) [][]byte {
	return [][]byte{seedGovernance, proposal[:], tokenOwnerRecord[:]}
}

func proposalTransactionSeeds(proposal Address, option uint8, index uint16) [][]byte {
	return [][]byte{seedGovernance, proposal[:], {option}, packU16LE(index, nil)}
}

func find(programID Address, seeds [][]byte) Address {
	pa, err := derive(programID, seeds...)
	if err != nil {
		return sdk.ZeroAddress
	}
	return pa.Address
}

// Address finders for clients. A derivation that cannot succeed, such as a realm
// name over 32 bytes, yields the zero address, which the program rejects.

func RealmAddress(programID Address, name string) Address {
	return find(programID, realmSeeds(name))
}

func RealmConfigAddress(programID, realm Address) Address {
	return find(programID, realmConfigSeeds(realm))
}

func HoldingAddress(programID, realm, mint Address) Address {
	return find(programID, holdingSeeds(realm, mint))
}

func TokenOwnerRecordAddress(programID, realm, mint, owner Address) Address {
	return find(programID, tokenOwnerRecordSeeds(realm, mint, owner))
}

func GovernanceAddress(programID, realm, governed Address) Address {
	return find(programID, governanceSeeds(realm, governed))
}

func NativeTreasuryAddress(programID, governance Address) Address {
	return find(programID, nativeTreasurySeeds(governance))
}

func ProposalAddress(programID, governance, mint, seed Address) Address {
	return find(programID, proposalSeeds(governance, mint, seed))
}

func ProposalDepositAddress(programID, proposal, payer Address) Address {
	return find(programID, proposalDepositSeeds(proposal, payer))
}

func SignatoryRecordAddress(programID, proposal, signatory Address) Address {
	return find(programID, signatoryRecordSeeds(proposal, signatory))
}

func VoteRecordAddress(programID, proposal, tokenOwnerRecord Address) Address {
	return find(programID, voteRecordSeeds(proposal, tokenOwnerRecord))
}

func ProposalTransactionAddress(programID, proposal Address, option uint8, index uint16) Address {
	return find(programID, proposalTransactionSeeds(proposal, option, index))
}

func ProgramMetadataAddress(programID Address) Address {
	return find(programID, [][]byte{seedMetadata})
}
