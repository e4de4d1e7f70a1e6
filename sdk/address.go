package sdk

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Address is the 32 byte account identity every record and resource is keyed by.
type Address = solana.PublicKey

// well known program identities of the host
var (
	SystemProgramID = solana.SystemProgramID
	TokenProgramID  = solana.TokenProgramID
	LoaderProgramID = solana.BPFLoaderUpgradeableProgramID
	ZeroAddress     = solana.PublicKey{}
)

const (
	maxSeedLength    = 32
	maxSeedsPerDeriv = 16
)

// AddressFromString parses the base58 form, the one users copy around.
// Example payload: AddressFromString("GovER5Lthms3bLBqWub97yVrMmEogzX7xNjdXpPPCVZw")
func AddressFromString(s string) (Address, error) {
	pk, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return ZeroAddress, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return pk, nil
}

// FindAddress derives the canonical program address and its bump for the seeds.
// Example payload: FindAddress([][]byte{[]byte("governance"), []byte("dao")}, programID)
func FindAddress(seeds [][]byte, programID Address) (Address, uint8, error) {
	if len(seeds) >= maxSeedsPerDeriv {
		return ZeroAddress, 0, fmt.Errorf("too many seeds: %d", len(seeds))
	}
	for _, s := range seeds {
		if len(s) > maxSeedLength {
			return ZeroAddress, 0, fmt.Errorf("seed longer than %d bytes", maxSeedLength)
		}
	}
	return solana.FindProgramAddress(seeds, programID)
}

// CreateAddress recomputes a program address from seeds that already carry the bump.
func CreateAddress(seeds [][]byte, programID Address) (Address, error) {
	return solana.CreateProgramAddress(seeds, programID)
}

// NewKeypair is used by the cli and tests to mint fresh wallet identities.
func NewKeypair() (solana.PrivateKey, error) {
	return solana.NewRandomPrivateKey()
}
