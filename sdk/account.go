package sdk

import (
	"errors"
	"fmt"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account already exists")
	ErrIllegalOwner       = errors.New("account not owned by the calling program")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrMissingSignature   = errors.New("missing required signature")
	ErrUnknownProgram     = errors.New("unknown program")
	ErrCallDepthExceeded  = errors.New("call depth exceeded")
	ErrInvalidInstruction = errors.New("invalid instruction")
)

const kAccount byte = 0x01

// Account is the unit of state: lamports, an owning program and opaque data only
// the owner may rewrite.
type Account struct {
	Lamports   uint64
	Owner      Address
	Executable bool
	Data       []byte
}

// AccountKey packs the address behind the account prefix.
func AccountKey(a Address) string {
	buf := make([]byte, 0, 33)
	buf = append(buf, kAccount)
	buf = append(buf, a[:]...)
	return string(buf)
}

// AddressFromKey reverses AccountKey, used by listings.
func AddressFromKey(key string) (Address, bool) {
	if len(key) != 33 || key[0] != kAccount {
		return ZeroAddress, false
	}
	var a Address
	copy(a[:], key[1:])
	return a, true
}

func encodeAccount(acc *Account) []byte {
	w := NewWriter()
	w.Uint64(acc.Lamports)
	w.Address(acc.Owner)
	w.Bool(acc.Executable)
	w.ByteSlice(acc.Data)
	return w.Bytes()
}

func decodeAccount(data []byte) (*Account, error) {
	r := NewReader(data)
	acc := &Account{
		Lamports:   r.Uint64(),
		Owner:      r.Address(),
		Executable: r.Bool(),
		Data:       r.ByteSlice(),
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return acc, nil
}

// ReadAccount loads an account straight from a State.
func ReadAccount(s State, a Address) (*Account, error) {
	raw, ok, err := s.Get(AccountKey(a))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, a)
	}
	return decodeAccount(raw)
}

// WriteAccount stores the account, or deletes it once it holds no lamports and no data.
func WriteAccount(s State, a Address, acc *Account) error {
	if acc.Lamports == 0 && len(acc.Data) == 0 && acc.Owner.Equals(SystemProgramID) {
		return s.Delete(AccountKey(a))
	}
	return s.Set(AccountKey(a), encodeAccount(acc))
}

// AccountExists checks presence without decoding.
func AccountExists(s State, a Address) (bool, error) {
	_, ok, err := s.Get(AccountKey(a))
	return ok, err
}

// ListAccounts returns every account owned by the program, decoded.
// The store has to be a Scanner.
func ListAccounts(s State, owner Address) (map[Address]*Account, error) {
	sc, ok := s.(Scanner)
	if !ok {
		return nil, errors.New("state does not support listing")
	}
	keys, err := sc.Keys(string([]byte{kAccount}))
	if err != nil {
		return nil, err
	}
	out := make(map[Address]*Account)
	for _, k := range keys {
		addr, ok := AddressFromKey(k)
		if !ok {
			continue
		}
		acc, err := ReadAccount(s, addr)
		if err != nil {
			return nil, err
		}
		if acc.Owner.Equals(owner) {
			out[addr] = acc
		}
	}
	return out, nil
}
