package node

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"

	"realms_dao/internal/config"
	"realms_dao/sdk"
)

var ErrKeyExists = errors.New("key already exists")

// Keystore keeps named keypairs as solana-keygen json files under one directory.
type Keystore struct {
	dir string
}

func NewKeystore(cfg *config.RuntimeConfig) *Keystore {
	return &Keystore{dir: cfg.KeysDir}
}

func (k *Keystore) path(name string) string {
	return filepath.Join(k.dir, name+".json")
}

// Generate creates and stores a new keypair under name.
func (k *Keystore) Generate(name string) (solana.PrivateKey, error) {
	if _, err := os.Stat(k.path(name)); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrKeyExists, name)
	}
	key, err := sdk.NewKeypair()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(k.dir, 0o700); err != nil {
		return nil, err
	}
	// solana-keygen stores the 64 bytes as a json number array
	raw, err := json.Marshal(lo.Map([]byte(key), func(b byte, _ int) int { return int(b) }))
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(k.path(name), raw, 0o600); err != nil {
		return nil, err
	}
	return key, nil
}

func (k *Keystore) Load(name string) (solana.PrivateKey, error) {
	return solana.PrivateKeyFromSolanaKeygenFile(k.path(name))
}

// List returns the stored key names sorted.
func (k *Keystore) List() ([]string, error) {
	entries, err := os.ReadDir(k.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, strings.TrimSuffix(e.Name(), ".json"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Resolve turns a key name or a base58 address into an address.
func (k *Keystore) Resolve(ref string) (sdk.Address, error) {
	if key, err := k.Load(ref); err == nil {
		return key.PublicKey(), nil
	}
	addr, err := sdk.AddressFromString(ref)
	if err != nil {
		return sdk.Address{}, fmt.Errorf("%q is neither a stored key nor an address", ref)
	}
	return addr, nil
}

// Signer loads a stored key. Only stored keys can sign.
func (k *Keystore) Signer(name string) (sdk.Address, error) {
	key, err := k.Load(name)
	if err != nil {
		return sdk.Address{}, fmt.Errorf("signer %q: %w", name, err)
	}
	return key.PublicKey(), nil
}
