// Package keysource loads the pipeline's signer key material from one of
// several sources: a hex seed, a key file, a Vault KV entry, or an
// argon2id-stretched passphrase for development keys.
package keysource

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hashicorp/vault/api"
	"golang.org/x/crypto/argon2"
)

// passphraseSalt pins passphrase-derived dev keys to this application so
// the same phrase does not reproduce keys used elsewhere.
var passphraseSalt = []byte("agent-registry-backend.signer.v1")

// Key bundles the loaded private key with its account address.
type Key struct {
	PrivateKey *ecdsa.PrivateKey
	Address    common.Address
}

// Load resolves a signer key from a source locator:
//
//   - hex:<64 hex chars> - raw secp256k1 private key
//   - file:<path> - file holding the hex-encoded key
//   - vault:<mount>/<path>#<field> - Vault KV-v2 entry (VAULT_ADDR and
//     VAULT_TOKEN from the environment)
//   - passphrase:<phrase> - argon2id-stretched development key
func Load(ctx context.Context, locator string) (*Key, error) {
	scheme, rest, found := strings.Cut(locator, ":")
	if !found {
		return nil, fmt.Errorf("key source %q has no scheme", locator)
	}

	switch scheme {
	case "hex":
		return fromHex(rest)
	case "file":
		raw, err := os.ReadFile(rest)
		if err != nil {
			return nil, fmt.Errorf("reading key file: %w", err)
		}
		return fromHex(strings.TrimSpace(string(raw)))
	case "vault":
		return fromVault(ctx, rest)
	case "passphrase":
		return fromPassphrase(rest)
	default:
		return nil, fmt.Errorf("unsupported key source scheme: %s", scheme)
	}
}

func fromHex(s string) (*Key, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parsing signer key: %w", err)
	}
	return &Key{PrivateKey: key, Address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// fromPassphrase derives a deterministic dev key by argon2id-stretching
// the phrase. Not for production identities.
func fromPassphrase(phrase string) (*Key, error) {
	if phrase == "" {
		return nil, fmt.Errorf("empty passphrase")
	}
	seed := argon2.IDKey([]byte(phrase), passphraseSalt, 1, 64*1024, 4, 32)
	return fromHex(hex.EncodeToString(seed))
}

// fromVault reads a KV-v2 entry of the form <mount>/<path>#<field>; the
// field defaults to "signer_key".
func fromVault(ctx context.Context, location string) (*Key, error) {
	pathPart, field, found := strings.Cut(location, "#")
	if !found {
		field = "signer_key"
	}

	mount, secretPath, found := strings.Cut(pathPart, "/")
	if !found || mount == "" || secretPath == "" {
		return nil, fmt.Errorf("vault key source %q must be <mount>/<path>", location)
	}

	client, err := api.NewClient(api.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("creating vault client: %w", err)
	}

	secret, err := client.KVv2(mount).Get(ctx, secretPath)
	if err != nil {
		return nil, fmt.Errorf("reading vault secret %s: %w", secretPath, err)
	}

	value, ok := secret.Data[field].(string)
	if !ok || value == "" {
		return nil, fmt.Errorf("vault secret %s has no %q field", secretPath, field)
	}
	return fromHex(value)
}
