// Package keyvault stores ephemeral routing keys encrypted in Redis with a
// bounded TTL. The keys are pure routing credentials for companion plans, not
// custodial assets: once a plan completes or fails the key is discarded, and
// an unreaped key expires with the TTL. Raw key material never leaves this
// package; call sites get a Signer capability instead.
package keyvault

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"swap-route.backend/pkg/redis"
)

var ErrKeyNotFound = errors.New("ephemeral key not found or expired")

// Signer is the only way to use a stored ephemeral key.
type Signer interface {
	Address() string
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Vault handles ephemeral key storage in Redis with encryption
type Vault struct {
	encryptionKey []byte
}

var (
	setVaultValue = redis.Set
	getVaultValue = redis.Get
	delVaultValue = redis.Del
)

// NewVault creates a new key vault
func NewVault(encryptionKeyHex string) (*Vault, error) {
	key, err := hex.DecodeString(encryptionKeyHex)
	if err != nil {
		return nil, errors.New("invalid encryption key hex")
	}
	if len(key) != 32 {
		return nil, errors.New("encryption key must be 32 bytes (64 hex chars)")
	}
	return &Vault{encryptionKey: key}, nil
}

// Generate creates a fresh secp256k1 keypair, stores the encrypted private
// key under id with the given TTL, and returns the derived address.
func (v *Vault) Generate(ctx context.Context, id string, ttl time.Duration) (string, error) {
	priv, err := ethcrypto.GenerateKey()
	if err != nil {
		return "", err
	}

	keyHex := hex.EncodeToString(ethcrypto.FromECDSA(priv))
	encrypted, err := v.encrypt([]byte(keyHex))
	if err != nil {
		return "", err
	}

	if err := setVaultValue(ctx, "ephkey:"+id, encrypted, ttl); err != nil {
		return "", err
	}

	return ethcrypto.PubkeyToAddress(priv.PublicKey).Hex(), nil
}

// Signer returns a signing capability for the key stored under id.
func (v *Vault) Signer(ctx context.Context, id string) (Signer, error) {
	encrypted, err := getVaultValue(ctx, "ephkey:"+id)
	if err != nil {
		return nil, ErrKeyNotFound
	}

	keyHex, err := v.decrypt(encrypted)
	if err != nil {
		return nil, err
	}

	priv, err := ethcrypto.HexToECDSA(string(keyHex))
	if err != nil {
		return nil, err
	}

	return &ephemeralSigner{priv: priv}, nil
}

// Discard removes the key stored under id
func (v *Vault) Discard(ctx context.Context, id string) error {
	return delVaultValue(ctx, "ephkey:"+id)
}

type ephemeralSigner struct {
	priv *ecdsa.PrivateKey
}

func (s *ephemeralSigner) Address() string {
	return ethcrypto.PubkeyToAddress(s.priv.PublicKey).Hex()
}

func (s *ephemeralSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.priv)
}

func (v *Vault) encrypt(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(v.encryptionKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)
	return hex.EncodeToString(ciphertext), nil
}

func (v *Vault) decrypt(ciphertextHex string) ([]byte, error) {
	ciphertext, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(v.encryptionKey)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
