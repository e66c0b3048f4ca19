// internal/objectstore/crypto.go
package objectstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// Crypto holds the derived key/IV pair for a single encrypted repo
// (spec §4.A). Both are 16 bytes: AES-128 in CBC mode.
type Crypto struct {
	Key [16]byte
	IV  [16]byte
}

// DeriveKey implements the spec's "SHA-based KDF(repo_id || password,
// iterations)". enc_version selects the KDF strength; version 1 is a
// single SHA-1 pass (compatible with legacy repos), version 2+ iterates
// to slow down brute force.
func DeriveKey(repoID, password string, encVersion, iterations int) Crypto {
	if iterations <= 0 {
		iterations = 1
	}

	sum := sha1.Sum([]byte(repoID + password))
	if encVersion >= 2 {
		for i := 1; i < iterations; i++ {
			sum = sha1.Sum(sum[:])
		}
	}

	var c Crypto
	copy(c.Key[:], sum[:16])
	// Derive a distinct IV from a second round so key != iv.
	ivSum := sha1.Sum(append(sum[:], 0x01))
	copy(c.IV[:], ivSum[:16])
	return c
}

// Magic is the 32-hex fingerprint stored on the repo (spec §4.A): the
// hex of the derived key.
func (c Crypto) Magic() string {
	return hex.EncodeToString(c.Key[:])
}

// KeyHex and IVHex are how RepoKeys caches the pair (spec §6: 32 hex
// chars each).
func (c Crypto) KeyHex() string { return hex.EncodeToString(c.Key[:]) }
func (c Crypto) IVHex() string  { return hex.EncodeToString(c.IV[:]) }

func CryptoFromHex(keyHex, ivHex string) (Crypto, error) {
	var c Crypto
	key, err := hex.DecodeString(keyHex)
	if err != nil || len(key) != 16 {
		return c, fmt.Errorf("invalid key hex")
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != 16 {
		return c, fmt.Errorf("invalid iv hex")
	}
	copy(c.Key[:], key)
	copy(c.IV[:], iv)
	return c, nil
}

// Encrypt applies AES-128-CBC with PKCS#7 padding.
func (c Crypto) Encrypt(plain []byte) ([]byte, error) {
	block, err := aes.NewCipher(c.Key[:])
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	padded := pkcs7Pad(plain, block.BlockSize())
	out := make([]byte, len(padded))
	mode := cipher.NewCBCEncrypter(block, c.IV[:])
	mode.CryptBlocks(out, padded)
	return out, nil
}

// Decrypt reverses Encrypt.
func (c Crypto) Decrypt(cipherText []byte) ([]byte, error) {
	block, err := aes.NewCipher(c.Key[:])
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	if len(cipherText) == 0 {
		return nil, nil
	}
	if len(cipherText)%block.BlockSize() != 0 {
		return nil, fmt.Errorf("ciphertext is not a multiple of the block size")
	}

	out := make([]byte, len(cipherText))
	mode := cipher.NewCBCDecrypter(block, c.IV[:])
	mode.CryptBlocks(out, cipherText)
	return pkcs7Unpad(out)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padding := make([]byte, padLen)
	for i := range padding {
		padding[i] = byte(padLen)
	}
	return append(data, padding...)
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	padLen := int(data[len(data)-1])
	if padLen <= 0 || padLen > len(data) {
		return nil, fmt.Errorf("invalid padding")
	}
	return data[:len(data)-padLen], nil
}
