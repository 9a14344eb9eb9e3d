// Package crypto implements cryptographic primitives for the Noise session
// boundary.
//
// This package handles key generation and secure key material handling
// using Curve25519 through Go's x/crypto packages.
//
// Example:
//
//	keys, err := crypto.GenerateKeyPair()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("Public key:", hex.EncodeToString(keys.Public[:]))
package crypto

import (
	"crypto/rand"
	"errors"
	"io"

	"golang.org/x/crypto/curve25519"
)

// KeyPair represents a Curve25519 key pair used for Noise static and
// ephemeral keys.
//
//export NoiseKeyPair
type KeyPair struct {
	Public  [32]byte
	Private [32]byte
}

// GenerateKeyPair creates a new random Curve25519 key pair.
//
//export NoiseGenerateKeyPair
func GenerateKeyPair() (*KeyPair, error) {
	var private [32]byte
	if _, err := io.ReadFull(rand.Reader, private[:]); err != nil {
		return nil, err
	}

	public, err := curve25519.X25519(private[:], curve25519.Basepoint)
	if err != nil {
		ZeroBytes(private[:])
		return nil, err
	}

	keyPair := &KeyPair{Private: private}
	copy(keyPair.Public[:], public)
	ZeroBytes(private[:])

	return keyPair, nil
}

// FromSecretKey creates a key pair from an existing private key. The public
// key is derived the same way the Noise DH functions derive it, so sessions
// loaded from stored keys interoperate with freshly generated ones.
//
//export NoiseKeyPairFromSecretKey
func FromSecretKey(secretKey [32]byte) (*KeyPair, error) {
	if isZeroKey(secretKey) {
		return nil, errors.New("invalid secret key: all zeros")
	}

	public, err := curve25519.X25519(secretKey[:], curve25519.Basepoint)
	if err != nil {
		return nil, err
	}

	keyPair := &KeyPair{Private: secretKey}
	copy(keyPair.Public[:], public)

	return keyPair, nil
}

// isZeroKey checks if a key consists of all zeros.
func isZeroKey(key [32]byte) bool {
	for _, b := range key {
		if b != 0 {
			return false
		}
	}
	return true
}
