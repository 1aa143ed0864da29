package cryptox

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// MinRSABits is the smallest key size accepted for application keys.
const MinRSABits = 2048

// KeyPair is a freshly generated application key pair in PEM form. The public
// half is what gets uploaded to the Vonage dashboard.
type KeyPair struct {
	PrivatePEM []byte
	PublicPEM  []byte
}

// GenerateRSAKey generates a new RSA private key with the specified bit size.
// Returns the private key in PEM format (PKCS1).
func GenerateRSAKey(bits int) ([]byte, error) {
	kp, err := GenerateKeyPair(bits, false)
	if err != nil {
		return nil, err
	}
	return kp.PrivatePEM, nil
}

// GenerateKeyPair generates an RSA key pair. The private key is encoded as
// PKCS8 ("PRIVATE KEY", the format the dashboard hands out) when pkcs8 is
// set, PKCS1 ("RSA PRIVATE KEY") otherwise. The public key is always PKIX.
func GenerateKeyPair(bits int, pkcs8 bool) (*KeyPair, error) {
	if bits < MinRSABits {
		return nil, fmt.Errorf("cryptox: RSA key size must be at least %d bits", MinRSABits)
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to generate RSA key: %w", err)
	}

	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(privateKey)}
	if pkcs8 {
		der, err := x509.MarshalPKCS8PrivateKey(privateKey)
		if err != nil {
			return nil, fmt.Errorf("cryptox: failed to marshal PKCS8 key: %w", err)
		}
		block = &pem.Block{Type: "PRIVATE KEY", Bytes: der}
	}

	pub, err := PublicKeyPEM(&privateKey.PublicKey)
	if err != nil {
		return nil, err
	}

	return &KeyPair{PrivatePEM: pem.EncodeToMemory(block), PublicPEM: pub}, nil
}

// PublicKeyPEM encodes an RSA public key as a PKIX "PUBLIC KEY" block.
func PublicKeyPEM(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("cryptox: failed to marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}
