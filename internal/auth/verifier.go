// Package auth verifies interaction webhook signatures.
package auth

import (
    "crypto/ed25519"
    "encoding/hex"
    "errors"
    "fmt"
)

var (
    // ErrMissingSignature means one or both signature headers were absent.
    ErrMissingSignature = errors.New("missing signature headers")
    // ErrInvalidSignature means the headers were present but verification failed.
    ErrInvalidSignature = errors.New("invalid request signature")
)

// Verifier checks the ed25519 signature the platform attaches to every
// interaction webhook. The signed message is timestamp || raw body; this is
// the sole trust boundary of the service and runs before the body is decoded.
type Verifier struct {
    key ed25519.PublicKey
}

// NewVerifier parses a hex-encoded ed25519 public key as published in the
// platform's application portal.
func NewVerifier(hexKey string) (*Verifier, error) {
    b, err := hex.DecodeString(hexKey)
    if err != nil {
        return nil, fmt.Errorf("public key is not valid hex: %w", err)
    }
    if len(b) != ed25519.PublicKeySize {
        return nil, fmt.Errorf("public key must be %d bytes, got %d", ed25519.PublicKeySize, len(b))
    }
    return &Verifier{key: ed25519.PublicKey(b)}, nil
}

// Verify checks the signature headers against the raw, undecoded body.
// Both failure modes report only which class of failure occurred.
func (v *Verifier) Verify(signature, timestamp string, body []byte) error {
    if signature == "" || timestamp == "" {
        return ErrMissingSignature
    }
    sig, err := hex.DecodeString(signature)
    if err != nil || len(sig) != ed25519.SignatureSize {
        return ErrInvalidSignature
    }
    msg := make([]byte, 0, len(timestamp)+len(body))
    msg = append(msg, timestamp...)
    msg = append(msg, body...)
    if !ed25519.Verify(v.key, msg, sig) {
        return ErrInvalidSignature
    }
    return nil
}
