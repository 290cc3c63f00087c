package redsys

import (
	"crypto/cipher"
	"crypto/des"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

// The merchant secret is a base64-encoded 3DES key. Each MAC uses a per-order
// key: the order number 3DES-CBC encrypted under the merchant key with a zero
// IV and zero padding. The MAC itself is HMAC-SHA256 over the encoded
// parameter blob, keyed with the derived key.

const signatureVersion = "HMAC_SHA256_V1"

func decodeSecret(secret string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("secret key is not valid base64: %w", err)
	}
	if len(key) != 24 {
		return nil, fmt.Errorf("secret key must decode to 24 bytes, got %d", len(key))
	}
	return key, nil
}

func deriveOrderKey(secret []byte, order string) ([]byte, error) {
	block, err := des.NewTripleDESCipher(secret)
	if err != nil {
		return nil, fmt.Errorf("derive order key: %w", err)
	}

	plain := []byte(order)
	if rem := len(plain) % des.BlockSize; rem != 0 {
		plain = append(plain, make([]byte, des.BlockSize-rem)...)
	}

	iv := make([]byte, des.BlockSize)
	out := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plain)
	return out, nil
}

// sign computes the base64 MAC for an encoded parameter blob.
func sign(secret []byte, order, encodedParams string) (string, error) {
	key, err := deriveOrderKey(secret, order)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(encodedParams))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// verifySignature checks a received MAC against the one recomputed from the
// parameter blob. The terminal emits URL-safe base64; both alphabets are
// accepted. Comparison is constant time.
func verifySignature(secret []byte, order, encodedParams, received string) (bool, error) {
	key, err := deriveOrderKey(secret, order)
	if err != nil {
		return false, err
	}
	got, err := decodeAnyBase64(received)
	if err != nil {
		return false, err
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(encodedParams))
	return hmac.Equal(mac.Sum(nil), got), nil
}

func decodeAnyBase64(s string) ([]byte, error) {
	s = strings.ReplaceAll(strings.ReplaceAll(s, "-", "+"), "_", "/")
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	return base64.StdEncoding.DecodeString(s)
}
