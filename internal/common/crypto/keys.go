package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	SessionHashKeyInfo  = "storybooks session hash"
	SessionBlockKeyInfo = "storybooks session block"
)

// DeriveKey expands secret into a size-byte key bound to info.
func DeriveKey(secret []byte, info string, size int) ([]byte, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("derive key: empty secret")
	}

	key := make([]byte, size)
	r := hkdf.New(sha256.New, secret, nil, []byte(info))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}

// SessionKeys returns the HMAC and AES keys for cookie sessions.
func SessionKeys(secret string) (hashKey, blockKey []byte, err error) {
	hashKey, err = DeriveKey([]byte(secret), SessionHashKeyInfo, 64)
	if err != nil {
		return nil, nil, err
	}
	blockKey, err = DeriveKey([]byte(secret), SessionBlockKeyInfo, 32)
	if err != nil {
		return nil, nil, err
	}
	return hashKey, blockKey, nil
}
