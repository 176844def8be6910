package share

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// codeBytes is the entropy of a share code, matching device passwords.
// Codes are hex encoded, so the resulting capability string has twice
// this length in characters.
const codeBytes = 64

// Share is a single-use, time-limited capability that lets a new device
// join an existing account.
//
// A share is immutable once created. It ceases to exist when consumed,
// when it outlives its TTL, or when its account is deleted; a consumed
// share can be restored once as a compensating action if the step after
// consumption fails.
type Share struct {
	ID        uuid.UUID
	Code      string
	AccountID uuid.UUID
	CreatedAt time.Time

	// Path is the share's backing file under the account's shares
	// directory.
	Path string
}

// newCode generates a fresh share code.
func newCode() (string, error) {
	buf := make([]byte, codeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// descriptor is the persisted form of a Share.
type descriptor struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"createdAt"`
}
