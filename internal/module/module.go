package module

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// MetaFile and BlobFile are the two files inside a module's directory:
// the JSON metadata record and the raw payload bytes.
const (
	MetaFile = "module.json"
	BlobFile = "payload.blob"
)

// MaxIDLength bounds caller-chosen module ids.
const MaxIDLength = 1024

// idPattern matches dotted lowercase module ids such as
// "eu.darken.meta" or "contacts.phone_book".
var idPattern = regexp.MustCompile(`^[a-z]+(\.[a-z0-9_]+)*$`)

// ID is a caller-chosen module identifier: dotted lowercase segments,
// bounded length. Obtain one through ParseID; an ID constructed any other
// way may not be safe to use.
type ID string

// ParseID validates a raw module id string.
//
// Returns ErrInvalidID if the string is empty, exceeds MaxIDLength, or
// does not match the dotted lowercase-segment form.
func ParseID(raw string) (ID, error) {
	if raw == "" || len(raw) > MaxIDLength {
		return "", ErrInvalidID
	}
	if !idPattern.MatchString(raw) {
		return "", ErrInvalidID
	}
	return ID(raw), nil
}

// DirName returns the fixed-length filesystem name for the module id.
//
// Module ids are caller-controlled, so they are hashed into a fixed-length
// hex name before touching the filesystem; this sidesteps traversal,
// length, and character issues. It is a filesystem-safety measure, not a
// security boundary.
func (id ID) DirName() string {
	sum := sha1.Sum([]byte(id))
	return hex.EncodeToString(sum[:])
}

// Read is the result of reading a module.
//
// A module that does not exist reads as the zero value: no modified time
// and an empty payload. Callers distinguish the two cases via Exists.
type Read struct {
	ModifiedAt time.Time
	Payload    []byte
	Exists     bool
}

// meta is the persisted metadata record next to a module's payload.
type meta struct {
	ID         ID        `json:"id"`
	SourceID   uuid.UUID `json:"sourceDeviceId"`
	ModifiedAt time.Time `json:"modifiedAt"`
}
