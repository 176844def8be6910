package device

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DescriptorFile is the name of the JSON descriptor inside each device
// directory.
const DescriptorFile = "device.json"

// ModulesDir is the subdirectory of a device directory holding its
// module blobs.
const ModulesDir = "modules"

// passwordBytes is the entropy of a device password. The password is hex
// encoded, so the stored secret has twice this length in characters.
const passwordBytes = 64

// Credentials are the values a caller presents in HTTP Basic auth:
// the account id as username and the device password as password.
type Credentials struct {
	AccountID uuid.UUID
	Password  string
}

// Device is one physical endpoint registered to an account.
//
// ID, AccountID, Password, and Path are fixed at creation. Label, version,
// and last-seen live in Meta and change over time; read them through
// Meta() and change them through Repository.Update().
//
// The device's entity lock (Lock/Unlock) serialises all file I/O under the
// device's directory, including its module blobs. Two requests touching
// different devices never contend; two touching the same device are
// strictly ordered.
type Device struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Password  string
	Path      string

	mu   sync.Mutex
	meta Meta
}

// Meta holds the mutable descriptor fields of a device.
type Meta struct {
	Label    string
	Version  string
	AddedAt  time.Time
	LastSeen time.Time
}

// Lock acquires the device's entity lock. All reads, writes, and deletes
// of files under the device's directory must happen while holding it.
func (d *Device) Lock() { d.mu.Lock() }

// Unlock releases the device's entity lock.
func (d *Device) Unlock() { d.mu.Unlock() }

// Meta returns a snapshot of the device's mutable fields.
func (d *Device) Meta() Meta {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.meta
}

// ModulesPath returns the directory holding the device's module blobs.
func (d *Device) ModulesPath() string {
	return filepath.Join(d.Path, ModulesDir)
}

// IsAuthorized reports whether the presented credentials grant access to
// this device's account.
//
// The password comparison is constant time so response timing does not
// leak where the first mismatching byte is. A correct password for one
// account never authorises against another.
func (d *Device) IsAuthorized(creds Credentials) bool {
	if d.AccountID != creds.AccountID {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(d.Password), []byte(creds.Password)) == 1
}

// RedactedPassword returns a short prefix of the device password for
// logging. The full secret is never logged.
func (d *Device) RedactedPassword() string {
	const visible = 8
	if len(d.Password) <= visible {
		return "..."
	}
	return d.Password[:visible] + "..."
}

// newPassword generates a fresh high-entropy device password.
func newPassword() (string, error) {
	buf := make([]byte, passwordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// descriptor is the persisted form of a Device.
type descriptor struct {
	ID       uuid.UUID `json:"id"`
	Password string    `json:"password"`
	Label    string    `json:"label,omitempty"`
	Version  string    `json:"version,omitempty"`
	AddedAt  time.Time `json:"addedAt"`
	LastSeen time.Time `json:"lastSeen"`
}
