package account

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// DescriptorFile is the name of the JSON descriptor inside each account
// directory. A directory without it is treated as garbage on load.
const DescriptorFile = "account.json"

// DevicesDir and SharesDir are the subdirectories of an account directory
// holding its devices and share codes.
const (
	DevicesDir = "devices"
	SharesDir  = "shares"
)

// Account is a logical grouping of devices that share data.
//
// An account is identified by a random 128-bit id and owns a directory
// under the data path. It has no user identity of its own; devices
// authenticate with per-device passwords scoped to the account.
type Account struct {
	ID        uuid.UUID
	CreatedAt time.Time

	// Path is the account's backing directory.
	Path string
}

// DevicesPath returns the directory holding the account's devices.
func (a *Account) DevicesPath() string {
	return filepath.Join(a.Path, DevicesDir)
}

// SharesPath returns the directory holding the account's share codes.
func (a *Account) SharesPath() string {
	return filepath.Join(a.Path, SharesDir)
}

// descriptor is the persisted form of an Account.
type descriptor struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
