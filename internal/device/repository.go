package device

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/sync-hub/internal/account"
	"github.com/nerrad567/sync-hub/internal/infrastructure/logging"
	"github.com/nerrad567/sync-hub/internal/storage"
)

// Repository owns all devices across all accounts.
//
// The index is keyed by device id, which is globally unique on the server.
// The repository lock covers only index mutations; per-device file I/O is
// serialised by each device's own entity lock.
//
// All public methods are safe for concurrent use.
type Repository struct {
	accounts   *account.Repository
	expiration time.Duration
	gcInterval time.Duration
	logger     *logging.Logger

	mu      sync.RWMutex
	devices map[uuid.UUID]*Device

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRepository creates the device repository. Call Load() to populate the
// index from disk before serving requests.
func NewRepository(accounts *account.Repository, expiration, gcInterval time.Duration, logger *logging.Logger) *Repository {
	return &Repository{
		accounts:   accounts,
		expiration: expiration,
		gcInterval: gcInterval,
		logger:     logger.With("component", "device_repo"),
		devices:    make(map[uuid.UUID]*Device),
	}
}

// Load scans every account's devices directory and rebuilds the index.
// Unreadable device descriptors are skipped with a warning.
func (r *Repository) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, acc := range r.accounts.List() {
		entries, err := os.ReadDir(acc.DevicesPath())
		if err != nil {
			if !os.IsNotExist(err) {
				r.logger.Error("failed to list devices", "account_id", acc.ID, "error", err)
			}
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			dir := filepath.Join(acc.DevicesPath(), entry.Name())

			var desc descriptor
			if readErr := storage.ReadJSON(filepath.Join(dir, DescriptorFile), &desc); readErr != nil {
				r.logger.Error("failed to read device descriptor, skipping", "path", dir, "error", readErr)
				continue
			}

			r.devices[desc.ID] = &Device{
				ID:        desc.ID,
				AccountID: acc.ID,
				Password:  desc.Password,
				Path:      dir,
				meta: Meta{
					Label:    desc.Label,
					Version:  desc.Version,
					AddedAt:  desc.AddedAt,
					LastSeen: desc.LastSeen,
				},
			}
		}
	}

	r.logger.Info("devices loaded", "count", len(r.devices))
	return nil
}

// Create registers a new device under the given account and issues its
// password.
//
// The repository lock is held for the global uniqueness check and the
// initial descriptor write. Returns ErrExists if the id is registered
// anywhere on the server.
func (r *Repository) Create(ctx context.Context, acc *account.Account, id uuid.UUID, label string) (*Device, error) {
	password, err := newPassword()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	dev := &Device{
		ID:        id,
		AccountID: acc.ID,
		Password:  password,
		Path:      filepath.Join(acc.DevicesPath(), id.String()),
		meta: Meta{
			Label:    label,
			AddedAt:  now,
			LastSeen: now,
		},
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.devices[id]; exists {
		return nil, ErrExists
	}

	if err := storage.EnsureDir(dev.Path); err != nil {
		return nil, err
	}
	if err := r.writeDescriptor(dev, dev.meta); err != nil {
		return nil, err
	}

	r.devices[id] = dev
	r.logger.Info("device created",
		"device_id", id,
		"account_id", acc.ID,
		"password", dev.RedactedPassword(),
	)
	return dev, nil
}

// Get retrieves a device by id.
// Returns ErrNotFound if the device does not exist.
func (r *Repository) Get(id uuid.UUID) (*Device, error) {
	r.mu.RLock()
	dev, ok := r.devices[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return dev, nil
}

// List returns all devices belonging to the given account.
func (r *Repository) List(accountID uuid.UUID) []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var devices []*Device
	for _, dev := range r.devices {
		if dev.AccountID == accountID {
			devices = append(devices, dev)
		}
	}
	return devices
}

// All returns a snapshot of every device on the server.
func (r *Repository) All() []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]*Device, 0, len(r.devices))
	for _, dev := range r.devices {
		devices = append(devices, dev)
	}
	return devices
}

// Update applies a mutator to the device's mutable fields under the
// device's entity lock and persists the new descriptor. Used to bump
// last-seen and to record client version strings.
func (r *Repository) Update(id uuid.UUID, mutate func(*Meta)) error {
	dev, err := r.Get(id)
	if err != nil {
		return err
	}

	dev.mu.Lock()
	defer dev.mu.Unlock()

	meta := dev.meta
	mutate(&meta)
	if err := r.writeDescriptor(dev, meta); err != nil {
		return err
	}
	dev.meta = meta
	return nil
}

// Touch records that the device was just seen.
func (r *Repository) Touch(id uuid.UUID) error {
	return r.Update(id, func(m *Meta) {
		m.LastSeen = time.Now().UTC()
	})
}

// Delete removes a device from the index and deletes its directory,
// including its module blobs.
//
// Index removal happens under the repository lock; the directory is
// deleted under the device's entity lock, so an in-flight module operation
// on that device either completes first or safely observes a missing
// directory.
func (r *Repository) Delete(id uuid.UUID) error {
	r.mu.Lock()
	dev, ok := r.devices[id]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	delete(r.devices, id)
	r.mu.Unlock()

	dev.mu.Lock()
	defer dev.mu.Unlock()
	if err := os.RemoveAll(dev.Path); err != nil {
		return err
	}
	r.logger.Info("device deleted", "device_id", id, "account_id", dev.AccountID)
	return nil
}

// DeleteForAccount removes every device of the given account.
// Each device's directory is deleted under its own entity lock.
func (r *Repository) DeleteForAccount(accountID uuid.UUID) error {
	r.mu.Lock()
	var toDelete []*Device
	for id, dev := range r.devices {
		if dev.AccountID == accountID {
			delete(r.devices, id)
			toDelete = append(toDelete, dev)
		}
	}
	r.mu.Unlock()

	r.logger.Info("deleting account devices", "account_id", accountID, "count", len(toDelete))
	for _, dev := range toDelete {
		dev.mu.Lock()
		if err := os.RemoveAll(dev.Path); err != nil {
			r.logger.Error("failed to delete device directory", "device_id", dev.ID, "error", err)
		}
		dev.mu.Unlock()
	}
	return nil
}

// Start launches the stale-device sweep. Devices unseen for longer than
// the configured expiration are removed together with their module data.
func (r *Repository) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)

		select {
		case <-ctx.Done():
			return
		case <-time.After(r.gcInterval / 10):
		}

		ticker := time.NewTicker(r.gcInterval)
		defer ticker.Stop()

		for {
			r.sweepStale()
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

// Close stops the background sweep.
func (r *Repository) Close() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

// sweepStale deletes devices whose last-seen age exceeds the expiration.
// A failure on one device never stops the sweep for the others.
func (r *Repository) sweepStale() {
	now := time.Now()
	for _, dev := range r.All() {
		if now.Sub(dev.Meta().LastSeen) <= r.expiration {
			continue
		}
		r.logger.Warn("deleting stale device", "device_id", dev.ID, "account_id", dev.AccountID)
		if err := r.Delete(dev.ID); err != nil {
			r.logger.Error("stale device delete failed", "device_id", dev.ID, "error", err)
		}
	}
}

// writeDescriptor persists the device descriptor with the given meta.
// Callers must hold either the repository lock (creation) or the device's
// entity lock (updates).
func (r *Repository) writeDescriptor(dev *Device, meta Meta) error {
	desc := descriptor{
		ID:       dev.ID,
		Password: dev.Password,
		Label:    meta.Label,
		Version:  meta.Version,
		AddedAt:  meta.AddedAt,
		LastSeen: meta.LastSeen,
	}
	return storage.WriteJSON(filepath.Join(dev.Path, DescriptorFile), desc)
}
