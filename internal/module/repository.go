package module

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/nerrad567/sync-hub/internal/device"
	"github.com/nerrad567/sync-hub/internal/infrastructure/logging"
	"github.com/nerrad567/sync-hub/internal/storage"
)

// Repository stores module blobs in each device's directory tree.
//
// Modules have last-write-wins semantics: one live record per
// (device, module id), no history. The repository holds no state of its
// own beyond configuration — the filesystem is authoritative — and every
// operation runs under the target device's entity lock, so operations on
// the same device are strictly ordered while different devices never
// contend.
//
// Authorisation that caller and target share an account is the calling
// layer's job; the repository only requires a valid target device.
type Repository struct {
	devices    *device.Repository
	expiration time.Duration
	gcInterval time.Duration
	logger     *logging.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRepository creates the module repository.
func NewRepository(devices *device.Repository, expiration, gcInterval time.Duration, logger *logging.Logger) *Repository {
	return &Repository{
		devices:    devices,
		expiration: expiration,
		gcInterval: gcInterval,
		logger:     logger.With("component", "module_repo"),
	}
}

// path returns the module's directory under the target device.
func (r *Repository) path(target *device.Device, id ID) string {
	return filepath.Join(target.ModulesPath(), id.DirName())
}

// ReadModule returns the module's payload and modification time.
//
// A missing module is not an error: it reads as Read{Exists: false} with
// an empty payload. The modification time is the payload file's mtime.
func (r *Repository) ReadModule(caller, target *device.Device, id ID) (Read, error) {
	dir := r.path(target, id)

	target.Lock()
	defer target.Unlock()

	blobPath := filepath.Join(dir, BlobFile)
	info, err := os.Stat(blobPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Read{}, nil
		}
		return Read{}, err
	}

	payload, err := os.ReadFile(blobPath)
	if err != nil {
		return Read{}, err
	}

	r.logger.Debug("module read",
		"caller", caller.ID, "target", target.ID, "module", id, "bytes", len(payload),
	)
	return Read{
		ModifiedAt: info.ModTime(),
		Payload:    payload,
		Exists:     true,
	}, nil
}

// WriteModule stores the payload for (target, id), replacing any previous
// record, and writes the metadata file recording the caller as source.
func (r *Repository) WriteModule(caller, target *device.Device, id ID, payload []byte) error {
	dir := r.path(target, id)

	target.Lock()
	defer target.Unlock()

	if err := storage.EnsureDir(dir); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, BlobFile), payload, 0o640); err != nil {
		return err
	}
	m := meta{
		ID:         id,
		SourceID:   caller.ID,
		ModifiedAt: time.Now().UTC(),
	}
	if err := storage.WriteJSON(filepath.Join(dir, MetaFile), m); err != nil {
		return err
	}

	r.logger.Debug("module written",
		"caller", caller.ID, "target", target.ID, "module", id, "bytes", len(payload),
	)
	return nil
}

// DeleteModule removes the module's record if present. Deleting a module
// that does not exist is a no-op, not an error.
func (r *Repository) DeleteModule(caller, target *device.Device, id ID) error {
	dir := r.path(target, id)

	target.Lock()
	defer target.Unlock()

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	r.logger.Debug("module deleted", "caller", caller.ID, "target", target.ID, "module", id)
	return nil
}

// Clear wipes the entire modules directory of each target device. Used
// when a device is deleted or explicitly reset.
func (r *Repository) Clear(caller *device.Device, targets []*device.Device) error {
	for _, target := range targets {
		target.Lock()
		err := os.RemoveAll(target.ModulesPath())
		target.Unlock()
		if err != nil {
			return err
		}
		r.logger.Debug("modules cleared", "caller", caller.ID, "target", target.ID)
	}
	return nil
}

// Start launches the stale-module sweep, which removes module directories
// whose metadata file has not been touched within the expiration.
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

// sweepStale walks every device's modules directory under that device's
// lock and removes modules past their expiration. An I/O failure on one
// device is logged and never halts the sweep for the others.
func (r *Repository) sweepStale() {
	now := time.Now()
	for _, dev := range r.devices.All() {
		dev.Lock()
		if err := r.sweepDevice(dev, now); err != nil {
			r.logger.Error("module sweep failed for device", "device_id", dev.ID, "error", err)
		}
		dev.Unlock()
	}
}

// sweepDevice removes the expired modules of a single device. The caller
// must hold the device's entity lock.
func (r *Repository) sweepDevice(dev *device.Device, now time.Time) error {
	entries, err := os.ReadDir(dev.ModulesPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	removed := 0
	for _, entry := range entries {
		dir := filepath.Join(dev.ModulesPath(), entry.Name())
		info, statErr := os.Stat(filepath.Join(dir, MetaFile))
		if statErr != nil {
			// A module directory without readable metadata is garbage.
			if rmErr := os.RemoveAll(dir); rmErr != nil {
				return rmErr
			}
			removed++
			continue
		}
		if now.Sub(info.ModTime()) <= r.expiration {
			continue
		}
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			return rmErr
		}
		removed++
	}
	if removed > 0 {
		r.logger.Info("stale modules removed", "device_id", dev.ID, "count", removed)
	}
	return nil
}
