package account

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/sync-hub/internal/infrastructure/logging"
	"github.com/nerrad567/sync-hub/internal/storage"
)

// Repository owns all accounts known to the server.
//
// It keeps an in-memory index of accounts loaded from disk and persists
// each account as a JSON descriptor inside the account's own directory.
// The repository-wide lock only serialises the create/remove decisions on
// the index; it is never held across recursive disk I/O.
//
// All public methods are safe for concurrent use.
type Repository struct {
	accountsPath string
	gcInterval   time.Duration
	logger       *logging.Logger

	mu       sync.RWMutex
	accounts map[uuid.UUID]*Account

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRepository creates the account repository and ensures the accounts
// directory exists. Call Load() to populate the index from disk before
// serving requests.
func NewRepository(dataPath string, gcInterval time.Duration, logger *logging.Logger) (*Repository, error) {
	accountsPath := filepath.Join(dataPath, "accounts")
	if err := storage.EnsureDir(accountsPath); err != nil {
		return nil, err
	}
	return &Repository{
		accountsPath: accountsPath,
		gcInterval:   gcInterval,
		logger:       logger.With("component", "account_repo"),
		accounts:     make(map[uuid.UUID]*Account),
	}, nil
}

// Path returns the root directory holding all account directories.
func (r *Repository) Path() string {
	return r.accountsPath
}

// Load scans the accounts directory and rebuilds the in-memory index.
//
// Directories without a readable descriptor are skipped with a warning;
// a single bad entry never aborts startup. Stray directories that have no
// descriptor at all are removed so they cannot accumulate.
func (r *Repository) Load(ctx context.Context) error {
	entries, err := os.ReadDir(r.accountsPath)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range entries {
		if !entry.IsDir() {
			r.logger.Warn("not a directory, skipping", "path", entry.Name())
			continue
		}
		dir := filepath.Join(r.accountsPath, entry.Name())
		descPath := filepath.Join(dir, DescriptorFile)

		if _, statErr := os.Stat(descPath); statErr != nil {
			r.logger.Warn("missing account descriptor, cleaning up", "path", dir)
			if rmErr := os.RemoveAll(dir); rmErr != nil {
				r.logger.Error("failed to remove stray directory", "path", dir, "error", rmErr)
			}
			continue
		}

		var desc descriptor
		if readErr := storage.ReadJSON(descPath, &desc); readErr != nil {
			r.logger.Error("failed to read account descriptor, skipping", "path", descPath, "error", readErr)
			continue
		}

		r.accounts[desc.ID] = &Account{
			ID:        desc.ID,
			CreatedAt: desc.CreatedAt,
			Path:      dir,
		}
	}

	r.logger.Info("accounts loaded", "count", len(r.accounts))
	return nil
}

// Create generates a fresh account, persists its descriptor, and registers
// it in the index.
//
// The repository lock is held for the collision check and the initial
// descriptor write, which keeps the check meaningful under concurrent
// creates. An id collision is an invariant violation, not a client error.
func (r *Repository) Create(ctx context.Context) (*Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New()
	if _, exists := r.accounts[id]; exists {
		return nil, ErrIDCollision
	}

	acc := &Account{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Path:      filepath.Join(r.accountsPath, id.String()),
	}

	if err := storage.EnsureDir(acc.Path); err != nil {
		return nil, err
	}
	desc := descriptor{ID: acc.ID, CreatedAt: acc.CreatedAt}
	if err := storage.WriteJSON(filepath.Join(acc.Path, DescriptorFile), desc); err != nil {
		return nil, err
	}

	r.accounts[id] = acc
	r.logger.Info("account created", "account_id", id)
	return acc, nil
}

// Get retrieves an account by id.
// Returns ErrNotFound if the account does not exist.
func (r *Repository) Get(id uuid.UUID) (*Account, error) {
	r.mu.RLock()
	acc, ok := r.accounts[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return acc, nil
}

// List returns a snapshot of all known accounts.
func (r *Repository) List() []*Account {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]*Account, 0, len(r.accounts))
	for _, acc := range r.accounts {
		accounts = append(accounts, acc)
	}
	return accounts
}

// Delete removes the given accounts from the index and deletes their
// directories.
//
// Index removal happens first, under the repository lock, so no caller can
// re-discover an account once Delete returns. Unknown ids do not abort the
// batch: the remaining accounts are still deleted and ErrNotFound is
// returned afterwards, so a concurrent single-account delete can never
// leave the rest of an orphan-sweep batch half-removed from the index with
// their directories intact. If a directory cannot be removed the
// descriptor file alone is deleted as a fallback; the next restart's
// Load() then treats the leftover directory as garbage.
func (r *Repository) Delete(ctx context.Context, ids ...uuid.UUID) error {
	removed := make([]*Account, 0, len(ids))
	missing := false

	r.mu.Lock()
	for _, id := range ids {
		acc, ok := r.accounts[id]
		if !ok {
			missing = true
			continue
		}
		delete(r.accounts, id)
		removed = append(removed, acc)
	}
	r.mu.Unlock()

	for _, acc := range removed {
		if err := os.RemoveAll(acc.Path); err != nil {
			r.logger.Error("failed to delete account directory", "account_id", acc.ID, "error", err)
			descPath := filepath.Join(acc.Path, DescriptorFile)
			if rmErr := os.Remove(descPath); rmErr == nil {
				r.logger.Warn("deleted account descriptor only, directory cleaned up on next restart", "account_id", acc.ID)
			}
			continue
		}
		r.logger.Info("account deleted", "account_id", acc.ID)
	}

	if missing {
		return ErrNotFound
	}
	return nil
}

// Start launches the orphaned-account sweep. The loop wakes on a fixed
// delay and is cancelled by Close() or the parent context.
func (r *Repository) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)

		// Short warm-up so a restart doesn't immediately fight boot traffic.
		select {
		case <-ctx.Done():
			return
		case <-time.After(r.gcInterval / 10):
		}

		ticker := time.NewTicker(r.gcInterval)
		defer ticker.Stop()

		for {
			r.sweepOrphans(ctx)
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

// sweepOrphans deletes accounts that have had no devices for longer than
// the GC interval.
//
// The scan deliberately does not take the repository lock: an account
// younger than the interval is excluded by the age check, which is enough
// to avoid racing an in-progress creation, and it keeps the sweep from
// serialising behind every create.
func (r *Repository) sweepOrphans(ctx context.Context) {
	now := time.Now()
	var orphaned []uuid.UUID

	for _, acc := range r.List() {
		if now.Sub(acc.CreatedAt) < r.gcInterval {
			continue
		}
		entries, err := os.ReadDir(acc.DevicesPath())
		if err != nil && !os.IsNotExist(err) {
			r.logger.Error("orphan check failed", "account_id", acc.ID, "error", err)
			continue
		}
		if len(entries) == 0 {
			orphaned = append(orphaned, acc.ID)
		}
	}

	if len(orphaned) == 0 {
		return
	}
	r.logger.Info("deleting accounts without devices", "count", len(orphaned))
	if err := r.Delete(ctx, orphaned...); err != nil {
		r.logger.Error("orphan sweep delete failed", "error", err)
	}
}
