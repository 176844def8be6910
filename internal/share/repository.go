package share

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

// Repository owns all one-time share codes, across all accounts.
//
// The index is keyed by code, the only value a joining device ever holds.
// Consumption removes the index entry and the backing file under the
// repository lock, which is what makes "at most one successful
// consumption" hold under concurrent attempts.
//
// All public methods are safe for concurrent use.
type Repository struct {
	accounts      *account.Repository
	expiration    time.Duration
	staleInterval time.Duration
	logger        *logging.Logger

	mu     sync.RWMutex
	shares map[string]*Share // keyed by code

	cancel context.CancelFunc
	done   chan struct{}
}

// staleSweepWarmup delays the first disk-consistency pass after startup,
// so Load() has settled before memory is reconciled against disk.
const staleSweepWarmup = 15 * time.Second

// NewRepository creates the share repository. Call Load() to populate the
// index from disk before serving requests.
func NewRepository(accounts *account.Repository, expiration, staleInterval time.Duration, logger *logging.Logger) *Repository {
	return &Repository{
		accounts:      accounts,
		expiration:    expiration,
		staleInterval: staleInterval,
		logger:        logger.With("component", "share_repo"),
		shares:        make(map[string]*Share),
	}
}

// Load scans every account's shares directory and rebuilds the index.
// Unreadable share files are skipped with a warning.
func (r *Repository) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, acc := range r.accounts.List() {
		entries, err := os.ReadDir(acc.SharesPath())
		if err != nil {
			if !os.IsNotExist(err) {
				r.logger.Error("failed to list shares", "account_id", acc.ID, "error", err)
			}
			continue
		}
		for _, entry := range entries {
			path := filepath.Join(acc.SharesPath(), entry.Name())

			var desc descriptor
			if readErr := storage.ReadJSON(path, &desc); readErr != nil {
				r.logger.Error("failed to read share, skipping", "path", path, "error", readErr)
				continue
			}

			r.shares[desc.Code] = &Share{
				ID:        desc.ID,
				Code:      desc.Code,
				AccountID: acc.ID,
				CreatedAt: desc.CreatedAt,
				Path:      path,
			}
		}
	}

	r.logger.Info("shares loaded", "count", len(r.shares))
	return nil
}

// Create generates a fresh share code for the account, persists it, and
// registers it in the index. Code uniqueness is enforced at creation under
// the repository lock.
func (r *Repository) Create(ctx context.Context, acc *account.Account) (*Share, error) {
	code, err := newCode()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.shares[code]; exists {
		return nil, ErrCodeCollision
	}

	sh := &Share{
		ID:        uuid.New(),
		Code:      code,
		AccountID: acc.ID,
		CreatedAt: time.Now().UTC(),
	}
	sh.Path = filepath.Join(acc.SharesPath(), sh.ID.String()+".json")

	if err := r.write(sh); err != nil {
		return nil, err
	}

	r.shares[code] = sh
	r.logger.Info("share created", "share_id", sh.ID, "account_id", acc.ID)
	return sh, nil
}

// Get resolves a share by code.
// Returns ErrNotFound if the code is unknown, already consumed, or older
// than the configured TTL. An expired entry still awaiting its sweep is
// treated exactly like a missing one.
func (r *Repository) Get(code string) (*Share, error) {
	r.mu.RLock()
	sh, ok := r.shares[code]
	r.mu.RUnlock()

	if !ok || time.Since(sh.CreatedAt) > r.expiration {
		return nil, ErrNotFound
	}
	return sh, nil
}

// Consume atomically spends a share code.
//
// It removes the in-memory entry and deletes the backing file; the return
// value reports whether this caller actually performed the removal. Under
// concurrent attempts on the same code exactly one caller sees true; the
// others see false and must treat the code as spent.
func (r *Repository) Consume(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	sh, ok := r.shares[code]
	if !ok {
		return false
	}
	delete(r.shares, code)

	if err := os.Remove(sh.Path); err != nil && !os.IsNotExist(err) {
		r.logger.Error("failed to delete share file", "share_id", sh.ID, "error", err)
	}
	r.logger.Info("share consumed", "share_id", sh.ID, "account_id", sh.AccountID)
	return true
}

// Restore re-registers a previously consumed share and rewrites its
// backing file.
//
// This is the compensating action for a failure downstream of Consume():
// a share spent on a request that subsequently failed becomes valid again
// for exactly one further use.
func (r *Repository) Restore(sh *Share) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.write(sh); err != nil {
		return err
	}
	r.shares[sh.Code] = sh
	r.logger.Warn("share restored after failed registration", "share_id", sh.ID, "account_id", sh.AccountID)
	return nil
}

// RemoveForAccount consumes every share belonging to a deleted account.
func (r *Repository) RemoveForAccount(accountID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for code, sh := range r.shares {
		if sh.AccountID != accountID {
			continue
		}
		delete(r.shares, code)
		if err := os.Remove(sh.Path); err != nil && !os.IsNotExist(err) {
			r.logger.Error("failed to delete share file", "share_id", sh.ID, "error", err)
		}
	}
}

// Start launches the two background sweeps: time-based expiry and
// disk-consistency reconciliation.
func (r *Repository) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		// Expired codes are already rejected by Get(); the sweep only
		// reclaims their files and index entries, so half the TTL is a
		// fine cadence.
		ticker := time.NewTicker(r.expiration / 2)
		defer ticker.Stop()
		for {
			r.sweepExpired()
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			return
		case <-time.After(staleSweepWarmup):
		}
		ticker := time.NewTicker(r.staleInterval)
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

	go func() {
		wg.Wait()
		close(r.done)
	}()
}

// Close stops the background sweeps.
func (r *Repository) Close() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

// sweepExpired removes shares older than the TTL.
func (r *Repository) sweepExpired() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	removed := 0
	for code, sh := range r.shares {
		if now.Sub(sh.CreatedAt) <= r.expiration {
			continue
		}
		delete(r.shares, code)
		if err := os.Remove(sh.Path); err != nil && !os.IsNotExist(err) {
			r.logger.Error("failed to delete expired share file", "share_id", sh.ID, "error", err)
		}
		removed++
	}
	if removed > 0 {
		r.logger.Info("expired shares removed", "count", removed)
	}
}

// sweepStale drops in-memory entries whose backing file has disappeared,
// for example after a crash mid-write. This reconciles memory with disk
// without requiring a restart; it is never surfaced to clients.
func (r *Repository) sweepStale() {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for code, sh := range r.shares {
		if _, err := os.Stat(sh.Path); err == nil || !os.IsNotExist(err) {
			continue
		}
		delete(r.shares, code)
		removed++
	}
	if removed > 0 {
		r.logger.Info("stale shares removed", "count", removed)
	}
}

// write persists the share descriptor. Callers must hold the repository
// lock.
func (r *Repository) write(sh *Share) error {
	desc := descriptor{ID: sh.ID, Code: sh.Code, CreatedAt: sh.CreatedAt}
	return storage.WriteJSON(sh.Path, desc)
}
