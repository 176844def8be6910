package share

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/sync-hub/internal/account"
	"github.com/nerrad567/sync-hub/internal/infrastructure/config"
	"github.com/nerrad567/sync-hub/internal/infrastructure/logging"
)

func testLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
}

func testRepos(t *testing.T, expiration time.Duration) (*account.Repository, *Repository, *account.Account) {
	t.Helper()

	log := testLogger()
	accounts, err := account.NewRepository(t.TempDir(), time.Hour, log)
	if err != nil {
		t.Fatalf("account.NewRepository: %v", err)
	}
	acc, err := accounts.Create(context.Background())
	if err != nil {
		t.Fatalf("account Create: %v", err)
	}

	shares := NewRepository(accounts, expiration, time.Hour, log)
	return accounts, shares, acc
}

func TestCreateAndGet(t *testing.T) {
	_, shares, acc := testRepos(t, time.Hour)

	sh, err := shares.Create(context.Background(), acc)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(sh.Code) != 128 {
		t.Errorf("code length = %d, want 128 hex chars", len(sh.Code))
	}
	if _, err := os.Stat(sh.Path); err != nil {
		t.Errorf("share file not persisted: %v", err)
	}

	got, err := shares.Get(sh.Code)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AccountID != acc.ID {
		t.Errorf("AccountID = %v, want %v", got.AccountID, acc.ID)
	}
}

func TestGet_UnknownCode(t *testing.T) {
	_, shares, _ := testRepos(t, time.Hour)

	if _, err := shares.Get("no-such-code"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get unknown = %v, want ErrNotFound", err)
	}
}

func TestGet_ExpiredCode(t *testing.T) {
	_, shares, acc := testRepos(t, 10*time.Millisecond)

	sh, err := shares.Create(context.Background(), acc)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	// An expired code still awaiting its sweep reads as missing
	if _, err := shares.Get(sh.Code); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get expired = %v, want ErrNotFound", err)
	}
}

func TestConsume_ExactlyOnce(t *testing.T) {
	_, shares, acc := testRepos(t, time.Hour)

	sh, err := shares.Create(context.Background(), acc)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !shares.Consume(sh.Code) {
		t.Fatal("first Consume returned false")
	}
	if shares.Consume(sh.Code) {
		t.Error("second Consume returned true, code was spent twice")
	}
	if _, err := os.Stat(sh.Path); !os.IsNotExist(err) {
		t.Errorf("share file survived consumption: %v", err)
	}
	if _, err := shares.Get(sh.Code); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after consume = %v, want ErrNotFound", err)
	}
}

func TestConsume_ConcurrentSingleWinner(t *testing.T) {
	_, shares, acc := testRepos(t, time.Hour)

	sh, err := shares.Create(context.Background(), acc)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	const attempts = 32
	var wg sync.WaitGroup
	results := make(chan bool, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- shares.Consume(sh.Code)
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for won := range results {
		if won {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("%d goroutines consumed the code, want exactly 1", winners)
	}
}

func TestRestore_MakesCodeValidAgain(t *testing.T) {
	_, shares, acc := testRepos(t, time.Hour)

	sh, err := shares.Create(context.Background(), acc)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !shares.Consume(sh.Code) {
		t.Fatal("Consume returned false")
	}

	if err := shares.Restore(sh); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if _, err := shares.Get(sh.Code); err != nil {
		t.Fatalf("Get after restore: %v", err)
	}
	if _, err := os.Stat(sh.Path); err != nil {
		t.Errorf("share file not rewritten by restore: %v", err)
	}

	// Still single-use after restoration
	if !shares.Consume(sh.Code) {
		t.Error("Consume after restore returned false")
	}
	if shares.Consume(sh.Code) {
		t.Error("restored code was spent twice")
	}
}

func TestRemoveForAccount(t *testing.T) {
	accounts, shares, acc := testRepos(t, time.Hour)

	other, err := accounts.Create(context.Background())
	if err != nil {
		t.Fatalf("account Create: %v", err)
	}

	mine, err := shares.Create(context.Background(), acc)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	theirs, err := shares.Create(context.Background(), other)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	shares.RemoveForAccount(acc.ID)

	if _, err := shares.Get(mine.Code); !errors.Is(err, ErrNotFound) {
		t.Errorf("share survived account removal: %v", err)
	}
	if _, err := shares.Get(theirs.Code); err != nil {
		t.Errorf("share on other account was removed: %v", err)
	}
}

func TestLoad_RecoversShares(t *testing.T) {
	log := testLogger()
	dataPath := t.TempDir()

	accounts, err := account.NewRepository(dataPath, time.Hour, log)
	if err != nil {
		t.Fatalf("account.NewRepository: %v", err)
	}
	acc, err := accounts.Create(context.Background())
	if err != nil {
		t.Fatalf("account Create: %v", err)
	}
	shares := NewRepository(accounts, time.Hour, time.Hour, log)
	sh, err := shares.Create(context.Background(), acc)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	accounts2, err := account.NewRepository(dataPath, time.Hour, log)
	if err != nil {
		t.Fatalf("account.NewRepository (reload): %v", err)
	}
	if err := accounts2.Load(context.Background()); err != nil {
		t.Fatalf("account Load: %v", err)
	}
	shares2 := NewRepository(accounts2, time.Hour, time.Hour, log)
	if err := shares2.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	got, err := shares2.Get(sh.Code)
	if err != nil {
		t.Fatalf("Get after reload: %v", err)
	}
	if got.ID != sh.ID {
		t.Errorf("share id after reload = %v, want %v", got.ID, sh.ID)
	}
}

func TestSweepExpired(t *testing.T) {
	_, shares, acc := testRepos(t, 10*time.Millisecond)

	sh, err := shares.Create(context.Background(), acc)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	shares.sweepExpired()

	if _, err := os.Stat(sh.Path); !os.IsNotExist(err) {
		t.Errorf("expired share file survived sweep: %v", err)
	}
	if shares.Consume(sh.Code) {
		t.Error("expired share was still consumable after sweep")
	}
}

func TestSweepStale(t *testing.T) {
	_, shares, acc := testRepos(t, time.Hour)

	sh, err := shares.Create(context.Background(), acc)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Simulate the backing file vanishing out from under the index
	if err := os.Remove(sh.Path); err != nil {
		t.Fatalf("remove share file: %v", err)
	}

	shares.sweepStale()

	if _, err := shares.Get(sh.Code); !errors.Is(err, ErrNotFound) {
		t.Errorf("stale share survived sweep: %v", err)
	}
}
