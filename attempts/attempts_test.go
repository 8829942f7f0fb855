package attempts

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// exerciseStore runs the behaviour every Store implementation must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	if _, ok, err := s.Get("203.0.113.1"); err != nil || ok {
		t.Fatalf("Get on empty store = ok %v, err %v", ok, err)
	}

	if err := s.Set("203.0.113.1", Record{Count: 2, LastAttempt: base}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	rec, ok, err := s.Get("203.0.113.1")
	if err != nil || !ok {
		t.Fatalf("Get after Set = ok %v, err %v", ok, err)
	}
	if rec.Count != 2 || !rec.LastAttempt.Equal(base) {
		t.Errorf("record = %+v, want count 2 at %v", rec, base)
	}

	if err := s.Set("203.0.113.1", Record{Count: 3, LastAttempt: base.Add(time.Minute)}); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	rec, _, _ = s.Get("203.0.113.1")
	if rec.Count != 3 {
		t.Errorf("overwritten count = %d, want 3", rec.Count)
	}

	if err := s.Set("203.0.113.2", Record{Count: 1, LastAttempt: base.Add(-time.Hour)}); err != nil {
		t.Fatalf("Set second key: %v", err)
	}
	removed, err := s.Sweep(base)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}
	if _, ok, _ := s.Get("203.0.113.2"); ok {
		t.Error("stale record survived Sweep")
	}
	if _, ok, _ := s.Get("203.0.113.1"); !ok {
		t.Error("fresh record removed by Sweep")
	}

	if err := s.Delete("203.0.113.1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get("203.0.113.1"); ok {
		t.Error("record still present after Delete")
	}
	if err := s.Delete("203.0.113.1"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}

	exerciseHit(t, s, base)
}

// exerciseHit checks the atomic counter shared by every Store.
func exerciseHit(t *testing.T, s Store, base time.Time) {
	t.Helper()
	const key = "192.0.2.10"
	cutoff := base.Add(-15 * time.Minute)

	for i := 1; i <= 3; i++ {
		rec, err := s.Hit(key, base, cutoff, 3)
		if err != nil {
			t.Fatalf("Hit %d: %v", i, err)
		}
		if rec.Count != i || !rec.LastAttempt.Equal(base) {
			t.Fatalf("Hit %d = %+v, want count %d at %v", i, rec, i, base)
		}
	}

	later := base.Add(time.Minute)
	rec, err := s.Hit(key, later, later.Add(-15*time.Minute), 3)
	if err != nil {
		t.Fatalf("Hit past limit: %v", err)
	}
	if rec.Count != 4 || !rec.LastAttempt.Equal(base) {
		t.Errorf("Hit past limit = %+v, want count 4 with last attempt kept at %v", rec, base)
	}

	expired := base.Add(15 * time.Minute)
	rec, err = s.Hit(key, expired, expired.Add(-15*time.Minute), 3)
	if err != nil {
		t.Fatalf("Hit after window: %v", err)
	}
	if rec.Count != 1 || !rec.LastAttempt.Equal(expired) {
		t.Errorf("Hit after window = %+v, want count 1 at %v", rec, expired)
	}

	if err := s.Delete(key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

// concurrentHits fires n Hits at one key at once and returns the final count.
func concurrentHits(t *testing.T, s Store, n int) int {
	t.Helper()
	now := time.Now()
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := s.Hit("192.0.2.20", now, now.Add(-time.Hour), n); err != nil {
				t.Errorf("Hit: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()
	rec, _, err := s.Get("192.0.2.20")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	return rec.Count
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s)
	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0", s.Len())
	}
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "attempts.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestMemoryStoreConcurrentHits(t *testing.T) {
	if got := concurrentHits(t, NewMemoryStore(), 200); got != 200 {
		t.Fatalf("count = %d, want 200", got)
	}
}

func TestSQLiteStoreConcurrentHits(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "attempts.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()
	if got := concurrentHits(t, s, 100); got != 100 {
		t.Fatalf("count = %d, want 100", got)
	}
}

func TestSQLiteStoreSharedAcrossHandles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attempts.db")
	a, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite a: %v", err)
	}
	defer a.Close()
	b, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite b: %v", err)
	}
	defer b.Close()

	if err := a.Set("198.51.100.7", Record{Count: 4, LastAttempt: time.Now()}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	rec, ok, err := b.Get("198.51.100.7")
	if err != nil || !ok || rec.Count != 4 {
		t.Fatalf("second handle Get = %+v, ok %v, err %v", rec, ok, err)
	}
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("SALONPRESS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SALONPRESS_TEST_POSTGRES_DSN not set")
	}
	s, err := OpenPostgres(dsn)
	if err != nil {
		t.Fatalf("OpenPostgres: %v", err)
	}
	defer s.Close()
	if _, err := s.db.Exec(`DELETE FROM login_attempts`); err != nil {
		t.Fatalf("reset table: %v", err)
	}
	exerciseStore(t, s)
}

func TestOpenDrivers(t *testing.T) {
	s, err := Open("", "")
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("Open(\"\") = %T, want *MemoryStore", s)
	}
	if _, err := Open("redis", ""); err != ErrUnknownDriver {
		t.Errorf("Open(redis) err = %v, want ErrUnknownDriver", err)
	}
	if _, err := Open("postgres", ""); err == nil {
		t.Error("Open(postgres) without dsn should fail")
	}
}
