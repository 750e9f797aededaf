package users

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/weatherbot/internal/domain"
	"github.com/m3rciful/weatherbot/internal/store"
)

type failingStore struct {
	*store.Memory
}

func (failingStore) Save(context.Context, domain.UserData) error { return errors.New("disk full") }

func TestUpdatePersists(t *testing.T) {
	st := store.NewMemory()
	svc := NewService(st)
	ctx := context.Background()

	u, err := svc.Update(ctx, 10, func(u *domain.UserData) error {
		u.SetHomeTown("Kyiv")
		return nil
	})
	if err != nil || u.HomeTown != "Kyiv" {
		t.Fatalf("update: %+v err=%v", u, err)
	}
	saved, ok, _ := st.Load(ctx, 10)
	if !ok || saved.HomeTown != "Kyiv" {
		t.Fatalf("not persisted: %+v", saved)
	}
}

func TestUpdateErrorLeavesRecord(t *testing.T) {
	svc := NewService(store.NewMemory())
	ctx := context.Background()
	_, _ = svc.Update(ctx, 1, func(u *domain.UserData) error { u.AddTown("Lviv"); return nil })

	boom := errors.New("boom")
	_, err := svc.Update(ctx, 1, func(u *domain.UserData) error {
		u.AddTown("Odesa")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if got := svc.Get(1); len(got.InterestedTowns) != 1 {
		t.Fatalf("failed update leaked: %v", got.InterestedTowns)
	}
}

func TestSaveFailureKeepsMemory(t *testing.T) {
	svc := NewService(failingStore{store.NewMemory()})
	_, err := svc.Update(context.Background(), 3, func(u *domain.UserData) error {
		u.AddTown("Lviv")
		return nil
	})
	if err != nil {
		t.Fatalf("save failure must not surface: %v", err)
	}
	if got := svc.Get(3); len(got.InterestedTowns) != 1 {
		t.Fatal("in-memory mutation must stand")
	}
}

func TestConcurrentUpdatesSerialize(t *testing.T) {
	svc := NewService(store.NewMemory())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = svc.Update(context.Background(), 5, func(u *domain.UserData) error {
				a, err := domain.NewStandardAlert("Kyiv", 1+i%72)
				if err != nil {
					return err
				}
				u.AddAlert(a)
				return nil
			})
		}(i)
	}
	wg.Wait()
	if n := len(svc.Get(5).Alerts); n != 50 {
		t.Fatalf("expected 50 alerts, got %d", n)
	}
}

func TestMarkTriggeredAndStats(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemory())
	a, _ := domain.NewWindAlert("Odesa", 40, 6)
	b, _ := domain.NewStandardAlert("Odesa", 6)
	b.Active = false
	_, _ = svc.Update(ctx, 9, func(u *domain.UserData) error {
		u.SetHomeTown("Odesa")
		u.AddAlert(a)
		u.AddAlert(b)
		return nil
	})
	_, _ = svc.Update(ctx, 8, func(u *domain.UserData) error { return nil })

	at := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	if err := svc.MarkTriggered(ctx, 9, a.ID, at); err != nil {
		t.Fatalf("mark: %v", err)
	}
	u := svc.Get(9)
	got, _ := u.Alert(a.ID)
	if got == nil || !got.LastTriggered.Equal(at) {
		t.Fatalf("last triggered not set: %+v", got)
	}
	if err := svc.MarkTriggered(ctx, 9, "gone", at); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	st := svc.Stats()
	want := Stats{Users: 2, WithHomeTown: 1, Alerts: 2, ActiveAlerts: 1}
	if st != want {
		t.Fatalf("stats = %+v, want %+v", st, want)
	}
}

func TestLoadAndForget(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	_ = st.Save(ctx, domain.NewUserData(1))
	_ = st.Save(ctx, domain.NewUserData(2))

	svc := NewService(st)
	n, err := svc.Load(ctx)
	if err != nil || n != 2 {
		t.Fatalf("load: %d err=%v", n, err)
	}
	if err := svc.Forget(ctx, 1); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if ids := svc.ChatIDs(); len(ids) != 1 || ids[0] != 2 {
		t.Fatalf("ids = %v", ids)
	}
	if _, ok, _ := st.Load(ctx, 1); ok {
		t.Fatal("forgotten chat still stored")
	}
}

// gateStore holds the first Save until release is closed.
type gateStore struct {
	*store.Memory
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gateStore) Save(ctx context.Context, u domain.UserData) error {
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.entered)
		<-g.release
	}
	return g.Memory.Save(ctx, u)
}

func TestConcurrentSavesKeepLatest(t *testing.T) {
	st := &gateStore{Memory: store.NewMemory(), entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(st)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = svc.Update(ctx, 5, func(u *domain.UserData) error {
			u.AddTown("Lviv")
			return nil
		})
	}()
	<-st.entered
	go func() {
		defer wg.Done()
		_, _ = svc.Update(ctx, 5, func(u *domain.UserData) error {
			u.RemoveTown("Lviv")
			return nil
		})
	}()
	// wait for the second update to land in memory
	deadline := time.Now().Add(2 * time.Second)
	for len(svc.Get(5).InterestedTowns) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("second update never applied")
		}
		time.Sleep(time.Millisecond)
	}
	close(st.release)
	wg.Wait()

	saved, ok, _ := st.Load(ctx, 5)
	if !ok || len(saved.InterestedTowns) != 0 {
		t.Fatalf("store diverged from memory: store=%v memory=%v", saved.InterestedTowns, svc.Get(5).InterestedTowns)
	}
}

func TestForgetWinsOverPendingSave(t *testing.T) {
	st := &gateStore{Memory: store.NewMemory(), entered: make(chan struct{}), release: make(chan struct{})}
	svc := NewService(st)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.Update(ctx, 6, func(u *domain.UserData) error {
			u.SetHomeTown("Odesa")
			return nil
		})
	}()
	<-st.entered
	forgot := make(chan error, 1)
	go func() { forgot <- svc.Forget(ctx, 6) }()
	close(st.release)
	<-done
	if err := <-forgot; err != nil {
		t.Fatalf("forget: %v", err)
	}
	if _, ok, _ := st.Load(ctx, 6); ok {
		t.Fatal("forgotten chat still stored")
	}
}
