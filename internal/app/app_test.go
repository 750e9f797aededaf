package app

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestBackgroundJobsRunSideBySide(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	slowStarted := make(chan struct{})
	fastRan := make(chan struct{})
	background(ctx, &wg,
		func(ctx context.Context) {
			close(slowStarted)
			<-ctx.Done()
		},
		func(context.Context) { close(fastRan) },
	)

	<-slowStarted
	select {
	case <-fastRan:
	case <-time.After(2 * time.Second):
		t.Fatal("second job waited for the first")
	}

	cancel()
	waited := make(chan struct{})
	go func() {
		wg.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs did not finish after cancel")
	}
}
