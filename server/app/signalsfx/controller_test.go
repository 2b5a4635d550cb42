package signalsfx

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

type fakeNotifier struct {
	mu      sync.Mutex
	ch      chan<- os.Signal
	stopped bool
}

func (n *fakeNotifier) Notify(ch chan<- os.Signal, _ ...os.Signal) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.ch = ch
}

func (n *fakeNotifier) Stop(_ chan<- os.Signal) {
	n.mu.Lock()
	n.stopped = true
	n.mu.Unlock()
}

func (n *fakeNotifier) Send(sig os.Signal) {
	n.mu.Lock()
	ch := n.ch
	n.mu.Unlock()

	ch <- sig
}

type fakeReloadManager struct{ calls atomic.Int64 }

func (m *fakeReloadManager) Reload(context.Context) error {
	m.calls.Add(1)

	return nil
}

type fakeTickRunner struct{ calls atomic.Int64 }

func (m *fakeTickRunner) TickNow(context.Context) error {
	m.calls.Add(1)

	return nil
}

func TestController_RoutesSignals(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := &fakeNotifier{}
	reloadMgr := &fakeReloadManager{}
	tickRunner := &fakeTickRunner{}

	controller := NewController(controllerIn{
		Ctx:           ctx,
		Cancel:        cancel,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Notifier:      notifier,
		ReloadManager: reloadMgr,
		TickRunner:    tickRunner,
	})

	if err := controller.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	notifier.Send(syscall.SIGHUP)
	notifier.Send(syscall.SIGUSR1)

	notifier.Send(syscall.SIGTERM)

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expected termination to cancel context")
	}

	if got := reloadMgr.calls.Load(); got != 1 {
		t.Fatalf("expected reload to be called once, got %d", got)
	}

	if got := tickRunner.calls.Load(); got != 1 {
		t.Fatalf("expected manual tick to run once, got %d", got)
	}

	if err := controller.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	notifier.mu.Lock()
	stopped := notifier.stopped
	notifier.mu.Unlock()

	if !stopped {
		t.Fatal("expected notifier to be stopped")
	}
}

func TestController_IgnoresMissingRunners(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := &fakeNotifier{}

	controller := NewController(controllerIn{
		Ctx:      ctx,
		Cancel:   cancel,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Notifier: notifier,
	})

	if err := controller.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if err := controller.Start(context.Background()); err != nil {
		t.Fatalf("second start failed: %v", err)
	}

	notifier.Send(syscall.SIGHUP)
	notifier.Send(syscall.SIGUSR1)
	notifier.Send(syscall.SIGINT)

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("expected SIGINT to cancel context")
	}

	if err := controller.Stop(context.Background()); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
}

func TestController_StopsWithRootContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	controller := NewController(controllerIn{
		Ctx:      ctx,
		Cancel:   cancel,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Notifier: &fakeNotifier{},
	})

	if err := controller.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	cancel()

	done := make(chan struct{})
	go func() {
		_ = controller.Stop(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return after root context cancel")
	}
}
