package commands

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
)

type reloadNamespaceCommand struct {
	Namespace string
}

func (reloadNamespaceCommand) Type() string { return "lingo.test.reload_namespace" }

func (reloadNamespaceCommand) Validate() error { return nil }

type slowReloadCommand struct{}

func (slowReloadCommand) Type() string { return "lingo.test.slow_reload" }

func (slowReloadCommand) Validate() error { return nil }

func TestDispatcherRetriesFlakyReload(t *testing.T) {
	var attempts atomic.Int32
	handler := NewHandler(func(_ context.Context, msg reloadNamespaceCommand) error {
		if attempts.Add(1) == 1 {
			return errors.New("bundle source unavailable")
		}
		if msg.Namespace != "common" {
			t.Errorf("unexpected namespace %q", msg.Namespace)
		}
		return nil
	}, WithTimeout[reloadNamespaceCommand](time.Second))

	sub := dispatcher.SubscribeCommand(handler, runner.WithMaxRetries(1))
	t.Cleanup(sub.Unsubscribe)

	if err := dispatcher.Dispatch(context.Background(), reloadNamespaceCommand{Namespace: "common"}); err != nil {
		t.Fatalf("dispatch: expected success after retry, got %v", err)
	}
	if got := attempts.Load(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestDispatcherSurfacesCommandTimeout(t *testing.T) {
	var deadlineHit atomic.Bool
	handler := NewHandler(func(ctx context.Context, _ slowReloadCommand) error {
		<-ctx.Done()
		deadlineHit.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
		return ctx.Err()
	}, WithTimeout[slowReloadCommand](20*time.Millisecond))

	sub := dispatcher.SubscribeCommand(handler)
	t.Cleanup(sub.Unsubscribe)

	err := dispatcher.Dispatch(context.Background(), slowReloadCommand{})
	if err == nil {
		t.Fatal("expected timeout error from dispatcher")
	}
	if !deadlineHit.Load() {
		t.Fatal("expected handler context to hit its deadline")
	}
}
