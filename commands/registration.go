package commands

import (
	"context"
	"errors"
	"strings"

	command "github.com/goliatone/go-command"

	admincmd "github.com/goliatone/go-lingo/internal/commands/admin"
	"github.com/goliatone/go-lingo/internal/di"
)

// CommandRegistry records command handlers so hosts can expose them via CLI or cron.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandDispatcher subscribes command handlers to a dispatcher implementation.
type CommandDispatcher interface {
	RegisterCommand(handler any) (CommandSubscription, error)
}

// CommandSubscription allows hosts to tear down dispatcher subscriptions.
type CommandSubscription interface {
	Unsubscribe()
}

// CronRegistrar registers command handlers with a cron scheduler.
type CronRegistrar func(command.HandlerConfig, any) error

// ErrCommandsDisabled is returned when the container was built without admin commands.
var ErrCommandsDisabled = errors.New("commands: admin commands disabled; set Config.Commands.Enabled")

// RegistrationOptions configures how handlers are registered.
type RegistrationOptions struct {
	Registry      CommandRegistry
	Dispatcher    CommandDispatcher
	CronRegistrar CronRegistrar
	// MetricsResetCron schedules a periodic metrics reset when a CronRegistrar is set.
	MetricsResetCron string
}

// RegistrationResult captures the registered command handlers and any dispatcher subscriptions.
type RegistrationResult struct {
	Handlers      []any
	Subscriptions []CommandSubscription
}

// RegisterContainerCommands hands the container's admin handlers to the
// provided registry, dispatcher and cron integrations.
func RegisterContainerCommands(container *di.Container, opts RegistrationOptions) (*RegistrationResult, error) {
	if container == nil {
		return &RegistrationResult{}, nil
	}
	handlers := container.Commands()
	if handlers == nil {
		return &RegistrationResult{}, ErrCommandsDisabled
	}

	result := &RegistrationResult{
		Handlers:      make([]any, 0, 6),
		Subscriptions: make([]CommandSubscription, 0),
	}

	var errs error

	register := func(handler any) {
		result.Handlers = append(result.Handlers, handler)

		if opts.Registry != nil {
			if err := opts.Registry.RegisterCommand(handler); err != nil {
				errs = errors.Join(errs, err)
			}
		}

		if opts.Dispatcher != nil {
			subscription, err := opts.Dispatcher.RegisterCommand(handler)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if subscription != nil {
				result.Subscriptions = append(result.Subscriptions, subscription)
			}
		}
	}

	register(handlers.ClearCache)
	register(handlers.ResetMetrics)
	register(handlers.SetDebugMode)
	register(handlers.ExportDebug)
	register(handlers.PreloadBundles)
	register(handlers.InvalidateBundles)

	if expr := strings.TrimSpace(opts.MetricsResetCron); expr != "" && opts.CronRegistrar != nil {
		reset := func() error {
			return handlers.ResetMetrics.Execute(context.Background(), admincmd.ResetMetricsCommand{})
		}
		if err := opts.CronRegistrar(command.HandlerConfig{Expression: expr}, reset); err != nil {
			errs = errors.Join(errs, err)
		}
	}

	return result, errs
}
