// Package kaigi provides a high-level façade over the meeting engine and its
// services (stores, model ports & logging) enabling rapid construction of
// simulated multi-agent meetings. Most applications interact with this
// package by:
//  1. Creating a Kaigi via New() (optionally overriding default in-memory services)
//  2. Registering one model port per provider the meeting's agents use
//  3. Seeding agents, workflows and meetings through Stores(), or from a
//     definition file
//  4. Driving the meeting via Start/Advance/Resume or the synchronous Run
//
// The façade delegates step execution to engine.Engine and lifecycle
// persistence to runner.Runner while keeping setup ergonomics concise. All
// defaults are safe for local development and testing; production deployments
// typically supply the SQLite stores and a structured logger.
package kaigi

import (
	"context"

	"github.com/kaigi-ai/kaigi/core"
	"github.com/kaigi-ai/kaigi/engine"
	"github.com/kaigi-ai/kaigi/logging"
	"github.com/kaigi-ai/kaigi/model"
	"github.com/kaigi-ai/kaigi/runner"
	"github.com/kaigi-ai/kaigi/step"
	"github.com/kaigi-ai/kaigi/store/memory"
)

// Options configures the Kaigi instance.
type Options struct {
	// Stores (defaults to in-memory implementations if not provided).
	Stores core.Stores

	// Ports maps providers to model backends. Empty is valid until a meeting
	// actually needs a provider; a missing port surfaces as a step failure.
	Ports map[core.Provider]model.Port

	// Token ceilings per step kind. Zero selects the package defaults.
	SpeakMaxTokens   int64
	SummaryMaxTokens int64

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Kaigi is the high-level façade aggregating engine, runner and services.
type Kaigi struct {
	opts     Options
	registry *model.Registry
	runner   *runner.Runner
}

// New creates a new Kaigi instance with optional overrides. Any unset service
// is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *Kaigi {
	opts := Options{
		Stores: memory.New().Stores(),
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	registry := model.NewRegistry(opts.Ports)

	handlers := step.Handlers(step.Deps{
		Styles:           opts.Stores.Styles,
		Port:             registry,
		Logger:           opts.Logger,
		SpeakMaxTokens:   opts.SpeakMaxTokens,
		SummaryMaxTokens: opts.SummaryMaxTokens,
	})

	eng := engine.New(handlers, func(o *engine.Options) {
		o.Logger = opts.Logger
	})
	run := runner.New(opts.Stores, eng, func(o *runner.Options) {
		o.Logger = opts.Logger
	})

	return &Kaigi{opts: opts, registry: registry, runner: run}
}

// RegisterPort adds or replaces the model backend for a provider.
func (k *Kaigi) RegisterPort(provider core.Provider, port model.Port) {
	k.registry.RegisterPort(provider, port)
}

// Stores exposes the configured stores for seeding and inspection.
func (k *Kaigi) Stores() core.Stores { return k.opts.Stores }

// Start transitions a pending meeting to in_progress.
func (k *Kaigi) Start(ctx context.Context, meetingID string) (*core.Meeting, error) {
	return k.runner.Start(ctx, meetingID)
}

// Advance executes exactly one step of an in-progress meeting.
func (k *Kaigi) Advance(ctx context.Context, meetingID string) (*core.ExecutionResult, error) {
	return k.runner.Advance(ctx, meetingID)
}

// Resume continues a meeting paused for user intervention, optionally
// replacing the whiteboard first.
func (k *Kaigi) Resume(ctx context.Context, meetingID string, whiteboard *string) (*core.ExecutionResult, error) {
	return k.runner.Resume(ctx, meetingID, whiteboard)
}

// Run is a synchronous helper advancing a meeting until it pauses, completes
// or a step fails.
func (k *Kaigi) Run(ctx context.Context, meetingID string) (*core.Meeting, error) {
	return k.runner.Run(ctx, meetingID)
}

// Fail marks a stuck meeting as error. Terminal meetings are rejected.
func (k *Kaigi) Fail(ctx context.Context, meetingID string) error {
	return k.runner.Fail(ctx, meetingID)
}
