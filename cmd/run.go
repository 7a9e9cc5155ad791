package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kaigi-ai/kaigi"
	"github.com/kaigi-ai/kaigi/config"
	"github.com/kaigi-ai/kaigi/core"
	"github.com/kaigi-ai/kaigi/definition"
	"github.com/kaigi-ai/kaigi/logging"
	"github.com/kaigi-ai/kaigi/model"
	anthropicport "github.com/kaigi-ai/kaigi/model/anthropic"
	googleport "github.com/kaigi-ai/kaigi/model/google"
	openaiport "github.com/kaigi-ai/kaigi/model/openai"
	"github.com/kaigi-ai/kaigi/store/memory"
	"github.com/kaigi-ai/kaigi/store/sqlite"
)

func newRunCmd() *cobra.Command {
	var (
		mock       bool
		dbPath     string
		configFile string
	)

	cmd := &cobra.Command{
		Use:   "run <definition.json>",
		Short: "Seed a meeting definition and run it to completion",
		Long:  "run seeds the styles, agents, workflow and meeting of a definition file, then advances the meeting step by step. When the workflow pauses for user intervention you are prompted to update the whiteboard before the meeting resumes.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(viper.New(), configFile)
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}

			logger := logging.NewLogger(&logging.LoggerConfig{
				Level:  logging.ParseLevel(cfg.LogLevel),
				Format: cfg.LogFormat,
				Output: cmd.ErrOrStderr(),
			})

			def, err := definition.Load(args[0])
			if err != nil {
				return err
			}

			stores, closeStores, err := openStores(cfg)
			if err != nil {
				return err
			}
			defer closeStores()

			ports, closePorts, err := buildPorts(cmd, cfg, mock)
			if err != nil {
				return err
			}
			defer closePorts()

			k := kaigi.New(func(o *kaigi.Options) {
				o.Stores = stores
				o.Ports = ports
				o.Logger = logger
				o.SpeakMaxTokens = cfg.SpeakMaxTokens
				o.SummaryMaxTokens = cfg.SummaryMaxTokens
			})

			meetingID, err := def.Seed(ctx, k.Stores())
			if err != nil {
				return fmt.Errorf("seed definition: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "meeting %s: %s\n\n", meetingID, def.Meeting.Topic)

			meeting, err := k.Run(ctx, meetingID)
			if err != nil {
				return err
			}
			for meeting.Status == core.StatusWaiting {
				whiteboard, err := promptWhiteboard(cmd, stores, meetingID, meeting.Whiteboard)
				if err != nil {
					return err
				}
				if _, err := k.Resume(ctx, meetingID, whiteboard); err != nil {
					return err
				}
				if meeting, err = k.Run(ctx, meetingID); err != nil {
					return err
				}
			}

			return printTranscript(ctx, cmd.OutOrStdout(), stores, meeting)
		},
	}

	cmd.Flags().BoolVar(&mock, "mock", false, "use a deterministic mock model instead of real providers")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database file (default: in-memory stores)")
	cmd.Flags().StringVar(&configFile, "config", "", "config file (default: KAIGI_* environment only)")

	return cmd
}

func openStores(cfg *config.Config) (core.Stores, func() error, error) {
	if cfg.DBPath == "" {
		return memory.New().Stores(), func() error { return nil }, nil
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return core.Stores{}, nil, err
	}
	return store.Stores(), store.Close, nil
}

// buildPorts constructs one retrying port per provider. With --mock a single
// shared mock port backs every provider so definitions run offline.
func buildPorts(cmd *cobra.Command, cfg *config.Config, mock bool) (map[core.Provider]model.Port, func() error, error) {
	noop := func() error { return nil }

	if mock {
		mp := model.NewMockPort()
		return map[core.Provider]model.Port{
			core.ProviderOpenAI:    mp,
			core.ProviderAnthropic: mp,
			core.ProviderGoogle:    mp,
		}, noop, nil
	}

	retry := func(o *model.RetryOptions) {
		o.MaxRetries = cfg.MaxRetries
		o.InitialDelay = cfg.RetryInitialDelay
		o.Timeout = cfg.RequestTimeout
	}

	ports := map[core.Provider]model.Port{
		core.ProviderOpenAI: model.WithRetry(openaiport.NewPort(func(o *openaiport.Options) {
			o.APIKey = cfg.OpenAIAPIKey
		}), retry),
		core.ProviderAnthropic: model.WithRetry(anthropicport.NewPort(func(o *anthropicport.Options) {
			o.APIKey = cfg.AnthropicAPIKey
		}), retry),
	}

	// The Gemini client dials eagerly, so it is only built with a credential.
	if cfg.GoogleAPIKey == "" {
		return ports, noop, nil
	}
	gp, err := googleport.NewPort(cmd.Context(), func(o *googleport.Options) {
		o.APIKey = cfg.GoogleAPIKey
	})
	if err != nil {
		return nil, nil, err
	}
	ports[core.ProviderGoogle] = model.WithRetry(gp, retry)
	return ports, gp.Close, nil
}

// promptWhiteboard shows the pause reason and current whiteboard, then reads
// replacement lines until a lone "." or EOF. An empty entry keeps the current
// whiteboard.
func promptWhiteboard(cmd *cobra.Command, stores core.Stores, meetingID, current string) (*string, error) {
	out := cmd.OutOrStdout()

	messages, err := stores.Messages.ListMessages(cmd.Context(), meetingID)
	if err != nil {
		return nil, err
	}
	if len(messages) > 0 {
		fmt.Fprintf(out, "--- %s\n", messages[len(messages)-1].Content)
	}
	if current != "" {
		fmt.Fprintf(out, "current whiteboard:\n%s\n", current)
	}
	fmt.Fprintln(out, `enter new whiteboard content, end with a line containing only "." (empty keeps current):`)

	var lines []string
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := scanner.Text()
		if line == "." {
			break
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}
	whiteboard := strings.Join(lines, "\n")
	return &whiteboard, nil
}

func printTranscript(ctx context.Context, out io.Writer, stores core.Stores, meeting *core.Meeting) error {
	messages, err := stores.Messages.ListMessages(ctx, meeting.ID)
	if err != nil {
		return err
	}

	for _, m := range messages {
		step := "?"
		if m.StepNumber > 0 {
			step = fmt.Sprintf("%d", m.StepNumber)
		}
		fmt.Fprintf(out, "[%s | step %s]\n%s\n\n", m.AgentName, step, m.Content)
	}

	fmt.Fprintf(out, "status: %s\n", meeting.Status)
	if meeting.FinalConclusion != "" {
		fmt.Fprintf(out, "\n=== Final conclusion ===\n%s\n", meeting.FinalConclusion)
	}
	return nil
}
