package cmds

import (
	"context"
	"os"

	"github.com/go-go-golems/buddy/pkg/alerts"
	"github.com/go-go-golems/buddy/pkg/events"
	"github.com/go-go-golems/buddy/pkg/inference/session"
	"github.com/go-go-golems/buddy/pkg/tools/calendar"
	"github.com/go-go-golems/buddy/pkg/ui"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

func NewChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), cmd)
		},
	}
	cmd.Flags().Bool("print-events", false, "Dump session events to stderr")
	cmd.Flags().Bool("verbose-events", false, "Include event metadata when printing events")
	cmd.Flags().Bool("show-tools", true, "Show tool calls and alerts as they happen")
	cmd.Flags().Bool("markdown", false, "Render responses as markdown")
	cmd.Flags().String("markdown-style", "dark", "glamour style used with --markdown")
	cmd.Flags().String("history-file", ui.DefaultHistoryFile(), "Readline history file")
	cmd.Flags().String("transcript", "", "Append every turn to this YAML file")
	cmd.Flags().Bool("alerts", true, "Watch the events file and inject due alerts")
	cmd.Flags().Duration("alert-interval", alerts.DefaultInterval, "How often to scan for due events")
	cmd.Flags().String("events-file", "", "Events file to watch (default: the calendar tools' file)")
	return cmd
}

func runChat(ctx context.Context, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	flags := cmd.Flags()
	printEvents, _ := flags.GetBool("print-events")
	verboseEvents, _ := flags.GetBool("verbose-events")
	showTools, _ := flags.GetBool("show-tools")
	markdown, _ := flags.GetBool("markdown")
	markdownStyle, _ := flags.GetString("markdown-style")
	historyFile, _ := flags.GetString("history-file")
	transcriptPath, _ := flags.GetString("transcript")
	withAlerts, _ := flags.GetBool("alerts")
	alertInterval, _ := flags.GetDuration("alert-interval")
	eventsFile, _ := flags.GetString("events-file")

	rt, err := LoadRuntime(viper.GetViper())
	if err != nil {
		return err
	}
	eng, err := rt.NewEngine()
	if err != nil {
		return err
	}
	defer closeEngine(eng)

	prompt, err := ui.NewPrompt(ui.PromptConfig{HistoryFile: historyFile})
	if err != nil {
		return err
	}
	defer func() { _ = prompt.Close() }()
	stdout := prompt.Stdout()

	var sinks []events.EventSink
	if showTools {
		sinks = append(sinks, ui.NewTraceSink(stdout))
	}

	var router *events.EventRouter
	if printEvents {
		router, err = events.NewEventRouter(events.WithVerbose(verboseEvents), events.WithOutput(os.Stderr))
		if err != nil {
			return err
		}
		defer func() { _ = router.Close() }()
		if verboseEvents {
			router.AddHandler("raw-events", events.TopicSession, router.DumpRawEvents)
		} else {
			router.AddHandler("event-printer", events.TopicSession, events.StepPrinterFunc("", os.Stderr))
		}
		sinks = append(sinks, router.Sink())
	}

	var persister session.TurnPersister
	if transcriptPath != "" {
		t, err := newYAMLTranscript(transcriptPath)
		if err != nil {
			return err
		}
		persister = t
	}

	sess, err := rt.NewSession(eng, persister, sinks...)
	if err != nil {
		return err
	}

	var outOpts []ui.OutputOption
	if markdown {
		outOpts = append(outOpts, ui.WithMarkdown(markdownStyle))
	}
	output := ui.NewOutput(stdout, outOpts...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)

	if router != nil {
		eg.Go(func() error {
			return router.Run(ctx)
		})
		<-router.Running()
	}

	if withAlerts {
		if eventsFile == "" {
			eventsFile, _ = rt.Catalog.EventsFilePath()
		}
		if eventsFile != "" {
			poller := alerts.NewPoller(calendar.NewStore(eventsFile), sess, alerts.WithInterval(alertInterval))
			eg.Go(func() error {
				return poller.Run(ctx)
			})
		} else {
			log.Debug().Msg("No events file configured, alerts disabled")
		}
	}

	eg.Go(func() error {
		defer cancel()
		log.Info().Str("session_id", sess.SessionID).Msg("Chat session started")
		return sess.Run(ctx, prompt, output)
	})

	err = eg.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
