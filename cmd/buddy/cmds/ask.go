package cmds

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-go-golems/buddy/pkg/events"
	"github.com/go-go-golems/buddy/pkg/ui"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func NewAskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <message...>",
		Short: "Run a single turn and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), cmd, strings.Join(args, " "))
		},
	}
	cmd.Flags().StringArray("note", nil, "Attach a note to the message (repeatable)")
	cmd.Flags().String("output", "text", "Output format (text, markdown, yaml)")
	cmd.Flags().Bool("show-tools", false, "Print tool calls to stderr")
	return cmd
}

type askResult struct {
	SessionID  string      `yaml:"session_id"`
	Response   string      `yaml:"response"`
	Thought    string      `yaml:"thought,omitempty"`
	End        bool        `yaml:"end"`
	ModelCalls int         `yaml:"model_calls"`
	Tools      interface{} `yaml:"tool_results,omitempty"`
}

func runAsk(ctx context.Context, cmd *cobra.Command, message string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	notes, _ := cmd.Flags().GetStringArray("note")
	format, _ := cmd.Flags().GetString("output")
	showTools, _ := cmd.Flags().GetBool("show-tools")

	rt, err := LoadRuntime(viper.GetViper())
	if err != nil {
		return err
	}
	eng, err := rt.NewEngine()
	if err != nil {
		return err
	}
	defer closeEngine(eng)

	var sinks []events.EventSink
	if showTools {
		sinks = append(sinks, ui.NewTraceSink(os.Stderr))
	}
	sess, err := rt.NewSession(eng, nil, sinks...)
	if err != nil {
		return err
	}
	for _, n := range notes {
		sess.AddNote(n)
	}

	out, err := sess.Submit(ctx, message)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch format {
	case "text":
		_, err = fmt.Fprintln(w, out.Response)
	case "markdown":
		err = ui.NewOutput(w, ui.WithMarkdown("")).EmitResponse(ctx, out.Response)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		err = enc.Encode(askResult{
			SessionID:  sess.SessionID,
			Response:   out.Response,
			Thought:    out.Thought,
			End:        out.End,
			ModelCalls: out.ModelCalls,
			Tools:      out.ToolResults,
		})
		if err == nil {
			err = enc.Close()
		}
	default:
		err = errors.Errorf("unknown output format %q", format)
	}
	return err
}
