package cmds

import (
	"encoding/json"

	"github.com/go-go-golems/buddy/pkg/inference/tools"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func NewToolsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect and run the configured tools",
	}
	cmd.AddCommand(newToolsListCommand(), newToolsRunCommand())
	return cmd
}

func newToolsListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the tool catalog as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			withSchema, _ := cmd.Flags().GetBool("schema")
			rt, err := LoadRuntime(viper.GetViper())
			if err != nil {
				return err
			}

			descs := rt.Registry.DescribeAll()
			if withSchema {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(descs)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(descs); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	cmd.Flags().Bool("schema", false, "Print JSON including the argument schemas")
	return cmd
}

func newToolsRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run <tool> [arguments-json]",
		Short: "Dispatch a single tool invocation and print the result record",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := LoadRuntime(viper.GetViper())
			if err != nil {
				return err
			}

			arguments := map[string]interface{}{}
			if len(args) == 2 {
				if err := json.Unmarshal([]byte(args[1]), &arguments); err != nil {
					return errors.Wrap(err, "arguments must be a JSON object")
				}
			}

			d := tools.NewDefaultToolDispatcher(rt.DispatchConfig)
			results := d.Dispatch(cmd.Context(), []tools.ToolInvocationRequest{
				{ToolName: args[0], Arguments: arguments},
			}, rt.Registry)

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(results[0]); err != nil {
				return err
			}
			if err := enc.Close(); err != nil {
				return err
			}
			if results[0].Failed() {
				return errors.Errorf("tool %s failed", args[0])
			}
			return nil
		},
	}
}
