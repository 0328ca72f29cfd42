package cmds

import (
	"fmt"

	"github.com/go-go-golems/buddy/pkg/steps/ai/types"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tiktoken-go/tokenizer"
)

func NewPromptCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the system prompt sent to the model",
		RunE: func(cmd *cobra.Command, args []string) error {
			countTokens, _ := cmd.Flags().GetBool("count-tokens")
			encoding, _ := cmd.Flags().GetString("encoding")

			rt, err := LoadRuntime(viper.GetViper())
			if err != nil {
				return err
			}
			prompt, err := rt.Codec.RenderPrompt(rt.Registry.DescribeAll())
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), prompt); err != nil {
				return err
			}
			if !countTokens {
				return nil
			}

			model := ""
			if rt.Settings.ApiType() == types.ApiTypeOpenAI && rt.Settings.Chat.Engine != nil {
				model = *rt.Settings.Chat.Engine
			}
			codec, err := getCodec(model, encoding)
			if err != nil {
				return err
			}
			ids, _, err := codec.Encode(prompt)
			if err != nil {
				return errors.Wrap(err, "error encoding prompt")
			}
			_, err = fmt.Fprintf(cmd.ErrOrStderr(), "tokens: %d (%s)\n", len(ids), codec.GetName())
			return err
		},
	}
	cmd.Flags().Bool("count-tokens", false, "Print the prompt size in tokens to stderr")
	cmd.Flags().String("encoding", string(tokenizer.Cl100kBase), "Tokenizer encoding used when the model has no known tokenizer")
	return cmd
}

// getCodec prefers the model's own tokenizer and falls back to encoding,
// which is an approximation for non-OpenAI models.
func getCodec(model, encoding string) (tokenizer.Codec, error) {
	if model != "" {
		if c, err := tokenizer.ForModel(tokenizer.Model(model)); err == nil {
			return c, nil
		}
	}
	c, err := tokenizer.Get(tokenizer.Encoding(encoding))
	if err != nil {
		return nil, errors.Wrapf(err, "error creating tokenizer for %s", encoding)
	}
	return c, nil
}
