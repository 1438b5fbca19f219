package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	invokePayload string
	invokeFile    string
)

// invokeCmd represents the invoke command
var invokeCmd = &cobra.Command{
	Use:   "invoke <function-name>",
	Short: "Invoke one source function directly",
	Long: `Invoke one backend source function by name and print its result.

Known functions: news-analysis, reddit-sentiment, google-trends,
youtube-insights, web-search-profitability, idea-chat.

Example:
  pmfitctl invoke news-analysis --payload '{"keywords":["meal","planning"]}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := resolvePayload(invokePayload, invokeFile)
		if err != nil {
			return err
		}

		resp, err := makeRequest("POST", "/v1/functions/"+args[0], payload)
		if err != nil {
			return fmt.Errorf("invoke request failed: %w", err)
		}
		var result map[string]interface{}
		if err := readResponse(resp, &result); err != nil {
			return err
		}
		printOutput(result)
		return nil
	},
}

// resolvePayload parses the inline payload or reads it from a file.
func resolvePayload(inline, file string) (json.RawMessage, error) {
	data := []byte(inline)
	if file != "" {
		var err error
		data, err = os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload file: %w", err)
		}
	}
	if len(data) == 0 {
		data = []byte(`{}`)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("payload is not valid JSON")
	}
	return json.RawMessage(data), nil
}

func init() {
	invokeCmd.Flags().StringVar(&invokePayload, "payload", "", "JSON payload for the function")
	invokeCmd.Flags().StringVar(&invokeFile, "payload-file", "", "read the JSON payload from a file")
	rootCmd.AddCommand(invokeCmd)
}
