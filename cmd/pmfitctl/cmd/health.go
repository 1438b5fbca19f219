package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// healthCmd represents the health command
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the pmfit service",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := makeRequest("GET", "/healthz", nil)
		if err != nil {
			return fmt.Errorf("health check failed: %w", err)
		}
		var status struct {
			OK      bool   `json:"ok"`
			Message string `json:"message"`
			Active  int    `json:"queue_active"`
			Pending int    `json:"queue_pending"`
		}
		// Health reports a body on both 200 and 503.
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		if err := json.Unmarshal(data, &status); err != nil {
			return fmt.Errorf("unexpected health response: %s", data)
		}

		if status.OK {
			fmt.Printf("✓ Service is healthy (queue: %d active, %d pending)\n", status.Active, status.Pending)
		} else {
			fmt.Printf("✗ Service is unhealthy (HTTP %d): %s\n", resp.StatusCode, status.Message)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
