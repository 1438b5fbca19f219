package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ankitjain91/pmfit-analyzer/internal/analysis"
)

var reportsLimit int

// reportsCmd represents the reports command
var reportsCmd = &cobra.Command{
	Use:   "reports [id]",
	Short: "List recent reports or fetch one by ID",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			resp, err := makeRequest("GET", "/v1/analyses/"+args[0], nil)
			if err != nil {
				return fmt.Errorf("report request failed: %w", err)
			}
			var report analysis.Report
			if err := readResponse(resp, &report); err != nil {
				return err
			}
			if outputJSON {
				printOutput(report)
			} else {
				printReport(&report)
			}
			return nil
		}

		resp, err := makeRequest("GET", fmt.Sprintf("/v1/analyses?limit=%d", reportsLimit), nil)
		if err != nil {
			return fmt.Errorf("reports request failed: %w", err)
		}
		var list struct {
			Reports []*analysis.Report `json:"reports"`
		}
		if err := readResponse(resp, &list); err != nil {
			return err
		}
		if outputJSON {
			printOutput(list)
			return nil
		}
		if len(list.Reports) == 0 {
			fmt.Println("No reports found")
			return nil
		}
		for _, r := range list.Reports {
			fmt.Printf("%s  %3d/100 %-8s  %s\n", r.ID, r.Score, r.Verdict, r.Idea)
		}
		return nil
	},
}

func init() {
	reportsCmd.Flags().IntVar(&reportsLimit, "limit", 20, "number of reports to list")
	rootCmd.AddCommand(reportsCmd)
}
