package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ankitjain91/pmfit-analyzer/internal/analysis"
)

var (
	analyzeDescription string
	analyzePrefetch    bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <idea title>",
	Short: "Run a market-fit analysis for an idea",
	Long: `Run a full market-fit analysis for a startup idea. The service
extracts keywords, queries every signal source, and returns a scored
report. With --prefetch the source lookups are only warmed up and no
report is produced.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input := analysis.IdeaInput{
			Title:       strings.Join(args, " "),
			Description: analyzeDescription,
		}

		if analyzePrefetch {
			resp, err := makeRequest("POST", "/v1/analyses/prefetch", input)
			if err != nil {
				return fmt.Errorf("prefetch request failed: %w", err)
			}
			if err := readResponse(resp, nil); err != nil {
				return err
			}
			fmt.Println("✓ Prefetch queued")
			return nil
		}

		resp, err := makeRequest("POST", "/v1/analyses", input)
		if err != nil {
			return fmt.Errorf("analyze request failed: %w", err)
		}
		var report analysis.Report
		if err := readResponse(resp, &report); err != nil {
			return err
		}

		if outputJSON {
			printOutput(report)
			return nil
		}
		printReport(&report)
		return nil
	},
}

func printReport(r *analysis.Report) {
	fmt.Printf("Report %s\n", r.ID)
	fmt.Printf("Idea:     %s\n", r.Idea)
	fmt.Printf("Keywords: %s\n", strings.Join(r.Keywords, ", "))
	fmt.Printf("Score:    %d/100 (%s)\n", r.Score, r.Verdict)
	if r.Trends != nil {
		fmt.Printf("Trends:   momentum %.2f\n", r.Trends.Momentum)
	}
	if r.Reddit != nil {
		fmt.Printf("Reddit:   %d mentions, sentiment %.2f\n", r.Reddit.Mentions, r.Reddit.Sentiment)
	}
	if r.News != nil {
		fmt.Printf("News:     %d positive / %d negative / %d neutral\n", r.News.Positive, r.News.Negative, r.News.Neutral)
	}
	if r.YouTube != nil {
		fmt.Printf("YouTube:  %d videos, %d total views\n", len(r.YouTube.Videos), r.YouTube.TotalViews)
	}
	if r.WebSearch != nil {
		fmt.Printf("Search:   %d competitors, %s competition\n", len(r.WebSearch.Competitors), r.WebSearch.CompetitionLevel)
	}
	if len(r.Synthetic) > 0 {
		fmt.Printf("Note:     synthetic data for: %s\n", strings.Join(r.Synthetic, ", "))
	}
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeDescription, "description", "", "longer idea description")
	analyzeCmd.Flags().BoolVar(&analyzePrefetch, "prefetch", false, "only warm the source lookups")
	rootCmd.AddCommand(analyzeCmd)
}
