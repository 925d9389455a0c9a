package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/kozaktomas/reclaim/internal/report"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report <image-url>",
	Short: "Print the removal action plan for a matched image",
	Args:  cobra.ExactArgs(1),
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("hash", "", "SHA-256 of the image, as returned by match")
	reportCmd.Flags().Bool("json", false, "Output as JSON")
}

// ReportOutput is the --json shape of the report command.
type ReportOutput struct {
	ReportLink string             `json:"report_link"`
	ActionPlan *report.ActionPlan `json:"action_plan"`
}

func runReport(cmd *cobra.Command, args []string) error {
	b, err := report.NewBuilder()
	if err != nil {
		return err
	}
	plan, err := b.Build(args[0], flagValue(cmd, "hash", cmd.Flags().GetString))
	if err != nil {
		return err
	}

	if flagValue(cmd, "json", cmd.Flags().GetBool) {
		return outputJSON(ReportOutput{ReportLink: report.ReportLink(args[0]), ActionPlan: plan})
	}
	printActionPlan(os.Stdout, args[0], plan)
	return nil
}

func printActionPlan(out io.Writer, locator string, plan *report.ActionPlan) {
	fmt.Fprintf(out, "Removal plan for %s (priority: %s)\n", locator, plan.Priority)
	fmt.Fprintf(out, "Report link: %s\n", report.ReportLink(locator))

	for _, step := range plan.Steps {
		fmt.Fprintf(out, "\n%d. %s [%s, effectiveness %s]\n", step.Step, step.Action, step.Time, step.Effectiveness)
		fmt.Fprintf(out, "   %s\n", step.Description)
		if step.Link != "" {
			fmt.Fprintf(out, "   Link: %s\n", step.Link)
		}
		for _, text := range []string{step.EmailTemplate, step.Template} {
			if text != "" {
				fmt.Fprintf(out, "\n%s\n", text)
			}
		}
	}

	if len(plan.AdditionalResources) > 0 {
		fmt.Fprintln(out, "\nMore help:")
		for _, r := range plan.AdditionalResources {
			fmt.Fprintf(out, "  - %s\n", r)
		}
	}
}
