package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"trading-journal/internal/playbook"
)

var playbookCmd = &cobra.Command{
	Use:   "playbook [section-id]",
	Short: "Print the trading playbook, or one section of it",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPlaybook,
}

func init() {
	rootCmd.AddCommand(playbookCmd)
}

func runPlaybook(cmd *cobra.Command, args []string) error {
	p, err := api.Playbook(ctx(cmd))
	if err != nil {
		return explain(err)
	}
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		s, ok := p.Section(args[0])
		if !ok {
			return fmt.Errorf("unknown section %q (have %s)", args[0], strings.Join(p.IDs(), ", "))
		}
		printSection(out, s)
		return nil
	}

	fmt.Fprintf(out, "%s\n%s\n\n", p.Title, p.Subtitle)
	for _, s := range p.Sections {
		printSection(out, s)
	}
	return nil
}

func printSection(out io.Writer, s playbook.Section) {
	fmt.Fprintf(out, "== %s ==\n", s.Title)
	if s.Window != "" {
		fmt.Fprintf(out, "[%s]\n", s.Window)
	}
	for _, p := range s.Paragraphs {
		fmt.Fprintf(out, "%s\n", p)
	}
	for _, c := range s.Callouts {
		fmt.Fprintf(out, "\n%s\n", c.Heading)
		for _, pt := range c.Points {
			fmt.Fprintf(out, "  %s: %s\n", pt.Label, pt.Text)
		}
		if c.Tip != nil {
			fmt.Fprintf(out, "  > %s: %s\n", c.Tip.Label, c.Tip.Text)
		}
	}
	for _, e := range s.Cards {
		fmt.Fprintf(out, "  %s: %s\n", e.Label, e.Text)
	}
	for _, row := range s.Checklist {
		fmt.Fprintf(out, "  Step %s\n", row.Step)
		for _, item := range row.Items {
			fmt.Fprintf(out, "    [ ] %s\n", item)
		}
	}
	for _, e := range s.Concepts {
		fmt.Fprintf(out, "  %s: %s\n", e.Label, e.Text)
	}
	for _, e := range s.Mistakes {
		fmt.Fprintf(out, "  x %s: %s\n", e.Label, e.Text)
	}
	for _, r := range s.Routine {
		fmt.Fprintf(out, "  %-20s %s: %s\n", r.Time, r.Label, r.Text)
	}
	fmt.Fprintln(out)
}
