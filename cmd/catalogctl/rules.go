package main

import (
	"fmt"
	"io"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/rules"
	"github.com/spf13/cobra"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect verification rule documents",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <file>",
		Short: "Parse and compile a rules document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesCheck(cmd.OutOrStdout(), args[0])
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "default",
		Short: "Print the built-in rules document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write(rules.DefaultYAML())
			return err
		},
	})
	return cmd
}

func runRulesCheck(out io.Writer, path string) error {
	ruleSet, err := loadRuleSet(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s\n", verifiedStyle.Render("ok:"), ruleSet.Source)
	for _, r := range ruleSet.Engine.Rules() {
		fmt.Fprintf(out, "  %-24s priority=%-4d %s\n", r.ID, r.Priority, r.Effect.Kind)
	}
	if tags := ruleSet.Engine.MandatoryTags(); len(tags) > 0 {
		fmt.Fprintf(out, "mandatory tags: %s\n", joinOrDash(tags))
	}
	printWarnings(out, ruleSet.Warnings())
	return nil
}
