package main

import (
	"fmt"

	"github.com/Veraticus/ledgerlens/internal/categorize"
	"github.com/Veraticus/ledgerlens/internal/cli"
	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print or check the rule table",
		Long: `Print the effective rule table as YAML. The output is a valid rules.path
file and a starting point for a custom table.

With --check, validate a rule file without printing it.`,
		Args: cobra.NoArgs,
		RunE: runRules,
	}

	cmd.Flags().String("check", "", "Validate the rule file at this path")

	return cmd
}

func runRules(cmd *cobra.Command, _ []string) error {
	checkPath, _ := cmd.Flags().GetString("check")
	out := cmd.OutOrStdout()

	if checkPath != "" {
		rules, err := categorize.LoadRulesFile(checkPath)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%s: %d rules OK", checkPath, len(rules))))
		return err
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	rules := categorize.DefaultRules()
	if settings.RulesPath != "" {
		rules, err = categorize.LoadRulesFile(settings.RulesPath)
		if err != nil {
			return err
		}
	}

	data, err := categorize.MarshalRules(rules)
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}
	_, err = out.Write(data)
	return err
}
