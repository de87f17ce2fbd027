package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ministory/internal/fileutil"
	"ministory/internal/preflight"
	"ministory/internal/session"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status [session]",
		Short: "Show preflight checks, stage health, and session progress",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			results := preflight.RunAll(cmd.Context(), cfg)
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				rows = append(rows, []string{result.Name, passLabel(result.Passed), result.Detail})
			}
			fmt.Fprintln(out, "Preflight")
			renderRows(out, []string{"CHECK", "OK", "DETAIL"}, rows)

			runner, _, err := ctx.newRunner()
			if err != nil {
				return err
			}
			health := runner.Health(cmd.Context())
			rows = rows[:0]
			for _, report := range health {
				rows = append(rows, []string{report.Name, yesNo(report.Ready), report.Detail})
			}
			fmt.Fprintln(out, "Stages")
			renderRows(out, []string{"STAGE", "READY", "DETAIL"}, rows)

			sess, err := ctx.resolveSession(args)
			if err != nil {
				// Status without any session is still useful.
				fmt.Fprintln(out, err)
				return nil
			}
			meta := sess.Metadata()
			fmt.Fprintf(out, "Session %s (%s)\n", sess.ID, meta.ProjectName)

			store := sess.Artifacts()
			rows = rows[:0]
			for i, name := range session.Stages {
				marker := " "
				if i == meta.CurrentStage {
					marker = ">"
				}
				rows = append(rows, []string{marker, name, yesNo(meta.StagesCompleted[name])})
			}
			renderRows(out, []string{"", "STAGE", "DONE"}, rows)
			if fileutil.FileExists(store.FinalVideoPath()) {
				fmt.Fprintf(out, "Final video: %s\n", store.FinalVideoPath())
			}
			return nil
		},
	}
}

func passLabel(passed bool) string {
	if passed {
		return "pass"
	}
	return "FAIL"
}
