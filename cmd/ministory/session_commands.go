package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"ministory/internal/artifacts"
	"ministory/internal/outfits"
	"ministory/internal/session"
)

func newNewCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "new <name> <script-file>",
		Short: "Create a session from a story script",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.sessionManager()
			if err != nil {
				return err
			}

			raw, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read script file: %w", err)
			}
			text := strings.TrimSpace(string(raw))
			if text == "" {
				return fmt.Errorf("script file %s is empty", args[1])
			}

			sess, err := manager.Create(args[0])
			if err != nil {
				return err
			}
			if err := sess.Artifacts().SaveRawScript(text); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created session %s\n", sess.ID)
			fmt.Fprintf(out, "Run the pipeline with `ministory run all --session %s`\n", sess.ID)
			return nil
		},
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := ctx.sessionManager()
			if err != nil {
				return err
			}
			infos, err := manager.List()
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions")
				return nil
			}

			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				rows = append(rows, []string{
					info.SessionID,
					info.ProjectName,
					info.CreatedAt,
					stageLabel(info.Stage),
					completedLabel(info.Completed),
				})
			}
			renderRows(cmd.OutOrStdout(), []string{"SESSION", "PROJECT", "CREATED", "STAGE", "COMPLETED"}, rows)
			return nil
		},
	}
}

func newOutfitsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "outfits [session]",
		Short: "Show outfit continuity for a session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := ctx.resolveSession(args)
			if err != nil {
				return err
			}
			store := sess.Artifacts()

			var tracking struct {
				Summary outfits.Summary `json:"summary"`
			}
			if err := store.Load(artifacts.KindOutfitTracking, &tracking); err != nil {
				return fmt.Errorf("session %s has no outfit tracking yet; run the scenes stage first", sess.ID)
			}

			ids := make([]string, 0, len(tracking.Summary.Characters))
			for id := range tracking.Summary.Characters {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				char := tracking.Summary.Characters[id]
				rows = append(rows, []string{
					char.Name,
					char.OutfitType,
					char.CurrentOutfit,
					char.LastScene,
					fmt.Sprintf("%d", char.OutfitChanges),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session %s: %d tracked character(s)\n", sess.ID, tracking.Summary.CharacterCount)
			renderRows(out, []string{"CHARACTER", "TYPE", "CURRENT OUTFIT", "LAST SCENE", "CHANGES"}, rows)
			return nil
		},
	}
}

func stageLabel(index int) string {
	if index >= 0 && index < len(session.Stages) {
		return session.Stages[index]
	}
	return "done"
}

func completedLabel(completed map[string]bool) string {
	done := 0
	for _, name := range session.Stages {
		if completed[name] {
			done++
		}
	}
	return fmt.Sprintf("%d/%d", done, len(session.Stages))
}
