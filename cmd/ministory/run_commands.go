package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ministory/internal/artifacts"
	"ministory/internal/regen"
	"ministory/internal/session"
	"ministory/internal/story"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run <stage|all>",
		Short: "Run one pipeline stage, or every remaining stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name != "all" && session.StageIndex(name) < 0 {
				return fmt.Errorf("unknown stage %q (stages: %s, or all)",
					name, strings.Join(session.Stages, ", "))
			}

			sess, err := ctx.resolveSession(nil)
			if err != nil {
				return err
			}
			runner, _, err := ctx.newRunner()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if name == "all" {
				if err := runner.RunAll(cmd.Context(), sess); err != nil {
					return err
				}
				fmt.Fprintf(out, "Pipeline complete for session %s\n", sess.ID)
				return nil
			}
			if err := runner.RunStage(cmd.Context(), sess, name); err != nil {
				return err
			}
			fmt.Fprintf(out, "Stage %s complete for session %s\n", name, sess.ID)
			return nil
		},
	}
}

func newRegenerateCommand(ctx *commandContext) *cobra.Command {
	var stageFlag string
	var sceneFlag string
	var shotFlag string
	var clearFlag bool

	cmd := &cobra.Command{
		Use:   "regenerate",
		Short: "Re-run generation for a stage, scene, or shot",
		Long: "Re-run generation with cached artifacts invalidated. --scene limits the rerun\n" +
			"to one scene, --shot to one shot; without either the whole stage regenerates.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stageName := strings.TrimSpace(stageFlag)
			if stageName != "scenes" && stageName != "video" {
				return fmt.Errorf("regenerate supports the scenes and video stages, not %q", stageName)
			}
			sceneID := strings.TrimSpace(sceneFlag)
			shotID := strings.TrimSpace(shotFlag)

			sess, err := ctx.resolveSession(nil)
			if err != nil {
				return err
			}
			runner, handlers, err := ctx.newRunner()
			if err != nil {
				return err
			}

			script, err := loadScript(sess.Artifacts())
			if err != nil {
				return err
			}
			if shotID != "" && sceneID == "" {
				sceneID, err = findShotScene(script, shotID)
				if err != nil {
					return err
				}
			}
			if sceneID != "" && script.Scene(sceneID) == nil {
				return fmt.Errorf("scene %q not found in session %s", sceneID, sess.ID)
			}

			wholeStage := sceneID == "" && shotID == ""
			if wholeStage {
				handlers.scenes.Force = stageName == "scenes"
				handlers.video.Force = stageName == "video"
			}
			runner.ConfigureRegen = func(ctrl *regen.Controller) {
				switch {
				case shotID != "":
					ctrl.ForceShot(sceneID, shotID)
				case sceneID != "":
					ctrl.ForceScene(sceneID)
				case stageName == "scenes":
					ctrl.ForceStage(regen.KindSceneImage)
					ctrl.ForceStage(regen.KindShotVideo)
				default:
					ctrl.ForceStage(regen.KindDialogAudio)
				}
				if clearFlag {
					if err := ctrl.ClearArtifacts(script); err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "clear cached artifacts: %v\n", err)
					}
				}
			}

			if err := runner.RunStage(cmd.Context(), sess, stageName); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Regenerated %s for session %s\n",
				regenScopeLabel(stageName, sceneID, shotID), sess.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&stageFlag, "stage", "scenes", "Stage to regenerate (scenes or video)")
	cmd.Flags().StringVar(&sceneFlag, "scene", "", "Limit regeneration to one scene id")
	cmd.Flags().StringVar(&shotFlag, "shot", "", "Limit regeneration to one shot id")
	cmd.Flags().BoolVar(&clearFlag, "clear", false, "Delete the covered artifacts before regenerating")
	return cmd
}

// loadScript prefers the described script so regeneration covers the scenes
// stage output; a session that has not reached that stage falls back to the
// formatted script.
func loadScript(store *artifacts.Store) (*story.Script, error) {
	var script story.Script
	if err := store.Load(artifacts.KindScriptWithDescriptions, &script); err == nil {
		return &script, nil
	}
	if err := store.Load(artifacts.KindFormattedScript, &script); err != nil {
		return nil, errors.New("no formatted script in this session; run the script stage first")
	}
	return &script, nil
}

func findShotScene(script *story.Script, shotID string) (string, error) {
	for _, scene := range script.Scenes {
		for _, shot := range scene.Shots {
			if shot.ShotID == shotID {
				return scene.SceneInfo.SceneID, nil
			}
		}
	}
	return "", fmt.Errorf("shot %q not found", shotID)
}

func regenScopeLabel(stageName, sceneID, shotID string) string {
	switch {
	case shotID != "":
		return fmt.Sprintf("shot %s", shotID)
	case sceneID != "":
		return fmt.Sprintf("scene %s", sceneID)
	default:
		return fmt.Sprintf("stage %s", stageName)
	}
}
