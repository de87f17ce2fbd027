// Package assembly builds the final video: it plans which shot clips and
// audio tracks are available, reports readiness, and drives ffmpeg to dub
// and concatenate them.
package assembly

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ministory/internal/artifacts"
	"ministory/internal/fileutil"
	"ministory/internal/logging"
	"ministory/internal/regen"
	"ministory/internal/story"
)

// ShotPlan is the assembly input for one shot.
type ShotPlan struct {
	SceneID    string
	ShotID     string
	VideoPath  string
	AudioPaths []string
	HasVideo   bool
}

// Plan lists every shot in script order with its on-disk assets.
type Plan struct {
	Shots []ShotPlan
}

// Report summarizes whether assembly can proceed.
type Report struct {
	TotalShots     int
	ShotsWithVideo int
	ShotsWithAudio int
	MissingVideos  []string
	Ready          bool
}

type commandRunner func(ctx context.Context, name string, args ...string) error

// Assembler concatenates shot clips into the session's final video.
type Assembler struct {
	store  *artifacts.Store
	ffmpeg string
	run    commandRunner
	logger *slog.Logger
}

// NewAssembler builds an assembler using the given ffmpeg binary.
func NewAssembler(store *artifacts.Store, ffmpeg string, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Assembler{
		store:  store,
		ffmpeg: ffmpeg,
		run:    defaultCommandRunner,
		logger: logging.NewComponentLogger(logger, "assembly"),
	}
}

// WithCommandRunner overrides command execution, for tests.
func (a *Assembler) WithCommandRunner(r commandRunner) {
	a.run = r
}

// BuildPlan walks the script tree and records which shot clips and audio
// tracks exist on disk.
func (a *Assembler) BuildPlan(script *story.Script) *Plan {
	plan := &Plan{}
	videosDir := a.store.VideosDir()
	audioDir := a.store.AudioDir()

	for _, scene := range script.Scenes {
		sceneID := scene.SceneInfo.SceneID
		for _, shot := range scene.Shots {
			sp := ShotPlan{
				SceneID:   sceneID,
				ShotID:    shot.ShotID,
				VideoPath: filepath.Join(videosDir, regen.FileName(sceneID, shot.ShotID, regen.KindShotVideo)),
			}
			sp.HasVideo = fileutil.FileExists(sp.VideoPath)
			sp.AudioPaths = shotAudioFiles(audioDir, sceneID, shot.ShotID)
			plan.Shots = append(plan.Shots, sp)
		}
	}
	return plan
}

// Readiness reports the plan's asset coverage. Assembly is ready once at
// least one shot clip exists; missing clips are skipped, not fatal.
func Readiness(plan *Plan) Report {
	report := Report{TotalShots: len(plan.Shots)}
	for _, shot := range plan.Shots {
		if shot.HasVideo {
			report.ShotsWithVideo++
		} else {
			report.MissingVideos = append(report.MissingVideos, shot.ShotID)
		}
		if len(shot.AudioPaths) > 0 {
			report.ShotsWithAudio++
		}
	}
	report.Ready = report.ShotsWithVideo > 0
	return report
}

// Assemble dubs each shot clip with its audio track and concatenates the
// results into the final video. Returns the output path.
func (a *Assembler) Assemble(ctx context.Context, plan *Plan) (string, error) {
	report := Readiness(plan)
	if !report.Ready {
		return "", fmt.Errorf("no shot clips to assemble (%d shots planned)", report.TotalShots)
	}

	workDir := filepath.Join(a.store.Root(), "video_editing", "assembly")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", fmt.Errorf("create assembly dir: %w", err)
	}

	var clips []string
	for _, shot := range plan.Shots {
		if !shot.HasVideo {
			logging.WarnWithContext(a.logger, "shot clip missing, skipping", "clip_missing",
				logging.String(logging.FieldSceneID, shot.SceneID),
				logging.String(logging.FieldShotID, shot.ShotID))
			continue
		}
		clip, err := a.prepareClip(ctx, workDir, shot)
		if err != nil {
			logging.WarnWithContext(a.logger, "shot dubbing failed, using silent clip", "dub_failed",
				logging.String(logging.FieldShotID, shot.ShotID),
				logging.String("error", err.Error()))
			clip = shot.VideoPath
		}
		clips = append(clips, clip)
	}

	output := a.store.FinalVideoPath()
	if err := a.concat(ctx, workDir, "final", clips, output); err != nil {
		return "", fmt.Errorf("concatenate %d clips: %w", len(clips), err)
	}
	a.logger.Info("final video assembled",
		logging.String("path", output),
		logging.Int("clips", len(clips)))
	return output, nil
}

// prepareClip returns the path to use for a shot in the final concat: the
// raw clip when there is no audio, otherwise a dubbed copy in workDir.
func (a *Assembler) prepareClip(ctx context.Context, workDir string, shot ShotPlan) (string, error) {
	if len(shot.AudioPaths) == 0 {
		return shot.VideoPath, nil
	}

	track := shot.AudioPaths[0]
	if len(shot.AudioPaths) > 1 {
		merged := filepath.Join(workDir, fmt.Sprintf("%s_%s_track.mp3", shot.SceneID, shot.ShotID))
		if err := a.concat(ctx, workDir, shot.ShotID+"_audio", shot.AudioPaths, merged); err != nil {
			return "", fmt.Errorf("merge audio: %w", err)
		}
		track = merged
	}

	dubbed := filepath.Join(workDir, fmt.Sprintf("%s_%s_dubbed.mp4", shot.SceneID, shot.ShotID))
	args := []string{
		"-y",
		"-i", shot.VideoPath,
		"-i", track,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-shortest",
		dubbed,
	}
	if err := a.run(ctx, a.ffmpeg, args...); err != nil {
		return "", err
	}
	return dubbed, nil
}

// concat runs ffmpeg's concat demuxer over inputs into output.
func (a *Assembler) concat(ctx context.Context, workDir, label string, inputs []string, output string) error {
	listPath := filepath.Join(workDir, label+"_concat.txt")
	var b strings.Builder
	for _, input := range inputs {
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(input, "'", `'\''`))
	}
	if err := fileutil.WriteFileAtomic(listPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		output,
	}
	return a.run(ctx, a.ffmpeg, args...)
}

// shotAudioFiles lists a shot's audio tracks in playback order; the filename
// scheme sorts narration before dialog lines.
func shotAudioFiles(dir, sceneID, shotID string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	prefix := strings.TrimSuffix(regen.FileName(sceneID, shotID, regen.KindDialogAudio), ".mp3")
	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if strings.HasSuffix(name, ".mp3") || strings.HasSuffix(name, ".wav") {
			files = append(files, filepath.Join(dir, name))
		}
	}
	sort.Strings(files)
	return files
}
