package assembly

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// defaultCommandRunner executes ffmpeg invocations.
func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
