package deps

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"vconv/internal/services"
)

var commandContext = exec.CommandContext

// DefaultProbeTimeout bounds a version probe when the caller passes zero.
const DefaultProbeTimeout = 5 * time.Second

// ProbeVersion runs `<binary> -version` and reports whether the tool is usable
// along with the first line of its output. A binary that cannot be found is
// reported as unavailable with a nil error; any other failure (permission,
// timeout, non-zero exit) returns an error so callers can log it.
func ProbeVersion(ctx context.Context, binary string, timeout time.Duration) (bool, string, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return false, "", nil
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := commandContext(probeCtx, binary, "-version") //nolint:gosec
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	err := cmd.Run()
	if err != nil {
		if isNotFound(err) {
			return false, "", nil
		}
		if errors.Is(probeCtx.Err(), context.DeadlineExceeded) {
			return false, "", services.Wrap(services.ErrTimeout, "probe", binary, fmt.Sprintf("no response within %s", timeout), err)
		}
		return false, "", services.Wrap(services.ErrExternalTool, "probe", binary, "version check failed", err)
	}
	return true, firstLine(stdout.Bytes()), nil
}

func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}

func firstLine(data []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}
