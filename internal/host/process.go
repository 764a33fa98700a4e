package host

import (
	"os"
	"runtime"
	"strings"

	"github.com/mitchellh/go-ps"
)

// ExecutableName appends ".exe" on Windows.
func ExecutableName(base string) string {
	if strings.Contains(strings.ToLower(runtime.GOOS), "windows") {
		return base + ".exe"
	}

	return base
}

// OtherInstanceRunning reports whether a process other than this one runs
// an executable named name.
func OtherInstanceRunning(name string) (bool, error) {
	processList, err := ps.Processes()
	if err != nil {
		return false, err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() == name {
			return true, nil
		}
	}

	return false, nil
}
