package tui

import (
	"fmt"
	"os/exec"
	"runtime"
)

// OpenURL opens a URL in the default browser without waiting for it.
func OpenURL(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("cannot open URLs on %s", runtime.GOOS)
	}
	return cmd.Start()
}
