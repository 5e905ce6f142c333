package utils

import (
	"errors"
	"os/exec"
	"runtime"
)

// BrowserCommand returns the command that opens url in the default browser
// on this platform, or nil when the platform has none.
func BrowserCommand(url string) *exec.Cmd {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("xdg-open", url)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		return exec.Command("open", url)
	default:
		return nil
	}
}

// OpenBrowser opens url in the user's default browser. Callers should fall
// back to printing the URL when it fails.
func OpenBrowser(url string) error {
	cmd := BrowserCommand(url)
	if cmd == nil {
		return errors.New("no browser opener for " + runtime.GOOS)
	}
	return cmd.Start()
}
