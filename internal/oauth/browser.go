package oauth

import (
	"fmt"
	"os/exec"
	"runtime"
)

// BrowserLauncher opens the authorization URL for the user. Fire-and-forget:
// the flow learns about the outcome only through the callback receiver.
type BrowserLauncher interface {
	Open(url string) error
}

// SystemBrowser launches the platform default browser.
type SystemBrowser struct{}

// Open starts the browser process and returns without waiting for it.
func (SystemBrowser) Open(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
