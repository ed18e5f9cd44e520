package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

// browserCommands maps GOOS to the command that opens a URL in the default browser.
var browserCommands = map[string][]string{
	"darwin":  {"open"},
	"linux":   {"xdg-open"},
	"freebsd": {"xdg-open"},
	"windows": {"rundll32", "url.dll,FileProtocolHandler"},
}

var startCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

// OpenBrowser opens rawURL in the default system browser. Only http and https URLs are opened.
func OpenBrowser(rawURL string) error {
	return openBrowser(runtime.GOOS, rawURL)
}

func openBrowser(goos, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: refusing to open %q", ErrInvalidInput, rawURL)
	}
	argv, ok := browserCommands[goos]
	if !ok {
		return fmt.Errorf("%w: no browser launcher for %s", ErrNotImplemented, goos)
	}
	if err := startCommand(argv[0], append(argv[1:], u.String())...); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}
