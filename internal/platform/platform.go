// Package platform wraps the host integrations the shell needs: opening URLs
// in the system browser and writing to the clipboard.
package platform

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"

	"github.com/atotto/clipboard"
)

// ErrUnsupportedURL is returned for URLs the opener refuses to hand to the OS.
var ErrUnsupportedURL = errors.New("platform: unsupported url")

// Opener opens a URL outside the application.
type Opener interface {
	Open(ctx context.Context, rawURL string) error
}

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteText(value string) error
}

// BrowserOpener opens http(s) and mailto URLs with the OS handler.
type BrowserOpener struct {
	// Command overrides the opener binary; empty picks one for the OS.
	Command string
	run     func(ctx context.Context, name string, args ...string) error
}

// NewBrowserOpener creates an opener using the OS default handler.
func NewBrowserOpener() *BrowserOpener {
	return &BrowserOpener{run: runDetached}
}

// Open validates rawURL and launches the handler.
func (o *BrowserOpener) Open(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedURL, err)
	}
	switch u.Scheme {
	case "http", "https", "mailto":
	default:
		return fmt.Errorf("%w: scheme %q", ErrUnsupportedURL, u.Scheme)
	}
	name, args := o.command()
	run := o.run
	if run == nil {
		run = runDetached
	}
	if err := run(ctx, name, append(args, u.String())...); err != nil {
		return fmt.Errorf("open %s: %w", u.Redacted(), err)
	}
	return nil
}

func (o *BrowserOpener) command() (string, []string) {
	if o.Command != "" {
		return o.Command, nil
	}
	switch runtime.GOOS {
	case "darwin":
		return "open", nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		return "xdg-open", nil
	}
}

func runDetached(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// SystemClipboard writes through atotto/clipboard.
type SystemClipboard struct{}

// WriteText copies value to the clipboard.
func (SystemClipboard) WriteText(value string) error {
	if clipboard.Unsupported {
		return errors.New("platform: clipboard unsupported on this system")
	}
	if err := clipboard.WriteAll(value); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}
