//go:build windows

package platform

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"syscall"

	"github.com/go-ole/go-ole"
	"github.com/rs/zerolog"

	"github.com/example/nativenotify/internal/notify"
	"github.com/example/nativenotify/internal/toast"
)

const (
	windowsName = "windows"
	toastGroup  = "nativenotify"
)

// windowsBackend shows toasts through the WinRT notification manager,
// reached via a PowerShell host process.
type windowsBackend struct {
	log         zerolog.Logger
	appID       string
	interpreter string
	ids         notify.Counter

	available bool
	ownsCOM   bool
	locked    bool
}

func newNative(opts Options) notify.Backend {
	return newWindows(opts)
}

func newWindows(opts Options) *windowsBackend {
	b := &windowsBackend{
		log:         opts.Log.With().Str("backend", windowsName).Logger(),
		appID:       orDefault(opts.Windows.AppID, DefaultAppID),
		interpreter: orDefault(opts.Windows.Interpreter, DefaultInterpreter),
	}

	// COM state is per thread; keep this goroutine on the thread that owns
	// it until Close.
	runtime.LockOSThread()
	b.locked = true

	owned, err := initCOM()
	if err != nil {
		b.log.Warn().Err(err).Msg("initialize COM")
		return b
	}
	b.ownsCOM = owned

	lnk, err := ensureShortcut(orDefault(opts.Windows.ShortcutName, DefaultShortcutName), b.appID)
	if err != nil {
		b.log.Warn().Err(err).Msg("create start menu shortcut")
		return b
	}
	b.log.Debug().Str("shortcut", lnk).Str("app_id", b.appID).Msg("application identity ready")

	if _, err := exec.LookPath(b.interpreter); err != nil {
		b.log.Warn().Err(err).Str("interpreter", b.interpreter).Msg("toast host not found")
		return b
	}
	b.available = true
	return b
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func (b *windowsBackend) Name() string { return windowsName }

func (b *windowsBackend) IsAvailable() bool { return b.available }

// Send shows the toast and waits for the host process to exit. The toast
// tag is the returned id, so a later request with that ReplaceID updates
// the toast in place.
func (b *windowsBackend) Send(req notify.Request) (uint32, error) {
	if !b.available {
		return 0, unavailable(windowsName)
	}
	id := req.ReplaceID
	if id == 0 {
		id = b.ids.Next()
	}
	script := toast.Script(b.appID, strconv.FormatUint(uint64(id), 10), toastGroup, toast.Document(req))

	cmd := exec.Command(b.interpreter, "-NoProfile", "-NonInteractive", "-Command", script)
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return 0, failed(windowsName, fmt.Errorf("toast host exited with %d: %s", exitErr.ExitCode(), strings.TrimSpace(stderr.String())))
		}
		return 0, failed(windowsName, err)
	}
	b.log.Debug().Uint32("id", id).Msg("toast shown")
	return id, nil
}

// CloseNotification is a no-op: toasts are not tracked after display.
func (b *windowsBackend) CloseNotification(uint32) error {
	if !b.available {
		return unavailable(windowsName)
	}
	return nil
}

// Capabilities lists what Document can express; toasts have no runtime
// capability query.
func (b *windowsBackend) Capabilities() string {
	if !b.available {
		return ""
	}
	return "body,images,sounds"
}

func (b *windowsBackend) Close() error {
	if b.ownsCOM {
		ole.CoUninitialize()
		b.ownsCOM = false
	}
	if b.locked {
		runtime.UnlockOSThread()
		b.locked = false
	}
	b.available = false
	return nil
}
