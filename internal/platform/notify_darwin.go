//go:build darwin

package platform

import (
	"fmt"
	"runtime"
	"time"

	"github.com/ebitengine/purego/objc"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/example/nativenotify/internal/notify"
)

const darwinName = "darwin"

// UNAuthorizationStatus values.
const (
	authNotDetermined int64 = 0
	authDenied        int64 = 1
	authAuthorized    int64 = 2
	authProvisional   int64 = 3
	authEphemeral     int64 = 4
)

// UNAuthorizationOptions bits.
const (
	authOptionBadge = 1 << 0
	authOptionSound = 1 << 1
	authOptionAlert = 1 << 2
)

// darwinBackend delivers notifications through UNUserNotificationCenter.
type darwinBackend struct {
	log  zerolog.Logger
	wait time.Duration
	ids  notify.Counter

	center      objc.ID
	identifiers map[uint32]string
	// locked is true while the goroutine is pinned to its OS thread.
	// Autorelease pools belong to the thread that created them.
	locked bool
}

func newNative(opts Options) notify.Backend {
	return newDarwin(opts)
}

func newDarwin(opts Options) *darwinBackend {
	b := &darwinBackend{
		log:         opts.Log.With().Str("backend", darwinName).Logger(),
		wait:        opts.Darwin.CallbackWait,
		identifiers: make(map[uint32]string),
	}
	if b.wait <= 0 {
		b.wait = DefaultCallbackWait
	}
	runtime.LockOSThread()
	b.locked = true
	if err := loadRuntime(); err != nil {
		b.log.Warn().Err(err).Msg("load objective-c runtime")
		return b
	}
	pool := newPool()
	defer send(pool, "drain")

	info := msgSend[objc.ID](class("NSProcessInfo"), "processInfo")
	version := goString(msgSend[objc.ID](info, "operatingSystemVersionString"))
	if !supportsUserNotifications(version) {
		b.log.Warn().Str("version", version).Msg("UserNotifications requires macOS 10.14 or later")
		return b
	}

	bundle := msgSend[objc.ID](class("NSBundle"), "mainBundle")
	if bundle == 0 || msgSend[objc.ID](bundle, "bundleIdentifier") == 0 {
		b.log.Warn().Msg("not running inside an application bundle")
		return b
	}

	center := msgSend[objc.ID](class("UNUserNotificationCenter"), "currentNotificationCenter")
	if center == 0 {
		b.log.Warn().Msg("no notification center")
		return b
	}
	b.center = center
	b.authorize()
	return b
}

// authorize asks for permission unless it was already granted. The result
// is only logged; the framework prompts again on delivery if needed.
func (b *darwinBackend) authorize() {
	drain(settingsStatus)
	blk := newBlock(settingsInvoke)
	send(b.center, "getNotificationSettingsWithCompletionHandler:", &blk)
	status, ok := await(settingsStatus, b.wait)
	runtime.KeepAlive(&blk)
	if !ok {
		b.log.Debug().Dur("wait", b.wait).Msg("notification settings callback did not run")
	}
	switch status {
	case authAuthorized, authProvisional, authEphemeral:
		return
	case authDenied:
		b.log.Info().Msg("notifications are disabled for this application")
	}

	drain(authGranted)
	req := newBlock(authInvoke)
	send(b.center, "requestAuthorizationWithOptions:completionHandler:",
		uint64(authOptionAlert|authOptionSound|authOptionBadge), &req)
	granted, ok := await(authGranted, b.wait)
	runtime.KeepAlive(&req)
	b.log.Debug().Bool("answered", ok).Bool("granted", granted).Msg("notification authorization")
}

func (b *darwinBackend) Name() string { return darwinName }

func (b *darwinBackend) IsAvailable() bool { return b.center != 0 }

// Send schedules the notification for immediate delivery. The completion
// handler is not awaited.
func (b *darwinBackend) Send(req notify.Request) (uint32, error) {
	if b.center == 0 {
		return 0, unavailable(darwinName)
	}
	pool := newPool()
	defer send(pool, "drain")

	content := msgSend[objc.ID](class("UNMutableNotificationContent"), "new")
	if content == 0 {
		return 0, failed(darwinName, fmt.Errorf("allocate notification content"))
	}
	defer send(content, "release")
	send(content, "setTitle:", nsString(req.Title))
	send(content, "setBody:", nsString(req.Body))
	if req.Category != "" {
		send(content, "setCategoryIdentifier:", nsString(req.Category))
	}
	if req.AppName != "" {
		send(content, "setThreadIdentifier:", nsString(req.AppName))
	}
	if req.Urgency != notify.UrgencyLow {
		send(content, "setSound:", msgSend[objc.ID](class("UNNotificationSound"), "defaultSound"))
	}

	id := req.ReplaceID
	identifier, known := b.identifiers[id]
	if id == 0 {
		id = b.ids.Next()
	}
	if !known {
		identifier = uuid.NewString()
	}

	request := msgSend[objc.ID](class("UNNotificationRequest"), "requestWithIdentifier:content:trigger:",
		nsString(identifier), content, objc.ID(0))
	if request == 0 {
		return 0, failed(darwinName, fmt.Errorf("create notification request"))
	}
	send(b.center, "addNotificationRequest:withCompletionHandler:", request, objc.ID(0))
	b.identifiers[id] = identifier
	b.log.Debug().Uint32("id", id).Str("identifier", identifier).Msg("notification scheduled")
	return id, nil
}

// CloseNotification removes a delivered or pending notification sent by
// this backend.
func (b *darwinBackend) CloseNotification(id uint32) error {
	if b.center == 0 {
		return unavailable(darwinName)
	}
	identifier, ok := b.identifiers[id]
	if !ok {
		return fmt.Errorf("%s: notification %d: %w", darwinName, id, notify.ErrUnsupported)
	}
	pool := newPool()
	defer send(pool, "drain")

	ids := msgSend[objc.ID](class("NSArray"), "arrayWithObject:", nsString(identifier))
	send(b.center, "removeDeliveredNotificationsWithIdentifiers:", ids)
	send(b.center, "removePendingNotificationRequestsWithIdentifiers:", ids)
	delete(b.identifiers, id)
	return nil
}

func (b *darwinBackend) Capabilities() string {
	if b.center == 0 {
		return ""
	}
	return "body,sounds"
}

// Close releases the thread pinned by newDarwin. It must run on the
// goroutine that created the backend.
func (b *darwinBackend) Close() error {
	b.center = 0
	if b.locked {
		runtime.UnlockOSThread()
		b.locked = false
	}
	return nil
}

// newPool pushes an autorelease pool on the current thread; send it
// "drain" on the same thread.
func newPool() objc.ID {
	return msgSend[objc.ID](class("NSAutoreleasePool"), "new")
}
