//go:build darwin

package platform

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/ebitengine/purego/objc"
)

const (
	foundationPath        = "/System/Library/Frameworks/Foundation.framework/Foundation"
	userNotificationsPath = "/System/Library/Frameworks/UserNotifications.framework/UserNotifications"
	libSystemPath         = "/usr/lib/libSystem.B.dylib"
)

var (
	runtimeOnce sync.Once
	runtimeErr  error
	// stackBlockISA is the address of _NSConcreteStackBlock.
	stackBlockISA uintptr
)

// loadRuntime opens the frameworks whose classes are looked up by name.
// It runs once per process.
func loadRuntime() error {
	runtimeOnce.Do(func() {
		for _, path := range []string{foundationPath, userNotificationsPath} {
			if _, err := purego.Dlopen(path, purego.RTLD_LAZY|purego.RTLD_GLOBAL); err != nil {
				runtimeErr = fmt.Errorf("load %s: %w", path, err)
				return
			}
		}
		libSystem, err := purego.Dlopen(libSystemPath, purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if err != nil {
			runtimeErr = fmt.Errorf("load %s: %w", libSystemPath, err)
			return
		}
		if stackBlockISA, err = purego.Dlsym(libSystem, "_NSConcreteStackBlock"); err != nil {
			runtimeErr = fmt.Errorf("resolve _NSConcreteStackBlock: %w", err)
			return
		}
		initCallbacks()
	})
	return runtimeErr
}

// msgSend sends selector to target with args and returns the result as T.
func msgSend[T any](target objc.ID, selector string, args ...any) T {
	return objc.Send[T](target, objc.RegisterName(selector), args...)
}

// send is msgSend for methods whose result is ignored.
func send(target objc.ID, selector string, args ...any) {
	target.Send(objc.RegisterName(selector), args...)
}

func class(name string) objc.ID {
	return objc.ID(objc.GetClass(name))
}

// nsString returns an autoreleased NSString holding a NUL-terminated copy
// of s.
func nsString(s string) objc.ID {
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	str := msgSend[objc.ID](class("NSString"), "stringWithUTF8String:", &buf[0])
	runtime.KeepAlive(buf)
	return str
}

// goString copies the UTF-8 contents of an NSString.
func goString(str objc.ID) string {
	if str == 0 {
		return ""
	}
	return cString(msgSend[uintptr](str, "UTF8String"))
}

func cString(p uintptr) string {
	if p == 0 {
		return ""
	}
	start := unsafe.Pointer(p)
	n := 0
	for *(*byte)(unsafe.Add(start, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(start), n))
}
