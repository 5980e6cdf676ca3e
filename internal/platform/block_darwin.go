//go:build darwin

package platform

import (
	"time"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/ebitengine/purego/objc"
)

// blockDescriptor and blockLiteral follow the Apple block ABI for a block
// without captured variables or copy helpers.
type blockDescriptor struct {
	reserved uintptr
	size     uintptr
}

type blockLiteral struct {
	isa        uintptr
	flags      int32
	reserved   int32
	invoke     uintptr
	descriptor *blockDescriptor
}

var literalDescriptor = blockDescriptor{size: unsafe.Sizeof(blockLiteral{})}

func newBlock(invoke uintptr) blockLiteral {
	return blockLiteral{isa: stackBlockISA, invoke: invoke, descriptor: &literalDescriptor}
}

// Callback results. Each channel holds at most the latest unread value.
var (
	settingsStatus = make(chan int64, 1)
	authGranted    = make(chan bool, 1)

	settingsInvoke uintptr
	authInvoke     uintptr
)

func initCallbacks() {
	settingsInvoke = purego.NewCallback(func(_, settings uintptr) {
		status := int64(-1)
		if settings != 0 {
			status = msgSend[int64](objc.ID(settings), "authorizationStatus")
		}
		publish(settingsStatus, status)
	})
	authInvoke = purego.NewCallback(func(_, granted, _ uintptr) {
		publish(authGranted, granted&0xff != 0)
	})
}

func publish[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

func drain[T any](ch chan T) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

// await returns the next value published on ch, or false after wait.
func await[T any](ch chan T, wait time.Duration) (T, bool) {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case v := <-ch:
		return v, true
	case <-timer.C:
		var zero T
		return zero, false
	}
}
