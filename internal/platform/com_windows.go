//go:build windows

package platform

import (
	"errors"
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
)

var (
	clsidShellLink    = ole.NewGUID("{00021401-0000-0000-C000-000000000046}")
	iidIShellLinkW    = ole.NewGUID("{000214F9-0000-0000-C000-000000000046}")
	iidIPersistFile   = ole.NewGUID("{0000010B-0000-0000-C000-000000000046}")
	iidIPropertyStore = ole.NewGUID("{886D8EEB-8CF2-4446-8D02-CDBA1DBDCF99}")

	pkeyAppUserModelID = propertyKey{
		fmtid: *ole.NewGUID("{9F4C2855-9F79-4B39-A8D0-E1D42DE1D5F3}"),
		pid:   5,
	}
)

const (
	sFalse          = 0x00000001
	rpcEChangedMode = 0x80010106
	vtLPWSTR        = 31
	ptrSize         = unsafe.Sizeof(uintptr(0))
)

// Vtable slots. The first three of every interface belong to IUnknown.
const (
	shellLinkSetWorkingDirectory = 9
	shellLinkSetPath             = 20

	persistFileSave = 6

	propertyStoreSetValue = 6
	propertyStoreCommit   = 7
)

// propertyKey mirrors PROPERTYKEY.
type propertyKey struct {
	fmtid ole.GUID
	pid   uint32
}

// propVariant mirrors PROPVARIANT holding a VT_LPWSTR.
type propVariant struct {
	vt       uint16
	reserved [3]uint16
	val      uintptr
	pad      uintptr
}

// initCOM initializes an apartment-threaded COM runtime on the calling
// thread. owned is false when COM was already initialized, in which case
// the caller must not uninitialize it.
func initCOM() (owned bool, err error) {
	err = ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED)
	if err == nil {
		return true, nil
	}
	var oleErr *ole.OleError
	if errors.As(err, &oleErr) {
		switch oleErr.Code() {
		case sFalse, rpcEChangedMode:
			return false, nil
		}
	}
	return false, err
}

// comCall invokes slot index of the interface pointer obj and converts a
// failing HRESULT into an error.
func comCall(obj unsafe.Pointer, index uintptr, args ...uintptr) error {
	vtbl := *(*uintptr)(obj)
	fn := *(*uintptr)(unsafe.Pointer(vtbl + index*ptrSize))
	hr, _, _ := syscall.SyscallN(fn, append([]uintptr{uintptr(obj)}, args...)...)
	if int32(hr) < 0 {
		return ole.NewError(hr)
	}
	return nil
}
