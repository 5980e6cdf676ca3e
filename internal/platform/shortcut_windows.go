//go:build windows

package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"unsafe"

	"github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"
)

// ensureShortcut (re)creates the Start Menu shortcut for the running
// executable and stamps it with appID. Windows only shows toasts for
// unpackaged programs that own such a shortcut.
func ensureShortcut(name, appID string) (string, error) {
	programs, err := windows.KnownFolderPath(windows.FOLDERID_Programs, 0)
	if err != nil {
		return "", fmt.Errorf("resolve start menu: %w", err)
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	lnk := filepath.Join(programs, name+".lnk")

	unk, err := ole.CreateInstance(clsidShellLink, iidIShellLinkW)
	if err != nil {
		return "", fmt.Errorf("create shell link: %w", err)
	}
	defer unk.Release()
	link := unsafe.Pointer(unk)

	exeW, err := windows.UTF16PtrFromString(exe)
	if err != nil {
		return "", err
	}
	err = comCall(link, shellLinkSetPath, uintptr(unsafe.Pointer(exeW)))
	runtime.KeepAlive(exeW)
	if err != nil {
		return "", fmt.Errorf("set shortcut target: %w", err)
	}
	dirW, err := windows.UTF16PtrFromString(filepath.Dir(exe))
	if err != nil {
		return "", err
	}
	err = comCall(link, shellLinkSetWorkingDirectory, uintptr(unsafe.Pointer(dirW)))
	runtime.KeepAlive(dirW)
	if err != nil {
		return "", fmt.Errorf("set shortcut directory: %w", err)
	}

	if err := setAppID(unk, appID); err != nil {
		return "", err
	}

	pf, err := unk.QueryInterface(iidIPersistFile)
	if err != nil {
		return "", fmt.Errorf("query IPersistFile: %w", err)
	}
	defer pf.Release()
	lnkW, err := windows.UTF16PtrFromString(lnk)
	if err != nil {
		return "", err
	}
	err = comCall(unsafe.Pointer(pf), persistFileSave, uintptr(unsafe.Pointer(lnkW)), 1)
	runtime.KeepAlive(lnkW)
	if err != nil {
		return "", fmt.Errorf("save %s: %w", lnk, err)
	}
	return lnk, nil
}

func setAppID(link *ole.IUnknown, appID string) error {
	store, err := link.QueryInterface(iidIPropertyStore)
	if err != nil {
		return fmt.Errorf("query IPropertyStore: %w", err)
	}
	defer store.Release()

	idW, err := windows.UTF16PtrFromString(appID)
	if err != nil {
		return err
	}
	pv := propVariant{vt: vtLPWSTR, val: uintptr(unsafe.Pointer(idW))}
	key := pkeyAppUserModelID
	err = comCall(unsafe.Pointer(store), propertyStoreSetValue,
		uintptr(unsafe.Pointer(&key)), uintptr(unsafe.Pointer(&pv)))
	runtime.KeepAlive(idW)
	runtime.KeepAlive(&key)
	runtime.KeepAlive(&pv)
	if err != nil {
		return fmt.Errorf("set AppUserModelID: %w", err)
	}
	if err := comCall(unsafe.Pointer(store), propertyStoreCommit); err != nil {
		return fmt.Errorf("commit AppUserModelID: %w", err)
	}
	return nil
}
