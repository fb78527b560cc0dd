//go:build windows

package console

import (
	"os"
	"strings"
	"sync"
	"syscall"
	"unsafe"
)

var (
	kernel32                       = syscall.NewLazyDLL("kernel32.dll")
	procGetConsoleWindow           = kernel32.NewProc("GetConsoleWindow")
	procFreeConsole                = kernel32.NewProc("FreeConsole")
	procCreateToolhelp32Snapshot   = kernel32.NewProc("CreateToolhelp32Snapshot")
	procProcess32First             = kernel32.NewProc("Process32FirstW")
	procProcess32Next              = kernel32.NewProc("Process32NextW")
	procOpenProcess                = kernel32.NewProc("OpenProcess")
	procQueryFullProcessImageNameW = kernel32.NewProc("QueryFullProcessImageNameW")
	procSetConsoleCtrlHandler      = kernel32.NewProc("SetConsoleCtrlHandler")
)

const (
	th32csSnapProcess       = 0x00000002
	processQueryLimitedInfo = 0x1000
	maxPath                 = 260
	ctrlCEvent              = 0
	ctrlBreakEvent          = 1
)

type processEntry32 struct {
	Size            uint32
	Usage           uint32
	ProcessID       uint32
	DefaultHeapID   uintptr
	ModuleID        uint32
	Threads         uint32
	ParentProcessID uint32
	PriClassBase    int32
	Flags           uint32
	ExeFile         [maxPath]uint16
}

// IsRunningFromConsole reports whether steuer was started from a terminal.
// When it was double-clicked in Explorer the auto-created console window is
// released and false is returned.
func IsRunningFromConsole() bool {
	if !launchedFromExplorer() {
		return true
	}
	if hwnd, _, _ := procGetConsoleWindow.Call(); hwnd != 0 {
		procFreeConsole.Call()
	}
	return false
}

func launchedFromExplorer() bool {
	parent := parentProcessID(os.Getpid())
	if parent == 0 {
		return false
	}
	name := processImageName(parent)
	if i := strings.LastIndexAny(name, `\/`); i >= 0 {
		name = name[i+1:]
	}
	return strings.EqualFold(name, "explorer.exe")
}

func parentProcessID(pid int) int {
	handle, _, _ := procCreateToolhelp32Snapshot.Call(th32csSnapProcess, 0)
	if handle == uintptr(syscall.InvalidHandle) {
		return 0
	}
	defer syscall.CloseHandle(syscall.Handle(handle))

	var entry processEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	ret, _, _ := procProcess32First.Call(handle, uintptr(unsafe.Pointer(&entry)))
	for ret != 0 {
		if int(entry.ProcessID) == pid {
			return int(entry.ParentProcessID)
		}
		ret, _, _ = procProcess32Next.Call(handle, uintptr(unsafe.Pointer(&entry)))
	}
	return 0
}

func processImageName(pid int) string {
	h, _, _ := procOpenProcess.Call(processQueryLimitedInfo, 0, uintptr(pid))
	if h == 0 {
		return ""
	}
	defer syscall.CloseHandle(syscall.Handle(h))

	var buf [maxPath]uint16
	size := uint32(maxPath)
	ret, _, _ := procQueryFullProcessImageNameW.Call(h, 0, uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&size)))
	if ret == 0 {
		return ""
	}
	return syscall.UTF16ToString(buf[:size])
}

var (
	handlerOnce sync.Once
	handlerFn   uintptr
	interrupted sync.Once
	onInterrupt func()
)

// SetupConsoleHandler calls fn once on the first Ctrl+C or Ctrl+Break. The
// returned function registers the handler again; call it after SDL init,
// which installs its own handler.
func SetupConsoleHandler(fn func()) func() {
	handlerOnce.Do(func() {
		onInterrupt = fn
		handlerFn = syscall.NewCallback(func(ctrlType uint32) uintptr {
			if ctrlType != ctrlCEvent && ctrlType != ctrlBreakEvent {
				return 0
			}
			interrupted.Do(onInterrupt)
			return 1
		})
	})
	register := func() {
		procSetConsoleCtrlHandler.Call(handlerFn, 1)
	}
	register()
	return register
}
