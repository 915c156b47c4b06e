//go:build windows

package platform

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/gogpu/gpucontext"
	"golang.org/x/sys/windows"
)

var (
	kernel32          = windows.NewLazySystemDLL("kernel32.dll")
	_GetModuleHandleW = kernel32.NewProc("GetModuleHandleW")

	user32               = windows.NewLazySystemDLL("user32.dll")
	_AdjustWindowRect    = user32.NewProc("AdjustWindowRect")
	_CreateWindowExW     = user32.NewProc("CreateWindowExW")
	_DefWindowProcW      = user32.NewProc("DefWindowProcW")
	_DestroyWindow       = user32.NewProc("DestroyWindow")
	_DispatchMessageW    = user32.NewProc("DispatchMessageW")
	_GetClientRect       = user32.NewProc("GetClientRect")
	_GetDpiForWindow     = user32.NewProc("GetDpiForWindow")
	_GetKeyState         = user32.NewProc("GetKeyState")
	_GetSystemMetrics    = user32.NewProc("GetSystemMetrics")
	_InvalidateRect      = user32.NewProc("InvalidateRect")
	_LoadCursorW         = user32.NewProc("LoadCursorW")
	_PeekMessageW        = user32.NewProc("PeekMessageW")
	_PostMessageW        = user32.NewProc("PostMessageW")
	_PostQuitMessage     = user32.NewProc("PostQuitMessage")
	_RegisterClassExW    = user32.NewProc("RegisterClassExW")
	_ShowWindow          = user32.NewProc("ShowWindow")
	_TranslateMessage    = user32.NewProc("TranslateMessage")
	_SetThreadDpiContext = user32.NewProc("SetThreadDpiAwarenessContext")
)

const (
	_WM_DESTROY    = 0x0002
	_WM_SIZE       = 0x0005
	_WM_PAINT      = 0x000F
	_WM_CLOSE      = 0x0010
	_WM_ERASEBKGND = 0x0014
	_WM_QUIT       = 0x0012
	_WM_KEYDOWN    = 0x0100
	_WM_SYSKEYDOWN = 0x0104
	_WM_SYSCHAR    = 0x0106

	_WS_OVERLAPPEDWINDOW = 0x00CF0000
	_CS_HREDRAW          = 0x0002
	_CS_VREDRAW          = 0x0001
	_SW_SHOWDEFAULT      = 10
	_SM_CXSCREEN         = 0
	_SM_CYSCREEN         = 1
	_IDC_ARROW           = 32512
	_PM_REMOVE           = 0x0001

	_VK_SHIFT   = 0x10
	_VK_CONTROL = 0x11
	_VK_MENU    = 0x12

	// DPI_AWARENESS_CONTEXT_PER_MONITOR_AWARE_V2
	_dpiPerMonitorV2 = ^uintptr(3)
)

type wndClassEx struct {
	CbSize        uint32
	Style         uint32
	LpfnWndProc   uintptr
	CnClsExtra    int32
	CbWndExtra    int32
	HInstance     windows.Handle
	HIcon         windows.Handle
	HCursor       windows.Handle
	HbrBackground windows.Handle
	LpszMenuName  *uint16
	LpszClassName *uint16
	HIconSm       windows.Handle
}

type rect struct {
	Left, Top, Right, Bottom int32
}

type msg struct {
	Hwnd     windows.HWND
	Message  uint32
	WParam   uintptr
	LParam   uintptr
	Time     uint32
	Pt       struct{ X, Y int32 }
	LPrivate uint32
}

var (
	classOnce sync.Once
	classErr  error
	className *uint16
	hInstance windows.Handle

	// windowsByHandle maps HWND to *win32Window for the window procedure.
	windowsByHandle sync.Map
)

// win32Window is a top-level overlapped window. The client area is never
// validated, so WM_PAINT keeps arriving and the application renders
// continuously.
type win32Window struct {
	handlers

	hwnd   windows.HWND
	width  int
	height int
	quit   bool
}

var _ Window = (*win32Window)(nil)

func registerClass() error {
	classOnce.Do(func() {
		if _SetThreadDpiContext.Find() == nil {
			_SetThreadDpiContext.Call(_dpiPerMonitorV2)
		}
		h, _, err := _GetModuleHandleW.Call(0)
		if h == 0 {
			classErr = fmt.Errorf("platform: GetModuleHandle: %w", err)
			return
		}
		hInstance = windows.Handle(h)
		cursor, _, _ := _LoadCursorW.Call(0, _IDC_ARROW)
		className, classErr = windows.UTF16PtrFromString("MoonWindowClass")
		if classErr != nil {
			return
		}
		wc := wndClassEx{
			Style:         _CS_HREDRAW | _CS_VREDRAW,
			LpfnWndProc:   windows.NewCallback(windowProc),
			HInstance:     hInstance,
			HCursor:       windows.Handle(cursor),
			LpszClassName: className,
		}
		wc.CbSize = uint32(unsafe.Sizeof(wc))
		if a, _, err := _RegisterClassExW.Call(uintptr(unsafe.Pointer(&wc))); a == 0 {
			classErr = fmt.Errorf("platform: RegisterClassEx: %w", err)
		}
	})
	return classErr
}

func newNative(cfg Config) (Window, error) {
	if err := registerClass(); err != nil {
		return nil, err
	}
	title, err := windows.UTF16PtrFromString(cfg.Title)
	if err != nil {
		return nil, fmt.Errorf("platform: title: %w", err)
	}

	r := rect{Right: int32(cfg.Width), Bottom: int32(cfg.Height)}
	_AdjustWindowRect.Call(uintptr(unsafe.Pointer(&r)), _WS_OVERLAPPEDWINDOW, 0)
	ww, wh := r.Right-r.Left, r.Bottom-r.Top
	sw, _, _ := _GetSystemMetrics.Call(_SM_CXSCREEN)
	sh, _, _ := _GetSystemMetrics.Call(_SM_CYSCREEN)
	x := max(0, (int32(sw)-ww)/2)
	y := max(0, (int32(sh)-wh)/2)

	hwnd, _, err := _CreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(className)),
		uintptr(unsafe.Pointer(title)),
		_WS_OVERLAPPEDWINDOW,
		uintptr(x), uintptr(y), uintptr(ww), uintptr(wh),
		0, 0, uintptr(hInstance), 0)
	if hwnd == 0 {
		return nil, fmt.Errorf("platform: CreateWindowEx: %w", err)
	}
	w := &win32Window{hwnd: windows.HWND(hwnd)}
	w.width, w.height = w.clientSize()
	windowsByHandle.Store(w.hwnd, w)
	_ShowWindow.Call(hwnd, _SW_SHOWDEFAULT)
	return w, nil
}

func windowProc(hwnd windows.HWND, message uint32, wParam, lParam uintptr) uintptr {
	v, ok := windowsByHandle.Load(hwnd)
	if !ok {
		r, _, _ := _DefWindowProcW.Call(uintptr(hwnd), uintptr(message), wParam, lParam)
		return r
	}
	w := v.(*win32Window)
	switch message {
	case _WM_PAINT:
		w.firePaint()
		return 0
	case _WM_ERASEBKGND:
		return 1
	case _WM_SIZE:
		w.width, w.height = w.clientSize()
		w.fireResize(max(w.width, 1), max(w.height, 1))
		return 0
	case _WM_KEYDOWN, _WM_SYSKEYDOWN:
		key := translateKey(wParam)
		w.fireKey(key, modifiers())
		if key == gpucontext.KeyEscape {
			_PostMessageW.Call(uintptr(hwnd), _WM_CLOSE, 0, 0)
		}
		return 0
	case _WM_SYSCHAR:
		// Swallowed so Alt+key does not beep.
		return 0
	case _WM_DESTROY:
		_PostQuitMessage.Call(0)
		return 0
	}
	r, _, _ := _DefWindowProcW.Call(uintptr(hwnd), uintptr(message), wParam, lParam)
	return r
}

func (w *win32Window) clientSize() (int, int) {
	var r rect
	_GetClientRect.Call(uintptr(w.hwnd), uintptr(unsafe.Pointer(&r)))
	return int(r.Right - r.Left), int(r.Bottom - r.Top)
}

func (w *win32Window) Handles() (display, window uintptr) {
	return uintptr(hInstance), uintptr(w.hwnd)
}

func (w *win32Window) Size() (width, height int) { return w.width, w.height }

func (w *win32Window) ScaleFactor() float64 {
	if _GetDpiForWindow.Find() != nil {
		return 1
	}
	dpi, _, _ := _GetDpiForWindow.Call(uintptr(w.hwnd))
	if dpi == 0 {
		return 1
	}
	return float64(dpi) / 96
}

func (w *win32Window) RequestRedraw() {
	_InvalidateRect.Call(uintptr(w.hwnd), 0, 0)
}

func (w *win32Window) OnPaint(fn func()) { w.paint = append(w.paint, fn) }

func (w *win32Window) OnResize(fn func(width, height int)) { w.resize = append(w.resize, fn) }

func (w *win32Window) OnKeyPress(fn func(gpucontext.Key, gpucontext.Modifiers)) {
	w.keys = append(w.keys, fn)
}

// PumpMessages dispatches at most one queued message.
func (w *win32Window) PumpMessages() bool {
	if w.quit {
		return false
	}
	var m msg
	if r, _, _ := _PeekMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0, _PM_REMOVE); r != 0 {
		if m.Message == _WM_QUIT {
			w.quit = true
			return false
		}
		_TranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		_DispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
	return true
}

func (w *win32Window) Close() {
	_PostMessageW.Call(uintptr(w.hwnd), _WM_CLOSE, 0, 0)
}

func (w *win32Window) Destroy() {
	if w.hwnd == 0 {
		return
	}
	windowsByHandle.Delete(w.hwnd)
	_DestroyWindow.Call(uintptr(w.hwnd))
	w.hwnd = 0
}

func modifiers() gpucontext.Modifiers {
	var mods gpucontext.Modifiers
	down := func(vk uintptr) bool {
		r, _, _ := _GetKeyState.Call(vk)
		return int16(r) < 0
	}
	if down(_VK_SHIFT) {
		mods |= gpucontext.ModShift
	}
	if down(_VK_CONTROL) {
		mods |= gpucontext.ModControl
	}
	if down(_VK_MENU) {
		mods |= gpucontext.ModAlt
	}
	return mods
}

// translateKey maps a Win32 virtual-key code.
func translateKey(vk uintptr) gpucontext.Key {
	switch {
	case vk >= 'A' && vk <= 'Z':
		return gpucontext.KeyA + gpucontext.Key(vk-'A')
	case vk >= '0' && vk <= '9':
		return gpucontext.Key0 + gpucontext.Key(vk-'0')
	case vk >= 0x70 && vk <= 0x7B:
		return gpucontext.KeyF1 + gpucontext.Key(vk-0x70)
	}
	switch vk {
	case 0x1B:
		return gpucontext.KeyEscape
	case 0x09:
		return gpucontext.KeyTab
	case 0x08:
		return gpucontext.KeyBackspace
	case 0x0D:
		return gpucontext.KeyEnter
	case 0x20:
		return gpucontext.KeySpace
	case 0x25:
		return gpucontext.KeyLeft
	case 0x26:
		return gpucontext.KeyUp
	case 0x27:
		return gpucontext.KeyRight
	case 0x28:
		return gpucontext.KeyDown
	}
	return gpucontext.KeyUnknown
}
