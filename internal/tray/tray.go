package tray

import (
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"

	"fyne.io/systray"
	"github.com/thornpw/steuer/internal/logger"
)

// Options configure the tray menu. Nil callbacks hide their menu entry.
type Options struct {
	// URL is the viewer address opened by "Open viewer".
	URL string
	// OnReload reloads the mapping database.
	OnReload func()
	// OnExit is called once when "Exit" is clicked.
	OnExit func()
}

// Tray manages the system tray icon and menu
type Tray struct {
	opts         Options
	log          *logger.Logger
	once         sync.Once
	shuttingDown atomic.Bool
	menuOpen     *systray.MenuItem
	menuReload   *systray.MenuItem
	menuExit     *systray.MenuItem
}

func New(opts Options, log *logger.Logger) *Tray {
	return &Tray{opts: opts, log: logger.OrNop(log)}
}

// Run initializes and runs the system tray (blocks until Quit())
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	if t.shuttingDown.CompareAndSwap(false, true) {
		systray.Quit()
	}
}

func (t *Tray) onReady() {
	systray.SetIcon(GetIcon())
	systray.SetTitle("steuer")
	systray.SetTooltip("steuer - " + t.opts.URL)

	t.menuOpen = systray.AddMenuItem("Open viewer", "Open the web viewer")
	t.menuReload = systray.AddMenuItem("Reload mappings", "Reload the mapping database")
	if t.opts.OnReload == nil {
		t.menuReload.Hide()
	}
	systray.AddSeparator()
	t.menuExit = systray.AddMenuItem("Exit", "Quit steuer")

	// Handle menu clicks in separate goroutines to prevent blocking
	go t.handleMenuClicks()

	t.log.Info().Msg("system tray initialized")
}

func (t *Tray) handleMenuClicks() {
	for {
		select {
		case <-t.menuOpen.ClickedCh:
			if !t.shuttingDown.Load() {
				t.openBrowser()
			}
		case <-t.menuReload.ClickedCh:
			if !t.shuttingDown.Load() && t.opts.OnReload != nil {
				t.opts.OnReload()
			}
		case <-t.menuExit.ClickedCh:
			if t.shuttingDown.CompareAndSwap(false, true) {
				if t.opts.OnExit != nil {
					t.once.Do(t.opts.OnExit)
				}
				systray.Quit()
				return
			}
		}
	}
}

func (t *Tray) onExit() {
	t.shuttingDown.Store(true)
	t.log.Info().Msg("system tray exiting")
}

func (t *Tray) openBrowser() {
	if t.opts.URL == "" {
		return
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", t.opts.URL)
	case "darwin":
		cmd = exec.Command("open", t.opts.URL)
	default:
		cmd = exec.Command("xdg-open", t.opts.URL)
	}

	if err := cmd.Start(); err != nil {
		t.log.Warn().Err(err).Str("url", t.opts.URL).Msg("failed to open browser")
	}
}
