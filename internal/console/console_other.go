//go:build !windows

package console

// IsRunningFromConsole always reports true outside Windows.
func IsRunningFromConsole() bool {
	return true
}

// SetupConsoleHandler is a no-op outside Windows, os/signal works there.
func SetupConsoleHandler(onInterrupt func()) func() {
	return func() {}
}
