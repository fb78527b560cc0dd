package cli

import (
	"fmt"
	"io"

	"github.com/thornpw/steuer/internal/action"
	"github.com/thornpw/steuer/internal/device"
)

// prompter guides the user through the configuration of a controller. It
// stays silent when steuer was not started from a terminal.
type prompter struct {
	w       io.Writer
	enabled bool
	waiting bool
}

func newPrompter(w io.Writer, enabled bool) *prompter {
	return &prompter{w: w, enabled: enabled}
}

func (p *prompter) printf(format string, args ...any) {
	if p.enabled {
		fmt.Fprintf(p.w, format, args...)
	}
}

func (p *prompter) start(d *device.Device) {
	p.printf("\nNew controller %q, press each button when asked.\n", d.Name)
}

func (p *prompter) request(d *device.Device, a *action.Action) {
	p.endLine()
	p.printf("  %-16s ", a.LongName+":")
}

// endLine terminates the "ok..." line of the previous action.
func (p *prompter) endLine() {
	if p.waiting {
		p.printf("\n")
		p.waiting = false
	}
}

func (p *prompter) mapped(d *device.Device, a *action.Action) {
	p.printf("ok")
	p.waiting = true
}

func (p *prompter) duplicate(d *device.Device, a *action.Action) {
	p.printf("already used, try another one\n")
	p.request(d, a)
}

func (p *prompter) wait(d *device.Device) {
	if p.waiting {
		p.printf(".")
	}
}

func (p *prompter) finished(d *device.Device) {
	p.endLine()
	p.printf("Controller %q configured.\n\n", d.Name)
}
