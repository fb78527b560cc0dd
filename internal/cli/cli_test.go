package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thornpw/steuer/internal/action"
	"github.com/thornpw/steuer/internal/config"
	"github.com/thornpw/steuer/internal/device"
	"github.com/thornpw/steuer/internal/event"
	"github.com/thornpw/steuer/internal/logger"
	"github.com/thornpw/steuer/internal/mapping"
)

func seed(t *testing.T) string {
	t.Helper()
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "steuer.json")
	store, err := mapping.NewStore("test", mapping.NewFile(path), nil)
	require.NoError(t, err)
	m := mapping.New()
	require.NoError(t, m.Bind(mapping.ButtonTable, "3", "BUTTON_TOP"))
	require.NoError(t, m.Bind(mapping.AxisTable, "1:<", "DPAD_TOP"))
	require.NoError(t, store.Upsert("Arcade Stick", m))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd("test", nil)
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestMappingsList(t *testing.T) {
	path := seed(t)
	out, err := execute(t, "mappings", "list", "--db-file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "MODEL")
	assert.Regexp(t, `Arcade Stick\s+1\s+1\s+0`, out)
}

func TestMappingsShowAndForget(t *testing.T) {
	path := seed(t)

	out, err := execute(t, "mappings", "show", "Arcade Stick", "--db-file", path)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"button": {"3": {"Function": "BUTTON_TOP"}},
		"axis": {"1:<": {"Function": "DPAD_TOP"}},
		"hat": {}
	}`, out)

	_, err = execute(t, "mappings", "forget", "Arcade Stick", "--db-file", path)
	require.NoError(t, err)

	_, err = execute(t, "mappings", "show", "Arcade Stick", "--db-file", path)
	assert.Error(t, err)
}

func TestPrompter(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(&out, true)
	d := device.New(0, "Pad")
	top := &action.Action{Name: "DPAD_TOP", LongName: "DPad top"}
	down := &action.Action{Name: "DPAD_DOWN", LongName: "DPad down"}

	p.start(d)
	p.request(d, top)
	p.mapped(d, top)
	p.wait(d)
	p.wait(d)
	p.request(d, down)
	p.duplicate(d, down)
	p.mapped(d, down)
	p.finished(d)

	assert.Equal(t, "\nNew controller \"Pad\", press each button when asked.\n"+
		"  DPad top:        ok..\n"+
		"  DPad down:       already used, try another one\n"+
		"  DPad down:       ok\n"+
		"Controller \"Pad\" configured.\n\n", out.String())
}

func TestPrompterSilent(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(&out, false)
	p.start(device.New(0, "Pad"))
	assert.Empty(t, out.String())
}

func TestViewerURL(t *testing.T) {
	tests := map[string]string{
		"":               "",
		"localhost:8080": "http://localhost:8080",
		":9000":          "http://localhost:9000",
		"0.0.0.0:80":     "http://localhost:80",
		"10.0.0.2:8080":  "http://10.0.0.2:8080",
	}
	for listen, want := range tests {
		v := newViewer(listen, action.NewRegistry(), nil, nil)
		assert.Equal(t, want, v.url(), listen)
	}
}

type fakeJoysticks struct {
	names  []string
	events []event.Event
	opened bool
	closed bool
}

func (f *fakeJoysticks) Open() error     { f.opened = true; return nil }
func (f *fakeJoysticks) Close()          { f.closed = true }
func (f *fakeJoysticks) Names() []string { return f.names }
func (f *fakeJoysticks) Clear()          { f.events = nil }

func (f *fakeJoysticks) Poll() (event.Event, bool) {
	if len(f.events) == 0 {
		return event.Event{}, false
	}
	ev := f.events[0]
	f.events = f.events[1:]
	return ev, true
}

func (f *fakeJoysticks) Run(ctx context.Context, handle func(event.Event)) error {
	for {
		ev, ok := f.Poll()
		if !ok {
			return nil
		}
		handle(ev)
	}
}

func TestRunWithoutJoysticks(t *testing.T) {
	path := seed(t)
	_, err := execute(t, "run", "--db-file", path, "--listen", "", "--tray=false")
	assert.ErrorIs(t, err, ErrNoJoysticks)
}

func TestRunCountsResolvedPresses(t *testing.T) {
	path := seed(t)
	js := &fakeJoysticks{
		names: []string{"Arcade Stick"},
		events: []event.Event{
			event.Down(0, 3), event.Up(0, 3),
			event.Axis(0, 1, -1), event.Axis(0, 1, 0),
		},
	}
	a := &app{
		conf: &config.Config{
			Database: config.Database{Alias: mapping.DefaultAlias, File: path},
			Events:   true,
			Mode:     "quiet",
		},
		log:       logger.Nop(),
		joysticks: func(*logger.Logger) Joysticks { return js },
	}
	require.NoError(t, a.run(context.Background()))
	assert.True(t, js.opened)
	assert.True(t, js.closed)

	rec := httptest.NewRecorder()
	a.viewer.metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `steuer_actions_total{action="BUTTON_TOP"} 1`)
	assert.Contains(t, body, `steuer_actions_total{action="DPAD_TOP"} 1`)
	assert.Contains(t, body, `steuer_events_total{kind="axis-motion"} 2`)
}

func TestReloaderLogsFailure(t *testing.T) {
	path := seed(t)
	store, err := mapping.NewStore("test", mapping.NewFile(path), nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	var logs bytes.Buffer
	reloader(store, logger.NewWriter(&logs))()

	assert.Contains(t, logs.String(), `"level":"error"`)
	assert.Contains(t, logs.String(), `"db":"test"`)
	assert.Contains(t, logs.String(), `"message":"reload failed"`)
	_, ok := store.Lookup("Arcade Stick")
	assert.True(t, ok, "a failed reload keeps the loaded mappings")
}
