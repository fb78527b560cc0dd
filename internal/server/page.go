package server

import (
	"bytes"
	"html/template"
	"io"
	"regexp"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/thornpw/steuer/internal/gamepad"
)

const statusPageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>steuer</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>
:root { color-scheme: dark; font-family: ui-sans-serif, -apple-system, "Segoe UI", sans-serif; background: #0b1526; color: #e5e7eb; }
body { margin: 0; }
header { padding: 18px 20px; border-bottom: 1px solid rgba(148,163,184,.15); }
header h1 { margin: 0; font-size: 16px; }
main { padding: 16px 20px; display: grid; gap: 14px; }
table { width: 100%; border-collapse: collapse; font-size: 13px; }
th, td { padding: 6px 10px; border-bottom: 1px solid rgba(148,163,184,.12); text-align: left; }
.on { color: #86efac; }
.off { color: #fca5a5; }
code { font-family: ui-monospace, Menlo, Consolas, monospace; }
</style>
</head>
<body>
<header>
	<h1>steuer</h1>
	<p>Mapping database <code>{{.Alias}}</code> &middot; {{len .Models}} model(s) &middot; {{.Clients}} viewer(s)</p>
</header>
<main>
	<section>
		<h2>Devices</h2>
		<table>
			<thead><tr><th>#</th><th>Name</th><th>Mapped</th><th>Actions</th><th>Direction</th></tr></thead>
			<tbody>
			{{range .Devices}}
				<tr id="device-{{.Index}}">
					<td>{{.Index}}</td>
					<td>{{.Name}}</td>
					<td class="{{if .Mapped}}on{{else}}off{{end}}">{{.Mapped}}</td>
					<td class="actions">{{range .Actions}}{{.}} {{end}}</td>
					<td class="direction">{{.Direction}}</td>
				</tr>
			{{else}}
				<tr><td colspan="5">No devices</td></tr>
			{{end}}
			</tbody>
		</table>
	</section>
	<section>
		<h2>Stored models</h2>
		<ul>
		{{range .Models}}<li><a href="/api/mappings/{{.}}"><code>{{.}}</code></a></li>{{end}}
		</ul>
	</section>
</main>
<script>
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
const states = {};
function render(state) {
	const row = document.getElementById("device-" + state.index);
	if (!row) return;
	row.querySelector(".actions").textContent = (state.actions || []).join(" ");
	row.querySelector(".direction").textContent = state.direction || "";
}
ws.onmessage = function (e) {
	const msg = JSON.parse(e.data);
	if (msg.type === "full" || msg.type === "event") {
		states[msg.device] = msg.data;
	} else if (msg.type === "delta") {
		states[msg.device] = Object.assign(states[msg.device] || {}, msg.changes);
	} else {
		return;
	}
	render(states[msg.device]);
};
document.querySelectorAll("tr[id^=device-]").forEach(function (row) {
	row.onclick = function () {
		ws.send(JSON.stringify({ type: "select_device", device: Number(row.id.slice(7)) }));
	};
});
</script>
</body>
</html>`

type statusPage struct {
	Alias   string
	Models  []string
	Devices []gamepad.DeviceState
	Clients int
}

type pageRenderer struct {
	tmpl     *template.Template
	minifier *minify.M
}

func newPageRenderer() *pageRenderer {
	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/css", css.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	return &pageRenderer{
		tmpl:     template.Must(template.New("status").Parse(statusPageTemplate)),
		minifier: m,
	}
}

func (p *pageRenderer) Render(w io.Writer, data statusPage) error {
	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return err
	}
	return p.minifier.Minify("text/html", w, &buf)
}
