package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/smartcity/streetlight/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"watts": func(w float64) string {
		return fmt.Sprintf("%.2f W", w)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Street Light {{.Config.DeviceID}}</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.warn { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
.led { display: inline-block; width: 10px; height: 10px; border-radius: 50%; margin-left: 6px; vertical-align: middle; border: 1px solid #999; }
</style>
</head>
<body>
<h1>Street Light {{.Config.DeviceID}}<span class="led" style="background: {{.LED}}"></span></h1>

<h2>Lighting</h2>
<table>
<tr><th>Mode</th><td class="{{if .Tick.Night}}on{{else}}off{{end}}">{{if .Tick.Night}}NIGHT{{else}}DAY{{end}}</td></tr>
<tr><th>Motion</th><td>{{if .Tick.Motion}}active ({{.Tick.CountdownS}}s left){{else}}idle{{end}}</td></tr>
<tr><th>Duty</th><td>{{.Tick.Duty}}%</td></tr>
<tr><th>Power</th><td>{{watts .Tick.PowerW}}</td></tr>
{{if .Tick.Anomaly}}<tr><th>Anomaly</th><td class="warn">{{.Tick.Anomaly}}</td></tr>{{end}}
{{if .Tick.Override}}<tr><th>Override</th><td class="warn">active</td></tr>{{end}}
</table>

<h2>Sensor</h2>
<table>
<tr><th>Raw</th><td>{{.Tick.Raw}}</td></tr>
<tr><th>Smoothed</th><td>{{.Tick.Smoothed}}</td></tr>
<tr><th>Night enter</th><td>&gt; {{.Config.NightEnter}}</td></tr>
<tr><th>Day exit</th><td>&lt; {{.Config.DayExit}}</td></tr>
<tr><th>Policy</th><td>{{.Config.Policy}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Phase</th><td>{{.Phase}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatS 0}}disabled{{else}}{{.Config.HeartbeatS}}s{{end}}</td></tr>
<tr><th>Light hold</th><td>{{.Config.DurationS}}s</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
{{if .Config.Simulate}}<tr><th>Mode</th><td>simulated</td></tr>{{end}}
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		LED    string
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		LED:      ledCSS(snap),
	}
	indexTmpl.Execute(w, data)
}

// ledCSS translates the indicator color into something a browser can show.
func ledCSS(snap status.Snapshot) string {
	switch status.ColorFor(snap) {
	case "orange":
		return "orange"
	case "blue":
		return "dodgerblue"
	case "green":
		return "limegreen"
	case "red":
		return "red"
	case "cyan":
		return "cyan"
	case "purple":
		return "purple"
	}
	return "#444"
}
