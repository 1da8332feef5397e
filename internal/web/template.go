package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/parking-sensor/internal/status"
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
	"cm": func(d *float64) string {
		if d == nil {
			return "—"
		}
		return fmt.Sprintf("%.1f cm", *d)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="30">
<title>Parking Sensor {{.Config.SensorID}}</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.occupied { color: red; font-weight: bold; }
.vacant { color: green; font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.lowbatt { color: red; font-weight: bold; }
</style>
</head>
<body>
<h1>Parking Sensor {{.Config.SensorID}}</h1>

<h2>Spot</h2>
<table>
<tr><th>Location</th><td>{{.Config.Location}}</td></tr>
<tr><th>Occupancy</th><td class="{{.State.Wire}}">{{.State.Wire}}</td></tr>
<tr><th>Last distance</th><td>{{cm .DistanceCM}}</td></tr>
<tr><th>Battery</th><td {{if .LowBattery}}class="lowbatt"{{end}}>{{.BatteryPercent}}%{{if .LowBattery}} (low){{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>Counters</h2>
<table>
<tr><th>Cycles</th><td>{{.Counts.Cycles}}</td></tr>
<tr><th>No quorum</th><td>{{.Counts.NoQuorum}}</td></tr>
<tr><th>Transitions</th><td>{{.Counts.Transitions}}</td></tr>
<tr><th>Publish failures</th><td>{{.Counts.PublishFailures}}</td></tr>
<tr><th>Heartbeats</th><td>{{.Counts.Heartbeats}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Interval</th><td>{{.Config.IntervalMs}}ms</td></tr>
<tr><th>Samples / cycle</th><td>{{.Config.Samples}}</td></tr>
<tr><th>Debounce count</th><td>{{.Config.DebounceCount}}</td></tr>
<tr><th>Threshold</th><td>{{.Config.OccupiedThresholdCM}} cm</td></tr>
<tr><th>Deep sleep</th><td>{{if .Config.DeepSleepEnabled}}enabled{{else}}disabled{{end}}</td></tr>
<tr><th>Firmware</th><td>{{.Config.FirmwareVersion}} ({{.Config.HardwareVersion}})</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but the template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
