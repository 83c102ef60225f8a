// Telegate - Encrypted Field Telemetry Gateway
// Copyright 2026 Telegate Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/telegate/telegate

package api

import (
	"html/template"
	"net/http"

	"github.com/telegate/telegate/internal/logging"
)

// Dashboard serves the self-contained polling dashboard: a latest-readings
// table and a history chart fed by the JSON endpoints. Pure glue over the
// query API; it holds no state and no secrets.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := dashboardTemplate.Execute(w, map[string]string{
		"Broker":     h.cfg.Broker.Addr(),
		"Subscribed": h.cfg.Broker.TopicFilter,
	})
	if err != nil {
		logging.Error().Err(err).Msg("failed to render dashboard")
	}
}

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Telegate Dashboard</title>
  <style>
    body { font-family: Arial, sans-serif; padding: 24px; }
    table { border-collapse: collapse; width: 100%; margin-top: 16px; }
    th, td { border: 1px solid #ddd; padding: 8px; }
    th { background: #f7f7f7; text-align: left; }
    code { background: #f0f0f0; padding: 2px 4px; border-radius: 4px; }
    #row { display: flex; gap: 24px; align-items: flex-start; }
    #left, #right { flex: 1; min-width: 360px; }
    select { padding: 6px; }
  </style>
  <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
</head>
<body>
  <h1>Telegate Dashboard</h1>
  <p>Broker: <b>{{.Broker}}</b> | Subscribed to: <code>{{.Subscribed}}</code></p>

  <div id="row">
    <div id="left">
      <h3>Latest readings</h3>
      <table id="tbl">
        <thead>
          <tr><th>Topic</th><th>Temperature (&deg;C)</th><th>Humidity (%)</th><th>Size (B)</th></tr>
        </thead>
        <tbody></tbody>
      </table>
    </div>

    <div id="right">
      <h3>Live chart</h3>
      <label>Topic:&nbsp;<select id="topicSel"></select></label>
      <canvas id="chart" height="180"></canvas>
    </div>
  </div>

  <script>
    let chart, chartData = { labels: [], datasets: [
      { label: "Temperature (°C)", data: [], yAxisID: 'y' },
      { label: "Humidity (%)", data: [], yAxisID: 'y1' }
    ] };

    function ensureChart() {
      if (chart) return;
      const ctx = document.getElementById('chart').getContext('2d');
      chart = new Chart(ctx, {
        type: 'line',
        data: chartData,
        options: {
          animation: false,
          scales: {
            y:  { type: 'linear', position: 'left' },
            y1: { type: 'linear', position: 'right', grid: { drawOnChartArea: false } }
          }
        }
      });
    }

    async function refreshTableAndTopics() {
      const res = await fetch('/telemetry/latest');
      const data = await res.json();
      const tbody = document.querySelector('#tbl tbody');
      tbody.innerHTML = '';
      const seenTopics = Object.keys(data).sort();
      for (const topic of seenTopics) {
        const row = data[topic] || {};
        const p = (row.payload && typeof row.payload === 'object') ? row.payload : {};
        const tr = document.createElement('tr');
        tr.innerHTML = '<td>' + topic + '</td>' +
                       '<td>' + (p.temperature ?? '') + '</td>' +
                       '<td>' + (p.humidity ?? '') + '</td>' +
                       '<td>' + (row.size_bytes ?? '') + '</td>';
        tbody.appendChild(tr);
      }
      const sel = document.getElementById('topicSel');
      const current = sel.value;
      sel.innerHTML = '';
      for (const t of seenTopics) {
        const opt = document.createElement('option');
        opt.value = t; opt.textContent = t;
        sel.appendChild(opt);
      }
      if (!seenTopics.includes(current) && seenTopics.length) sel.value = seenTopics[0];
      else sel.value = current;
    }

    async function refreshChart() {
      ensureChart();
      const selTopic = document.getElementById('topicSel').value;
      if (!selTopic) return;
      const res = await fetch('/telemetry/history?topic=' + encodeURIComponent(selTopic) + '&n=120');
      if (!res.ok) return;
      const hist = await res.json();
      chartData.labels = hist.map(p => new Date(p.ts * 1000).toLocaleTimeString());
      chartData.datasets[0].data = hist.map(p => p.temperature ?? null);
      chartData.datasets[1].data = hist.map(p => p.humidity ?? null);
      chart.update();
    }

    async function tick() {
      await refreshTableAndTopics();
      await refreshChart();
    }
    tick();
    setInterval(tick, 1500);
  </script>
</body>
</html>
`))
