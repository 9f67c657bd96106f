package report

// reportTemplate is the HTML page. It has no external assets.
const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --green: #16a34a;
    --red: #dc2626;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    line-height: 1.6;
    max-width: 960px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.5rem; color: var(--accent); }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  .muted { color: var(--muted); font-size: 0.85rem; }
  .kpis { display: flex; gap: 12px; margin-top: 16px; }
  .kpi { flex: 1; background: var(--section-bg); border: 1px solid var(--border); border-radius: 6px; padding: 10px; text-align: center; }
  .kpi b { display: block; font-size: 1.4rem; }
  table { width: 100%; border-collapse: collapse; font-size: 0.9rem; }
  th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid var(--border); }
  th { background: var(--section-bg); }
  .neg { color: var(--red); }
  .pos { color: var(--green); }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="muted">Generated {{.GeneratedAt}}{{if .TextField}} · scored on <code>{{.TextField}}</code>{{end}}</p>

{{if .Empty}}
<p>No articles found for the selected terms and range.</p>
{{else}}
<div class="kpis">
  <div class="kpi"><b>{{.KPIs.Total}}</b>articles</div>
  <div class="kpi pos"><b>{{.KPIs.Positive}}</b>positive</div>
  <div class="kpi neg"><b>{{.KPIs.Negative}}</b>negative</div>
  <div class="kpi"><b>{{.KPIs.Neutral}}</b>neutral</div>
  <div class="kpi"><b>{{.Average}}</b>avg sentiment</div>
</div>

<h2>Sentiment by entity</h2>
<table>
  <tr><th>Entity</th><th>Negative</th><th>Neutral</th><th>Positive</th></tr>
  {{range .Breakdown}}<tr><td>{{.Entity}}</td><td>{{.Negative}}</td><td>{{.Neutral}}</td><td>{{.Positive}}</td></tr>
  {{end}}
</table>

<h2>Alerts</h2>
{{if .Alerts}}
<table>
  <tr><th>Entity</th><th>Score</th><th>Headline</th></tr>
  {{range .Alerts}}<tr class="{{.Class}}"><td>{{.Entity}}</td><td>{{.Score}}</td><td>{{if .URL}}<a href="{{.URL}}">{{.Title}}</a>{{else}}{{.Title}}{{end}}</td></tr>
  {{end}}
</table>
{{else}}<p class="muted">No alerts.</p>{{end}}

<h2>Forecast</h2>
{{if .Forecast}}
<table>
  <tr><th>Group</th><th>Day</th><th>Predicted</th><th>80% band</th></tr>
  {{range .Forecast}}<tr><td>{{.Group}}</td><td>{{.Day}}</td><td>{{.Predicted}}</td><td>{{.Band}}</td></tr>
  {{end}}
</table>
{{end}}
{{range .Skipped}}<p class="muted">Not enough data to forecast {{.}}.</p>{{end}}

{{if .Articles}}
<h2>Articles</h2>
<table>
  <tr><th>Date</th><th>Entity</th><th>Source</th><th>Title</th><th>Score</th></tr>
  {{range .Articles}}<tr class="{{if eq .Label "negative"}}neg{{else if eq .Label "positive"}}pos{{end}}"><td>{{.Date}}</td><td>{{.Entity}}</td><td>{{.Source}}</td><td>{{if .URL}}<a href="{{.URL}}">{{.Title}}</a>{{else}}{{.Title}}{{end}}</td><td>{{.Score}}</td></tr>
  {{end}}
</table>
{{if .Hidden}}<p class="muted">… and {{.Hidden}} more.</p>{{end}}
{{end}}
{{end}}

{{if .Failures}}
<h2>Source errors</h2>
<table>
  <tr><th>Source</th><th>Term</th><th>Error</th></tr>
  {{range .Failures}}<tr><td>{{.Provider}}</td><td>{{.Term}}</td><td>{{.Error}}</td></tr>
  {{end}}
</table>
{{end}}
</body>
</html>
`
