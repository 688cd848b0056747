package report

const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Process Triage Report — {{.SessionID}}</title>
<style>
  body { font-family: -apple-system, system-ui, sans-serif; margin: 2rem; color: #1a1a1a; }
  h1 { font-size: 1.4rem; }
  table { border-collapse: collapse; margin-top: 1rem; width: 100%; }
  th, td { border: 1px solid #ccc; padding: 0.4rem 0.6rem; text-align: left; font-size: 0.9rem; }
  th { background: #f2f2f2; }
  .meta { color: #555; font-size: 0.85rem; }
  .state-Verified { color: #137333; }
  .state-Failed { color: #b3261e; }
</style>
</head>
<body>
<h1>Process Triage Report</h1>
<p class="meta">
  Session <code>{{.SessionID}}</code> &middot;
  Bundle <code>{{.BundleID}}</code> &middot;
  Profile {{.Profile}} &middot;
  Generated {{.GeneratedAt}}
</p>

<h2>Classifications</h2>
{{if .Inferences}}
<table>
<tr><th>PID</th><th>Class</th><th>Confidence</th><th>Margin</th></tr>
{{range .Inferences}}
<tr><td>{{.PID}}</td><td>{{.Class}}</td><td>{{.Confidence}}</td><td>{{.Margin}}</td></tr>
{{end}}
</table>
{{else}}
<p class="meta">No classification rows in this export profile.</p>
{{end}}

<h2>Outcomes</h2>
{{if .Outcomes}}
<table>
<tr><th>PID</th><th>Action</th><th>State</th><th>Failure</th></tr>
{{range .Outcomes}}
<tr><td>{{.PID}}</td><td>{{.ActionKind}}</td><td class="state-{{.State}}">{{.State}}</td><td>{{.FailureKind}}</td></tr>
{{end}}
</table>
{{else}}
<p class="meta">No outcome rows in this export profile.</p>
{{end}}

</body>
</html>
`
