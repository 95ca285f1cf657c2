package output

import (
	"html/template"
	"io"
	"time"

	"github.com/law-makers/seocrawl/pkg/models"
)

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"ts": func(t time.Time) string { return t.UTC().Format(time.RFC3339) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>SEO report for {{.URL}}</title>
<style>
body{font-family:sans-serif;max-width:960px;margin:2em auto;color:#222}
table{border-collapse:collapse;width:100%}
td,th{border:1px solid #ccc;padding:4px 8px;text-align:left}
.error{color:#b00}
</style>
</head>
<body>
<h1>SEO report for {{.URL}}</h1>
<p>{{.Summary}}</p>
<table>
<tr><th>Overall score</th><td>{{.OverallScore}}/100</td></tr>
<tr><th>Technical score</th><td>{{.TechnicalScore}}/100</td></tr>
<tr><th>Average page score</th><td>{{printf "%.1f" .AveragePageScore}}</td></tr>
<tr><th>Status</th><td>{{.CrawlVerification.Status}}{{if .CrawlVerification.Interrupted}} (interrupted){{end}}</td></tr>
<tr><th>Pages</th><td>{{.CrawlVerification.PagesSuccessful}} analyzed, {{.CrawlVerification.PagesFailed}} failed</td></tr>
<tr><th>Generated</th><td>{{ts .Timestamp}}</td></tr>
</table>
{{with .CrawlVerification.Error}}<p class="error">{{.}}</p>{{end}}
<h2>Technical issues</h2>
{{if .TechnicalIssues}}
<table>
<tr><th>Priority</th><th>Issue</th><th>Severity</th><th>Count</th><th>Recommendation</th></tr>
{{range .TechnicalIssues}}<tr><td>{{.Priority}}</td><td>{{.Title}}</td><td>{{.Severity}}</td><td>{{.Count}}</td><td>{{.Recommendation}}</td></tr>
{{end}}</table>
{{else}}
<p>No technical issues found.</p>
{{end}}
<h2>Pages</h2>
<table>
<tr><th>URL</th><th>Score</th><th>Title</th><th>Issues</th></tr>
{{range .Pages}}<tr><td>{{.URL}}</td>{{if .Error}}<td>-</td><td class="error" colspan="2">{{.Error}}</td>{{else}}<td>{{.Score}}</td><td>{{.Title}}</td><td>{{range $i, $is := .Issues}}{{if $i}}; {{end}}{{$is.Detail}}{{end}}</td>{{end}}</tr>
{{end}}</table>
</body>
</html>
`))

// WriteHTML renders the report as a standalone HTML document. All report
// fields are escaped.
func WriteHTML(w io.Writer, rep *models.SEOReport) error {
	return reportTemplate.Execute(w, rep)
}
