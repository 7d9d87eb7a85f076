package render

import (
	"html/template"
	"io"
)

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{"text": Text}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; font-size: 10pt; }
table { border-collapse: collapse; margin-bottom: 1.5em; }
th, td { border: 1px solid #999; padding: 2px 6px; text-align: left; }
th { background: #ddd; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{- with .Generated}}
<p class="generated">{{.}}</p>
{{- end}}
{{- if .Parameters}}
<dl class="parameters">
{{- range .Parameters}}
<dt>{{.Name}}</dt><dd>{{.Value}}</dd>
{{- end}}
</dl>
{{- end}}
{{- range .Sections}}
<h2>{{.Title}}</h2>
<table>
<thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr>{{range .}}<td>{{text .}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
{{- end}}
</body>
</html>
`))

func writeHTML(w io.Writer, doc Document) error {
	return htmlTemplate.Execute(w, struct {
		Document
		Generated string
	}{Document: doc, Generated: generatedLine(doc)})
}
