package handler

import (
	"html/template"
	"time"
)

type entryView struct {
	Key       string
	Value     string
	ExpiresAt string
	Remaining int64
}

type pageView struct {
	User      string
	Backend   string
	TTL       time.Duration
	Entries   []entryView
	ListError string
}

var pageTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>kvsession</title></head>
<body>
<h1>kvsession demo</h1>
<p>Backend: {{.Backend}}, session TTL: {{.TTL}}</p>
<form method="POST" action="/">
  <input name="user" placeholder="username">
  <button>Get Session</button>
</form>
<p>{{if .User}}User: {{.User}}{{else}}Session not found{{end}}</p>
<hr>
<h2>KV data</h2>
{{if .ListError}}<p>Cannot list entries: {{.ListError}}</p>{{end}}
<table>
  <thead>
    <tr><th>KV Key</th><th>KV Value</th><th>Expiration (after n sec)</th></tr>
  </thead>
  <tbody>
  {{range .Entries}}
    <tr><th>{{.Key}}</th><td>{{.Value}}</td><td>{{.ExpiresAt}} ({{.Remaining}})</td></tr>
  {{end}}
  </tbody>
</table>
<hr>
<form action="/delete" method="POST"><button>Delete Session</button></form>
<form action="/renew" method="POST"><button>Renew Session</button></form>
<form action="/regen" method="POST"><button>Regenerate Session</button></form>
</body>
</html>
`))
