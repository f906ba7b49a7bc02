package browser

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/aretw0/visaguide/internal/presentation/graph"
	"github.com/aretw0/visaguide/pkg/domain"
	"github.com/aretw0/visaguide/pkg/tree"
)

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"indent": func(depth int) string { return strings.Repeat("  ", depth) },
	"marker": tree.MarkerText,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Visa.Name}} · visaguide</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 960px; color: #1f2937; }
nav a { margin-right: 1rem; }
pre { background: #f8fafc; padding: 1rem; overflow-x: auto; }
.marker { color: #b45309; font-weight: bold; }
.approved { color: #15803d; }
.rejected { color: #b91c1c; }
.node { border-top: 1px solid #e5e7eb; padding: .5rem 0; }
.node.hidden { display: none; }
.missing { color: #b91c1c; }
</style>
</head>
<body>
<nav>{{range .VisaTypes}}<a href="/?visa={{.}}">{{.}}</a>{{end}}</nav>

<h1>{{.Visa.Name}}</h1>
{{with .Visa.Description}}<p>{{.}}</p>{{end}}
{{with .Visa.Requirements}}<p><strong>Requirements:</strong> {{.}}</p>{{end}}

<h2>Decision tree</h2>
{{with .Markers}}<p class="marker">{{range $m, $n := .}}{{$n}} × {{$m}} {{end}}</p>{{end}}
<pre>{{range .Lines}}{{indent .Depth}}{{with .Label}}{{.}} → {{end}}{{if .Marker}}<span class="marker">(!) {{marker .Marker .ID}}</span>{{else}}<a href="#node-{{.ID}}">{{.ID}}</a> [{{.Type}}] {{.Text}}{{with .Decision}} <span class="{{if eq . "approved"}}approved{{else}}rejected{{end}}">({{.}})</span>{{end}}{{end}}
{{end}}</pre>

<h2>Nodes</h2>
<form method="get">
<input type="hidden" name="visa" value="{{.VisaType}}">
<input type="search" name="q" value="{{.Query}}" placeholder="Search id or text">
<button type="submit">Search</button>
</form>
{{range $i, $v := .Nodes}}
<div class="node{{if not (index $.Visible $i)}} hidden{{end}}" id="node-{{$v.ID}}">
<strong>{{$v.ID}}</strong>{{if $v.Root}} (root){{end}} <em>{{$v.Type}}</em>
<p>{{$v.Text}}</p>
{{with $v.Note}}<p><small>{{.}}</small></p>{{end}}
{{with $v.Edges}}<ul>{{range .}}<li>{{.Label}} → <a href="#node-{{.To}}">{{.To}}</a></li>{{end}}</ul>{{end}}
{{with $v.Missing}}<p class="missing">Missing: {{range .}}{{.}} {{end}}</p>{{end}}
</div>
{{end}}

<h2>Flowchart</h2>
<pre class="mermaid">{{.Mermaid}}</pre>
</body>
</html>
`))

type pageData struct {
	VisaType  string
	VisaTypes []string
	Visa      domain.VisaType
	Lines     []tree.Line
	Markers   map[tree.Marker]int
	Nodes     []tree.NodeView
	Visible   []bool
	Query     string
	Mermaid   string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	kb, ok := s.load(w, r, "", "page")
	if !ok {
		return
	}
	visaType := r.URL.Query().Get("visa")
	if visaType == "" {
		visaType = s.defaultVisa
	}

	entry := tree.BuildKnowledge(kb)
	nodes := tree.Catalog(kb)
	query := r.URL.Query().Get("q")
	data := pageData{
		VisaType:  visaType,
		VisaTypes: s.visaTypes,
		Visa:      kb.VisaType,
		Lines:     tree.Lines(entry),
		Markers:   entry.Markers(),
		Nodes:     nodes,
		Visible:   tree.Search(nodes, query),
		Query:     query,
		Mermaid:   graph.GenerateMermaid(kb, nil),
	}
	if data.Visa.Name == "" {
		data.Visa.Name = visaType
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		s.logger.Warn("render page", "err", err)
	}
}
