package web

import (
	"html/template"

	"subjectview/internal/page"
	"subjectview/internal/view"
)

type navItem struct {
	ID     string
	Target string
	Label  string
	Href   string
	Active bool
}

type pageData struct {
	Nav         []navItem
	ResultCount template.HTML
	Banner      template.HTML
	Grid        template.HTML
	Chart       template.HTML
	ListHidden  bool
	ChartHidden bool
}

func newPageData(s view.Snapshot) pageData {
	return pageData{
		Nav: []navItem{
			{ID: page.NavTimeline, Target: page.ViewTimeline, Label: "Publication Timeline", Href: page.EventHref(page.Nav, page.ViewTimeline), Active: s.NavChart},
			{ID: page.NavList, Target: page.ViewList, Label: "Resource List", Href: page.EventHref(page.Nav, page.ViewList), Active: s.NavList},
		},
		ResultCount: s.ResultHTML,
		Banner:      s.BannerHTML,
		Grid:        s.GridHTML,
		Chart:       s.ChartHTML,
		ListHidden:  s.State.Active != view.List,
		ChartHidden: s.State.Active != view.Timeline,
	}
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Education Technology Publications</title>
<link rel="stylesheet" href="/static/style.css">
</head>
<body>
<nav class="sidebar">
	<ul>
	{{- range .Nav}}
		<li><a id="{{.ID}}" class="nav-item{{if .Active}} active{{end}}" data-target="{{.Target}}" href="{{.Href}}">{{.Label}}</a></li>
	{{- end}}
	</ul>
</nav>
<main>
	<header><p id="result-count">{{.ResultCount}}</p></header>
	<section id="view-timeline" class="view-section{{if .ChartHidden}} hidden{{else}} active{{end}}">
		<div class="chart-container" id="timelineChart">{{.Chart}}</div>
	</section>
	<section id="view-list" class="view-section{{if .ListHidden}} hidden{{else}} active{{end}}">
		<div id="filter-banner">{{.Banner}}</div>
		<div id="book-grid" class="book-grid" role="list">{{.Grid}}</div>
	</section>
</main>
</body>
</html>
`))

const styleSheet = `body{margin:0;font-family:system-ui,sans-serif;display:flex;color:#333}
.sidebar{width:220px;background:#1f2a44;min-height:100vh;padding-top:20px}
.sidebar ul{list-style:none;margin:0;padding:0}
.nav-item{display:block;padding:12px 20px;color:#c9d3e6;text-decoration:none}
.nav-item.active{background:#4a90e2;color:#fff}
main{flex:1;padding:20px}
.hidden{display:none}
.chart-container{height:340px}
.timeline-chart{width:100%;height:100%}
.chart-point circle:hover{r:8}
.book-grid{display:grid;grid-template-columns:repeat(auto-fill,minmax(220px,1fr));gap:16px}
.filter-controls{display:flex;align-items:center;justify-content:space-between;margin-bottom:15px;padding:10px;background:#e6efff;border-radius:8px}
.btn{cursor:pointer;border:none;background:#4a90e2;color:#fff;padding:5px 10px;border-radius:4px;text-decoration:none}
.btn-outline{border:1px solid #4a90e2;background:#fff;color:#4a90e2;margin-right:10px}
.book-card{display:flex;flex-direction:column;border-radius:8px;box-shadow:0 1px 4px rgba(0,0,0,.1);overflow:hidden}
.book-cover{width:100%;height:160px;object-fit:cover}
.card-content{padding:10px;display:flex;flex-direction:column;flex:1}
.tags{margin-top:auto;display:flex;gap:5px;flex-wrap:wrap}
.tag{background:#eef3fb;color:#4a90e2;padding:2px 6px;border-radius:4px;font-size:12px}
.tag-editions{background:#eafaf1;color:#27ae60}
.empty{grid-column:1/-1;color:#666}
`
