package api

import (
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ruslano69/coffeedash/internal/dashboard"
	"github.com/ruslano69/coffeedash/pkg/core/schema"
	"github.com/ruslano69/coffeedash/pkg/etl"
)

// defaultPageLimit - сколько строк показывать на странице набора данных без ?limit=
const defaultPageLimit = 200

// ─────────────────────────────────────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────────────────────────────────────

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, s.renderIndex())
}

func (s *Server) handleDataIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, s.renderDataIndex())
}

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ds, ok := s.datasets[name]
	if !ok {
		http.Error(w, "dataset not found: "+name, http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultPageLimit
	}
	offset, _ := strconv.Atoi(q.Get("offset"))
	if offset < 0 {
		offset = 0
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, s.renderData(ds, limit, offset))
}

// ─────────────────────────────────────────────────────────────────────────────
// HTML rendering: dashboard page
// ─────────────────────────────────────────────────────────────────────────────

// renderIndex строит страницу дашборда. Порядок элементов: стартовый график,
// заголовок, выпадающий список ферм (по умолчанию All Farms), область
// реактивного графика.
func (s *Server) renderIndex() string {
	var b strings.Builder
	st := s.opts.State
	res := s.opts.Result

	b.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>` + html.EscapeString(s.opts.Name) + `</title>
` + commonCSS() + `
<style>
  .chart-card img { display:block; width:100%; height:auto; background:#fff; }
  .label { font-size:22px; font-weight:700; color:#f1f5f9; margin:8px 0 12px; }
  .controls { display:flex; gap:12px; align-items:center; margin-bottom:16px; flex-wrap:wrap; }
  .select {
    background:#0f172a; border:1px solid #334155; border-radius:6px;
    color:#e2e8f0; padding:7px 10px; font-size:14px; min-width:280px;
  }
  .btn-ghost {
    padding:7px 14px; border-radius:6px; font-size:13px; font-weight:600;
    background:#1e293b; color:#94a3b8; border:1px solid #334155; text-decoration:none;
  }
  .warn-bar {
    background:#3a2a12; border:1px solid #f59e0b; border-radius:8px;
    padding:10px 16px; margin-bottom:12px; color:#fbbf24; font-size:13px;
  }
  .warn-bar.fatal { background:#3a1a1a; border-color:#f87171; color:#f87171; }
</style>
</head>
<body>
<div class="container">
`)
	writeNavbar(&b, s.opts.Name, "")

	// Диагностики загрузки
	for _, d := range res.Diagnostics {
		cls := "warn-bar"
		if d.Kind == etl.KindParseError {
			cls += " fatal"
		}
		b.WriteString(`<div class="` + cls + `">` + html.EscapeString(d.String()) + `</div>`)
	}

	// 1. Стартовый график
	initial := st.InitialChart()
	b.WriteString(`<div class="card chart-card">`)
	b.WriteString(fmt.Sprintf(`<div class="card-header">%s <span class="pill">%d rows</span></div>`,
		html.EscapeString(initial.Title), initial.Rows))
	b.WriteString(`<img id="` + dashboard.InitialChartID + `" src="/charts/initial.svg" alt="` +
		html.EscapeString(initial.Title) + `">`)
	b.WriteString(`</div>`)

	// 2. Заголовок
	b.WriteString(`<div class="label">Coffee Analysis</div>`)

	// 3. Выпадающий список
	b.WriteString(`<div class="controls">`)
	b.WriteString(`<select class="select" id="` + dashboard.DropdownID + `">`)
	for _, opt := range st.Options() {
		b.WriteString(`<option value="` + html.EscapeString(opt) + `"`)
		if opt == dashboard.AllFarms {
			b.WriteString(` selected`)
		}
		b.WriteString(`>` + html.EscapeString(opt) + `</option>`)
	}
	b.WriteString(`</select>`)
	b.WriteString(`<a class="btn-ghost" id="export-link" href="/export/farm.xlsx?farm=` +
		url.QueryEscape(dashboard.AllFarms) + `">Export XLSX</a>`)
	b.WriteString(`</div>`)

	// 4. Реактивный график
	farm := st.FarmChart(dashboard.AllFarms)
	b.WriteString(`<div class="card chart-card">`)
	b.WriteString(fmt.Sprintf(`<div class="card-header"><span id="farm-title">%s</span> <span class="pill" id="farm-rows">%d rows</span></div>`,
		html.EscapeString(farm.Title), farm.Rows))
	b.WriteString(`<img id="` + dashboard.FarmChartID + `" src="/charts/farm-region.svg?farm=` +
		url.QueryEscape(dashboard.AllFarms) + `" alt="farm chart">`)
	b.WriteString(`</div>`)

	// Сводка загрузки
	b.WriteString(`<div class="header-card"><div class="meta-grid">`)
	writeMetaItem(&b, "Source", s.opts.Source)
	writeMetaItem(&b, "Rows loaded", strconv.Itoa(res.Stats.RowsLoaded))
	writeMetaItem(&b, "Rows dropped", strconv.Itoa(res.Stats.RowsDropped))
	writeMetaItem(&b, "Rows kept", strconv.Itoa(res.Stats.RowsKept))
	writeMetaItem(&b, "Farms", strconv.Itoa(len(st.Options())-1))
	writeMetaItem(&b, "Checksum", res.Checksum)
	writeMetaItem(&b, "Started", s.startedAt.Format("2006-01-02 15:04:05"))
	b.WriteString(`</div></div>`)

	b.WriteString(dropdownScript)
	b.WriteString(`<div class="footer"><a href="/data">datasets</a> &middot; <a href="/metrics">metrics</a></div>`)
	b.WriteString(`</div></body></html>`)
	return b.String()
}

// dropdownScript запрашивает новое описание графика при смене фермы и
// обновляет SVG, заголовок и ссылку экспорта. Состояние выбора хранится
// только на странице.
const dropdownScript = `<script>
(function () {
  var sel = document.getElementById("` + dashboard.DropdownID + `");
  var img = document.getElementById("` + dashboard.FarmChartID + `");
  var title = document.getElementById("farm-title");
  var rows = document.getElementById("farm-rows");
  var exp = document.getElementById("export-link");
  sel.addEventListener("change", function () {
    var q = "farm=" + encodeURIComponent(sel.value);
    fetch("/api/figures/farm-region?" + q)
      .then(function (r) { return r.json(); })
      .then(function (fig) {
        title.textContent = fig.title;
        rows.textContent = fig.rows + " rows";
        img.src = "/charts/farm-region.svg?" + q;
        exp.href = "/export/farm.xlsx?" + q;
      });
  });
})();
</script>`

// ─────────────────────────────────────────────────────────────────────────────
// HTML rendering: dataset list
// ─────────────────────────────────────────────────────────────────────────────

func (s *Server) renderDataIndex() string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>Datasets — ` + html.EscapeString(s.opts.Name) + `</title>
` + commonCSS() + `
<style>
  .grid { display:grid; grid-template-columns:repeat(auto-fill,minmax(300px,1fr)); gap:16px; }
  .card-link { text-decoration:none; color:inherit; display:block; }
  .src-card {
    background:#1e293b; border:1px solid #334155; border-radius:12px;
    padding:20px; transition:border-color .15s, transform .1s;
  }
  .src-card:hover { border-color:#3b82f6; transform:translateY(-1px); }
  .src-card.is-view:hover { border-color:#8b5cf6; }
  .src-card.is-failed { border-color:#7f1d1d; }
  .card-name { font-size:16px; font-weight:700; color:#f1f5f9; }
  .card-meta { display:flex; gap:8px; flex-wrap:wrap; margin-top:8px; }
  .tag {
    font-size:11px; font-weight:600; padding:2px 8px; border-radius:10px;
    background:#1e293b; color:#94a3b8; border:1px solid #334155;
  }
  .tag-rows  { color:#34d399; border-color:#1a3a2a; background:#0d2019; }
  .tag-view  { color:#a78bfa; border-color:#2d1b69; background:#1a0f3c; }
  .tag-error { color:#f87171; border-color:#7f1d1d; background:#2a1010; }
  .card-desc { font-size:12px; color:#64748b; margin-top:8px; font-style:italic; }
</style>
</head>
<body>
<div class="container">
`)
	writeNavbar(&b, s.opts.Name, "datasets")

	b.WriteString(`<div class="grid">`)
	for _, name := range s.order {
		writeDatasetCard(&b, s.datasets[name])
	}
	b.WriteString(`</div>`)
	b.WriteString(`<div class="footer"><a href="/">← back</a></div>`)
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func writeDatasetCard(b *strings.Builder, d *Dataset) {
	cls := "src-card"
	if d.IsView {
		cls += " is-view"
	}
	if d.Err != nil {
		cls += " is-failed"
	}

	b.WriteString(`<a class="card-link" href="/data/` + url.PathEscape(d.Name) + `">`)
	b.WriteString(`<div class="` + cls + `">`)
	b.WriteString(`<span class="card-name">` + html.EscapeString(d.Name) + `</span>`)
	b.WriteString(`<div class="card-meta">`)
	if d.IsView {
		b.WriteString(`<span class="tag tag-view">view</span>`)
	}
	if d.Err != nil {
		b.WriteString(`<span class="tag tag-error">failed</span>`)
	} else {
		b.WriteString(`<span class="tag tag-rows">` + strconv.Itoa(d.Table.Len()) + ` rows</span>`)
		b.WriteString(`<span class="tag">` + strconv.Itoa(len(d.Table.Schema.Fields)) + ` fields</span>`)
	}
	b.WriteString(`</div>`)
	if d.Desc != "" {
		b.WriteString(`<div class="card-desc">` + html.EscapeString(d.Desc) + `</div>`)
	}
	b.WriteString(`</div></a>`)
}

// ─────────────────────────────────────────────────────────────────────────────
// HTML rendering: data page
// ─────────────────────────────────────────────────────────────────────────────

func (s *Server) renderData(ds *Dataset, limit, offset int) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>` + html.EscapeString(ds.Name) + ` — ` + html.EscapeString(s.opts.Name) + `</title>
` + commonCSS() + `
<style>
  .error-bar {
    background:#3a1a1a; border:1px solid #f87171; border-radius:8px;
    padding:10px 16px; margin-bottom:16px; color:#f87171; font-size:13px;
  }
  .data-wrapper { overflow-x:auto; }
  .data-table { width:100%; border-collapse:collapse; font-size:13px; }
  .data-table th {
    padding:10px 14px; text-align:left;
    font-size:11px; font-weight:600; color:#475569;
    text-transform:uppercase; letter-spacing:.04em;
    border-bottom:2px solid #334155; background:#0f172a;
    white-space:nowrap; position:sticky; top:0; z-index:10;
  }
  .data-table td {
    padding:8px 14px; border-bottom:1px solid #1e293b;
    font-family:monospace; color:#cbd5e1;
    max-width:320px; overflow:hidden; text-overflow:ellipsis; white-space:nowrap;
  }
  .data-table tr:hover td { background:#1e2d42; }
  .data-table tr:nth-child(even) td { background:#18222f; }
  .null-val  { color:#475569; font-style:italic; }
  .num-val   { color:#60a5fa; }
  .date-val  { color:#34d399; }
  .row-num   { color:#475569; text-align:right; user-select:none; font-size:11px; }
  .pager a   { color:#60a5fa; text-decoration:none; margin-right:16px; }
</style>
</head>
<body>
<div class="container">
`)
	writeNavbar(&b, s.opts.Name, ds.Name)

	// Header card
	b.WriteString(`<div class="header-card">`)
	b.WriteString(`<div class="header-top">`)
	b.WriteString(`<span class="table-name">` + html.EscapeString(ds.Name) + `</span>`)
	if ds.IsView {
		b.WriteString(`<span class="badge badge-key">VIEW</span>`)
	} else {
		b.WriteString(`<span class="badge badge-reference">CSV</span>`)
	}
	b.WriteString(`</div>`)
	if ds.Err == nil {
		b.WriteString(`<div class="meta-grid">`)
		writeMetaItem(&b, "Total rows", strconv.Itoa(ds.Table.Len()))
		writeMetaItem(&b, "Fields", strconv.Itoa(len(ds.Table.Schema.Fields)))
		if ds.Desc != "" {
			writeMetaItem(&b, "Description", ds.Desc)
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div>`) // header-card

	if ds.Err != nil {
		b.WriteString(`<div class="error-bar">View error: ` + html.EscapeString(ds.Err.Error()) + `</div>`)
		b.WriteString(`<div class="footer"><a href="/data">← back</a></div>`)
		b.WriteString(`</div></body></html>`)
		return b.String()
	}

	fields := ds.Table.Schema.Fields
	total := ds.Table.Len()
	start := min(offset, total)
	end := start + min(limit, total-start)
	rows := ds.Table.Rows[start:end]

	// Data card
	b.WriteString(`<div class="card">`)
	span := fmt.Sprintf("0 of %d rows", total)
	if end > start {
		span = fmt.Sprintf("%d–%d of %d rows", start+1, end, total)
	}
	b.WriteString(`<div class="card-header">Data <span class="pill">` + span + `</span></div>`)

	b.WriteString(`<div class="data-wrapper"><table class="data-table"><thead><tr>`)
	b.WriteString(`<th class="row-num">#</th>`)
	for _, field := range fields {
		b.WriteString(fmt.Sprintf(`<th>%s<br><small>%s</small></th>`,
			html.EscapeString(field.Name), html.EscapeString(strings.ToLower(field.Type))))
	}
	b.WriteString(`</tr></thead><tbody>`)

	for i, vals := range rows {
		b.WriteString(`<tr>`)
		b.WriteString(fmt.Sprintf(`<td class="row-num">%d</td>`, start+i+1))
		for ci, field := range fields {
			val := ""
			if ci < len(vals) {
				val = vals[ci]
			}
			if val == "" {
				b.WriteString(`<td><span class="null-val">NULL</span></td>`)
				continue
			}
			dt := schema.DataType(field.Type)
			switch {
			case schema.IsNumericType(dt):
				b.WriteString(`<td class="num-val">` + html.EscapeString(val) + `</td>`)
			case schema.IsDateTimeType(dt):
				b.WriteString(`<td class="date-val">` + html.EscapeString(val) + `</td>`)
			default:
				b.WriteString(`<td>` + html.EscapeString(val) + `</td>`)
			}
		}
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</tbody></table></div>`)

	// Pager
	b.WriteString(`<div class="stats-bar pager">`)
	base := "/data/" + url.PathEscape(ds.Name)
	if start > 0 {
		b.WriteString(fmt.Sprintf(`<a href="%s?offset=%d&limit=%d">← prev</a>`, base, max(start-limit, 0), limit))
	}
	if end < total {
		b.WriteString(fmt.Sprintf(`<a href="%s?offset=%d&limit=%d">next →</a>`, base, end, limit))
	}
	b.WriteString(fmt.Sprintf(`<span><strong>%d</strong> rows shown</span>`, len(rows)))
	b.WriteString(fmt.Sprintf(`<span><strong>%d</strong> columns</span>`, len(fields)))
	b.WriteString(`</div>`)

	b.WriteString(`</div>`) // data card
	b.WriteString(`<div class="footer"><a href="/data">← back</a></div>`)
	b.WriteString(`</div></body></html>`)
	return b.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// Shared HTML helpers
// ─────────────────────────────────────────────────────────────────────────────

func commonCSS() string {
	return `<style>
  * { box-sizing:border-box; margin:0; padding:0; }
  body { font-family:-apple-system,BlinkMacSystemFont,"Segoe UI",Roboto,sans-serif; background:#0f1117; color:#e2e8f0; min-height:100vh; padding:24px; }
  .container { max-width:1400px; margin:0 auto; }
  .navbar {
    display:flex; align-items:center; gap:12px; margin-bottom:24px;
    padding-bottom:16px; border-bottom:1px solid #1e293b;
  }
  .nav-sep   { color:#334155; }
  .nav-sub   { font-size:16px; color:#94a3b8; font-weight:500; }
  .nav-home  { color:#c08552; text-decoration:none; font-weight:700; font-size:18px; }
  .nav-home:hover { color:#dab49d; }
  .badge { display:inline-flex; align-items:center; gap:6px; padding:4px 10px; border-radius:20px; font-size:12px; font-weight:600; }
  .badge-reference { background:#1e3a5f; color:#60a5fa; }
  .badge-key       { background:#2d1b69; color:#a78bfa; }
  .header-card { background:linear-gradient(135deg,#1e293b 0%,#0f172a 100%); border:1px solid #334155; border-radius:12px; padding:24px 28px; margin-bottom:20px; }
  .header-top  { display:flex; align-items:center; gap:16px; flex-wrap:wrap; margin-bottom:16px; }
  .table-name  { font-size:26px; font-weight:700; color:#f1f5f9; }
  .meta-grid   { display:grid; grid-template-columns:repeat(auto-fill,minmax(200px,1fr)); gap:12px; }
  .meta-item   { display:flex; flex-direction:column; gap:2px; }
  .meta-label  { font-size:11px; font-weight:600; color:#64748b; text-transform:uppercase; letter-spacing:.05em; }
  .meta-value  { font-size:13px; color:#cbd5e1; font-family:monospace; word-break:break-all; }
  .card        { background:#1e293b; border:1px solid #334155; border-radius:12px; margin-bottom:20px; overflow:hidden; }
  .card-header { padding:14px 20px; border-bottom:1px solid #334155; font-size:14px; font-weight:600; color:#94a3b8; display:flex; align-items:center; gap:10px; background:#0f172a; }
  .pill        { background:#334155; color:#94a3b8; padding:2px 8px; border-radius:10px; font-size:11px; font-weight:600; }
  .stats-bar   { display:flex; gap:24px; flex-wrap:wrap; padding:12px 20px; background:#0f172a; border-top:1px solid #334155; font-size:12px; color:#64748b; }
  .stats-bar strong { color:#94a3b8; }
  .footer      { text-align:center; padding:20px; font-size:11px; color:#334155; }
  .footer a    { color:#475569; text-decoration:none; }
</style>`
}

func writeNavbar(b *strings.Builder, serverName, section string) {
	b.WriteString(`<div class="navbar">`)
	b.WriteString(`<a class="nav-home" href="/">` + html.EscapeString(serverName) + `</a>`)
	if section != "" {
		b.WriteString(`<span class="nav-sep">/</span>`)
		b.WriteString(`<span class="nav-sub">` + html.EscapeString(section) + `</span>`)
	}
	b.WriteString(`</div>`)
}

func writeMetaItem(b *strings.Builder, label, value string) {
	b.WriteString(`<div class="meta-item">`)
	b.WriteString(`<span class="meta-label">` + html.EscapeString(label) + `</span>`)
	b.WriteString(`<span class="meta-value">` + html.EscapeString(value) + `</span>`)
	b.WriteString(`</div>`)
}
