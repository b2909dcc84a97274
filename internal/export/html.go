package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/campusops/coursemap/internal/coursetree"
)

var chipClasses = map[string]string{
	coursetree.TypeUltraDoc:    "chip-ultra-doc",
	coursetree.TypeUltraBody:   "chip-ultrabody",
	coursetree.TypeDocument:    "chip-document",
	coursetree.TypeFolder:      "chip-folder",
	coursetree.TypeModule:      "chip-module",
	coursetree.TypeVideoStudio: "chip-videostudio",
	coursetree.TypeLink:        "chip-link",
	coursetree.TypeCourseLink:  "chip-course-link",
	coursetree.TypeLTI:         "chip-lti",
	coursetree.TypeSCORM:       "chip-scorm",
	coursetree.TypeForm:        "chip-form",
	coursetree.TypeTest:        "chip-test-assignment",
	coursetree.TypeFile:        "chip-file",
	coursetree.TypeError:       "chip-error",
}

func chip(typ string) string {
	cls, ok := chipClasses[typ]
	if !ok {
		cls = "chip-unknown"
	}
	return fmt.Sprintf(`<span class="chip %s">%s</span>`, cls, html.EscapeString(typ))
}

func extClass(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if i := strings.LastIndex(n, "."); i >= 0 && i < len(n)-1 {
		return "ext-" + n[i+1:]
	}
	return ""
}

// TreeHTML renders the <ul id="tree"> markup shared by the static export
// and the served viewer. Every disclosure unit carries its node id in
// data-id, and badge text is present in the markup even while the unit
// is collapsed.
func TreeHTML(t *coursetree.Tree) string {
	var b strings.Builder
	b.WriteString(`<ul id="tree">`)
	root := t.Root()
	for _, cid := range root.Children {
		writeHTMLNode(&b, t, t.Node(cid))
	}
	b.WriteString("</ul>")
	return b.String()
}

func writeHTMLNode(b *strings.Builder, t *coursetree.Tree, n *coursetree.Node) {
	id := html.EscapeString(n.ID)

	if n.Type == coursetree.TypeError {
		fmt.Fprintf(b, `<li data-id="%s">%s<span class="title">%s</span> <span class="error-reason">%s</span></li>`,
			id, chip(n.Type), html.EscapeString(n.Title), html.EscapeString(n.ErrorReason))
		return
	}

	label := chip(n.Type) + `<span class="title">` + html.EscapeString(n.Title) + `</span>`
	if n.WebURL != "" {
		u := html.EscapeString(n.WebURL)
		label += fmt.Sprintf(`  [URL: <a href="%s" target="_blank" rel="noopener">%s</a>]`, u, u)
	}

	extras := badgesHTML(n) + linksHTML(n)

	if len(n.Children) == 0 && extras == "" {
		fmt.Fprintf(b, `<li data-id="%s">%s</li>`, id, label)
		return
	}

	fmt.Fprintf(b, `<li data-id="%s"><details data-id="%s"><summary>%s</summary>%s`, id, id, label, extras)
	if len(n.Children) > 0 {
		b.WriteString("<ul>")
		for _, cid := range n.Children {
			writeHTMLNode(b, t, t.Node(cid))
		}
		b.WriteString("</ul>")
	}
	b.WriteString("</details></li>")
}

// badgesHTML never truncates: search matches against badge text, so
// every file name has to be present in the markup.
func badgesHTML(n *coursetree.Node) string {
	if len(n.Files) == 0 {
		return ""
	}
	names := make([]string, 0, len(n.Files))
	for _, f := range n.Files {
		names = append(names, f.Name)
	}
	var b strings.Builder
	b.WriteString(`<div class="files files-badges"><span class="files-label">Files</span> `)
	for _, nm := range names {
		cls := strings.TrimSpace("file-badge " + extClass(nm))
		fmt.Fprintf(&b, `<span class="%s">%s</span>`, cls, html.EscapeString(nm))
	}
	b.WriteString("</div>")
	return b.String()
}

func linksHTML(n *coursetree.Node) string {
	links := visibleLinks(n.Links)
	if len(links) == 0 {
		return ""
	}
	parts := make([]string, 0, len(links))
	for _, l := range links {
		lt := l.LinkType
		if lt == "" {
			lt = "link"
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", html.EscapeString(l.ContentID), html.EscapeString(lt)))
	}
	return `<div class="files">[Embedded content links: ` + strings.Join(parts, "; ") + `]</div>`
}

// RenderHTML produces the self-contained interactive artifact: the tree
// markup plus inline styles and a script that mirrors the viewer
// engine's search/disclosure behavior for offline use.
func RenderHTML(t *coursetree.Tree) string {
	label := html.EscapeString(t.Label)
	generated := time.Now().Format("2006-01-02 15:04:05")

	var b strings.Builder
	fmt.Fprintf(&b, `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Course Map - %s</title>
<style>%s</style>
</head>
<body>
  <header class="page-header">
    <h1>Course Map - %s</h1>
    <div class="meta">Generated %s</div>
  </header>

  <div class="controls">
    <input id="q" type="search" placeholder="Search title/files/type…">
    <button id="expand">Expand all</button>
    <button id="collapse">Collapse all</button>
    <span id="count" class="meta"></span>
  </div>

`, label, documentCSS, label, generated)
	b.WriteString(TreeHTML(t))
	b.WriteString("\n<script>")
	b.WriteString(documentJS)
	b.WriteString("</script>\n</body>\n</html>\n")
	return b.String()
}

const documentCSS = `
:root{--surface:#fff;--surface-2:#f7f8fa;--ink:#0f172a;--muted:#6b7280;--ring:#3b82f6;--border:#e5e7eb;
 --blue-600:#2563eb;--blue-500:#3b82f6;--blue-400:#60a5fa;--violet-500:#8b5cf6;--purple-500:#a855f7;--red-500:#ef4444;
 --emerald-500:#10b981;--green-500:#22c55e;--sky-500:#0ea5e9;--amber-500:#f59e0b;--amber-400:#fbbf24;--orange-500:#f97316;
 --stone-500:#6b7280;--slate-400:#94a3b8;--hit-bg:#fde047;--hit-ring:#f59e0b;}
body{font-family:ui-sans-serif,system-ui,-apple-system,Segoe UI,Roboto,Arial,sans-serif;margin:24px;line-height:1.5;color:var(--ink)}
.page-header{border:1px solid var(--border);border-radius:14px;padding:12px 16px 10px;margin:0 0 16px}
.page-header h1{margin:0 0 6px;font-size:24px;font-weight:600}
.meta{font-size:.9em;color:var(--muted)}
.controls{display:flex;gap:8px;align-items:center;flex-wrap:wrap;margin:14px 0 18px;padding:10px 12px;border:1px solid var(--border);border-radius:12px}
input[type="search"]{padding:10px 12px;min-width:min(520px,100%);border:1px solid var(--border);border-radius:10px;background:var(--surface-2)}
button{padding:9px 12px;border:1px solid var(--border);background:var(--surface);border-radius:10px;cursor:pointer}
#count{margin-left:auto;padding:4px 8px;background:var(--surface-2);border:1px solid var(--border);border-radius:999px;font-size:.85em}
ul{list-style:none;padding-left:0;margin:0}
#tree{border:1px solid var(--border);border-radius:14px;padding:8px 8px 10px}
#tree li{position:relative;margin:4px 4px;padding-left:22px}
#tree ul{margin-left:12px;padding-left:12px;border-left:1px dashed var(--border)}
details>summary{cursor:pointer;user-select:none;padding:6px 8px;border-radius:8px}
details>summary:hover{background:var(--surface-2)}
.files{color:var(--muted);margin:4px 0 6px 22px;font-size:.92em;padding:6px 10px;border:1px dashed var(--border);border-radius:10px}
.files-badges{display:flex;align-items:center;flex-wrap:wrap;gap:8px;border:1px solid var(--border);border-left:4px solid var(--ring);border-radius:10px;color:var(--ink)}
.files-label{font-size:.72em;text-transform:uppercase;letter-spacing:.08em;color:var(--muted);border:1px solid var(--border);border-radius:999px;padding:2px 6px}
.file-badge{display:inline-flex;align-items:center;padding:3px 10px;border:1px solid var(--border);border-radius:999px;font-size:.9em;white-space:nowrap}
.file-badge.ext-pdf{border-color:var(--red-500)}
.file-badge.ext-doc,.file-badge.ext-docx{border-color:var(--blue-500)}
.file-badge.ext-xls,.file-badge.ext-xlsx{border-color:var(--green-500)}
.file-badge.ext-ppt,.file-badge.ext-pptx{border-color:var(--orange-500)}
.file-badge.ext-zip{border-color:var(--amber-500)}
.file-badge.ext-jpg,.file-badge.ext-jpeg,.file-badge.ext-png,.file-badge.ext-gif,.file-badge.ext-webp{border-color:var(--emerald-500)}
.chip{margin-right:6px;display:inline-flex;align-items:center;padding:2px 8px;border-radius:999px;font-size:.78em;color:#fff;letter-spacing:.2px}
.chip-ultra-doc{background:var(--blue-600)} .chip-document{background:var(--blue-500)} .chip-ultrabody{background:var(--blue-400)}
.chip-folder{background:var(--violet-500)} .chip-module{background:var(--purple-500)} .chip-videostudio{background:var(--red-500)}
.chip-link{background:var(--emerald-500)} .chip-course-link{background:var(--green-500)} .chip-lti{background:var(--sky-500)}
.chip-scorm{background:var(--amber-500);color:#0b0f19} .chip-form{background:var(--amber-400);color:#0b0f19}
.chip-test-assignment{background:var(--orange-500)} .chip-file{background:var(--stone-500)} .chip-unknown{background:var(--slate-400)}
.chip-error{background:var(--red-500)}
.error-reason{color:var(--red-500);font-size:.9em}
mark.hit{background:var(--hit-bg);color:#0b0f19;padding:0 .2em;border-radius:.25rem}
li.has-hit > details > summary{outline:2px solid var(--hit-ring);outline-offset:2px;border-radius:.5rem}
.hidden{display:none !important}
`

const documentJS = `
(function () {
  var q = document.getElementById('q');
  var tree = document.getElementById('tree');
  var count = document.getElementById('count');

  function debounce(fn, ms) { var t; return function () { clearTimeout(t); t = setTimeout(fn, ms); }; }
  function setAll(open) {
    tree.querySelectorAll('details').forEach(function (d) { d.open = open; });
  }
  function updateCount(n) { count.textContent = n ? n + ' match' + (n === 1 ? '' : 'es') : ''; }
  function escapeRe(s) { return s.replace(/[.*+?^$()|[\]{}\\]/g, '\\$&'); }

  function markSearchOpen(d) { if (d && d.tagName === 'DETAILS') { d.open = true; d.dataset.searchOpen = '1'; } }
  function openAncestors(el) {
    for (var cur = el; cur; cur = cur.parentElement) {
      if (cur.tagName === 'DETAILS') markSearchOpen(cur);
    }
  }

  function rememberOriginal(el) {
    if (!el.dataset.origHtml) el.dataset.origHtml = el.innerHTML;
    else el.innerHTML = el.dataset.origHtml;
  }
  function clearHighlights() {
    tree.querySelectorAll('summary, .files, .files-badges, span.title').forEach(function (el) {
      if (el.dataset.origHtml != null) el.innerHTML = el.dataset.origHtml;
    });
    tree.querySelectorAll('li.has-hit').forEach(function (li) { li.classList.remove('has-hit'); });
  }

  function highlightIn(root, term) {
    if (!term || !root) return 0;
    rememberOriginal(root);
    var re = new RegExp(escapeRe(term), 'gi');
    var walker = document.createTreeWalker(root, NodeFilter.SHOW_TEXT, null);
    var nodes = [];
    while (walker.nextNode()) nodes.push(walker.currentNode);
    var hits = 0;
    nodes.forEach(function (textNode) {
      var value = textNode.nodeValue;
      var frag = document.createDocumentFragment();
      var last = 0, m, changed = false;
      re.lastIndex = 0;
      while ((m = re.exec(value)) !== null) {
        changed = true;
        hits++;
        if (m.index > last) frag.appendChild(document.createTextNode(value.slice(last, m.index)));
        var mark = document.createElement('mark');
        mark.className = 'hit';
        mark.textContent = m[0];
        frag.appendChild(mark);
        last = m.index + m[0].length;
        if (re.lastIndex === m.index) re.lastIndex++;
      }
      if (changed) {
        if (last < value.length) frag.appendChild(document.createTextNode(value.slice(last)));
        textNode.parentNode.replaceChild(frag, textNode);
      }
    });
    return hits;
  }

  function matchLi(li, term) {
    if (!term) return 0;
    var hits = 0;
    var sum = li.querySelector(':scope > details > summary') || li;
    var h = highlightIn(sum === li ? li.querySelector(':scope > span.title') : sum, term);
    if (h > 0) { li.classList.add('has-hit'); openAncestors(li); }
    hits += h;
    li.querySelectorAll(':scope > details > .files, :scope > details > .files-badges').forEach(function (node) {
      var hb = highlightIn(node, term);
      if (hb > 0) { li.classList.add('has-hit'); openAncestors(li); }
      hits += hb;
    });
    return hits;
  }

  function filter() {
    var term = q.value.trim();
    tree.querySelectorAll('details[data-search-open="1"]').forEach(function (d) {
      d.open = false;
      delete d.dataset.searchOpen;
    });
    clearHighlights();

    var total = 0;
    function visit(li) {
      var kids = Array.prototype.slice.call(li.querySelectorAll(':scope > details > ul > li'));
      kids.forEach(visit);
      var selfHits = matchLi(li, term);
      var childVisible = kids.some(function (k) { return !k.classList.contains('hidden'); });
      li.classList.toggle('hidden', Boolean(term) && selfHits === 0 && !childVisible);
      total += selfHits;
    }
    tree.querySelectorAll(':scope > li').forEach(visit);

    updateCount(total);
    var firstHit = tree.querySelector('mark.hit');
    if (firstHit) firstHit.scrollIntoView({ block: 'nearest' });
  }

  q.addEventListener('input', debounce(filter, 80));
  document.getElementById('expand').addEventListener('click', function () { setAll(true); });
  document.getElementById('collapse').addEventListener('click', function () { setAll(false); });
})();
`
