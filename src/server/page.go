package server

// pageTemplate is the host page. Sections are server-rendered on load and
// replaced from the websocket feed afterwards.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{ .Title }}</title>
<style>
body { font-family: sans-serif; margin: 0; background: #f0f0f1; }
#rdm-dashboard { padding: 16px; }
.rdm-toolbar { display: flex; gap: 12px; align-items: center; margin-bottom: 16px; }
.rdm-loading { display: none; }
.rdm-loading.active { display: inline; }
.rdm-notice { padding: 8px 12px; border-radius: 4px; }
.rdm-notice.error { background: #fcebea; color: #8a1f11; }
.rdm-notice.success { background: #e6f4ea; color: #1e4620; }
.rdm-notice.hidden { display: none; }
.rdm-notice-dismiss { border: 0; background: none; cursor: pointer; float: right; }
.rdm-stat-trend.positive { color: #1e7e34; }
.rdm-stat-trend.negative { color: #b32d2e; }
.rdm-status-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; background: #999; }
.rdm-status-dot.online { background: #1e7e34; }
.rdm-status-dot.busy { background: #dba617; }
</style>
</head>
<body>
<div id="rdm-dashboard">
  <div class="rdm-toolbar">
    <h1>{{ .Title }}</h1>
    <button type="button" id="rdm-refresh">{{ .Labels.Refresh }}</button>
    <span class="rdm-loading{{ if .Loading }} active{{ end }}">{{ .Labels.Loading }}</span>
  </div>
  <div class="rdm-notice{{ with .Notice }} {{ .Kind }}{{ else }} hidden{{ end }}"{{ with .Notice }} data-notice-id="{{ .ID }}"{{ end }}>
    <span class="rdm-notice-text">{{ with .Notice }}{{ .Message }}{{ end }}</span>
    <button type="button" class="rdm-notice-dismiss" aria-label="{{ .Labels.Dismiss }}">&times;</button>
  </div>
  <div id="rdm-stats">{{ index .Sections "rdm-stats" }}</div>
  <div id="rdm-system-status">{{ index .Sections "rdm-system-status" }}</div>
  <div id="rdm-recent-orders">{{ index .Sections "rdm-recent-orders" }}</div>
  <div id="rdm-agent-grid">{{ index .Sections "rdm-agent-grid" }}</div>
</div>
<script>
(function () {
  var root = document.getElementById("rdm-dashboard");
  var version = 0;

  function apply(view) {
    if (!view || view.version < version) { return; }
    version = view.version;
    Object.keys(view.sections || {}).forEach(function (slot) {
      var el = document.getElementById(slot);
      if (el && slot !== "rdm-dashboard") { el.innerHTML = view.sections[slot]; }
    });
    root.querySelector(".rdm-loading").classList.toggle("active", !!view.loading);
    var notice = root.querySelector(".rdm-notice");
    notice.className = "rdm-notice " + (view.notice ? view.notice.kind : "hidden");
    notice.setAttribute("data-notice-id", view.notice ? view.notice.id : "");
    notice.querySelector(".rdm-notice-text").textContent = view.notice ? view.notice.message : "";
    var disabled = {};
    (view.disabled_controls || []).forEach(function (id) { disabled[id] = true; });
    root.querySelectorAll("[data-control-id]").forEach(function (el) {
      el.disabled = !!disabled[el.getAttribute("data-control-id")];
    });
  }

  function post(url, body) {
    return fetch(url, {
      method: "POST",
      headers: { "Content-Type": "application/json" },
      body: body ? JSON.stringify(body) : null
    }).then(function (r) { return r.json(); });
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onmessage = function (e) {
      var msg = JSON.parse(e.data);
      if (msg.type === "INITIAL") { version = 0; }
      apply(msg.view);
    };
    ws.onclose = function () { setTimeout(connect, 2000); };
  }

  document.getElementById("rdm-refresh").addEventListener("click", function () {
    post("/api/refresh");
  });

  root.querySelector(".rdm-notice-dismiss").addEventListener("click", function () {
    var id = parseInt(root.querySelector(".rdm-notice").getAttribute("data-notice-id"), 10);
    post("/api/notice/dismiss", id ? { notice_id: id } : null);
  });

  root.addEventListener("click", function (e) {
    var btn = e.target.closest("button[data-kind]");
    if (!btn || btn.disabled) { return; }
    var id = btn.getAttribute("data-order-id") || btn.getAttribute("data-agent-id");
    post("/api/actions", {
      kind: btn.getAttribute("data-kind"),
      entity_id: parseInt(id, 10),
      value: btn.getAttribute("data-status"),
      control_id: btn.getAttribute("data-control-id")
    }).then(function (res) {
      if (!res.success) { return; }
      var base = "/api/actions/" + encodeURIComponent(res.confirmation_id);
      post(base + (window.confirm(res.prompt) ? "/confirm" : "/cancel"));
    });
  });

  connect();
})();
</script>
</body>
</html>
`
