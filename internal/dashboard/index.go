package dashboard

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>AI Agent Playground</title>
<style>
body { margin: 0; font-family: -apple-system, "Segoe UI", Roboto, sans-serif; color: #262730; display: flex; min-height: 100vh; }
aside { width: 300px; background: #f0f2f6; padding: 24px; box-sizing: border-box; }
main { flex: 1; padding: 32px 48px; max-width: 1100px; }
h1 { margin-top: 0; }
textarea { width: 100%; height: 100px; font: inherit; padding: 8px; box-sizing: border-box; }
button { margin-top: 8px; padding: 8px 16px; font: inherit; cursor: pointer; }
.info { background: #e8f0fe; padding: 12px; border-radius: 6px; font-size: 14px; }
.warning { background: #fff8e1; border-left: 4px solid #f9a825; padding: 10px; margin: 8px 0; }
.error { background: #fdecea; border-left: 4px solid #d32f2f; padding: 10px; margin: 8px 0; }
table { border-collapse: collapse; margin: 8px 0; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: left; }
iframe { width: 100%; height: 520px; border: 0; }
img { max-width: 100%; }
#status { color: #888; font-size: 14px; }
</style>
</head>
<body>
<aside>
<h2>Agent Selector</h2>
<p>Select the model(s) to run:</p>
{{range .Modes}}<label><input type="radio" name="mode" value="{{.Value}}"{{if eq .Value $.DefaultMode}} checked{{end}}> {{.Label}}</label><br>
{{end}}
<p>Select period for the stock graph:</p>
<select id="period">
{{range .Periods}}<option value="{{.}}"{{if eq (print .) $.DefaultPeriod}} selected{{end}}>{{.}}</option>
{{end}}</select>
<h2>Instructions</h2>
<div class="info">
<ol>
<li>Use the radio button to select one or both agents.</li>
<li>Select the period for the stock graph in the sidebar.</li>
<li>Enter your query in the text area.</li>
<li>Click "Run Agent" to see the responses from the selected agents and the stock graph.</li>
<li>To compare two stocks, use a query like: "Compare NVDA and AAPL".</li>
</ol>
</div>
</aside>
<main>
<h1>AI Agent Playground</h1>
<label for="query">Enter your query:</label>
<textarea id="query"></textarea>
<button id="run">Run Agent</button>
<span id="status"></span>
<div id="output"></div>
</main>
<script>
(function () {
  var output = document.getElementById("output");
  var status = document.getElementById("status");
  var button = document.getElementById("run");
  var scheme = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = null;

  function el(tag, cls, text) {
    var e = document.createElement(tag);
    if (cls) e.className = cls;
    if (text) e.textContent = text;
    return e;
  }

  function table(t) {
    var tbl = el("table");
    var head = tbl.insertRow();
    t.header.forEach(function (h) { head.appendChild(el("th", "", h)); });
    (t.rows || []).forEach(function (r) {
      var row = tbl.insertRow();
      r.forEach(function (c) { row.insertCell().textContent = c; });
    });
    return tbl;
  }

  function show(b) {
    switch (b.kind) {
    case "subheader": output.appendChild(el("h3", "", b.text)); break;
    case "markdown":
      var d = el("div");
      if (b.html) { d.innerHTML = b.html; } else { d.textContent = b.text; }
      output.appendChild(d);
      break;
    case "table": output.appendChild(table(b.table)); break;
    case "chart":
      var f = el("iframe");
      f.srcdoc = b.html;
      output.appendChild(f);
      break;
    case "image":
      var fig = el("figure");
      var img = el("img");
      img.src = b.path + "?t=" + Date.now();
      fig.appendChild(img);
      fig.appendChild(el("figcaption", "", b.text));
      output.appendChild(fig);
      break;
    case "warning": output.appendChild(el("div", "warning", b.text)); break;
    case "error": output.appendChild(el("div", "error", b.text)); break;
    default: output.appendChild(el("p", "", b.text));
    }
  }

  function connect(onOpen) {
    ws = new WebSocket(scheme + location.host + "/ws");
    ws.onopen = onOpen;
    ws.onmessage = function (ev) {
      var msg = JSON.parse(ev.data);
      if (msg.type === "block") { show(msg.block); return; }
      if (msg.error) output.appendChild(el("div", "error", msg.error));
      status.textContent = "";
      button.disabled = false;
    };
    ws.onclose = function () { ws = null; button.disabled = false; };
  }

  button.addEventListener("click", function () {
    var mode = document.querySelector("input[name=mode]:checked");
    var req = {
      query: document.getElementById("query").value,
      mode: mode ? mode.value : "",
      period: document.getElementById("period").value
    };
    output.innerHTML = "";
    status.textContent = "Running...";
    button.disabled = true;
    var send = function () { ws.send(JSON.stringify(req)); };
    if (ws && ws.readyState === WebSocket.OPEN) { send(); } else { connect(send); }
  });
})();
</script>
</body>
</html>
`
