package httpapi

const indexHTML = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Personal Chatbot</title>
<style>
body { font-family: sans-serif; max-width: 760px; margin: 2em auto; }
.msg { padding: .5em .8em; margin: .4em 0; border-radius: 6px; white-space: pre-wrap; }
.human { background: #e8f0fe; }
.assistant { background: #f1f3f4; }
#err { color: #b00020; }
</style>
</head>
<body>
<h1>Personal <span style="color:#1a73e8">Chatbot</span></h1>
<label>Model <select id="model"></select></label>
<div id="log"></div>
<div id="err"></div>
<form id="form"><input id="input" size="70" placeholder="Write a message" autocomplete="off"></form>
<script>
const log = document.getElementById('log'), input = document.getElementById('input'),
      sel = document.getElementById('model'), errBox = document.getElementById('err');

function bubble(role, text) {
  const d = document.createElement('div');
  d.className = 'msg ' + role; d.textContent = text; log.appendChild(d); return d;
}

async function load() {
  const [models, state, msgs] = await Promise.all(
    ['/api/models', '/api/state', '/api/messages'].map(u => fetch(u).then(r => r.json())));
  sel.innerHTML = '';
  models.data.models.forEach((m, i) => {
    const o = new Option(m, m); o.selected = i === state.data.selected_index; sel.add(o);
  });
  if (state.data.selected_index < 0) sel.selectedIndex = -1;
  log.innerHTML = '';
  msgs.data.messages.forEach(m => bubble(m.role, m.content));
  input.disabled = state.data.input_disabled;
}

sel.onchange = async () => {
  const r = await fetch('/api/config/selected_model', {method: 'PUT',
    headers: {'Content-Type': 'application/json'}, body: JSON.stringify({value: sel.value})});
  errBox.textContent = r.ok ? '' : (await r.json()).message;
};

document.getElementById('form').onsubmit = async (e) => {
  e.preventDefault();
  const text = input.value.trim();
  if (!text) return;
  input.value = ''; input.disabled = true; errBox.textContent = '';
  bubble('human', text);
  const out = bubble('assistant', '');
  const resp = await fetch('/api/messages', {method: 'POST',
    headers: {'Content-Type': 'application/json'}, body: JSON.stringify({message: text})});
  if (!resp.ok) { errBox.textContent = (await resp.json()).message; out.remove(); input.disabled = false; return; }
  const reader = resp.body.getReader(), dec = new TextDecoder();
  let buf = '';
  for (;;) {
    const {value, done} = await reader.read();
    if (done) break;
    buf += dec.decode(value, {stream: true});
    let i;
    while ((i = buf.indexOf('\n\n')) >= 0) {
      const frame = buf.slice(0, i); buf = buf.slice(i + 2);
      const data = JSON.parse(frame.split('\n').find(l => l.startsWith('data: ')).slice(6));
      if (data.type === 'token') out.textContent += data.delta;
      if (data.type === 'error') { errBox.textContent = data.message; out.remove(); }
    }
  }
  input.disabled = false; input.focus();
};

load();
</script>
</body>
</html>
`
