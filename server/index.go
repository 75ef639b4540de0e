package server

import (
	"bytes"
	"html/template"
)

// indexTemplate is the UI shell: the live feed plus a strip of background
// thumbnails and a blur toggle, all driven by the control routes.
var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<title>Virtual Background</title>
<style>
body { font-family: sans-serif; background: #202124; color: #e8eaed; text-align: center; }
img.feed { margin-top: 1em; max-width: 90%; border-radius: 8px; }
.strip { margin: 1em; }
.strip img { width: 120px; margin: 4px; border-radius: 4px; cursor: pointer; border: 2px solid transparent; }
.strip img.active { border-color: #8ab4f8; }
button { padding: 8px 16px; margin: 4px; border-radius: 4px; border: none; cursor: pointer; }
</style>
</head>
<body>
<h2>Virtual Background</h2>
<img class="feed" src="/video_feed" alt="camera feed">
<div class="strip">
  <button onclick="pick(-1)">None</button>
  {{- range .Indices }}
  <img id="bg{{.}}" src="/backgrounds/{{.}}/thumb" onclick="pick({{.}})" alt="background {{.}}">
  {{- end }}
</div>
<button onclick="toggleBlur()">Toggle blur</button>
<script>
let blurOn = false;
function pick(i) {
  fetch('/set_background/' + i).then(r => r.json()).then(res => {
    if (res.status !== 'success') return;
    document.querySelectorAll('.strip img').forEach(el => el.classList.remove('active'));
    if (i >= 0) document.getElementById('bg' + i).classList.add('active');
  });
}
function toggleBlur() {
  blurOn = !blurOn;
  fetch('/toggle_blur/' + (blurOn ? 1 : 0));
}
</script>
</body>
</html>
`))

// renderIndex fills the shell for a store of count backgrounds.
func renderIndex(count int) []byte {
	indices := make([]int, count)
	for i := range indices {
		indices[i] = i
	}
	var buf bytes.Buffer
	// The template is static and the data a slice of ints; execution
	// cannot fail at runtime.
	_ = indexTemplate.Execute(&buf, struct{ Indices []int }{indices})
	return buf.Bytes()
}
