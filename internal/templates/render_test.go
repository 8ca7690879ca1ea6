package templates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedTemplates(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	html, err := r.Render("notice", "Could not add place")
	require.NoError(t, err)
	assert.Contains(t, html, `role="alert"`)
	assert.Contains(t, html, "Could not add place")

	html, err = r.Render("notice", "")
	require.NoError(t, err)
	assert.Contains(t, html, "notice closed")

	html, err = r.Render("empty-state", map[string]string{"Title": "No data", "Message": "<none>"})
	require.NoError(t, err)
	assert.Contains(t, html, "No data")
	assert.Contains(t, html, "&lt;none&gt;")

	html, err = r.Render("dialog", map[string]any{"Open": false})
	require.NoError(t, err)
	assert.Contains(t, html, "dialog closed")

	_, err = r.Render("no-such-template", nil)
	assert.Error(t, err)
	assert.Panics(t, func() { r.MustRender("no-such-template", nil) })
}

func TestFuncs(t *testing.T) {
	dict := funcMap["dict"].(func(...any) map[string]any)
	assert.Equal(t, map[string]any{"a": 1, "b": "x"}, dict("a", 1, "b", "x"))
	assert.Nil(t, dict("odd"))

	js := funcMap["json"].(func(any) string)
	assert.Equal(t, "{\n  \"a\": 1\n}", js(map[string]int{"a": 1}))
}

func TestReloadFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "fragments"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pages"), 0o755))
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("fragments/a.html", `{{define "greet"}}hello {{.}}{{end}}`)
	write("pages/p.html", `{{define "page"}}<p>{{template "greet" .}}</p>{{end}}`)

	r, err := NewFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "<p>hello vine</p>", r.MustRender("page", "vine"))

	write("fragments/a.html", `{{define "greet"}}bye {{.}}{{end}}`)
	require.NoError(t, r.Reload(dir))
	assert.Equal(t, "<p>bye vine</p>", r.MustRender("page", "vine"))
}
