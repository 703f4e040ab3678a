package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/vitalora/staffgate/internal/domain/auth"
)

func testTemplates() fstest.MapFS {
	return fstest.MapFS{
		"layout.tmpl":          {Data: []byte(`{{define "layout"}}<title>{{.Title}}</title>{{template "content" .}}{{end}}`)},
		"pages/login.tmpl":     {Data: []byte(`{{define "content"}}login {{.Mode}}{{end}}`)},
		"pages/dashboard.tmpl": {Data: []byte(`{{define "content"}}hi {{.Principal.Subject}}{{end}}`)},
	}
}

func TestTemplateRenderer_PagesDoNotCollide(t *testing.T) {
	r, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: testTemplates(), Logger: discardLogger()})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, r.Render(rec, http.StatusOK, PageLogin, pageData{Title: "Personeel", Mode: domainauth.ModeSharedCode}))
	assert.Equal(t, "<title>Personeel</title>login code", rec.Body.String())

	rec = httptest.NewRecorder()
	p := domainauth.Principal{Subject: "<b>x</b>", ExpiresAt: time.Now()}
	require.NoError(t, r.Render(rec, http.StatusOK, PageDashboard, pageData{Title: "Dashboard", Principal: p}))
	assert.Equal(t, "<title>Dashboard</title>hi &lt;b&gt;x&lt;/b&gt;", rec.Body.String())
}

func TestTemplateRenderer_UnknownPage(t *testing.T) {
	r, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: testTemplates(), Logger: discardLogger()})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.Error(t, r.Render(rec, http.StatusOK, "missing", nil))
	assert.Empty(t, rec.Body.String())
}

func TestTemplateRenderer_DevModeReparses(t *testing.T) {
	fsys := testTemplates()
	r, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: fsys, DevMode: true, Logger: discardLogger()})
	require.NoError(t, err)

	fsys["pages/login.tmpl"] = &fstest.MapFile{Data: []byte(`{{define "content"}}changed{{end}}`)}
	rec := httptest.NewRecorder()
	require.NoError(t, r.Render(rec, http.StatusOK, PageLogin, pageData{Title: "t"}))
	assert.Equal(t, "<title>t</title>changed", rec.Body.String())
}

func TestNewTemplateRenderer_Errors(t *testing.T) {
	_, err := NewTemplateRenderer(TemplateRendererConfig{})
	require.Error(t, err)

	broken := testTemplates()
	broken["pages/login.tmpl"] = &fstest.MapFile{Data: []byte(`{{define "content"}}{{.Oops`)}
	_, err = NewTemplateRenderer(TemplateRendererConfig{TemplateFS: broken, Logger: discardLogger()})
	require.Error(t, err)
}
