// Package staffgate provides the embedded staff portal templates and static assets.
package staffgate

import "embed"

// In dev mode (IsDev=true), templates and assets are loaded from disk for hot reloading.
// In production mode, they are served from these embedded filesystems.

//go:embed all:frontend/static
var StaticFS embed.FS

//go:embed all:frontend/templates
var TemplateFS embed.FS
