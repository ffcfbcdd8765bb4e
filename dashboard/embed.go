// Package dashboard provides the embedded deploy board page.
//
// The page is plain HTML with inline CSS and JavaScript. It renders one row
// per server, grouped by product, and keeps the rows current from the
// /api/sse stream. All card state lives on the server; the page only sends
// card actions and draws what it receives.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Deploy board page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
