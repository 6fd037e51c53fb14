// Package snapshot renders a parcel's boundary polygon to a raster image
// using headless Chrome. One browser session per call, torn down
// unconditionally; the renderer keeps no state between invocations.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/chromedp/chromedp"

	"landq/internal/platform/config"
)

// pageTemplate builds the Leaflet document: tile layer, yellow polygon
// overlay, red vertex markers, viewport fit to the polygon bounds with
// uniform padding. The page flags window.__tilesLoaded once every visible
// tile has arrived so the capture never contains half-drawn tiles.
var pageTemplate = template.Must(template.New("snapshot").Parse(`<html>
<head>
  <link rel="stylesheet" href="{{.LeafletCSS}}"/>
  <style>body,html,#map{margin:0;padding:0;width:{{.Viewport}}px;height:{{.Viewport}}px;}</style>
</head>
<body>
  <div id="map"></div>
  <script src="{{.LeafletJS}}"></script>
  <script>
    const coords = {{.Coords}};
    const map = L.map('map').setView(coords[0], 18);
    const tiles = L.tileLayer('{{.TileURL}}').addTo(map);
    tiles.on('load', () => { window.__tilesLoaded = true; });
    const polygon = L.polygon(coords, { color: 'yellow' }).addTo(map);
    coords.forEach(pt => L.circleMarker(pt, { radius: 5, color: 'red' }).addTo(map));
    map.fitBounds(polygon.getBounds().pad(1));
  </script>
</body>
</html>`))

// Renderer captures boundary polygons with headless Chrome.
type Renderer struct {
	cfg config.Snapshot
}

// New builds a Renderer from configuration.
func New(cfg config.Snapshot) *Renderer {
	return &Renderer{cfg: cfg}
}

// Render captures the polygon to a PNG in the configured temp dir and returns
// its path. The caller owns deletion of the file, success or failure of
// whatever it does next. Any render or timeout error is fatal to the caller's
// pipeline; there is no retry.
func (r *Renderer) Render(ctx context.Context, coords [][2]float64) (string, error) {
	if len(coords) == 0 {
		return "", fmt.Errorf("snapshot: at least one coordinate is required")
	}

	html, err := r.buildPage(coords)
	if err != nil {
		return "", err
	}

	// The document goes through a temp file so Chrome loads it as a regular
	// navigation rather than an oversized data: URL.
	pageFile, err := os.CreateTemp(r.cfg.TempDir, "snapshot-page-*.html")
	if err != nil {
		return "", fmt.Errorf("snapshot: create page file: %w", err)
	}
	defer os.Remove(pageFile.Name())
	if _, err := pageFile.Write(html); err != nil {
		pageFile.Close()
		return "", fmt.Errorf("snapshot: write page file: %w", err)
	}
	pageFile.Close()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("no-sandbox", true),
	)
	if r.cfg.ChromeBin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(r.cfg.ChromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	runCtx, cancelRun := context.WithTimeout(browserCtx, r.cfg.Timeout)
	defer cancelRun()

	var capture []byte
	err = chromedp.Run(runCtx,
		chromedp.EmulateViewport(int64(r.cfg.ViewportPx), int64(r.cfg.ViewportPx)),
		chromedp.Navigate("file://"+pageFile.Name()),
		chromedp.Poll("window.__tilesLoaded === true", nil,
			chromedp.WithPollingInterval(100*time.Millisecond)),
		chromedp.CaptureScreenshot(&capture),
	)
	if err != nil {
		return "", fmt.Errorf("snapshot: render failed: %w", err)
	}

	name := fmt.Sprintf("snapshot-%d.png", time.Now().UnixMilli())
	path := filepath.Join(r.cfg.TempDir, name)
	if err := os.WriteFile(path, capture, 0o600); err != nil {
		return "", fmt.Errorf("snapshot: write capture: %w", err)
	}
	return path, nil
}

func (r *Renderer) buildPage(coords [][2]float64) ([]byte, error) {
	coordsJSON, err := json.Marshal(coords)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode coordinates: %w", err)
	}
	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, map[string]any{
		"LeafletCSS": r.cfg.LeafletCSSURL,
		"LeafletJS":  r.cfg.LeafletJSURL,
		"TileURL":    r.cfg.TileURL,
		"Viewport":   r.cfg.ViewportPx,
		"Coords":     string(coordsJSON),
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: render template: %w", err)
	}
	return buf.Bytes(), nil
}
