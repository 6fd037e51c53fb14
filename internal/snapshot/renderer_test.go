package snapshot

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landq/internal/platform/config"
)

func testConfig() config.Snapshot {
	return config.Snapshot{
		ViewportPx:    1000,
		Timeout:       time.Second,
		TempDir:       "/tmp",
		TileURL:       "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		LeafletCSSURL: "https://unpkg.com/leaflet/dist/leaflet.css",
		LeafletJSURL:  "https://unpkg.com/leaflet/dist/leaflet.js",
	}
}

func TestBuildPage(t *testing.T) {
	r := New(testConfig())

	coords := [][2]float64{{6.42, 3.43}, {6.43, 3.43}, {6.43, 3.44}}
	html, err := r.buildPage(coords)
	require.NoError(t, err)

	page := string(html)
	assert.Contains(t, page, "[[6.42,3.43],[6.43,3.43],[6.43,3.44]]")
	assert.Contains(t, page, "color: 'yellow'")
	assert.Contains(t, page, "color: 'red'")
	assert.Contains(t, page, "polygon.getBounds().pad(1)")
	assert.Contains(t, page, "width:1000px")
	assert.Contains(t, page, "window.__tilesLoaded = true")
}

func TestBuildPageIsDeterministic(t *testing.T) {
	r := New(testConfig())
	coords := [][2]float64{{6.42, 3.43}, {6.43, 3.43}, {6.43, 3.44}}

	a, err := r.buildPage(coords)
	require.NoError(t, err)
	b, err := r.buildPage(coords)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildPageSingleVertex(t *testing.T) {
	// Degenerate polygons are rendered as-is; no minimum-vertex validation.
	r := New(testConfig())
	html, err := r.buildPage([][2]float64{{6.42, 3.43}})
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(html), "[[6.42,3.43]]"))
}

func TestRenderRejectsEmptyPolygon(t *testing.T) {
	r := New(testConfig())
	_, err := r.Render(context.Background(), nil)
	assert.Error(t, err)
}
