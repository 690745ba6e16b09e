package folio

import (
	"bytes"
	"fmt"
	"html"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
)

const (
	defaultThumbWidth = 480
	maxThumbWidth     = 1200
	jpegQuality       = 80
)

// ThumbCache resizes images from a directory to JPEG card thumbnails and
// keeps the encoded bytes in memory until the source file changes.
type ThumbCache struct {
	dir     string
	mu      sync.Mutex
	entries map[thumbKey]thumb
}

type thumbKey struct {
	name  string
	width int
}

type thumb struct {
	modTime time.Time
	data    []byte
}

// NewThumbCache serves thumbnails of the images in dir.
func NewThumbCache(dir string) *ThumbCache {
	return &ThumbCache{dir: dir, entries: make(map[thumbKey]thumb)}
}

// Get returns a JPEG of name no wider than width. The error wraps
// os.ErrNotExist when the source image is missing.
func (t *ThumbCache) Get(name string, width int) ([]byte, error) {
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." {
		return nil, os.ErrNotExist
	}
	path := filepath.Join(t.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, os.ErrNotExist
	}

	key := thumbKey{name: name, width: width}
	t.mu.Lock()
	cached, ok := t.entries[key]
	t.mu.Unlock()
	if ok && cached.modTime.Equal(info.ModTime()) {
		return cached.data, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := resizeJPEG(f, width)
	if err != nil {
		return nil, fmt.Errorf("thumbnail %s: %w", name, err)
	}

	t.mu.Lock()
	t.entries[key] = thumb{modTime: info.ModTime(), data: data}
	t.mu.Unlock()
	return data, nil
}

// resizeJPEG decodes an image from src, scales it down to width when it is
// wider, and encodes it as JPEG.
func resizeJPEG(src io.Reader, width int) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > width {
		newH := h * width / w
		if newH < 1 {
			newH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, width, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// thumbWidth reads the ?w= query, falling back to the default for missing or
// out-of-range values.
func thumbWidth(raw string) int {
	w, err := strconv.Atoi(raw)
	if err != nil || w <= 0 || w > maxThumbWidth {
		return defaultThumbWidth
	}
	return w
}

func (a *App) handleThumb(c echo.Context) error {
	name := c.Param("file")
	width := thumbWidth(c.QueryParam("w"))
	data, err := a.thumbs.Get(name, width)
	if err != nil {
		if !os.IsNotExist(err) {
			c.Logger().Warnf("thumbnail %q: %v", name, err)
		}
		c.Response().Header().Set("Cache-Control", "no-cache")
		return c.Blob(http.StatusOK, "image/svg+xml", placeholderSVG(name, width))
	}
	return c.Blob(http.StatusOK, "image/jpeg", data)
}

// placeholderSVG is a neutral card image labelled with the file stem.
func placeholderSVG(name string, width int) []byte {
	label := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	height := width * 9 / 16
	return []byte(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
		`<rect width="100%%" height="100%%" fill="#e7e5e4"/>`+
		`<text x="50%%" y="50%%" fill="#78716c" font-family="sans-serif" font-size="18" text-anchor="middle" dominant-baseline="middle">%s</text>`+
		`</svg>`, width, height, width, height, html.EscapeString(label)))
}

// ThumbURL returns the card image URL for imageURL. Absolute URLs are used
// as-is; bare file names are served through /thumbs/.
func ThumbURL(imageURL string, width int) string {
	if imageURL == "" {
		return ""
	}
	if u, err := url.Parse(imageURL); err == nil && u.IsAbs() {
		return imageURL
	}
	if strings.HasPrefix(imageURL, "/") {
		return imageURL
	}
	return "/thumbs/" + url.PathEscape(filepath.Base(imageURL)) + "?w=" + strconv.Itoa(width)
}
