package server

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/webp"
	"github.com/labstack/echo/v4"

	"pandai/pkg/utils"
)

// GET /images/:name
//
// Serves mood and reaction images. PNG sources are re-encoded to WebP
// once and cached; anything already WebP is served as-is.
func (s *Server) handleGetImage(c echo.Context) error {
	name := utils.SanitizeFilename(c.Param("name"))
	if name == "" || strings.Contains(name, "..") {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid image name")
	}

	path := filepath.Join(s.assetsDir, name)
	if !utils.Exists(path) {
		return echo.NewHTTPError(http.StatusNotFound, "image not found")
	}

	if strings.EqualFold(filepath.Ext(name), ".webp") {
		return c.File(path)
	}

	data, err := s.images.Get(name)
	if err != nil {
		c.Logger().Errorf("encode image %s: %v", name, err)
		// Encoding trouble should not hide the asset.
		return c.File(path)
	}
	return c.Blob(http.StatusOK, "image/webp", data)
}

// encodeImage is the flight-cache work function: read, decode, re-encode.
func (s *Server) encodeImage(name string) ([]byte, error) {
	raw, err := os.ReadFile(filepath.Join(s.assetsDir, name))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		// Fallback: try generic decode if not PNG.
		var err2 error
		img, _, err2 = image.Decode(bytes.NewReader(raw))
		if err2 != nil {
			return nil, fmt.Errorf("decode image (png: %v, generic: %v)", err, err2)
		}
	}

	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, webp.Options{Lossless: false, Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}
