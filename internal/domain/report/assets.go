package report

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	fontRegular = "DejaVuSans.ttf"
	fontBold    = "DejaVuSans-Bold.ttf"
	fontFamily  = "body"
)

type imageAsset struct {
	data   []byte
	format string
	width  int
	height int
}

// loadImage reads an optional PNG or JPEG. Any problem is logged and the
// asset is skipped.
func loadImage(path string) *imageAsset {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("report logo unavailable, using wordmark", "path", path, "err", err)
		return nil
	}
	asset, err := decodeImage(data)
	if err != nil {
		slog.Warn("report logo invalid, using wordmark", "path", path, "err", err)
		return nil
	}
	return asset
}

// decodeImage checks that data is an image gofpdf can embed. gofpdf errors
// are sticky on the document, so images are probed on a scratch document.
func decodeImage(data []byte) (*imageAsset, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	imgType := strings.ToUpper(format)
	if imgType == "JPEG" {
		imgType = "JPG"
	}
	probe := gofpdf.New("P", "mm", "A4", "")
	probe.RegisterImageOptionsReader("probe", gofpdf.ImageOptions{ImageType: imgType}, bytes.NewReader(data))
	if err := probe.Error(); err != nil {
		return nil, err
	}
	return &imageAsset{data: data, format: imgType, width: cfg.Width, height: cfg.Height}, nil
}

// loadFonts returns the font directory when both UTF-8 faces load cleanly.
func loadFonts(dir string) string {
	if strings.TrimSpace(dir) == "" {
		return ""
	}
	for _, name := range []string{fontRegular, fontBold} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			slog.Warn("report font missing, using Helvetica", "dir", dir, "font", name, "err", err)
			return ""
		}
	}
	probe := gofpdf.New("P", "mm", "A4", dir)
	probe.AddUTF8Font(fontFamily, "", fontRegular)
	probe.AddUTF8Font(fontFamily, "B", fontBold)
	if err := probe.Error(); err != nil {
		slog.Warn("report font invalid, using Helvetica", "dir", dir, "err", err)
		return ""
	}
	return dir
}
