// Package export turns finished rasters into downloadable bytes: a single PNG
// for one image, or a zip archive of PNGs for several.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/klauspost/compress/zip"

	rasters "github.com/ironsheep/color-replace-mcp/internal/imaging"
)

// ArchiveName is the file name given to multi-image exports.
const ArchiveName = "color-replaced-images.zip"

// ErrNothingToExport is returned when Export is called without items.
var ErrNothingToExport = errors.New("nothing to export")

// Item is one raster to export. Name is usually the source file name and may
// be empty.
type Item struct {
	Name   string
	Raster *rasters.Raster
}

// Artifact is an encoded export ready to be written out.
type Artifact struct {
	Name     string   `json:"name"`
	MimeType string   `json:"mime_type"`
	Entries  []string `json:"entries,omitempty"`
	Data     []byte   `json:"-"`
}

// Export encodes items. One item yields a PNG named after it; more yield a zip
// archive whose entries keep the given order. Rasters with no pixels are
// rejected with ErrMalformedRaster.
//
// Entries are named after their item with a ".png" extension, falling back to
// "image-N.png" (N counting from 1) when the name is empty. Repeated names get
// a "-2", "-3", ... suffix.
func Export(items []Item) (*Artifact, error) {
	if len(items) == 0 {
		return nil, ErrNothingToExport
	}
	for i, it := range items {
		if err := it.Raster.Validate(); err != nil {
			return nil, fmt.Errorf("item %d (%s): %w", i+1, it.Name, err)
		}
		if it.Raster.Width == 0 || it.Raster.Height == 0 {
			return nil, fmt.Errorf("item %d (%s): %w: empty %dx%d raster",
				i+1, it.Name, rasters.ErrMalformedRaster, it.Raster.Width, it.Raster.Height)
		}
	}

	names := entryNames(items)

	if len(items) == 1 {
		data, err := EncodePNG(items[0].Raster)
		if err != nil {
			return nil, err
		}
		return &Artifact{Name: names[0], MimeType: "image/png", Data: data}, nil
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	modified := time.Now()

	for i, it := range items {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     names[i],
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to archive: %w", names[i], err)
		}
		if err := encodePNG(w, it.Raster); err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", names[i], err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish archive: %w", err)
	}

	return &Artifact{
		Name:     ArchiveName,
		MimeType: "application/zip",
		Entries:  names,
		Data:     buf.Bytes(),
	}, nil
}

// EncodePNG encodes r as a PNG.
func EncodePNG(r *rasters.Raster) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := encodePNG(&buf, r); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func encodePNG(w io.Writer, r *rasters.Raster) error {
	return imaging.Encode(w, r.Image(), imaging.PNG)
}

// PNGName swaps the extension of a file name for ".png", dropping any
// directory part. The empty string stays empty.
func PNGName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) || base == "" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".png"
}

func entryNames(items []Item) []string {
	names := make([]string, len(items))
	used := make(map[string]bool, len(items))

	for i, it := range items {
		name := PNGName(it.Name)
		if name == "" {
			name = fmt.Sprintf("image-%d.png", i+1)
		}

		candidate := name
		for n := 2; used[candidate]; n++ {
			candidate = fmt.Sprintf("%s-%d.png", strings.TrimSuffix(name, ".png"), n)
		}
		used[candidate] = true
		names[i] = candidate
	}
	return names
}
