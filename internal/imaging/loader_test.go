package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// writeTestImage encodes img as PNG under dir/name and returns the path.
func writeTestImage(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// createTestImage writes a solid-colour PNG and returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	return writeTestImage(t, t.TempDir(), "test.png", createInMemoryImage(width, height, c))
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 100, 60, color.RGBA{255, 0, 0, 255})

	img1, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if b := img1.Bounds(); b.Dx() != 100 || b.Dy() != 60 {
		t.Errorf("unexpected dimensions: got %dx%d, want 100x60", b.Dx(), b.Dy())
	}

	// Second load should return cached image
	img2, err := cache.Load(imgPath)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load did not return cached image")
	}
	if cache.Len() != 1 {
		t.Errorf("Len: got %d, want 1", cache.Len())
	}
}

func TestImageCache_Load_Errors(t *testing.T) {
	cache := NewImageCache()

	if _, err := cache.Load("/nonexistent/path/to/image.png"); err == nil {
		t.Error("Load should fail for non-existent file")
	}

	bad := filepath.Join(t.TempDir(), "invalid.png")
	if err := os.WriteFile(bad, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Load(bad); err == nil {
		t.Error("Load should fail for invalid image data")
	}
	if cache.Len() != 0 {
		t.Errorf("failed loads should not be cached, Len = %d", cache.Len())
	}
}

func TestImageCache_LoadRaster_IsPrivateCopy(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 4, 4, color.NRGBA{10, 20, 30, 255})

	r1, err := cache.LoadRaster(imgPath)
	if err != nil {
		t.Fatalf("LoadRaster failed: %v", err)
	}
	if r1.Width != 4 || r1.Height != 4 || len(r1.Pix) != 64 {
		t.Fatalf("raster shape: %dx%d, %d bytes", r1.Width, r1.Height, len(r1.Pix))
	}
	if !bytes.Equal(r1.Pix[:4], []byte{10, 20, 30, 255}) {
		t.Errorf("first pixel: got %v", r1.Pix[:4])
	}

	// mutating one raster must not leak into the next load
	r1.Pix[0] = 99
	r2, err := cache.LoadRaster(imgPath)
	if err != nil {
		t.Fatalf("second LoadRaster failed: %v", err)
	}
	if r2.Pix[0] != 10 {
		t.Errorf("cached source was mutated: got %d, want 10", r2.Pix[0])
	}
}

func TestImageCache_ClearAndEvict(t *testing.T) {
	cache := NewImageCache()
	dir := t.TempDir()
	a := writeTestImage(t, dir, "a.png", createInMemoryImage(5, 5, color.White))
	b := writeTestImage(t, dir, "b.png", createInMemoryImage(5, 5, color.Black))

	for _, p := range []string{a, b} {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load(%s) failed: %v", p, err)
		}
	}

	cache.Evict(a)
	cache.Evict("/nonexistent/path")
	if cache.Len() != 1 {
		t.Errorf("Len after Evict: got %d, want 1", cache.Len())
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Len after Clear: got %d, want 0", cache.Len())
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 50, 50, color.RGBA{128, 128, 128, 255})

	var wg sync.WaitGroup
	errs := make(chan error, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.LoadRaster(imgPath); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent LoadRaster error: %v", err)
	}
}

func TestDecodeRaster(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	copy(src.Pix, []byte{1, 2, 3, 4, 250, 251, 252, 0})

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatal(err)
	}

	r, err := DecodeRaster(&buf)
	if err != nil {
		t.Fatalf("DecodeRaster failed: %v", err)
	}
	if r.Width != 2 || r.Height != 1 {
		t.Fatalf("size: got %dx%d, want 2x1", r.Width, r.Height)
	}
	// translucent and transparent pixels keep their straight colour values
	if !bytes.Equal(r.Pix[:4], []byte{1, 2, 3, 4}) {
		t.Errorf("translucent pixel: got %v", r.Pix[:4])
	}
	if r.Pix[7] != 0 {
		t.Errorf("transparent pixel alpha: got %d", r.Pix[7])
	}

	if _, err := DecodeRaster(bytes.NewReader([]byte("junk"))); err == nil {
		t.Error("DecodeRaster should fail for junk input")
	}
}

func TestLoadImageInfo(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 200, 150, color.RGBA{255, 128, 64, 255})

	info, err := LoadImageInfo(cache, imgPath)
	if err != nil {
		t.Fatalf("LoadImageInfo failed: %v", err)
	}

	if info.Width != 200 || info.Height != 150 {
		t.Errorf("size: got %dx%d, want 200x150", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
	if info.FileSizeBytes <= 0 {
		t.Error("FileSizeBytes should be positive")
	}

	if _, err := LoadImageInfo(cache, "/nonexistent/image.png"); err == nil {
		t.Error("LoadImageInfo should fail for non-existent file")
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"a.png":       "png",
		"a.JPG":       "jpeg",
		"a.jpeg":      "jpeg",
		"a.gif":       "gif",
		"a.bmp":       "bmp",
		"scan.tif":    "tiff",
		"scan.tiff":   "tiff",
		"photo.webp":  "webp",
		"noextension": "unknown",
		"a.xyz":       "unknown",
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q): got %s, want %s", path, got, want)
		}
	}
}

func TestGetDimensions(t *testing.T) {
	cache := NewImageCache()
	imgPath := createTestImage(t, 300, 200, color.RGBA{100, 100, 100, 255})

	dims, err := GetDimensions(cache, imgPath)
	if err != nil {
		t.Fatalf("GetDimensions failed: %v", err)
	}
	if dims.Width != 300 || dims.Height != 200 {
		t.Errorf("size: got %dx%d, want 300x200", dims.Width, dims.Height)
	}

	if _, err := GetDimensions(cache, "/nonexistent/image.png"); err == nil {
		t.Error("GetDimensions should fail for non-existent file")
	}
}
