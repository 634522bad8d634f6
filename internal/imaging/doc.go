// Package imaging loads source images and converts them to and from the raw
// pixel buffers the color replacement engine works on.
//
// # Rasters
//
// A Raster is Width × Height non-premultiplied RGBA pixels, 4 bytes each,
// row-major with no padding. Decoded images of any color model are normalized
// to this layout by FromImage. Raster.Image exposes the same pixels as an
// *image.NRGBA without copying, for encoding and resampling.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based with the origin at the
// top-left. For regions, (x1,y1) is inclusive and (x2,y2) is exclusive.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Cached images are never
// mutated; LoadRaster returns a private copy on every call.
//
// # Color Sampling
//
// SampleColor, SampleColorsMulti and DominantColors act as an eyedropper for
// picking rule colors. Colors are reported without premultiplication, so a
// sampled Hex can be used directly as a rule source.
package imaging
