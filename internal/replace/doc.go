// Package replace implements the colour replacement engine.
//
// A RuleSet is an ordered list of (source, target, tolerance) rules. For every
// pixel of a Raster the rules are tried in order; the first rule whose source
// colour lies within tolerance/100 of the pixel fires and the rest are skipped.
//
// # Distance
//
// Distance is a "redmean" weighted Euclidean approximation normalized by 765.
// When either colour is fully transparent only the alpha channels are compared,
// so a "transparent" source matches exactly the pixels whose alpha is 0 at
// tolerance 0.
//
// # Alpha
//
// A firing rule always writes the target's RGB. Alpha is written only when the
// rule toggles transparency (its source or target is "transparent"); a plain
// colour swap keeps each pixel's original alpha, so antialiased edges survive.
//
// # Errors
//
// A rule whose source or target does not decode is skipped. Nothing in this
// package fails at pixel or frame level; malformed buffers are the caller's
// responsibility (see imaging.Raster.Validate).
package replace
