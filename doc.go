// Package stwarp de-warps flat images through a precomputed ST (coordinate) map.
//
// The map is loaded once (OpenEXR or 16-bit PNG/TIFF), then every input image in a folder
// is decoded, resampled through the map with Lanczos interpolation and written as a
// metadata-free JPEG. Files are converted concurrently by a fixed-size worker pool.
//
// Output JPEGs have the map's dimensions unless Options.Width or Options.Height request
// a post-resize (Lanczos3); setting only one of them keeps the aspect ratio.
package stwarp
