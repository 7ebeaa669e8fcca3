// Package regrid resamples latitude/longitude grids onto a target bounding box and resolution.
//
// The adaptive engine picks one of three strategies from the ratio between the
// source and target resolution:
//
//   - target >= 4x source: binned aggregation (mean of the source cells in each target cell)
//   - target <= source/4: linear interpolation
//   - otherwise: interpolate to a quarter of the source resolution, then aggregate
//
// Aggregation masks target cells with more than 10% missing contributions.
// Backends are looked up by method name through a Registry; the conservative
// (area-weighted) backend can be switched off by configuration.
package regrid
