// Package profile regroups scratch records into survey profiles and smooths their
// topography.
//
// Records are sorted twice with a stable sort: first by distance, then by profile ID,
// which groups records by ID while keeping distances ascending inside each group.
// The smoothing filter is a centered moving average whose window shrinks towards the
// ends of the profile.
package profile
