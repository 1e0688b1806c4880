// Package geometry is the boundary with the external GIS engine.
//
// Point and line features arrive and leave as GeoJSON feature collections. The package
// also measures line features (length and start to end azimuth) either on the plane of
// a projected CRS or on the WGS84 sphere.
package geometry
