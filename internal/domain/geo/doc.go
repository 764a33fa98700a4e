// Package geo holds the coordinate types of the proximity alarm and the
// geodesic distance used to compare a position with the destination.
package geo
