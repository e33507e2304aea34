// Package formats provides parsers for text-based model and mesh file formats.
package formats

// Note: Nastran bulk data (GRID/CTRIA3/QUAD4/TEMP) is implemented in nastran.go
// Note: Wavefront geometry is implemented in obj.go, materials in mtl.go
