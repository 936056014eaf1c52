// Package metadata parses the client's per-title index into typed stream
// variants. The schema is an external contract owned by the client: parsing
// tolerates unknown fields for forward compatibility but rejects entries
// whose required fields are missing or of the wrong shape, and filters
// DRM-marked variants the converter cannot process.
package metadata
