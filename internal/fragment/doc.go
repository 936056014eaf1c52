// Package fragment loads and validates the ordered fragment sequence of one
// stream variant. Assembly enumerates fresh from disk every run, verifies
// the sequence indices form a dense 0-based range, and exposes the payload
// lazily so a large title never has to fit in memory.
package fragment
