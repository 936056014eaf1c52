// Package journal records conversion outcomes in a local SQLite database so
// repeated runs can skip titles that already produced an output.
package journal
