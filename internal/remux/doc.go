// Package remux splices two assembled elementary streams into a single
// seekable output container without re-encoding. The container-level index
// is rebuilt; sample data passes through byte-for-byte. Output lands at the
// destination only via atomic rename, so failures never leave a partial
// file at the final name.
package remux
