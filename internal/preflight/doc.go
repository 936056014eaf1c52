// Package preflight validates the environment before a conversion run:
// cache readability, destination writability, and free disk space.
package preflight
