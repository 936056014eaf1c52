// Package cache discovers the on-disk layout of the client's private video
// cache. Discovery is purely structural: it classifies the files and
// subdirectories of one title without parsing any content, so later stages
// can fail with precise errors when the layout contract is violated.
package cache
