// Command bvdump converts the bilibili client's private on-disk cache into
// playable MP4 files.
package main
