// Package persistence provides small, portable durability primitives shared by the
// packages that write binary files to disk: a CRC32 checksum reader/writer pair and an
// atomic temp-file-then-rename save/load helper. Byte layouts themselves are owned by
// the packages that use it: hnsw's diagnostic snapshot writes through the checksum pair,
// and fsutil's backup copy through the atomic save helper. vectorlog does its own file
// I/O and does not use this package.
package persistence
