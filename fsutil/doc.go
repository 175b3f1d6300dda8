// Package fsutil provides the small set of filesystem helpers the engine needs beyond
// what vectorlog's own file handle covers: directory bootstrap, existence/size probes,
// a compressed backup-copy routine, and an advisory single-process lock enforcing that a
// store is never opened by two processes at once.
package fsutil
