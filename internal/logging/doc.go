// Package logging provides colored, leveled log output for critic.
//
// A [Logger] writes one prefixed line per call. Debug output is suppressed
// unless verbose mode is enabled. The package-level [Default] logger writes
// to stderr and is what the CLI and server use unless a caller injects its
// own.
package logging
