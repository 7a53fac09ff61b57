// Package cli wires together the Cobra command tree for the critic binary.
//
// It defines the root command and all subcommands (serve, review, models,
// cache, config, version), binds flags, reads configuration, builds the
// provider, completion caller and review service, and maps failures to
// deterministic exit codes.
package cli
