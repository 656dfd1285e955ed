// Package command defines the kvsession command-line interface.
//
// It uses urfave/cli/v2. Commands:
//
//   - serve: run the demo HTTP server
//   - sessions list|get|delete: inspect and remove records in the
//     configured backend
//   - config show|validate: print or check the merged configuration
//   - version: print build information
package command
