// Package cmd wires the CLI: run converts a batch once, watch converts
// a hot folder until interrupted, formats prints the engine capability
// table.
//
// Every command layers its settings the same way: reformat.yaml, then
// REFORMAT_* environment variables, then flags, with the merged result
// validated once more after flags land. SIGINT and SIGTERM cancel
// cooperatively through the shared token; a second signal force-exits.
package cmd
