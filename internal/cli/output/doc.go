// Package output renders kvsession CLI results as a table, JSON or YAML.
//
// Table output reads struct tags: `table:"NAME"` sets the column header
// and `table:",wide"` hides the column unless wide mode is on. Without
// a table tag the json tag name is used.
package output
