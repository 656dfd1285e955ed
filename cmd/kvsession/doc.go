// Command kvsession runs the session demo server and inspects session
// records stored in the configured key-value backend.
//
// Usage:
//
//	kvsession --config kvsession.yaml serve
//	kvsession --set kv.backend=redis sessions list --host example.com
//	kvsession config show -o json
package main
