// Package storage defines the key-value adapter contract used by the
// session engine and the Badger-backed implementation of it.
//
// An adapter stores opaque values under a three-part Key and owns the
// translation of that key into its native shape: a flat
// "namespace:host:id" string for memory, Redis and Badger, or a
// structured tuple for the document backend. Expiry is always delegated
// to the adapter; callers pass a TTL and never see timestamps except
// through the optional Lister capability.
//
// Sub-packages provide the remaining adapters (memory, redis, document)
// and backends.Open selects one from configuration.
package storage
