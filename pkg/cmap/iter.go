package cmap

// Range iterates over all key-value pairs.
//
// The callback returns false to stop iteration. It must not call back
// into the map for a key in the shard being visited.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.items {
			if !fn(k, v) {
				s.mu.RUnlock()
				return
			}
		}
		s.mu.RUnlock()
	}
}

// Keys returns all keys.
func (m *Map[V]) Keys() []string {
	keys := make([]string, 0, m.Count())
	m.Range(func(key string, _ V) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// RangeWithLimit iterates over at most limit key-value pairs and returns
// how many were visited.
func (m *Map[V]) RangeWithLimit(limit int, fn func(key string, value V) bool) int {
	count := 0
	for _, s := range m.shards {
		s.mu.RLock()
		for k, v := range s.items {
			if count >= limit || !fn(k, v) {
				s.mu.RUnlock()
				return count
			}
			count++
		}
		s.mu.RUnlock()
	}
	return count
}
