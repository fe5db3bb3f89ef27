package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithShards sets the number of lock shards.
func WithShards(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithMaxRecords bounds the records kept per store. When full, the oldest
// finished record in the target shard is dropped. Zero means unbounded.
func WithMaxRecords(n int) Option {
	return func(s *MemoryStore) {
		if n >= 0 {
			s.maxRecords = n
		}
	}
}
