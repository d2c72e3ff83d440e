package backfill

type Option func(*storeConfig)

type storeConfig struct {
	maxConns int32
}

func defaultConfig() *storeConfig {
	return &storeConfig{}
}

// WithMaxConns caps the pool size. The job is sequential, so a handful of
// connections is plenty.
func WithMaxConns(n int32) Option {
	return func(cfg *storeConfig) {
		cfg.maxConns = n
	}
}
