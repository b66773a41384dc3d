package rtm

import (
	"github.com/ethereum/go-ethereum/log"
)

// DefaultFeeLock is the amount locked for fees at the start of every manifest.
const DefaultFeeLock = "100"

// DefaultHotCacheSize is the number of templates kept in memory by a TemplateCache.
const DefaultHotCacheSize = 64

// CompileOption configures Compile.
type CompileOption func(*compileConfig)

// compileConfig holds configuration for Compile.
type compileConfig struct {
	feeLock string
}

// defaultCompileConfig returns the default compile configuration.
func defaultCompileConfig() *compileConfig {
	return &compileConfig{
		feeLock: DefaultFeeLock,
	}
}

// WithFeeLock sets the decimal amount locked for fees.
// Default is 100. Empty amounts are ignored.
func WithFeeLock(amount string) CompileOption {
	return func(c *compileConfig) {
		if amount != "" {
			c.feeLock = amount
		}
	}
}

// CacheOption configures a TemplateCache.
type CacheOption func(*cacheConfig)

type cacheConfig struct {
	hotSize int
	logger  log.Logger
}

func defaultCacheConfig() *cacheConfig {
	return &cacheConfig{
		hotSize: DefaultHotCacheSize,
		logger:  log.Root(),
	}
}

// WithHotCacheSize sets how many templates are kept in memory in front of
// the store. Values below 1 are raised to 1.
func WithHotCacheSize(n int) CacheOption {
	return func(c *cacheConfig) {
		if n < 1 {
			n = 1
		}
		c.hotSize = n
	}
}

// WithCacheLogger sets the logger used for cache hits and misses.
func WithCacheLogger(l log.Logger) CacheOption {
	return func(c *cacheConfig) {
		c.logger = l
	}
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	cache       *TemplateCache
	caller      string
	logger      log.Logger
	compileOpts []CompileOption
}

func defaultSessionConfig() *sessionConfig {
	return &sessionConfig{
		logger: log.Root(),
	}
}

// WithTemplateCache sets the cache used to memoize compiled templates.
// Default is an in-memory cache.
func WithTemplateCache(c *TemplateCache) SessionOption {
	return func(s *sessionConfig) {
		s.cache = c
	}
}

// WithCaller sets the registry name of the account that signs calls.
func WithCaller(account string) SessionOption {
	return func(s *sessionConfig) {
		s.caller = account
	}
}

// WithLogger sets the session logger.
func WithLogger(l log.Logger) SessionOption {
	return func(s *sessionConfig) {
		s.logger = l
	}
}

// WithCompileOptions sets the options used for every compilation in the
// session. They must stay fixed for the lifetime of a template store.
func WithCompileOptions(opts ...CompileOption) SessionOption {
	return func(s *sessionConfig) {
		s.compileOpts = append(s.compileOpts, opts...)
	}
}
