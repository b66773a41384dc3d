package rtm

import (
	"github.com/ethereum/go-ethereum/common/lru"
	"github.com/ethereum/go-ethereum/log"
)

// TemplateCache memoizes generated manifest templates by call name. A small
// in-memory LRU sits in front of the persistent store. The cache assumes a
// single writer and is not safe for concurrent use.
type TemplateCache struct {
	store  TemplateStore
	hot    *lru.Cache[string, string]
	logger log.Logger
}

// NewTemplateCache creates a cache over store.
func NewTemplateCache(store TemplateStore, opts ...CacheOption) *TemplateCache {
	cfg := defaultCacheConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &TemplateCache{
		store:  store,
		hot:    lru.NewCache[string, string](cfg.hotSize),
		logger: cfg.logger,
	}
}

// NewMemoryTemplateCache creates a cache backed by a fresh MemoryStore.
func NewMemoryTemplateCache(opts ...CacheOption) *TemplateCache {
	return NewTemplateCache(NewMemoryStore(), opts...)
}

// Store returns the persistent store behind the cache.
func (c *TemplateCache) Store() TemplateStore {
	return c.store
}

// GetOrCreate returns the template stored under name. On a miss, generate is
// called once and its output persisted. Stored text that does not look like
// a rendered manifest fails with ErrMalformedTemplate.
func (c *TemplateCache) GetOrCreate(name string, generate func() string) (string, error) {
	text, ok, err := c.load(name)
	if err != nil || ok {
		return text, err
	}

	text = generate()
	if err := c.store.Save(name, text); err != nil {
		return "", err
	}
	c.logger.Debug("Manifest template generated", "name", name, "size", len(text))
	c.hot.Add(name, text)
	return text, nil
}

// Get returns the template stored under name without generating one. A name
// with no stored template fails with ErrTemplateNotFound.
func (c *TemplateCache) Get(name string) (string, error) {
	text, ok, err := c.load(name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &TemplateNotFoundError{Name: name}
	}
	return text, nil
}

func (c *TemplateCache) load(name string) (string, bool, error) {
	if text, ok := c.hot.Get(name); ok {
		return text, true, nil
	}

	text, ok, err := c.store.Load(name)
	if err != nil || !ok {
		return "", false, err
	}
	if err := ValidateTemplate(text); err != nil {
		return "", false, &MalformedTemplateError{Name: name, Err: err}
	}
	c.logger.Debug("Manifest template cache hit", "name", name)
	c.hot.Add(name, text)
	return text, true, nil
}

// Forget drops name from the in-memory layer so the next lookup reads the store.
func (c *TemplateCache) Forget(name string) {
	c.hot.Remove(name)
}
