package rtm

import (
	"testing"

	"github.com/ethereum/go-ethereum/log"
)

func TestDefaultCompileConfig(t *testing.T) {
	config := defaultCompileConfig()

	t.Run("fee lock is DefaultFeeLock by default", func(t *testing.T) {
		if config.feeLock != DefaultFeeLock {
			t.Errorf("Expected feeLock to be %s, got %s", DefaultFeeLock, config.feeLock)
		}
	})
}

func TestWithFeeLock(t *testing.T) {
	t.Run("sets custom fee lock", func(t *testing.T) {
		config := defaultCompileConfig()
		WithFeeLock("12.5")(config)

		if config.feeLock != "12.5" {
			t.Errorf("Expected feeLock to be 12.5, got %s", config.feeLock)
		}
	})

	t.Run("ignores empty amount", func(t *testing.T) {
		config := defaultCompileConfig()
		WithFeeLock("")(config)

		if config.feeLock != DefaultFeeLock {
			t.Errorf("Expected feeLock to stay %s, got %s", DefaultFeeLock, config.feeLock)
		}
	})
}

func TestCacheOptions(t *testing.T) {
	t.Run("hot size defaults to DefaultHotCacheSize", func(t *testing.T) {
		config := defaultCacheConfig()
		if config.hotSize != DefaultHotCacheSize {
			t.Errorf("Expected hotSize to be %d, got %d", DefaultHotCacheSize, config.hotSize)
		}
	})

	t.Run("hot size below one is raised", func(t *testing.T) {
		config := defaultCacheConfig()
		WithHotCacheSize(0)(config)

		if config.hotSize != 1 {
			t.Errorf("Expected hotSize to be 1, got %d", config.hotSize)
		}
	})

	t.Run("sets logger", func(t *testing.T) {
		config := defaultCacheConfig()
		logger := log.New("component", "cache")
		WithCacheLogger(logger)(config)

		if config.logger != logger {
			t.Error("Expected the custom logger")
		}
	})
}

func TestSessionOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		config := defaultSessionConfig()
		if config.cache != nil || config.caller != "" || len(config.compileOpts) != 0 {
			t.Errorf("Unexpected defaults %+v", config)
		}
		if config.logger == nil {
			t.Error("Expected a default logger")
		}
	})

	t.Run("compile options accumulate", func(t *testing.T) {
		config := defaultSessionConfig()
		WithCompileOptions(WithFeeLock("1"))(config)
		WithCompileOptions(WithFeeLock("2"))(config)

		if len(config.compileOpts) != 2 {
			t.Errorf("Expected 2 compile options, got %d", len(config.compileOpts))
		}
	})

	t.Run("session compiles with its options", func(t *testing.T) {
		s := NewSession(newTestRegistry(), EngineFunc(nil), WithCaller("default"), WithCompileOptions(WithFeeLock("7")))
		text, err := s.Template(NewMethod("noop"))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		lock := block("CALL_METHOD", `ComponentAddress("${fee_payer_address}")`, `"lock_fee"`, `Decimal("7")`)
		if text[:len(lock)] != lock {
			t.Errorf("Expected the custom fee lock, got:\n%s", text)
		}
	})

	t.Run("sets cache and caller", func(t *testing.T) {
		cache := NewMemoryTemplateCache()
		s := NewSession(newTestRegistry(), EngineFunc(nil), WithTemplateCache(cache), WithCaller("treasury"))
		if s.Cache() != cache || s.Caller() != "treasury" {
			t.Error("Expected options to be applied")
		}
		if s.Registry() == nil {
			t.Error("Expected the registry to be kept")
		}
	})
}
