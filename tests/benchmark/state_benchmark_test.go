package benchmark

import (
	"context"
	"strconv"
	"testing"
	"time"

	statekit "github.com/MathiasBohn/philter-mvp-sub003"
	"github.com/MathiasBohn/philter-mvp-sub003/ratelimit"
)

func BenchmarkServiceOperations(b *testing.B) {
	configs := []struct {
		name string
		opts []statekit.Option
	}{
		{
			name: "Unbounded_Cache",
		},
		{
			name: "Bounded_Cache",
			opts: []statekit.Option{statekit.WithMaxCacheEntries(1000)},
		},
		{
			name: "Cache_Disabled",
			opts: []statekit.Option{statekit.WithCacheEnabled(false)},
		},
	}

	for _, cfg := range configs {
		b.Run(cfg.name, func(b *testing.B) {
			svc := statekit.New(cfg.opts...)
			defer svc.Close()

			keys := statekit.MustKeyBuilder("bench")

			b.Run("Set", func(b *testing.B) {
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					statekit.Set(svc, keys.Key(strconv.Itoa(i%1000)), "value")
				}
			})

			b.Run("Get", func(b *testing.B) {
				for i := 0; i < 1000; i++ {
					statekit.Set(svc, keys.Key(strconv.Itoa(i)), "value")
				}
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					_ = statekit.Get(svc, keys.Key(strconv.Itoa(i%1000)), "")
				}
			})

			b.Run("Update", func(b *testing.B) {
				key := keys.Key("counter")
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					statekit.Update(svc, key, 0, func(n int) int { return n + 1 })
				}
			})
		})
	}
}

func BenchmarkNotificationFanOut(b *testing.B) {
	for _, listeners := range []int{1, 10, 100} {
		b.Run(strconv.Itoa(listeners)+"_Listeners", func(b *testing.B) {
			svc := statekit.New()
			defer svc.Close()

			key := statekit.MustStaticKey("hot")
			for i := 0; i < listeners; i++ {
				unsub := svc.Subscribe(key, func(statekit.Event) {})
				defer unsub()
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				statekit.Set(svc, key, i)
			}
		})
	}
}

func BenchmarkBatch(b *testing.B) {
	svc := statekit.New()
	defer svc.Close()

	keys := statekit.MustKeyBuilder("bench")
	for i := 0; i < 10; i++ {
		unsub := svc.Subscribe(keys.Key(strconv.Itoa(i)), func(statekit.Event) {})
		defer unsub()
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		svc.Batch(func() {
			for j := 0; j < 10; j++ {
				statekit.Set(svc, keys.Key(strconv.Itoa(j)), i)
			}
		})
	}
}

func BenchmarkLimiterCheck(b *testing.B) {
	store := ratelimit.NewMemoryStore(ratelimit.WithSweepInterval(0))
	limiter := ratelimit.New(store)
	defer limiter.Close()

	cfg := ratelimit.Config{Limit: 1 << 30, Window: time.Minute, Identifier: "bench"}
	ctx := context.Background()

	b.Run("Single_Client", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = limiter.Check(ctx, "203.0.113.5", cfg)
		}
	})

	b.Run("Many_Clients", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = limiter.Check(ctx, "203.0.113."+strconv.Itoa(i%256), cfg)
		}
	})
}
