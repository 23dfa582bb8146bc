package fetch

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/couchcryptid/heatwave-forecast-service/internal/domain"
)

// Prefetch downloads the given files concurrently with a bounded worker
// pool and returns how many are now present locally. Failures are logged
// and skipped; the sequential ingest loop retries them on its own pass.
func (f *Fetcher) Prefetch(ctx context.Context, descriptors []domain.ForecastDescriptor, workers int) int {
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan domain.ForecastDescriptor)
	var fetched atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for desc := range jobs {
				if _, err := f.Fetch(ctx, desc); err != nil {
					f.logger.Warn("prefetch failed", "file", desc.Filename, "error", err)
					continue
				}
				fetched.Add(1)
			}
		}()
	}

	for _, desc := range descriptors {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return int(fetched.Load())
		case jobs <- desc:
		}
	}
	close(jobs)
	wg.Wait()
	return int(fetched.Load())
}
