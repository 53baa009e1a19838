package dynamo

import (
	"context"
	"runtime"
	"sync"
)

// ForEach runs fn for every index in [0, n) on at most workers goroutines.
// Each call must own its data; fn is never invoked twice for the same index.
// The first error is returned after all started jobs finish. Jobs not yet
// started when ctx is canceled are skipped.
func ForEach(ctx context.Context, n, workers int, fn func(ctx context.Context, idx int) error) error {
	if n <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	jobs := make(chan int)
	errs := make([]error, n)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				errs[idx] = fn(ctx, idx)
			}
		}()
	}

	canceled := false
feed:
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			canceled = true
			break
		}
		select {
		case <-ctx.Done():
			canceled = true
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	if canceled {
		return ErrContextCanceled
	}
	return nil
}
