package tournament

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// runParallel plays chunks on a worker pool and writes them from a single
// goroutine in enumeration order. At most window chunks are in flight, which
// bounds the reorder buffer when one match runs long.
func (t *Tournament) runParallel(ctx context.Context, w *writer) error {
	workers := t.cfg.Workers
	window := workers * 4

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan Chunk, workers)
	results := make(chan chunkResult, workers)
	slots := make(chan struct{}, window)

	// Producer
	g.Go(func() error {
		defer close(jobs)
		gen := t.Generator()
		for {
			select {
			case slots <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			chunk, ok := gen.Next()
			if !ok {
				return nil
			}
			select {
			case jobs <- chunk:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for chunk := range jobs {
				res, err := t.playChunk(chunk)
				if err != nil {
					return err
				}
				select {
				case results <- res:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	// Writer
	g.Go(func() error {
		pending := make(map[int]chunkResult)
		next := 0
		for res := range results {
			pending[res.chunk.Index] = res
			for {
				r, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				if err := w.write(gctx, r); err != nil {
					return err
				}
				next++
				<-slots
			}
		}
		return gctx.Err()
	})

	return g.Wait()
}
