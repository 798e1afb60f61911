package meta

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Chunks smaller than this are scanned inline.
const parallelScanThreshold = 1 << 15

// scanExtremum returns the extreme column value in the generation
// direction: the maximum for an ascending sequence, the minimum for a
// descending one. Large scans are chunked across goroutines; the combine
// step is order-independent, so the result stays deterministic.
func scanExtremum(ctx context.Context, values []int64, ascending bool) (int64, error) {
	if len(values) < parallelScanThreshold {
		return chunkExtremum(values, ascending), nil
	}

	parts := runtime.GOMAXPROCS(0)
	chunkLen := (len(values) + parts - 1) / parts

	chunks := make([][]int64, 0, parts)
	for lo := 0; lo < len(values); lo += chunkLen {
		hi := lo + chunkLen
		if hi > len(values) {
			hi = len(values)
		}
		chunks = append(chunks, values[lo:hi])
	}

	locals := make([]int64, len(chunks))
	g, ctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			locals[i] = chunkExtremum(chunk, ascending)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return chunkExtremum(locals, ascending), nil
}

func chunkExtremum(values []int64, ascending bool) int64 {
	extreme := values[0]
	for _, v := range values[1:] {
		if ascending && v > extreme {
			extreme = v
		}
		if !ascending && v < extreme {
			extreme = v
		}
	}
	return extreme
}
