package utils

import (
	"context"
	"sync"
)

type CompletedTask[T any] struct {
	// Index is the position of the input that produced this result.
	Index  int
	Result T
	Error  error
}

// RunInPool runs worker over every input on at most maxWorkers goroutines.
// Results arrive in completion order on the returned channel, which is closed
// once all inputs are processed. Inputs not yet started when ctx is cancelled
// complete with ctx.Err().
func RunInPool[In any, Out any](ctx context.Context, worker func(context.Context, In) (Out, error), inputs []In, maxWorkers int) <-chan CompletedTask[Out] {
	workers := max(min(len(inputs), maxWorkers), 1)

	queue := make(chan int, len(inputs))
	for i := range inputs {
		queue <- i
	}
	close(queue)

	completed := make(chan CompletedTask[Out], len(inputs))

	go func() {
		wg := sync.WaitGroup{}
		wg.Add(workers)

		for w := 0; w < workers; w++ {
			go func() {
				defer wg.Done()

				for idx := range queue {
					if err := ctx.Err(); err != nil {
						completed <- CompletedTask[Out]{Index: idx, Error: err}
						continue
					}

					res, err := worker(ctx, inputs[idx])
					if err != nil {
						completed <- CompletedTask[Out]{Index: idx, Error: err}
					} else {
						completed <- CompletedTask[Out]{Index: idx, Result: res}
					}
				}
			}()
		}

		wg.Wait()

		close(completed)
	}()

	return completed
}
