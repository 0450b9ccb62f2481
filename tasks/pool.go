package tasks

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// progressEvery is how many finished units pass between progress reports
const progressEvery = 32

// progressRange maps a phase's own 0-100% onto a slice of the task's progress
type progressRange struct {
	from, span float32
}

var fullRange = progressRange{from: 0, span: 100}

// runUnits runs fn for units 0..n-1 on at most workers goroutines. The
// cancellation flag is checked before each unit; once it is set no further
// unit starts. It reports whether every unit ran.
func runUnits(task *TrackableTask, n, workers int, pr progressRange, fn func(i int)) bool {
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var finished atomic.Int64

	report := func() {
		done := finished.Add(1)
		if done%progressEvery == 0 || int(done) == n {
			task.setProgress(pr.from + pr.span*float32(done)/float32(n))
		}
	}

	for i := 0; i < n; i++ {
		sem <- struct{}{}
		if task.IsCancelled() {
			<-sem
			break
		}

		wg.Add(1)
		go func(i int) {
			defer func() {
				<-sem
				wg.Done()
			}()
			fn(i)
			report()
		}(i)
	}
	wg.Wait()
	return int(finished.Load()) == n
}
