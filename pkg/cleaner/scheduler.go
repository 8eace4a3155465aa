package cleaner

import (
	"sync"

	"spmhost/pkg/log"
)

// Scheduler runs eviction passes in the background. Passes are detached from
// the request that triggered them and are not coordinated with each other.
type Scheduler struct {
	wg     sync.WaitGroup
	onDone func(Result)
	clean  func(source Source, maxSizeBytes int64) Result
}

// NewScheduler creates a Scheduler. onDone, if set, is called with the
// result of every finished pass.
func NewScheduler(onDone func(Result)) *Scheduler {
	return &Scheduler{
		onDone: onDone,
		clean:  Clean,
	}
}

// Schedule starts an eviction pass and returns immediately.
func (s *Scheduler) Schedule(source Source, maxSizeBytes int64) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("artifacts_dir", source.Path()).Msg("Eviction pass panicked")
			}
		}()

		result := s.clean(source, maxSizeBytes)
		if s.onDone != nil {
			s.onDone(result)
		}
	}()
}

// Wait blocks until every scheduled pass has finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
