package scheduler

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Job is a named task run every Interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context)
}

// scheduledJob is a Job in the priority queue.
type scheduledJob struct {
	job     Job
	nextRun time.Time
	index   int
}

// priorityQueue implements heap.Interface ordered by nextRun.
type priorityQueue []*scheduledJob

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].nextRun.Before(pq[j].nextRun)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*scheduledJob)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// Scheduler runs periodic maintenance jobs such as catalog rescans and history pruning.
type Scheduler struct {
	mu      sync.Mutex
	pq      priorityQueue
	wake    chan struct{}
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	jobs    sync.WaitGroup
	now     func() time.Time
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{wake: make(chan struct{}, 1), now: time.Now}
}

// Add schedules job. The first run happens one Interval after Add.
func (s *Scheduler) Add(job Job) error {
	if job.Interval <= 0 {
		return fmt.Errorf("job %q: interval must be positive", job.Name)
	}
	if job.Run == nil {
		return fmt.Errorf("job %q: no run function", job.Name)
	}

	s.mu.Lock()
	nextRun := s.now().Add(job.Interval)
	heap.Push(&s.pq, &scheduledJob{job: job, nextRun: nextRun})
	s.mu.Unlock()

	log.Info().Str("job", job.Name).Dur("interval", job.Interval).Time("first_run_at", nextRun).Msg("Job added to scheduler")
	s.poke()
	return nil
}

// Len returns the number of scheduled jobs.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pq.Len()
}

func (s *Scheduler) poke() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Start begins the scheduler loop. It stops when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	log.Info().Msg("Scheduler started")
	go s.loop(ctx)
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)
	for {
		timer := time.NewTimer(s.untilNext())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
			s.runDue(ctx)
		}
	}
}

// untilNext returns the delay before the earliest job, or a day when idle.
func (s *Scheduler) untilNext() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pq.Len() == 0 {
		return 24 * time.Hour
	}
	d := s.pq[0].nextRun.Sub(s.now())
	if d < 0 {
		return 0
	}
	return d
}

func (s *Scheduler) runDue(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for s.pq.Len() > 0 && !s.pq[0].nextRun.After(now) {
		item := heap.Pop(&s.pq).(*scheduledJob)

		log.Debug().Str("job", item.job.Name).Msg("Executing scheduled job")
		s.jobs.Add(1)
		go func(job Job) {
			defer s.jobs.Done()
			job.Run(ctx)
		}(item.job)

		item.nextRun = now.Add(item.job.Interval)
		heap.Push(&s.pq, item)
	}
}

// Stop halts the loop and waits for running jobs to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	s.jobs.Wait()
	log.Info().Msg("Scheduler stopped")
}
