package scheduler

import (
	"time"

	"github.com/rs/zerolog/log"
)

type Task interface {
	Run() error
}

// Scheduler runs registered tasks at fixed intervals, each in its own
// goroutine. Tasks run once immediately when the scheduler starts.
type Scheduler struct {
	tasks []*scheduledTask
}

type scheduledTask struct {
	task     Task
	interval time.Duration
	stop     chan struct{}
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) ScheduleTask(task Task, interval time.Duration) {
	s.tasks = append(s.tasks, &scheduledTask{
		task:     task,
		interval: interval,
		stop:     make(chan struct{}),
	})
}

func (s *Scheduler) Start() {
	for _, st := range s.tasks {
		go func(st *scheduledTask) {
			run := func() {
				if err := st.task.Run(); err != nil {
					log.Error().Err(err).Msg("scheduled task failed")
				}
			}
			run()

			ticker := time.NewTicker(st.interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					run()
				case <-st.stop:
					return
				}
			}
		}(st)
	}
}

func (s *Scheduler) Stop() {
	for _, st := range s.tasks {
		close(st.stop)
	}
}
