package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Job — одна фоновая задача на своем интервале
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error

	running atomic.Bool
}

// Scheduler запускает фиксированный набор задач, каждую на своем тикере.
// Пересечение запусков одной задачи исключено: если прошлый тик еще
// работает, очередной пропускается, а не встает в очередь. Задачи разных
// категорий работают параллельно и друг другу не мешают.
type Scheduler struct {
	jobs       []*Job
	runTimeout time.Duration
	wg         sync.WaitGroup
}

func New(runTimeout time.Duration) *Scheduler {
	if runTimeout <= 0 {
		runTimeout = 2 * time.Minute
	}
	return &Scheduler{runTimeout: runTimeout}
}

func (s *Scheduler) AddJob(name string, interval time.Duration, run func(ctx context.Context) error) {
	s.jobs = append(s.jobs, &Job{Name: name, Interval: interval, Run: run})
}

// Start запускает все задачи. Возврат из ctx останавливает тикеры;
// тики, начатые до отмены, дорабатывают до конца.
func (s *Scheduler) Start(ctx context.Context) {
	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runLoop(ctx, job)
	}
	logrus.Printf("Планировщик запущен, задач: %d", len(s.jobs))
}

// Wait блокируется до завершения всех задач
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, job *Job) {
	defer s.wg.Done()

	s.spawnTick(job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.spawnTick(job)
		}
	}
}

// spawnTick выполняет тик в своей горутине: цикл тикера не занят
// медленным запуском, и совпавший по времени тик увидит running и
// пропустится, а не дождется своей очереди.
func (s *Scheduler) spawnTick(job *Job) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.tick(job)
	}()
}

// tick выполняет один запуск задачи, если предыдущий уже закончился.
// Контекст запуска намеренно не наследует ctx остановки: начатый тик
// не прерывается посреди записи, у него только собственный таймаут.
func (s *Scheduler) tick(job *Job) {
	if !job.running.CompareAndSwap(false, true) {
		logrus.Printf("Задача %s еще работает, тик пропущен", job.Name)
		return
	}
	defer job.running.Store(false)

	runID := uuid.NewString()
	logrus.Printf("Задача %s: запуск run=%s", job.Name, runID)

	runCtx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
	defer cancel()

	if err := job.Run(runCtx); err != nil {
		logrus.Printf("Задача %s (run=%s): %v", job.Name, runID, err)
	}
}
