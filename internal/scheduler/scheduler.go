package scheduler

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/propshare/checkout/utils"
)

// Job is one recurring background task. Runs of the same job never overlap;
// a run that is still going when the next tick arrives gets rescheduled.
type Job struct {
	Name             string
	Interval         time.Duration
	StartImmediately bool
	Run              func(ctx context.Context) error
}

type Scheduler struct {
	scheduler gocron.Scheduler
}

func New(jobs ...Job) *Scheduler {
	gcScheduler, err := gocron.NewScheduler()
	if err != nil {
		panic(err.Error())
	}

	s := &Scheduler{scheduler: gcScheduler}
	for _, job := range jobs {
		s.register(job)
	}

	return s
}

func (s *Scheduler) Start() {
	s.scheduler.Start()
}

func (s *Scheduler) Stop() {
	_ = s.scheduler.Shutdown()
}

func (s *Scheduler) register(job Job) {
	opts := []gocron.JobOption{gocron.WithSingletonMode(gocron.LimitModeReschedule)}

	if job.StartImmediately {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	_, err := s.scheduler.NewJob(
		gocron.DurationJob(job.Interval),
		gocron.NewTask(runWithRecover(job)),
		opts...,
	)

	if err != nil {
		slog.Error("can't create scheduler job", slog.String("job", job.Name), slog.String("err", err.Error()))
		panic(err.Error())
	}
}

// runWithRecover tags every run with its own request id so job log lines
// correlate the same way request log lines do.
func runWithRecover(job Job) func(ctx context.Context) {
	return func(ctx context.Context) {
		ctx = utils.CreateCtxWithNewRqID(ctx)
		rqID := utils.GetRequestIDFromCtx(ctx)

		defer func() {
			if r := recover(); r != nil {
				slog.Error(
					"panic recovered in scheduler job",
					slog.String("job", job.Name),
					slog.String("rqID", rqID),
					slog.Any("panic", r),
					slog.String("stacktrace", string(debug.Stack())),
				)
			}
		}()

		slog.Info("job start", slog.String("job", job.Name), slog.String("rqID", rqID))

		if err := job.Run(ctx); err != nil {
			slog.Error("job failed", slog.String("job", job.Name), slog.String("rqID", rqID), slog.String("err", err.Error()))
			return
		}

		slog.Info("job completed", slog.String("job", job.Name), slog.String("rqID", rqID))
	}
}
