package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// compensationTimeout bounds each compensation; compensations run on a
// context detached from the request so a cancelled client does not stop them.
const compensationTimeout = 10 * time.Second

type sagaStep struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// saga runs named steps in order. When a step fails, the compensations of
// the steps that already completed run in reverse order and the step's error
// is returned unchanged. Compensation failures are logged only.
type saga struct {
	name   string
	logger *zap.Logger
	steps  []sagaStep
}

func newSaga(name string, logger *zap.Logger) *saga {
	return &saga{name: name, logger: logger}
}

// step appends a step. compensate may be nil for irreversible steps.
func (s *saga) step(name string, run, compensate func(ctx context.Context) error) *saga {
	s.steps = append(s.steps, sagaStep{name: name, run: run, compensate: compensate})
	return s
}

func (s *saga) run(ctx context.Context) error {
	for i, st := range s.steps {
		if err := st.run(ctx); err != nil {
			s.logger.Warn("saga step failed",
				zap.String("saga", s.name),
				zap.String("step", st.name),
				zap.Error(err),
			)
			s.rollback(ctx, i)
			return err
		}
	}
	return nil
}

func (s *saga) rollback(ctx context.Context, failed int) {
	base := context.WithoutCancel(ctx)
	for i := failed - 1; i >= 0; i-- {
		st := s.steps[i]
		if st.compensate == nil {
			continue
		}
		cctx, cancel := context.WithTimeout(base, compensationTimeout)
		err := st.compensate(cctx)
		cancel()
		if err != nil {
			s.logger.Error("saga compensation failed",
				zap.String("saga", s.name),
				zap.String("step", st.name),
				zap.Error(err),
			)
		}
	}
}
