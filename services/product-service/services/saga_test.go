package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSagaCompensatesCompletedStepsInReverse(t *testing.T) {
	var trail []string
	rec := func(s string) func(context.Context) error {
		return func(context.Context) error { trail = append(trail, s); return nil }
	}
	boom := errors.New("boom")

	err := newSaga("test", zap.NewNop()).
		step("a", rec("run a"), rec("undo a")).
		step("b", rec("run b"), nil).
		step("c", rec("run c"), rec("undo c")).
		step("d", func(context.Context) error { return boom }, rec("undo d")).
		run(context.Background())

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"run a", "run b", "run c", "undo c", "undo a"}, trail)
}

func TestSagaCompensationFailureKeepsOriginalError(t *testing.T) {
	boom := errors.New("boom")
	err := newSaga("test", zap.NewNop()).
		step("a", func(context.Context) error { return nil }, func(context.Context) error { return errors.New("undo failed") }).
		step("b", func(context.Context) error { return boom }, nil).
		run(context.Background())

	assert.Same(t, boom, err)
}

func TestSagaCompensationOutlivesCancelledRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var compErr error

	_ = newSaga("test", zap.NewNop()).
		step("a", func(context.Context) error { return nil }, func(c context.Context) error { compErr = c.Err(); return nil }).
		step("b", func(context.Context) error { cancel(); return context.Canceled }, nil).
		run(ctx)

	assert.NoError(t, compErr)
}
