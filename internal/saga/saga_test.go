package saga

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct{ calls []string }

func (r *recorder) act(name string, err error) Action {
	return func(context.Context) error {
		r.calls = append(r.calls, name)
		return err
	}
}

func TestRun_AllSucceed(t *testing.T) {
	r := &recorder{}
	s := New(nil).
		Step("parent", r.act("insert parent", nil), r.act("delete parent", nil)).
		Step("child", r.act("insert child", nil), r.act("delete child", nil))

	require.NoError(t, s.Run(context.Background()))
	assert.Equal(t, []string{"insert parent", "insert child"}, r.calls)
	assert.Equal(t, 2, s.Len())
}

func TestRun_UnwindsInReverse(t *testing.T) {
	boom := errors.New("boom")
	r := &recorder{}
	s := New(nil).
		Step("a", r.act("do a", nil), r.act("undo a", nil)).
		Step("b", r.act("do b", nil), nil).
		Step("c", r.act("do c", nil), r.act("undo c", nil)).
		Step("d", r.act("do d", boom), r.act("undo d", nil))

	err := s.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrCompensation)
	assert.Contains(t, err.Error(), "d: boom")
	assert.Equal(t, []string{"do a", "do b", "do c", "do d", "undo c", "undo a"}, r.calls)
}

func TestRun_FirstStepFailsNothingToUndo(t *testing.T) {
	boom := errors.New("boom")
	r := &recorder{}
	err := New(nil).Step("a", r.act("do a", boom), r.act("undo a", nil)).Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"do a"}, r.calls)
}

func TestRun_CompensationFailureReported(t *testing.T) {
	boom := errors.New("boom")
	stuck := errors.New("stuck")
	r := &recorder{}
	err := New(nil).
		Step("a", r.act("do a", nil), r.act("undo a", nil)).
		Step("b", r.act("do b", nil), r.act("undo b", stuck)).
		Step("c", r.act("do c", boom), nil).
		Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrCompensation)
	assert.ErrorIs(t, err, stuck)
	// later compensations still run after one fails
	assert.Equal(t, []string{"do a", "do b", "do c", "undo b", "undo a"}, r.calls)
}

func TestRun_CancelledContextStillCompensates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &recorder{}
	var undoCtxErr error
	err := New(nil).
		Step("a", r.act("do a", nil), func(ctx context.Context) error {
			undoCtxErr = ctx.Err()
			r.calls = append(r.calls, "undo a")
			return nil
		}).
		Step("b", func(context.Context) error { cancel(); return nil }, nil).
		Step("c", r.act("do c", nil), nil).
		Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.NoError(t, undoCtxErr)
	assert.Equal(t, []string{"do a", "undo a"}, r.calls)
}
