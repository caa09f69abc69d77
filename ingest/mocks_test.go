package ingest

import (
	"context"
	"time"
)

type (
	nameDelegate     func() string
	intervalDelegate func() time.Duration
	backoffDelegate  func() time.Duration
	fetchDelegate    func(context.Context) (Apply, error)
)

type mockTask struct {
	nameFn     nameDelegate
	intervalFn intervalDelegate
	backoffFn  backoffDelegate
	fetchFn    fetchDelegate
}

func (m *mockTask) Name() string {
	if m.nameFn != nil {
		return m.nameFn()
	}

	return ""
}

func (m *mockTask) Interval() time.Duration {
	if m.intervalFn != nil {
		return m.intervalFn()
	}

	return 0
}

func (m *mockTask) Backoff() time.Duration {
	if m.backoffFn != nil {
		return m.backoffFn()
	}

	return 0
}

func (m *mockTask) Fetch(ctx context.Context) (Apply, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx)
	}

	return nil, nil
}

// newMockTask creates a valid task with the given timings and fetch
func newMockTask(interval, backoff time.Duration, fetchFn fetchDelegate) *mockTask {
	return &mockTask{
		nameFn: func() string {
			return testTaskName
		},
		intervalFn: func() time.Duration {
			return interval
		},
		backoffFn: func() time.Duration {
			return backoff
		},
		fetchFn: fetchFn,
	}
}
