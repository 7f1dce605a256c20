package httpclient

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureCompletesOnce(t *testing.T) {
	f := NewFuture[int]()

	assert.True(t, f.Complete(1, nil))
	assert.False(t, f.Complete(2, errors.New("late")))

	v, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestFutureResultBeforeCompletion(t *testing.T) {
	f := NewFuture[string]()

	_, err := f.Result()
	assert.ErrorIs(t, err, ErrNotCompleted)

	f.Complete("done", nil)
	v, err := f.Result()
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}

func TestFutureAwaitRespectsContext(t *testing.T) {
	f := NewFuture[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	select {
	case <-f.Done():
		t.Fatal("abandoning the wait must not complete the future")
	default:
	}
}

func TestFutureConcurrentCompleters(t *testing.T) {
	f := NewFuture[int]()
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if f.Complete(i, nil) {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
	<-f.Done()
}

func TestFutureThen(t *testing.T) {
	f := NewFuture[int]()
	got := make(chan int, 1)

	f.Then(func(v int, _ error) { got <- v })
	f.Complete(7, nil)

	select {
	case v := <-got:
		assert.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("callback not invoked")
	}
}

func TestCompleted(t *testing.T) {
	boom := errors.New("boom")
	f := Completed(0, boom)

	_, err := f.Result()
	assert.ErrorIs(t, err, boom)
}

func TestMapTransformsValue(t *testing.T) {
	src := NewFuture[int]()
	out := Map(src, func(v int) (string, error) { return strconv.Itoa(v * 2), nil })

	src.Complete(21, nil)

	v, err := out.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42", v)
}

func TestMapPassesErrorsThrough(t *testing.T) {
	boom := errors.New("boom")
	called := false
	out := Map(Completed(0, boom), func(int) (string, error) {
		called = true
		return "", nil
	})

	_, err := out.Await(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
}

func TestMapSurfacesTransformError(t *testing.T) {
	decodeErr := errors.New("decode record: bad json")
	out := Map(Completed(1, nil), func(int) (string, error) { return "", decodeErr })

	_, err := out.Await(context.Background())
	assert.ErrorIs(t, err, decodeErr)
}
