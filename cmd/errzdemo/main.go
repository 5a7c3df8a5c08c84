// Command errzdemo exercises createError, tryAsync with a timeout, retry,
// and the event bus end to end. It is a smoke test for manual use, not a
// library entry point.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/zoobzio/errz"
)

func main() {
	errz.ConfigurePreset(errz.PresetDevelopment)

	dispose, _ := errz.OnErrorCreated(func(_ context.Context, evt errz.LifecycleEvent) error {
		fmt.Printf("event: %s type=%s\n", evt.Kind, evt.Record.Type)
		return nil
	})
	defer dispose()

	rec := errz.CreateError("DemoError", "something went wrong", errz.WithContext(errz.Context{
		"component": "errzdemo",
	}))
	fmt.Println("created:", rec.Error())

	slow := func(ctx context.Context) string {
		select {
		case <-time.After(200 * time.Millisecond):
			return "slow result"
		case <-ctx.Done():
			panic("canceled")
		}
	}
	result := errz.TryAsync(slow, errz.TryAsyncOptions{Timeout: 50 * time.Millisecond})
	if result.IsErr() {
		fmt.Println("timeout branch:", result.Error().Error())
	}

	attempts := 0
	flaky := func(ctx context.Context) string {
		attempts++
		if attempts < 3 {
			panic("transient failure")
		}
		return "recovered result"
	}
	retried := errz.WithRetry(context.Background(), flaky, errz.RetryPolicy{
		Attempts:  5,
		BaseDelay: 10 * time.Millisecond,
		Backoff:   errz.BackoffLinear,
	})
	if retried.IsOk() {
		v, _ := retried.Value()
		fmt.Println("retry succeeded:", v)
	}
}
