package rx_test

import (
	"context"
	"testing"
	"time"

	"github.com/xinjiayu/rx"
)

func newTestLoop(t *testing.T) (*rx.Loop, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	loop := rx.NewLoop(0)
	done := make(chan struct{})
	go func() {
		defer close(done)
		loop.Run(ctx)
	}()
	t.Cleanup(func() {
		loop.Stop()
		<-done
		cancel()
	})
	return loop, ctx
}
