package utils

import "context"

// GracefulShutdown waits for ctx to end, runs cleanup and releases the context.
func GracefulShutdown(ctx context.Context, cancel context.CancelFunc, cleanup func()) {
	<-ctx.Done()
	if cleanup != nil {
		cleanup()
	}
	cancel()
}
