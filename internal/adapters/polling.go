package adapters

import (
	"context"
	"time"
)

// Poll runs fn immediately and then on a fixed interval until ctx is
// cancelled. Each page of the dashboard refreshes its REST data on its own
// interval, uncoordinated with the stream session; fn is responsible for its
// own error handling so one failed refresh never stops the loop.
func Poll(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	fn(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}
