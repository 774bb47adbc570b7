package changebus

import (
	"context"
	"time"
)

// RunRefresher вызывает refresh каждые interval до отмены ctx.
// Это запасной путь для наблюдателей, пропустивших события (например, изменения из другого процесса).
func RunRefresher(ctx context.Context, interval time.Duration, refresh func(context.Context)) {
	if interval <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh(ctx)
		}
	}
}
