// Package workers provides the Worker abstraction and the periodic
// background sync job that acts as a safety net under the realtime layer.
package workers

import "context"

// Worker is a background component with an explicit start/stop lifecycle.
// Start must not block; Stop blocks until the worker has fully exited.
type Worker interface {
	Start(ctx context.Context)
	Stop()
}
