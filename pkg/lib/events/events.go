package events

import "context"

// HandlerFunc processes one raw message. Returned errors are logged by the
// transport; delivery is not retried.
type HandlerFunc func(ctx context.Context, msg []byte) error

type Publisher interface {
	Publish(ctx context.Context, topic string, msg []byte) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, topic string, handler HandlerFunc) error
}
