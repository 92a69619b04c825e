package consumer

import (
	"context"
)

// MessageConsumer receives variants requests from a broker and hands
// them over to the variants service until stopped.
type MessageConsumer interface {
	Start(ctx context.Context) error

	Stop()
}
