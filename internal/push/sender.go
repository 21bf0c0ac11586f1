package push

import (
	"github.com/nicholas-fedor/shoutrrr"
)

// Sender abstracts message dispatch so the broadcaster can be tested
// without hitting real services.
type Sender interface {
	Send(descriptor, message string) error
}

// ShoutrrrSender dispatches via the Shoutrrr library. The descriptor is
// a Shoutrrr service URL.
type ShoutrrrSender struct{}

func (ShoutrrrSender) Send(descriptor, message string) error {
	return shoutrrr.Send(descriptor, message)
}
