package console

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Notifier prints status lines for the person at the microphone.
type Notifier struct {
	mu  sync.Mutex
	out io.Writer
}

func NewNotifier(out io.Writer) *Notifier {
	return &Notifier{out: out}
}

func (n *Notifier) Notify(_ context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	_, err := fmt.Fprintln(n.out, message)
	return err
}
