package notifier

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Console writes reports to a terminal or any other writer.
type Console struct {
	// Dispatch, when set, runs command replies on another goroutine, such
	// as mainloop.Loop.Post. A false return drops the reply.
	Dispatch func(fn func()) bool

	mu     sync.Mutex
	out    io.Writer
	logger *zap.Logger
}

func NewConsole(out io.Writer, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{out: out, logger: logger}
}

// Send writes text followed by a blank line. Concurrent sends never interleave.
func (c *Console) Send(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if _, err := fmt.Fprint(c.out, text+"\n"); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// TrySend is Send with the error logged instead of returned.
func (c *Console) TrySend(text string) {
	if err := c.Send(text); err != nil {
		c.logger.Error("send report failed", zap.Error(err))
	}
}
