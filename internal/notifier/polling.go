package notifier

import (
	"bufio"
	"context"
	"io"
	"strings"

	"go.uber.org/zap"
)

// CommandHandler is called when a user command is received.
type CommandHandler func(command string) string

// Listen reads commands from in line by line and sends each non-empty reply.
// It returns when ctx is cancelled or in reaches EOF.
func (c *Console) Listen(ctx context.Context, in io.Reader, handler CommandHandler) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("console listener stopped")
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					return err
				default:
					return nil
				}
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			c.logger.Info("received command", zap.String("command", text))
			if reply := handler(text); reply != "" {
				c.reply(reply)
			}
		}
	}
}

func (c *Console) reply(text string) {
	if c.Dispatch == nil {
		c.TrySend(text)
		return
	}
	if !c.Dispatch(func() { c.TrySend(text) }) {
		c.logger.Warn("reply dropped, presenter stopped")
	}
}
