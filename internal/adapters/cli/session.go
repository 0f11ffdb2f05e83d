package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kirillkom/medical-query-assistant/internal/core/domain"
	"github.com/kirillkom/medical-query-assistant/internal/core/ports"
)

const (
	commandClear = ":clear"
	commandQuit  = ":quit"
	commandExit  = ":exit"
)

// ErrNotAnswered is returned by Ask when the query produced no answer.
var ErrNotAnswered = errors.New("query was not answered")

// Ask submits one query.
func Ask(ctx context.Context, handler ports.QueryHandler, query string) (domain.Outcome, error) {
	outcome := handler.HandleQuery(ctx, query)
	if outcome.Status != domain.StatusAnswered {
		return outcome, fmt.Errorf("%w: %s", ErrNotAnswered, outcome.Status)
	}
	return outcome, nil
}

// RunInteractive submits one query per input line until EOF or a quit
// command. ":clear" clears the last result.
func RunInteractive(ctx context.Context, in io.Reader, prompt io.Writer, handler ports.QueryHandler) (int, error) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	answered := 0
	for {
		if ctx.Err() != nil {
			return answered, nil
		}
		fmt.Fprint(prompt, "> ")
		if !scanner.Scan() {
			break
		}

		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case commandQuit, commandExit:
			return answered, nil
		case commandClear:
			handler.Clear()
			continue
		}

		if handler.HandleQuery(ctx, line).Status == domain.StatusAnswered {
			answered++
		}
	}
	if err := scanner.Err(); err != nil {
		return answered, fmt.Errorf("read input: %w", err)
	}
	return answered, nil
}
