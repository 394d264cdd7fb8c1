package client

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// PollOptions bounds Poll.
type PollOptions struct {
	Interval    time.Duration
	MaxAttempts int
	// OnAttempt, when set, is called after every response.
	OnAttempt func(attempt int, resp *Response)
}

// Poll fetches results until the API stops answering 202 Accepted, the
// attempts run out or ctx is done. When attempts run out the last response is
// returned together with ErrStillProcessing.
func (c *Client) Poll(ctx context.Context, opts PollOptions) (*Response, error) {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	var last *Response
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		resp, err := c.Results(ctx)
		if err != nil {
			return nil, err
		}
		last = resp
		if opts.OnAttempt != nil {
			opts.OnAttempt(attempt, resp)
		}
		if !resp.Accepted() {
			return resp, nil
		}
		c.logger.Debug("results still processing", zap.Int("attempt", attempt), zap.Int("max_attempts", opts.MaxAttempts))
		if attempt == opts.MaxAttempts {
			break
		}
		if err := sleep(ctx, opts.Interval); err != nil {
			return last, err
		}
	}
	return last, fmt.Errorf("%w after %d attempts", ErrStillProcessing, opts.MaxAttempts)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
