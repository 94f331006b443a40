// Package fanout sends every prompt to every provider with bounded
// concurrency and collects one response per pair.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/TobiSchelling/brandmonitor/internal/brand"
)

// Querier sends one prompt to one provider.
type Querier interface {
	Query(ctx context.Context, providerID, prompt string, timeout time.Duration) (string, error)
}

// Options bound the fan-out.
type Options struct {
	MaxConcurrency int
	CallTimeout    time.Duration
}

// Fanout runs the prompts × providers cross product.
type Fanout struct {
	q    Querier
	opts Options
}

func New(q Querier, opts Options) *Fanout {
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = 1
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 60 * time.Second
	}
	return &Fanout{q: q, opts: opts}
}

type pair struct {
	prompt   brand.Prompt
	provider brand.ProviderIdentity
}

// Run starts the fan-out and returns a channel that yields exactly
// len(prompts)*len(providers) responses, in completion order, then closes.
// When ctx ends, pairs not yet started are reported as timeouts without
// being sent, and in-flight calls end with their context.
func (f *Fanout) Run(ctx context.Context, prompts []brand.Prompt, providers []brand.ProviderIdentity) <-chan brand.ProviderResponse {
	pairs := make([]pair, 0, len(prompts)*len(providers))
	for _, p := range prompts {
		for _, id := range providers {
			pairs = append(pairs, pair{prompt: p, provider: id})
		}
	}

	// Sized to hold every response so workers never block on a slow reader.
	out := make(chan brand.ProviderResponse, len(pairs))

	go func() {
		defer close(out)

		var g errgroup.Group
		g.SetLimit(f.opts.MaxConcurrency)
		for _, pr := range pairs {
			if err := ctx.Err(); err != nil {
				out <- abandoned(pr, err)
				continue
			}
			g.Go(func() error {
				out <- f.call(ctx, pr)
				return nil
			})
		}
		g.Wait()
	}()

	return out
}

type queryResult struct {
	text string
	err  error
}

// call runs one query under its own deadline. A client that ignores its
// context is abandoned when the deadline passes.
func (f *Fanout) call(ctx context.Context, pr pair) brand.ProviderResponse {
	start := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, f.opts.CallTimeout)
	defer cancel()

	done := make(chan queryResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- queryResult{err: brand.NewError(brand.KindProvider, fmt.Sprintf("provider panicked: %v", r), nil)}
			}
		}()
		text, err := f.q.Query(callCtx, pr.provider.ID, pr.prompt.Text, f.opts.CallTimeout)
		done <- queryResult{text: text, err: err}
	}()

	var res queryResult
	select {
	case res = <-done:
	case <-callCtx.Done():
		res = queryResult{err: brand.NewError(brand.KindTimeout,
			fmt.Sprintf("%s did not answer within %s", pr.provider.ID, f.opts.CallTimeout), callCtx.Err())}
	}

	resp := brand.ProviderResponse{
		ProviderID: pr.provider.ID,
		PromptID:   pr.prompt.ID,
		LatencyMs:  time.Since(start).Milliseconds(),
		Status:     brand.StatusOK,
		RawText:    res.text,
	}
	if res.err != nil {
		resp.RawText = ""
		resp.Status = statusFor(res.err)
		resp.ErrorDetail = res.err.Error()
		logrus.WithFields(logrus.Fields{
			"provider": pr.provider.ID,
			"prompt":   pr.prompt.ID,
			"status":   resp.Status,
		}).WithError(res.err).Warn("Provider call failed")
	}
	return resp
}

func abandoned(pr pair, err error) brand.ProviderResponse {
	status := brand.StatusError
	detail := "run cancelled before the call started"
	if errors.Is(err, context.DeadlineExceeded) {
		status = brand.StatusTimeout
		detail = "run deadline passed before the call started"
	}
	return brand.ProviderResponse{
		ProviderID:  pr.provider.ID,
		PromptID:    pr.prompt.ID,
		Status:      status,
		ErrorDetail: detail,
	}
}

func statusFor(err error) brand.ResponseStatus {
	if brand.IsKind(err, brand.KindTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return brand.StatusTimeout
	}
	return brand.StatusError
}
