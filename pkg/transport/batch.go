package transport

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// BatchResult carries the per-token outcome of a Get-mode Apply call. Index
// i of Responses/Errs corresponds to index i of the tokens passed to Apply.
// Exactly one of Responses[i] / Errs[i] is meaningful for a given i: Errs[i]
// nil means Responses[i] is the value; Errs[i] non-nil (including
// ErrNotValid) means Responses[i] is the zero value.
type BatchResult struct {
	Responses []Response
	Errs      []error
}

// Ok reports whether every token in the batch succeeded.
func (r *BatchResult) Ok() bool {
	for _, err := range r.Errs {
		if err != nil {
			return false
		}
	}
	return true
}

// Executor performs one token against the device. Transport implementations
// supply this to RunSetBatch/RunGetBatch; it is the only device-specific part
// of the batching logic below.
type Executor func(ctx context.Context, tok Token) (Response, error)

// RunSetBatch delivers set-mode tokens in program order, aborting on the
// first failure, which is fatal to the whole Apply call: tokens after the
// failing one are never delivered, and tokens before it stay applied (there
// is no rollback).
func RunSetBatch(ctx context.Context, exec Executor, toks []Token) error {
	for i, tok := range toks {
		if _, err := exec(ctx, tok); err != nil {
			return &AggregateError{Errs: []error{fmt.Errorf("token %d (%s): %w", i, tok.Addr(), err)}}
		}
	}
	return nil
}

// RunGetBatch fans every token out concurrently via errgroup.WithContext so
// that cancelling ctx (or a caller-side timeout) stops in-flight commands,
// and folds the per-token results into a BatchResult without ever returning
// early — "not valid" is an expected outcome per token, not a batch
// failure. This is a "wait-for-all with per-result error" primitive built
// on an index-aligned result slice, using errgroup so context cancellation
// actually propagates instead of leaking goroutines.
func RunGetBatch(ctx context.Context, exec Executor, toks []Token) *BatchResult {
	result := &BatchResult{
		Responses: make([]Response, len(toks)),
		Errs:      make([]error, len(toks)),
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, tok := range toks {
		i, tok := i, tok
		g.Go(func() error {
			resp, err := exec(gctx, tok)
			result.Responses[i] = resp
			result.Errs[i] = err
			return nil // never abort the group: every result is wanted
		})
	}
	_ = g.Wait()

	return result
}

// IsSetMode reports whether every token in toks is a SetToken. A mixed batch
// (some Get, some Set) is a caller error; Apply implementations should
// reject it outright.
func IsSetMode(toks []Token) (setMode bool, mixed bool) {
	sawSet, sawGet := false, false
	for _, tok := range toks {
		switch tok.(type) {
		case SetToken:
			sawSet = true
		case GetToken:
			sawGet = true
		}
	}
	return sawSet, sawSet && sawGet
}
