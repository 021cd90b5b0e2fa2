// Package contentgen authors exercises for a skill and grades responses.
package contentgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"
)

// ErrNoContent is returned when a generator has nothing for the request.
var ErrNoContent = errors.New("no content for request")

// Generator produces one exercise for a node and modality.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Exercise, error)
}

// Chain tries each generator in order and returns the first success.
type Chain []Generator

func (c Chain) Generate(ctx context.Context, req Request) (*Exercise, error) {
	var errs []error
	for _, g := range c {
		ex, err := g.Generate(ctx, req)
		if err == nil {
			return ex, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrNoContent
	}
	return nil, errors.Join(errs...)
}

// Deduped collapses concurrent requests for the same thread, node and
// modality into a single generator call.
type Deduped struct {
	inner Generator
	group singleflight.Group
}

func NewDeduped(inner Generator) *Deduped {
	return &Deduped{inner: inner}
}

func (d *Deduped) Generate(ctx context.Context, req Request) (*Exercise, error) {
	key := strings.Join([]string{req.ThreadID, req.Node.ID, string(req.Modality)}, "|")
	v, err, _ := d.group.Do(key, func() (any, error) {
		return d.inner.Generate(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	ex, ok := v.(*Exercise)
	if !ok || ex == nil {
		return nil, fmt.Errorf("generate %s: %w", key, ErrNoContent)
	}
	return ex, nil
}
