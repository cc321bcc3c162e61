package audit

import (
	"context"
	"errors"
)

// Fanout delivers each event to every publisher. All publishers are tried;
// their errors are joined.
type Fanout []Publisher

func (f Fanout) Emit(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
