package audit

import (
	"context"
	"errors"
)

var errNoLister = errors.New("no audit store in fanout supports listing")

// Fanout appends each event to every store. All stores are attempted even
// when one fails; the failures are joined.
type Fanout []Store

func (f Fanout) Append(ctx context.Context, event Event) error {
	var errs []error
	for _, s := range f {
		if err := s.Append(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ListBySubject reads from the first store that can be queried back.
func (f Fanout) ListBySubject(ctx context.Context, subject string) ([]Event, error) {
	for _, s := range f {
		if l, ok := s.(interface {
			ListBySubject(context.Context, string) ([]Event, error)
		}); ok {
			return l.ListBySubject(ctx, subject)
		}
	}
	return nil, errNoLister
}
