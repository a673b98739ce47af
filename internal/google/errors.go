// Package google fetches site metrics from PageSpeed Insights, Google
// Analytics 4 and Search Console.
package google

import (
	"fmt"

	"github.com/seoauditor/seoauditor/pkg/htmlmeta"
)

// UpstreamError is a failed call to a Google API. It matches
// htmlmeta.ErrUnreachable so callers can treat any failed external fetch
// the same way.
type UpstreamError struct {
	Source string // "pagespeed", "ga4" or "search-console"
	Err    error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is matches htmlmeta.ErrUnreachable.
func (e *UpstreamError) Is(target error) bool { return target == htmlmeta.ErrUnreachable }

func upstream(source string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Source: source, Err: err}
}
