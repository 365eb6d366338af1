package seo

import (
	"errors"
	"fmt"
)

// ErrInvalidURL is wrapped by FetchError when the URL is not an absolute http(s) URL.
var ErrInvalidURL = errors.New("invalid url")

// FetchError reports a network, HTTP status or parse failure while fetching a page.
type FetchError struct {
	URL        string
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// IsFetchError reports whether err is (or wraps) a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
