package ranges

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
)

var (
	ErrNoSource           = errors.New("one of ranges or ranges-file must be set")
	ErrConflictingSources = errors.New("ranges and ranges-file are mutually exclusive")
)

// FetchError reports that the bytes of a ranges file could not be obtained.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch ranges from %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// CheckSource verifies that exactly one of inline and file is set.
func CheckSource(inline, file string) error {
	switch {
	case inline == "" && file == "":
		return ErrNoSource
	case inline != "" && file != "":
		return ErrConflictingSources
	}
	return nil
}

// Load resolves the ranges source and parses it. inline holds literal range definitions; file is
// either an http(s) URL or a local path. Exactly one of them must be set.
func Load(ctx context.Context, client *http.Client, inline, file string) (*Table, error) {
	if err := CheckSource(inline, file); err != nil {
		return nil, err
	}

	content := inline
	if file != "" {
		var err error
		if content, err = Read(ctx, client, file); err != nil {
			return nil, err
		}
	}
	return Parse(content)
}

// Read returns the contents of a local path or an http(s) URL.
func Read(ctx context.Context, client *http.Client, pathOrURL string) (string, error) {
	if isURL(pathOrURL) {
		return readURL(ctx, client, pathOrURL)
	}
	content, err := os.ReadFile(pathOrURL)
	if err != nil {
		return "", &FetchError{Source: pathOrURL, Err: err}
	}
	return string(content), nil
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func readURL(ctx context.Context, client *http.Client, target string) (string, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", &FetchError{Source: target, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", &FetchError{Source: target, Err: err}
	}
	//goland:noinspection GoUnhandledErrorResult
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{Source: target, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &FetchError{Source: target, Err: err}
	}
	return string(body), nil
}
