package db

import (
	"fmt"
	"net/url"
)

// FileScheme is the only URI scheme accepted by the on-disk backends.
const FileScheme = "file"

// ParseFileURI extracts the filesystem path from a connection URI such as
// file:///var/data/store. Any scheme other than "file" is rejected.
func ParseFileURI(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("%w: malformed uri %q: %v", ErrInvalidConfig, uri, err)
	}
	if u.Scheme != FileScheme {
		return "", fmt.Errorf("%w: only file uris are supported (ex. file:///xxx/xxx), uri=%q", ErrInvalidConfig, uri)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("%w: file uri must not name a remote host, uri=%q", ErrInvalidConfig, uri)
	}

	path := u.Path
	if path == "" {
		// file:relative/dir
		path = u.Opaque
	}
	if path == "" {
		return "", fmt.Errorf("%w: file uri has no path, uri=%q", ErrInvalidConfig, uri)
	}
	return path, nil
}
