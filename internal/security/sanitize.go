package security

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// ValidateReference parses a project reference and checks that it is safe to
// fetch from. The reference must be an absolute http(s) URL with a host and a
// repository path, free of control characters. When allowedHosts is non-empty
// the host must be one of them (case-insensitive, port ignored).
func ValidateReference(reference string, allowedHosts []string) (*url.URL, error) {
	if reference == "" {
		return nil, fmt.Errorf("reference is empty")
	}

	for _, r := range reference {
		if unicode.IsControl(r) {
			return nil, fmt.Errorf("reference contains control character")
		}
	}

	u, err := url.Parse(reference)
	if err != nil {
		return nil, fmt.Errorf("reference is not a URL")
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("reference scheme must be http or https")
	}
	if u.Host == "" {
		return nil, fmt.Errorf("reference has no host")
	}
	if u.User != nil {
		return nil, fmt.Errorf("reference must not carry credentials")
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, fmt.Errorf("reference must not carry a query or fragment")
	}
	if strings.Trim(u.Path, "/") == "" {
		return nil, fmt.Errorf("reference has no repository path")
	}

	for _, part := range strings.Split(u.Path, "/") {
		if part == ".." || part == "." {
			return nil, fmt.Errorf("reference path contains %q component", part)
		}
	}

	if len(allowedHosts) > 0 && !hostAllowed(u.Hostname(), allowedHosts) {
		return nil, fmt.Errorf("host %q is not allowed", u.Hostname())
	}

	return u, nil
}

func hostAllowed(host string, allowed []string) bool {
	for _, h := range allowed {
		if strings.EqualFold(strings.TrimSpace(h), host) {
			return true
		}
	}
	return false
}

// SanitizeFilename makes a project name safe to embed in a quoted
// Content-Disposition filename. Quotes, backslashes, path separators and
// control characters become underscores.
func SanitizeFilename(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		switch {
		case r == '"' || r == '\\' || r == '/':
			sb.WriteRune('_')
		case unicode.IsControl(r):
			sb.WriteRune('_')
		default:
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "archive"
	}
	return sb.String()
}
