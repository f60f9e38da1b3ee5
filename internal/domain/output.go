package domain

import "fmt"

// urlAccessor is implemented by vendor file handles that compute their URL.
type urlAccessor interface {
	URL() string
}

// ResolveOutputURL normalizes the shapes media vendors return (a bare string,
// a list whose first element is the result, an object with a url field, or a
// handle exposing URL()) to a single URL.
func ResolveOutputURL(output any) (string, error) {
	switch v := output.(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case []string:
		if len(v) > 0 {
			return ResolveOutputURL(v[0])
		}
	case []any:
		if len(v) > 0 {
			return ResolveOutputURL(v[0])
		}
	case urlAccessor:
		if u := v.URL(); u != "" {
			return u, nil
		}
	case map[string]any:
		if u, ok := v["url"].(string); ok && u != "" {
			return u, nil
		}
	}

	return "", fmt.Errorf("%w: %T", ErrUnrecognizedShape, output)
}
