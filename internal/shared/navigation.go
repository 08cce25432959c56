package shared

import (
	"fmt"
	"strings"
)

// Navigator maps resource names to the routes of their listing views.
type Navigator struct {
	routes map[string]string
}

// NewNavigator builds a Navigator from resource -> route pairs.
func NewNavigator(routes map[string]string) *Navigator {
	copied := make(map[string]string, len(routes))
	for resource, route := range routes {
		copied[strings.ToLower(strings.TrimSpace(resource))] = route
	}
	return &Navigator{routes: copied}
}

// List returns the listing route of resource.
func (n *Navigator) List(resource string) (string, error) {
	if n != nil {
		if route, ok := n.routes[strings.ToLower(strings.TrimSpace(resource))]; ok && route != "" {
			return route, nil
		}
	}
	return "", fmt.Errorf("navigate to %q: %w", resource, ErrUnknownResource)
}
