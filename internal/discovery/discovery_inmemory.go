package discovery

import (
	"context"
	"fmt"
)

// InMemory serves documents held in a map keyed by name.
type InMemory map[string]string

func (d InMemory) List(context.Context) ([]string, error) {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	return names, nil
}

func (d InMemory) Read(_ context.Context, name string) (string, error) {
	content, ok := d[name]
	if !ok {
		return "", fmt.Errorf("schema document %q not found", name)
	}
	return content, nil
}
