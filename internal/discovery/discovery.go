// Package discovery locates the SDL documents making up a schema. A schema
// may be split over many files; they are merged in name order.
package discovery

import (
	"context"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Discovery lists and reads SDL documents.
type Discovery interface {
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, name string) (string, error)
}

// Load reads every document d lists and joins them in name order.
func Load(ctx context.Context, d Discovery) (string, error) {
	names, err := d.List(ctx)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", errors.New("no schema documents found")
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		sdl, err := d.Read(ctx, name)
		if err != nil {
			return "", err
		}
		b.WriteString(sdl)
		if !strings.HasSuffix(sdl, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}
