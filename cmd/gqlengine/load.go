package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/hanpama/gqlengine/internal/discovery"
	"github.com/hanpama/gqlengine/internal/schema"
)

// loadSchema builds the schema in path, a file or a directory of SDL files.
// Subscription root fields stream the list found under their name in the
// root value.
func loadSchema(path string) (*schema.Schema, error) {
	if path == "" {
		return nil, errors.New("--schema is required")
	}
	sdl, err := discovery.LoadPath(context.Background(), path)
	if err != nil {
		return nil, err
	}
	return schema.BuildFromSDL(sdl,
		schema.WithSourceName(path),
		schema.WithModifier(streamSubscriptions),
	)
}

func streamSubscriptions(s *schema.Schema) error {
	sub := s.GetSubscriptionType()
	if sub == nil {
		return nil
	}
	for _, f := range sub.Fields {
		if f.Subscribe == nil {
			f.Subscribe = streamList(f.Name)
		}
	}
	return nil
}

func streamList(name string) schema.SubscribeFunc {
	return func(p schema.ResolveParams) (<-chan any, error) {
		root, _ := p.Source.(map[string]any)
		items, ok := root[name].([]any)
		if !ok {
			return nil, errors.Errorf("no event list for %q in the data file", name)
		}
		ch := make(chan any)
		go func() {
			defer close(ch)
			for _, item := range items {
				select {
				case ch <- item:
				case <-p.Context.Done():
					return
				}
			}
		}()
		return ch, nil
	}
}

// loadData reads a JSON or YAML document. An empty path yields an empty
// object.
func loadData(path string) (map[string]any, error) {
	out := map[string]any{}
	if path == "" {
		return out, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return out, nil
}
