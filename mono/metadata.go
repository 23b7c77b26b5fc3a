package mono

import "context"

// Tag is a key/value annotation attached to a stage.
type Tag struct {
	Key   string
	Value string
}

// Metadata describes a stage: its structural kind and an optional
// user-declared name and tags.
type Metadata struct {
	// Kind is the structural kind of the stage, e.g. "Just" or "Sink".
	Kind string
	// Name is the declared name, empty when none was declared.
	Name string
	// Tags are the declared tags in declaration order.
	Tags []Tag
}

// Clone returns a copy whose Tags can be modified independently.
func (m Metadata) Clone() Metadata {
	if m.Tags != nil {
		m.Tags = append([]Tag(nil), m.Tags...)
	}
	return m
}

// Named returns a mono identical to source except that it declares name.
func Named[T any](source Mono[T], name string) Mono[T] {
	meta := source.Metadata().Clone()
	meta.Name = name
	return &describedMono[T]{source: source, meta: meta}
}

// Tagged returns a mono identical to source except that it declares an extra
// tag. Re-declaring an existing key replaces its value in place.
func Tagged[T any](source Mono[T], key, value string) Mono[T] {
	meta := source.Metadata().Clone()
	for i := range meta.Tags {
		if meta.Tags[i].Key == key {
			meta.Tags[i].Value = value
			return &describedMono[T]{source: source, meta: meta}
		}
	}
	meta.Tags = append(meta.Tags, Tag{Key: key, Value: value})
	return &describedMono[T]{source: source, meta: meta}
}

// describedMono overrides the metadata of source and passes subscribers
// straight through, so fusion between source and consumer is untouched.
type describedMono[T any] struct {
	source Mono[T]
	meta   Metadata
}

func (d *describedMono[T]) Subscribe(ctx context.Context, s Subscriber[T]) {
	d.source.Subscribe(ctx, s)
}

func (d *describedMono[T]) Metadata() Metadata { return d.meta.Clone() }
