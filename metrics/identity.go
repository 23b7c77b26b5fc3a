package metrics

import (
	"strings"

	"github.com/kbukum/monometrics/mono"
)

// DefaultName is the metric name used for stages that declare no name and
// have no known kind.
const DefaultName = "reactor"

// Identity names the meters of one decorated stage.
type Identity struct {
	Name string
	Tags []mono.Tag
}

// String renders the identity as name{k=v,...}.
func (id Identity) String() string {
	if len(id.Tags) == 0 {
		return id.Name
	}
	var b strings.Builder
	b.WriteString(id.Name)
	b.WriteByte('{')
	for i, t := range id.Tags {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.Key)
		b.WriteByte('=')
		b.WriteString(t.Value)
	}
	b.WriteByte('}')
	return b.String()
}

// TagKeys returns the tag keys in order.
func (id Identity) TagKeys() []string {
	keys := make([]string, len(id.Tags))
	for i, t := range id.Tags {
		keys[i] = t.Key
	}
	return keys
}

// ResolveIdentity derives the identity of a stage from its metadata. A
// declared name is used as is; otherwise the name is derived from the kind.
// Tags with an empty key are skipped.
func ResolveIdentity(meta mono.Metadata) Identity {
	name := strings.TrimSpace(meta.Name)
	if name == "" {
		name = defaultName(meta.Kind)
	}

	var tags []mono.Tag
	for _, t := range meta.Tags {
		if strings.TrimSpace(t.Key) == "" {
			continue
		}
		tags = append(tags, t)
	}
	return Identity{Name: name, Tags: tags}
}

func defaultName(kind string) string {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind == "" {
		return DefaultName
	}
	return DefaultName + "." + kind
}

// resolveIdentity reads the metadata of source. A Metadata implementation
// that panics yields the default identity instead of failing composition.
func resolveIdentity[T any](source mono.Mono[T]) (id Identity) {
	defer func() {
		if r := recover(); r != nil {
			id = Identity{Name: DefaultName}
		}
	}()
	return ResolveIdentity(source.Metadata())
}
