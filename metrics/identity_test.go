package metrics

import (
	"testing"

	"github.com/kbukum/monometrics/mono"
)

func TestResolveIdentity(t *testing.T) {
	tests := []struct {
		name     string
		meta     mono.Metadata
		wantName string
		wantTags []mono.Tag
	}{
		{
			name:     "declared name and tags",
			meta:     mono.Metadata{Kind: "Just", Name: "X", Tags: []mono.Tag{{Key: "k", Value: "v"}}},
			wantName: "X",
			wantTags: []mono.Tag{{Key: "k", Value: "v"}},
		},
		{
			name:     "default from kind",
			meta:     mono.Metadata{Kind: "Callable"},
			wantName: "reactor.callable",
		},
		{
			name:     "no kind",
			meta:     mono.Metadata{},
			wantName: DefaultName,
		},
		{
			name:     "blank name falls back",
			meta:     mono.Metadata{Kind: "Sink", Name: "   "},
			wantName: "reactor.sink",
		},
		{
			name:     "tags keep order and drop empty keys",
			meta:     mono.Metadata{Name: "n", Tags: []mono.Tag{{Key: "b", Value: "2"}, {Key: "", Value: "x"}, {Key: "a", Value: "1"}}},
			wantName: "n",
			wantTags: []mono.Tag{{Key: "b", Value: "2"}, {Key: "a", Value: "1"}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id := ResolveIdentity(tc.meta)
			if id.Name != tc.wantName {
				t.Errorf("name: got %q, want %q", id.Name, tc.wantName)
			}
			if len(id.Tags) != len(tc.wantTags) {
				t.Fatalf("tags: got %v, want %v", id.Tags, tc.wantTags)
			}
			for i := range tc.wantTags {
				if id.Tags[i] != tc.wantTags[i] {
					t.Errorf("tag %d: got %v, want %v", i, id.Tags[i], tc.wantTags[i])
				}
			}
		})
	}
}

func TestResolveIdentity_DeterministicDefault(t *testing.T) {
	first := resolveIdentity(mono.Just(1))
	second := resolveIdentity(mono.Just(2))
	if first.Name != second.Name {
		t.Errorf("expected equivalent stages to share a name, got %q and %q", first.Name, second.Name)
	}
	if first.Name != "reactor.just" {
		t.Errorf("got %q, want reactor.just", first.Name)
	}
}

func TestResolveIdentity_FromOperators(t *testing.T) {
	m := mono.Tagged(mono.Named(mono.Just(1), "X"), "k", "v")
	id := resolveIdentity(m)
	if id.String() != "X{k=v}" {
		t.Errorf("got %q, want X{k=v}", id.String())
	}
	if keys := id.TagKeys(); len(keys) != 1 || keys[0] != "k" {
		t.Errorf("unexpected tag keys %v", keys)
	}
}

func TestResolveIdentity_PanickingMetadata(t *testing.T) {
	id := resolveIdentity[int](panickingMetadata{Mono: mono.Just(1)})
	if id.Name != DefaultName || len(id.Tags) != 0 {
		t.Errorf("expected default identity, got %v", id)
	}
}
