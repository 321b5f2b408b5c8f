package scenario

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinCatalog(t *testing.T) {
	c := MustBuiltinCatalog()

	assert.Equal(t, []string{"relax", "low_anxiety", "high_anxiety", "nothing"}, c.Keys())
	assert.Equal(t, "relax", c.Default().Key)

	s, err := c.Lookup("high_anxiety")
	require.NoError(t, err)
	assert.Equal(t, "gs://paw-guardian-tokyo/High Anxiety.mp4", s.URI)
	assert.Equal(t, "警告：重度の分離不安", s.Description)
}

func TestLookup(t *testing.T) {
	c := MustBuiltinCatalog()

	t.Run("empty key yields default", func(t *testing.T) {
		s, err := c.Lookup("")
		require.NoError(t, err)
		assert.Equal(t, "relax", s.Key)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := c.Lookup("parked")
		assert.True(t, errors.Is(err, ErrUnknownScenario))
	})
}

func TestNewCatalog(t *testing.T) {
	tests := []struct {
		name    string
		items   []Scenario
		wantErr bool
	}{
		{name: "empty", items: nil, wantErr: true},
		{name: "missing key", items: []Scenario{{URI: "gs://b/o.mp4"}}, wantErr: true},
		{name: "http uri", items: []Scenario{{Key: "a", URI: "https://example.com/a.mp4"}}, wantErr: true},
		{
			name:    "duplicate key",
			items:   []Scenario{{Key: "a", URI: "gs://b/a.mp4"}, {Key: "a", URI: "gs://b/b.mp4"}},
			wantErr: true,
		},
		{name: "valid", items: []Scenario{{Key: "a", URI: "gs://b/a.mp4"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.items)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAllReturnsCopy(t *testing.T) {
	c := MustBuiltinCatalog()
	all := c.All()
	all[0].Key = "changed"
	assert.Equal(t, "relax", c.Default().Key)
}

func TestParseGCSURI(t *testing.T) {
	bucket, object, err := ParseGCSURI("gs://paw-guardian-tokyo/Low Anxiety.mp4")
	require.NoError(t, err)
	assert.Equal(t, "paw-guardian-tokyo", bucket)
	assert.Equal(t, "Low Anxiety.mp4", object)

	bucket, object, err = ParseGCSURI("gs://bucket/nested/dir/clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, "bucket", bucket)
	assert.Equal(t, "nested/dir/clip.mp4", object)

	for _, bad := range []string{"", "gs://", "gs://bucket", "gs://bucket/", "s3://bucket/o"} {
		_, _, err := ParseGCSURI(bad)
		assert.ErrorIs(t, err, ErrInvalidURI, bad)
	}
}
