package profile_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/answerset/internal/answerset"
	"github.com/mind-engage/answerset/internal/db"
	"github.com/mind-engage/answerset/internal/profile"
)

func stores(t *testing.T) map[string]profile.Store {
	t.Helper()
	h, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return map[string]profile.Store{
		"sql": profile.NewSQLStore(h),
		"mem": profile.NewMemStore(),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "strict")
			assert.ErrorIs(t, err, profile.ErrNotFound)

			put, err := s.Put(ctx, profile.Profile{Name: "strict", Raw: map[string]interface{}{
				answerset.KeyIgnoreCase:              false,
				answerset.KeyNumericComparisonFactor: 2,
				answerset.KeyEquivalentStrings:       []interface{}{[]interface{}{"colour", "color"}},
			}})
			require.NoError(t, err)
			assert.False(t, put.UpdatedAt.IsZero())

			got, err := s.Get(ctx, "strict")
			require.NoError(t, err)
			settings := got.Options(profile.Limits{}).Settings()
			assert.False(t, settings.IgnoreCase)
			assert.Equal(t, 2.0, settings.NumericFactor)
			assert.Equal(t, [][]string{{"colour", "color"}}, settings.EquivalentStrings)

			_, err = s.Put(ctx, profile.Profile{Name: "lenient"})
			require.NoError(t, err)
			list, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "lenient", list[0].Name)
			assert.Equal(t, "strict", list[1].Name)
			assert.NotNil(t, list[0].Raw)

			require.NoError(t, s.Delete(ctx, "strict"))
			assert.ErrorIs(t, s.Delete(ctx, "strict"), profile.ErrNotFound)
		})
	}
}

func TestStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Put(ctx, profile.Profile{Name: "p", Raw: map[string]interface{}{answerset.KeySeparators: "/"}})
			require.NoError(t, err)
			_, err = s.Put(ctx, profile.Profile{Name: "p", Raw: map[string]interface{}{answerset.KeySeparators: "|"}})
			require.NoError(t, err)

			got, err := s.Get(ctx, "p")
			require.NoError(t, err)
			assert.Equal(t, "|", got.Options(profile.Limits{}).Settings().Separators)
		})
	}
}

func TestStoreRejectsBadNames(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, bad := range []string{"", "has space", "../etc", strings.Repeat("x", 65)} {
				_, err := s.Put(ctx, profile.Profile{Name: bad})
				assert.ErrorIs(t, err, profile.ErrInvalidName, bad)
			}
		})
	}
}

func TestMemStoreIsolatesMaps(t *testing.T) {
	ctx := context.Background()
	raw := map[string]interface{}{answerset.KeyIgnoreCase: false}
	s := profile.NewMemStore(profile.Profile{Name: "p", Raw: raw})
	raw[answerset.KeyIgnoreCase] = true

	got, err := s.Get(ctx, "p")
	require.NoError(t, err)
	got.Raw["x"] = 1

	again, err := s.Get(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{answerset.KeyIgnoreCase: false}, again.Raw)
}

func TestLoadYAML(t *testing.T) {
	raw, err := profile.LoadYAML(strings.NewReader(`
Ignore Case: false
Numeric Comparison Factor: 1.5
Separators: ";,/"
Equivalent Strings:
  - [colour, color]
  - [grey, gray]
`))
	require.NoError(t, err)
	s := answerset.SettingsFromMap(raw)
	assert.False(t, s.IgnoreCase)
	assert.Equal(t, 1.5, s.NumericFactor)
	assert.Equal(t, ";,/", s.Separators)
	assert.Equal(t, [][]string{{"colour", "color"}, {"grey", "gray"}}, s.EquivalentStrings)

	raw, err = profile.LoadYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, raw)

	_, err = profile.LoadYAML(strings.NewReader("- just\n- a list\n"))
	assert.Error(t, err)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	s := profile.NewMemStore()

	p, err := profile.Seed(ctx, s, "")
	require.NoError(t, err)
	assert.Equal(t, profile.DefaultName, p.Name)
	assert.Empty(t, p.Raw)

	path := filepath.Join(t.TempDir(), "options.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Ignore Case: false\n"), 0o600))
	_, err = profile.Seed(ctx, s, path)
	require.NoError(t, err)

	// without a file the stored default survives
	p, err = profile.Seed(ctx, s, "")
	require.NoError(t, err)
	assert.False(t, p.Options(profile.Limits{}).Settings().IgnoreCase)

	_, err = profile.Seed(ctx, s, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestProfileLimits(t *testing.T) {
	p := profile.Profile{Name: "p"}
	long := strings.Repeat("a", 20)
	o := p.Options(profile.Limits{MaxUnits: 8})
	// above the unit limit the whole answer is one wrong block
	assert.Contains(t, answerset.Compare(o, long, long+"b"), "<span class=typeBad>"+long+"b</span>")
	assert.NotContains(t, answerset.Compare(p.Options(profile.Limits{}), long, long+"b"), "<span class=typeBad>"+long)
}
