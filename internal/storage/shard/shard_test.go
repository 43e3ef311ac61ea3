package shard

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "dossier/pkg/domain-errors"
	"dossier/pkg/testutil"
)

const base = "SRS_CONTATOS"

func defaultRouter(t *testing.T) *Router {
	t.Helper()
	r, err := New(map[string][]Range{base: DefaultRanges(base)})
	require.NoError(t, err)
	return r
}

func TestRouteBoundaries(t *testing.T) {
	r := defaultRouter(t)
	tests := []struct {
		key  string
		want string
	}{
		{"00000000000", "SRS_CONTATOS_0"},
		{"19999999999", "SRS_CONTATOS_0"},
		{"20000000000", "SRS_CONTATOS_1"},
		{"11144477735", "SRS_CONTATOS_0"},
		{"52998224725", "SRS_CONTATOS_2"},
		{"79999999999", "SRS_CONTATOS_3"},
		{"99999999999", "SRS_CONTATOS_4"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := r.Route(base, tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Every 11-digit key routes to exactly one instance, and always the same one.
func TestRouteIsTotalAndDeterministic(t *testing.T) {
	r := defaultRouter(t)
	rng := rand.New(rand.NewPCG(1, 2))
	for range 2000 {
		key := fmt.Sprintf("%011d", rng.Uint64N(100_000_000_000))
		first, err := r.Route(base, key)
		require.NoError(t, err, key)
		again, _ := r.Route(base, key)
		assert.Equal(t, first, again)

		matches := 0
		for _, rg := range DefaultRanges(base) {
			if rg.contains(key) {
				matches++
			}
		}
		assert.Equal(t, 1, matches, key)
	}
}

func TestRouteUnshardedBaseIsIdentity(t *testing.T) {
	r := defaultRouter(t)
	got, err := r.Route("SRS_EMAIL", "11144477735")
	require.NoError(t, err)
	assert.Equal(t, "SRS_EMAIL", got)
	assert.False(t, r.Sharded("SRS_EMAIL"))
	assert.True(t, r.Sharded(base))
}

func TestRouteMalformedKeyIsRoutingError(t *testing.T) {
	r := defaultRouter(t)
	_, err := r.Route(base, "abc")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeRouting))
}

func TestNewRejectsBadTables(t *testing.T) {
	tests := []struct {
		name   string
		ranges []Range
		msg    string
	}{
		{"empty", nil, "no ranges"},
		{"gap at start", []Range{{"00000000001", "99999999999", "a"}}, "gap before"},
		{"gap at end", []Range{{"00000000000", "99999999998", "a"}}, "gap after"},
		{"gap between", []Range{
			{"00000000000", "49999999999", "a"},
			{"50000000001", "99999999999", "b"},
		}, "gap between"},
		{"overlap", []Range{
			{"00000000000", "50000000000", "a"},
			{"50000000000", "99999999999", "b"},
		}, "overlaps"},
		{"inverted", []Range{{"99999999999", "00000000000", "a"}}, "lower above upper"},
		{"short bound", []Range{{"0", "99999999999", "a"}}, "digits"},
		{"no instance", []Range{{"00000000000", "99999999999", ""}}, "instance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(map[string][]Range{base: tt.ranges})
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestNewAcceptsUnsortedInput(t *testing.T) {
	r, err := New(map[string][]Range{base: {
		{"50000000000", "99999999999", "b"},
		{"00000000000", "49999999999", "a"},
	}})
	require.NoError(t, err)
	got, err := r.Route(base, "50000000000")
	require.NoError(t, err)
	assert.Equal(t, "b", got)
}

func TestInstances(t *testing.T) {
	r := defaultRouter(t)
	assert.Equal(t, []string{
		"SRS_CONTATOS_0", "SRS_CONTATOS_1", "SRS_CONTATOS_2", "SRS_CONTATOS_3", "SRS_CONTATOS_4",
	}, r.Instances())
}

func TestParseTables(t *testing.T) {
	tables, err := ParseTables(" SRS_CONTATOS = 00000000000-49999999999:A , 50000000000-99999999999:B ; SRS_EMAIL=default ;")
	require.NoError(t, err)
	assert.Equal(t, []Range{
		{"00000000000", "49999999999", "A"},
		{"50000000000", "99999999999", "B"},
	}, tables["SRS_CONTATOS"])
	assert.Equal(t, DefaultRanges("SRS_EMAIL"), tables["SRS_EMAIL"])

	_, err = New(tables)
	assert.NoError(t, err)

	empty, err := ParseTables("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, bad := range []string{"SRS_CONTATOS", "=default", "A=0-9", "A=default;A=default"} {
		_, err := ParseTables(bad)
		assert.Error(t, err, bad)
	}
}

func TestShardedContactsLookup(t *testing.T) {
	testutil.Given(t, "contacts split in two halves", func(t *testing.T) {
		tables, err := ParseTables(base + "=00000000000-49999999999:SRS_CONTATOS_A,50000000000-99999999999:SRS_CONTATOS_B")
		require.NoError(t, err)
		r, err := New(tables)
		require.NoError(t, err)

		testutil.When(t, "routing a CPF from the upper half", func(t *testing.T) {
			got, err := r.Route(base, "52998224725")

			testutil.Then(t, "the second instance serves it", func(t *testing.T) {
				require.NoError(t, err)
				assert.Equal(t, "SRS_CONTATOS_B", got)
			})
		})

		testutil.When(t, "routing another base", func(t *testing.T) {
			got, err := r.Route("SRS_EMAIL", "52998224725")

			testutil.Then(t, "the base serves itself", func(t *testing.T) {
				require.NoError(t, err)
				assert.Equal(t, "SRS_EMAIL", got)
			})
		})
	})
}
