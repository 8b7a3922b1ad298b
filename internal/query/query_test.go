package query

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdxerrors "github.com/pathdex/pathdex/internal/errors"
	"github.com/pathdex/pathdex/internal/index"
	"github.com/pathdex/pathdex/internal/meta"
	"github.com/pathdex/pathdex/internal/perm"
	"github.com/pathdex/pathdex/internal/pipeline"
)

type staticView struct {
	v *pipeline.View
}

func (s staticView) View() *pipeline.View { return s.v }

type staticTokens map[string]perm.Identity

func (s staticTokens) Validate(secret string) (perm.Identity, error) {
	id, ok := s[secret]
	if !ok {
		return perm.Identity{}, pdxerrors.AuthError()
	}
	return id, nil
}

func ident(name string, uid uint32, gids ...uint32) perm.Identity {
	groups := make(map[uint32]struct{}, len(gids))
	for _, g := range gids {
		groups[g] = struct{}{}
	}
	return perm.Identity{Name: name, UID: uid, Groups: groups}
}

type fixtureFile struct {
	path string
	uid  uint32
	gid  uint32
	mode uint32
}

// buildView indexes the fixture files into a fresh combined view.
func buildView(t *testing.T, files []fixtureFile) *pipeline.View {
	t.Helper()
	store := index.NewStore()
	perms := perm.NewIndex()

	idxBatch := make([]index.Mutation, 0, len(files))
	permBatch := make([]perm.Mutation, 0, len(files))
	for _, f := range files {
		m := meta.Metadata{
			Kind:    meta.KindFile,
			Size:    1,
			ModTime: time.Unix(1700000000, 0),
			UID:     f.uid,
			GID:     f.gid,
			Mode:    fs.FileMode(f.mode),
		}
		idxBatch = append(idxBatch, index.Mutation{Op: index.OpUpsert, Path: f.path, Meta: m})
		permBatch = append(permBatch, perm.Mutation{Record: perm.FromMetadata(f.path, m)})
	}
	store.Apply(idxBatch)
	perms.Apply(permBatch)
	return &pipeline.View{Index: store.Snapshot(), Perm: perms.Snapshot()}
}

func newExecutor(t *testing.T, files []fixtureFile, tokens staticTokens, opts Options) *Executor {
	t.Helper()
	return New(staticView{buildView(t, files)}, tokens, opts)
}

func TestQuery_RejectsInvalidArguments(t *testing.T) {
	e := newExecutor(t, nil, staticTokens{"s": ident("alice", 1000)}, Options{})

	tests := []struct {
		name string
		req  Request
	}{
		{"empty pattern", Request{Secret: "s", Pattern: "", Count: 10}},
		{"zero count", Request{Secret: "s", Pattern: "doc", Count: 0}},
		{"negative offset", Request{Secret: "s", Pattern: "doc", Count: 10, Offset: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Query(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, pdxerrors.ErrCodeInvalidArgument, pdxerrors.GetCode(err))
		})
	}
}

func TestQuery_RejectsUnknownSecret(t *testing.T) {
	// Given: an executor that knows one secret
	e := newExecutor(t, nil, staticTokens{"good": ident("alice", 1000)}, Options{})

	// When: a query arrives with a different secret
	_, err := e.Query(context.Background(), Request{Secret: "bad", Pattern: "doc", Count: 10})

	// Then: an opaque auth failure comes back
	require.Error(t, err)
	assert.True(t, pdxerrors.IsAuthFailure(err))
}

func TestQuery_SubstringMatchRespectsPermissions(t *testing.T) {
	// Given: a world-readable file and an owner-only file owned by bob
	files := []fixtureFile{
		{path: "/srv/public/report.txt", uid: 1001, gid: 1001, mode: 0o644},
		{path: "/srv/private/report.txt", uid: 1001, gid: 1001, mode: 0o600},
	}
	tokens := staticTokens{
		"alice": ident("alice", 1000, 1000),
		"bob":   ident("bob", 1001, 1001),
	}
	e := newExecutor(t, files, tokens, Options{})

	// When: alice searches for "report"
	res, err := e.Query(context.Background(), Request{Secret: "alice", Pattern: "report", Count: 10})
	require.NoError(t, err)

	// Then: only the world-readable file is visible to alice
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "/srv/public/report.txt", res.Matches[0].Path)

	// And: bob sees both of his files
	res, err = e.Query(context.Background(), Request{Secret: "bob", Pattern: "report", Count: 10})
	require.NoError(t, err)
	assert.Len(t, res.Matches, 2)
}

func TestQuery_GroupReadGrantsVisibility(t *testing.T) {
	// Given: a group-readable file owned by bob's group
	files := []fixtureFile{
		{path: "/srv/shared/notes.txt", uid: 1001, gid: 2000, mode: 0o640},
	}
	tokens := staticTokens{
		"carol": ident("carol", 1002, 1002, 2000),
		"dave":  ident("dave", 1003, 1003),
	}
	e := newExecutor(t, files, tokens, Options{})

	// When/Then: a member of gid 2000 sees it, a non-member does not
	res, err := e.Query(context.Background(), Request{Secret: "carol", Pattern: "notes", Count: 10})
	require.NoError(t, err)
	assert.Len(t, res.Matches, 1)

	res, err = e.Query(context.Background(), Request{Secret: "dave", Pattern: "notes", Count: 10})
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
}

func TestQuery_LeadingSlashPatternIsStillSubstringMatch(t *testing.T) {
	// Given: a file whose path contains "/log" in the middle
	files := []fixtureFile{
		{path: "/var/log/syslog", uid: 1000, gid: 1000, mode: 0o644},
	}
	e := newExecutor(t, files, staticTokens{"s": ident("alice", 1000)}, Options{})

	// When: the pattern starts with a path separator
	res, err := e.Query(context.Background(), Request{Secret: "s", Pattern: "/log", Count: 10})
	require.NoError(t, err)

	// Then: it matches as a substring, not only from the path start
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "/var/log/syslog", res.Matches[0].Path)
	assert.Equal(t, 1, res.Total)
}

func TestQuery_PaginationIsDeterministicAndDisjoint(t *testing.T) {
	// Given: five matching files
	var files []fixtureFile
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		files = append(files, fixtureFile{
			path: "/data/item-" + name + ".txt",
			uid:  1000, gid: 1000, mode: 0o644,
		})
	}
	e := newExecutor(t, files, staticTokens{"s": ident("alice", 1000)}, Options{})

	// When: the result is fetched in pages of two
	var paged []string
	for offset := 0; offset < 5; offset += 2 {
		res, err := e.Query(context.Background(), Request{
			Secret: "s", Pattern: "item-", Count: 2, Offset: offset,
		})
		require.NoError(t, err)
		assert.Equal(t, 5, res.Total)
		for _, m := range res.Matches {
			paged = append(paged, m.Path)
		}
	}

	// Then: the pages partition the full canonical order with no overlap
	full, err := e.Query(context.Background(), Request{Secret: "s", Pattern: "item-", Count: 10})
	require.NoError(t, err)
	var all []string
	for _, m := range full.Matches {
		all = append(all, m.Path)
	}
	assert.Equal(t, all, paged)
}

func TestQuery_OffsetBeyondMatchesReturnsEmpty(t *testing.T) {
	// Given: one matching file
	files := []fixtureFile{{path: "/data/only.txt", uid: 1000, gid: 1000, mode: 0o644}}
	e := newExecutor(t, files, staticTokens{"s": ident("alice", 1000)}, Options{})

	// When: the offset passes the last match
	res, err := e.Query(context.Background(), Request{Secret: "s", Pattern: "only", Count: 10, Offset: 5})

	// Then: an empty page with the true total
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Equal(t, 1, res.Total)
}

func TestQuery_CountIsCapped(t *testing.T) {
	// Given: three matching files and a max count of two
	files := []fixtureFile{
		{path: "/data/x1.txt", uid: 1000, gid: 1000, mode: 0o644},
		{path: "/data/x2.txt", uid: 1000, gid: 1000, mode: 0o644},
		{path: "/data/x3.txt", uid: 1000, gid: 1000, mode: 0o644},
	}
	e := newExecutor(t, files, staticTokens{"s": ident("alice", 1000)}, Options{MaxCount: 2})

	// When: the client asks for more than the cap
	res, err := e.Query(context.Background(), Request{Secret: "s", Pattern: "x", Count: 100})

	// Then: the page is bounded by the cap but the total is honest
	require.NoError(t, err)
	assert.Len(t, res.Matches, 2)
	assert.Equal(t, 3, res.Total)
}

func TestQuery_TotalCountsOnlyVisibleMatches(t *testing.T) {
	// Given: two matches, one hidden from alice
	files := []fixtureFile{
		{path: "/data/open.log", uid: 1001, gid: 1001, mode: 0o644},
		{path: "/data/closed.log", uid: 1001, gid: 1001, mode: 0o600},
	}
	e := newExecutor(t, files, staticTokens{"alice": ident("alice", 1000)}, Options{})

	// When: alice queries with a small page
	res, err := e.Query(context.Background(), Request{Secret: "alice", Pattern: ".log", Count: 1})

	// Then: the total excludes the file she cannot see
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
}
