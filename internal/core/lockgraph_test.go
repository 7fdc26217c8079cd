package core

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depbundle/internal/types"
)

const (
	testLockDir     = "/ws"
	testProjectRoot = "/ws"
)

// fakeStore resolves store paths without touching the filesystem.
type fakeStore struct{}

func (fakeStore) ResolveDir(path string) (string, error) {
	return path, nil
}

// fakeDescriptors maps member directories to their declared package names.
type fakeDescriptors map[string]string

func (f fakeDescriptors) PackageName(dir string) (string, error) {
	if name, ok := f[dir]; ok {
		return name, nil
	}
	return "", errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg("no package descriptor with a name in " + dir)
}

func testResolver(descriptors fakeDescriptors) LockResolver {
	return NewLockResolver(descriptors, fakeStore{})
}

func storeDir(name string, version string) string {
	flattened := strings.ReplaceAll(name, "/", "+")
	return filepath.Join(testLockDir, "node_modules", ".deno", flattened+"@"+version, "node_modules", name)
}

func TestParseLockDocument(t *testing.T) {
	data := []byte(`{
		"version": "5",
		"specifiers": {"chalk@^5.0.0": "5.3.0"},
		"npm": {"chalk@5.3.0": {"integrity": "sha512-abc"}},
		"workspace": {
			"members": {
				"packages/a": {"dependencies": ["chalk@^5.0.0"]}
			}
		}
	}`)
	doc, err := ParseLockDocument(data)
	require.NoError(t, err)
	assert.Equal(t, "5", doc.Version)
	assert.Equal(t, "5.3.0", doc.Specifiers["chalk@^5.0.0"])
	assert.Contains(t, doc.Registries[types.RegistryNPM], "chalk@5.3.0")
	require.Contains(t, doc.Workspace.Members, "packages/a")
	assert.Equal(t, []string{"chalk@^5.0.0"}, doc.Workspace.Members["packages/a"].Dependencies)
}

func TestParseLockDocumentSingleRootWorkspace(t *testing.T) {
	data := []byte(`{
		"version": "5",
		"workspace": {"dependencies": ["npm:chalk@^5.0.0"]}
	}`)
	doc, err := ParseLockDocument(data)
	require.NoError(t, err)
	require.Contains(t, doc.Workspace.Members, ".")
	assert.Equal(t, []string{"npm:chalk@^5.0.0"}, doc.Workspace.Members["."].Dependencies)
}

func TestParseLockDocumentMissingVersion(t *testing.T) {
	_, err := ParseLockDocument([]byte(`{"npm": {}}`))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestParseLockDocumentMalformedJSON(t *testing.T) {
	_, err := ParseLockDocument([]byte(`{"version": `))
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestResolveWithoutAllowListIncludesEverything(t *testing.T) {
	doc := lockDoc(map[string]types.RegistryEntry{
		"lodash@4.17.21":  {},
		"is-number@7.0.0": {},
	}, nil, nil)
	selection, err := testResolver(nil).Resolve(t.Context(), doc, testLockDir, testProjectRoot, nil)
	require.NoError(t, err)

	want := []string{
		testProjectRoot,
		storeDir("is-number", "7.0.0"),
		storeDir("lodash", "4.17.21"),
	}
	if diff := cmp.Diff(want, selection.Sorted()); diff != "" {
		t.Fatalf("unexpected selection (-want +got):\n%s", diff)
	}
}

func TestResolveExpandsMergedKeys(t *testing.T) {
	doc := lockDoc(map[string]types.RegistryEntry{
		"fdir@6.4.6_picomatch@4.0.2": {},
	}, nil, nil)
	selection, err := testResolver(nil).Resolve(t.Context(), doc, testLockDir, testProjectRoot, nil)
	require.NoError(t, err)

	assert.True(t, selection.Contains(storeDir("fdir", "6.4.6")))
	assert.True(t, selection.Contains(storeDir("picomatch", "4.0.2")))
}

func TestResolveAllowListRegistryClosure(t *testing.T) {
	doc := lockDoc(map[string]types.RegistryEntry{
		"chalk@5.3.0":       {Dependencies: []string{"ansi-styles@6.2.1"}},
		"ansi-styles@6.2.1": {},
		"unused@1.0.0":      {},
	}, nil, nil)
	selection, err := testResolver(nil).Resolve(t.Context(), doc, testLockDir, testProjectRoot, []string{"chalk"})
	require.NoError(t, err)

	assert.True(t, selection.Contains(storeDir("chalk", "5.3.0")))
	assert.True(t, selection.Contains(storeDir("ansi-styles", "6.2.1")), "transitive dependency must be selected")
	assert.False(t, selection.Contains(storeDir("unused", "1.0.0")))
	assert.True(t, selection.Contains(testProjectRoot))
}

func TestResolveAllowListWorkspaceClosure(t *testing.T) {
	doc := lockDoc(map[string]types.RegistryEntry{
		"chalk@5.3.0": {},
	}, map[string]string{
		"chalk@^5.0.0": "5.3.0",
	}, map[string]types.WorkspaceMember{
		"packages/a": {
			Dependencies:          []string{"chalk@^5.0.0"},
			WorkspaceDependencies: []string{"pkg-b"},
		},
		"packages/b": {},
		"packages/c": {},
	})
	descriptors := fakeDescriptors{
		filepath.Join(testLockDir, "packages/a"): "pkg-a",
		filepath.Join(testLockDir, "packages/b"): "pkg-b",
		filepath.Join(testLockDir, "packages/c"): "pkg-c",
	}
	selection, err := testResolver(descriptors).Resolve(t.Context(), doc, testLockDir, testProjectRoot, []string{"pkg-a"})
	require.NoError(t, err)

	assert.True(t, selection.Contains(filepath.Join(testLockDir, "packages/a")))
	assert.True(t, selection.Contains(filepath.Join(testLockDir, "packages/b")), "workspace dependency must be selected")
	assert.False(t, selection.Contains(filepath.Join(testLockDir, "packages/c")))
	assert.True(t, selection.Contains(storeDir("chalk", "5.3.0")), "range must resolve through the specifier table")
}

func TestResolveWorkspaceProtocolDependency(t *testing.T) {
	doc := lockDoc(nil, nil, map[string]types.WorkspaceMember{
		"packages/a": {Dependencies: []string{"workspace:pkg-b@*"}},
		"packages/b": {},
	})
	descriptors := fakeDescriptors{
		filepath.Join(testLockDir, "packages/a"): "pkg-a",
		filepath.Join(testLockDir, "packages/b"): "pkg-b",
	}
	selection, err := testResolver(descriptors).Resolve(t.Context(), doc, testLockDir, testProjectRoot, []string{"pkg-a"})
	require.NoError(t, err)
	assert.True(t, selection.Contains(filepath.Join(testLockDir, "packages/b")))
}

func TestResolveRebindsAliasedDependencies(t *testing.T) {
	doc := lockDoc(map[string]types.RegistryEntry{
		"alias-user@1.0.0": {Dependencies: []string{"alias@npm:real@1.0.0"}},
		"real@1.0.0":       {},
	}, nil, nil)
	selection, err := testResolver(nil).Resolve(t.Context(), doc, testLockDir, testProjectRoot, []string{"alias-user"})
	require.NoError(t, err)

	assert.True(t, selection.Contains(storeDir("real", "1.0.0")), "alias must unwrap to the real package")
	assert.False(t, selection.Contains(storeDir("alias", "1.0.0")))
}

func TestResolveCrossRegistryDependency(t *testing.T) {
	doc := types.LockDocument{
		Version:    "5",
		Specifiers: map[string]string{},
		Workspace:  types.WorkspaceSection{Members: map[string]types.WorkspaceMember{}},
		Registries: map[types.RegistryID]map[string]types.RegistryEntry{
			types.RegistryNPM: {
				"bridge@1.0.0": {Dependencies: []string{"jsr:@std/path@1.0.6"}},
			},
			types.RegistryJSR: {
				"@std/path@1.0.6": {},
			},
		},
	}
	selection, err := testResolver(nil).Resolve(t.Context(), doc, testLockDir, testProjectRoot, []string{"bridge"})
	require.NoError(t, err)

	assert.True(t, selection.Contains(storeDir("@std/path", "1.0.6")))
}

func TestResolveVersionlessRefPicksFirstSortedKey(t *testing.T) {
	doc := lockDoc(map[string]types.RegistryEntry{
		"user@1.0.0": {Dependencies: []string{"foo"}},
		"foo@1.0.0":  {},
		"foo@2.0.0":  {},
	}, nil, nil)
	selection, err := testResolver(nil).Resolve(t.Context(), doc, testLockDir, testProjectRoot, []string{"user"})
	require.NoError(t, err)

	assert.True(t, selection.Contains(storeDir("foo", "1.0.0")))
	assert.False(t, selection.Contains(storeDir("foo", "2.0.0")))
}

func TestResolveMissingRegistryDependency(t *testing.T) {
	doc := lockDoc(map[string]types.RegistryEntry{
		"user@1.0.0": {Dependencies: []string{"ghost@1.0.0"}},
	}, nil, nil)
	_, err := testResolver(nil).Resolve(t.Context(), doc, testLockDir, testProjectRoot, []string{"user"})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
	assert.Contains(t, err.Error(), "missing dependency")
}

func TestResolveMissingWorkspaceMember(t *testing.T) {
	doc := lockDoc(nil, nil, map[string]types.WorkspaceMember{
		"packages/a": {WorkspaceDependencies: []string{"pkg-ghost"}},
	})
	descriptors := fakeDescriptors{
		filepath.Join(testLockDir, "packages/a"): "pkg-a",
	}
	_, err := testResolver(descriptors).Resolve(t.Context(), doc, testLockDir, testProjectRoot, []string{"pkg-a"})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestResolveMissingSpecifier(t *testing.T) {
	doc := lockDoc(nil, nil, map[string]types.WorkspaceMember{
		"packages/a": {Dependencies: []string{"chalk@^5.0.0"}},
	})
	descriptors := fakeDescriptors{
		filepath.Join(testLockDir, "packages/a"): "pkg-a",
	}
	_, err := testResolver(descriptors).Resolve(t.Context(), doc, testLockDir, testProjectRoot, []string{"pkg-a"})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
	assert.Contains(t, err.Error(), "missing specifier")
}

func TestResolveDependencyCycleTerminates(t *testing.T) {
	doc := lockDoc(map[string]types.RegistryEntry{
		"a@1.0.0": {Dependencies: []string{"b@1.0.0"}},
		"b@1.0.0": {Dependencies: []string{"a@1.0.0"}},
	}, nil, nil)
	selection, err := testResolver(nil).Resolve(t.Context(), doc, testLockDir, testProjectRoot, []string{"a"})
	require.NoError(t, err)

	assert.True(t, selection.Contains(storeDir("a", "1.0.0")))
	assert.True(t, selection.Contains(storeDir("b", "1.0.0")))
}

func TestResolvePathologicalChainHitsIterationCap(t *testing.T) {
	entries := make(map[string]types.RegistryEntry, traversalCap+1)
	for i := 0; i <= traversalCap; i++ {
		entry := types.RegistryEntry{}
		if i < traversalCap {
			entry.Dependencies = []string{fmt.Sprintf("p%d@1.0.0", i+1)}
		}
		entries[fmt.Sprintf("p%d@1.0.0", i)] = entry
	}
	doc := lockDoc(entries, nil, nil)
	_, err := testResolver(nil).Resolve(t.Context(), doc, testLockDir, testProjectRoot, []string{"p0"})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestResolveIsDeterministic(t *testing.T) {
	doc := lockDoc(map[string]types.RegistryEntry{
		"a@1.0.0": {Dependencies: []string{"c@1.0.0"}},
		"b@1.0.0": {Dependencies: []string{"c@1.0.0"}},
		"c@1.0.0": {},
	}, nil, nil)
	resolver := testResolver(nil)

	first, err := resolver.Resolve(t.Context(), doc, testLockDir, testProjectRoot, []string{"a", "b"})
	require.NoError(t, err)
	second, err := resolver.Resolve(t.Context(), doc, testLockDir, testProjectRoot, []string{"b", "a"})
	require.NoError(t, err)

	if diff := cmp.Diff(first.Sorted(), second.Sorted()); diff != "" {
		t.Fatalf("runs disagree (-first +second):\n%s", diff)
	}
}

// lockDoc builds a parsed document with the given npm entries, specifier
// table, and workspace members.
func lockDoc(npm map[string]types.RegistryEntry, specifiers map[string]string, members map[string]types.WorkspaceMember) types.LockDocument {
	if npm == nil {
		npm = map[string]types.RegistryEntry{}
	}
	if specifiers == nil {
		specifiers = map[string]string{}
	}
	if members == nil {
		members = map[string]types.WorkspaceMember{}
	}
	return types.LockDocument{
		Version:    "5",
		Specifiers: specifiers,
		Workspace:  types.WorkspaceSection{Members: members},
		Registries: map[types.RegistryID]map[string]types.RegistryEntry{
			types.RegistryNPM: npm,
			types.RegistryJSR: {},
		},
	}
}
