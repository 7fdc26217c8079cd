package core

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/rs/zerolog/log"

	"depbundle/internal/ports"
	"depbundle/internal/types"
)

// storeSegment is the directory under node_modules where the lockfile
// ecosystem materializes every locked package version.
const storeSegment = ".deno"

// workspaceRootPath is the catalog path of a single unnamed root workspace.
const workspaceRootPath = "."

// LockResolver reconstructs the workspace and registry dependency graph of a
// lock document and computes the set of package directories a deployment
// needs. Filesystem lookups go through injected ports so the traversal is a
// pure computation over one immutable snapshot.
type LockResolver struct {
	Descriptors ports.DescriptorPort
	Store       ports.PackageStorePort
}

func NewLockResolver(descriptors ports.DescriptorPort, store ports.PackageStorePort) LockResolver {
	return LockResolver{
		Descriptors: descriptors,
		Store:       store,
	}
}

// lockDocumentJSON mirrors the raw lock file shape before validation.
type lockDocumentJSON struct {
	Version    string                         `json:"version"`
	Specifiers map[string]string              `json:"specifiers"`
	Workspace  json.RawMessage                `json:"workspace"`
	NPM        map[string]types.RegistryEntry `json:"npm"`
	JSR        map[string]types.RegistryEntry `json:"jsr"`
}

// workspaceJSON covers both accepted workspace shapes: a map of members, or
// a single unnamed root whose dependency fields sit directly on the section.
type workspaceJSON struct {
	Members               map[string]types.WorkspaceMember `json:"members"`
	Dependencies          []string                         `json:"dependencies"`
	WorkspaceDependencies []string                         `json:"workspaceDependencies"`
}

// ParseLockDocument parses the JSON lock document and validates its required
// fields.
func ParseLockDocument(data []byte) (types.LockDocument, error) {
	var raw lockDocumentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return types.LockDocument{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse lock document").
			WithCause(err)
	}
	if strings.TrimSpace(raw.Version) == "" {
		return types.LockDocument{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("lock document is missing the format version")
	}

	doc := types.LockDocument{
		Version:    raw.Version,
		Specifiers: raw.Specifiers,
		Registries: map[types.RegistryID]map[string]types.RegistryEntry{
			types.RegistryNPM: raw.NPM,
			types.RegistryJSR: raw.JSR,
		},
	}
	if doc.Specifiers == nil {
		doc.Specifiers = map[string]string{}
	}
	for id, entries := range doc.Registries {
		if entries == nil {
			doc.Registries[id] = map[string]types.RegistryEntry{}
		}
	}

	members := map[string]types.WorkspaceMember{}
	if len(raw.Workspace) > 0 {
		var ws workspaceJSON
		if err := json.Unmarshal(raw.Workspace, &ws); err != nil {
			return types.LockDocument{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to parse workspace section").
				WithCause(err)
		}
		if ws.Members != nil {
			members = ws.Members
		} else {
			members[workspaceRootPath] = types.WorkspaceMember{
				Dependencies:          ws.Dependencies,
				WorkspaceDependencies: ws.WorkspaceDependencies,
			}
		}
	} else {
		members[workspaceRootPath] = types.WorkspaceMember{}
	}
	doc.Workspace = types.WorkspaceSection{Members: members}
	return doc, nil
}

// Resolve computes the selection for a parsed lock document. lockDir is the
// directory containing the lock file; projectRoot is always part of the
// result. With no allow-list every locked entry across every registry is
// included; with an allow-list only the minimal closure reachable from the
// listed top-level names is.
func (r LockResolver) Resolve(ctx context.Context, doc types.LockDocument, lockDir string, projectRoot string, allowList []string) (types.Selection, error) {
	selection := types.NewSelection(projectRoot)

	if len(allowList) == 0 {
		if err := r.collectAllEntries(doc, lockDir, selection); err != nil {
			return types.Selection{}, err
		}
		log.Ctx(ctx).Debug().Int("directories", selection.Len()).Msg("lockfile resolved without allow-list")
		return selection, nil
	}

	catalog, err := r.buildWorkspaceCatalog(ctx, doc, lockDir)
	if err != nil {
		return types.Selection{}, err
	}

	allow := mapset.NewSet[string]()
	for _, name := range allowList {
		allow.Add(name)
	}

	wsFrontier := catalog.seedMembers(allow)
	regVisited := mapset.NewSet[string]()
	regFrontier, err := seedRegistryTokens(doc, allow, regVisited)
	if err != nil {
		return types.Selection{}, err
	}

	regFrontier, err = r.drainWorkspaceFrontier(doc, catalog, wsFrontier, regVisited, regFrontier, selection)
	if err != nil {
		return types.Selection{}, err
	}
	if err := r.drainRegistryFrontier(doc, lockDir, regVisited, regFrontier, selection); err != nil {
		return types.Selection{}, err
	}

	log.Ctx(ctx).Debug().
		Int("allowed", allow.Cardinality()).
		Int("directories", selection.Len()).
		Msg("lockfile resolved with allow-list")
	return selection, nil
}

// collectAllEntries records the store path of every entry across every
// registry, expanding merged keys.
func (r LockResolver) collectAllEntries(doc types.LockDocument, lockDir string, selection types.Selection) error {
	for _, id := range sortedRegistryIDs(doc) {
		for _, key := range sortedKeys(doc.Registries[id]) {
			parts, err := SplitMergedKey(key)
			if err != nil {
				return err
			}
			for _, part := range parts {
				name, version, err := SplitNameVersion(part)
				if err != nil {
					return err
				}
				dir, err := r.Store.ResolveDir(storePath(lockDir, name, version))
				if err != nil {
					return err
				}
				selection.Add(dir)
			}
		}
	}
	return nil
}

// workspaceEntry is one catalog row: a workspace member located on disk and
// enriched with the package name declared in its local descriptor.
type workspaceEntry struct {
	path   string
	dir    string
	name   string
	member types.WorkspaceMember
}

type workspaceCatalog struct {
	entries []*workspaceEntry
	byName  map[string]*workspaceEntry
	byPath  map[string]*workspaceEntry
}

// buildWorkspaceCatalog reads every member's local descriptor to recover its
// declared name. Members without a readable descriptor stay in the catalog
// unnamed; they cannot be seeded by name.
func (r LockResolver) buildWorkspaceCatalog(ctx context.Context, doc types.LockDocument, lockDir string) (workspaceCatalog, error) {
	catalog := workspaceCatalog{
		byName: map[string]*workspaceEntry{},
		byPath: map[string]*workspaceEntry{},
	}
	paths := make([]string, 0, len(doc.Workspace.Members))
	for path := range doc.Workspace.Members {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		dir := lockDir
		if path != workspaceRootPath {
			dir = filepath.Join(lockDir, path)
		}
		entry := &workspaceEntry{
			path:   path,
			dir:    dir,
			member: doc.Workspace.Members[path],
		}
		name, err := r.Descriptors.PackageName(dir)
		if err != nil {
			log.Ctx(ctx).Debug().Str("member", path).Msg("workspace member has no readable descriptor")
		} else {
			entry.name = name
			catalog.byName[name] = entry
		}
		catalog.entries = append(catalog.entries, entry)
		catalog.byPath[path] = entry
	}
	return catalog, nil
}

// seedMembers returns the members whose declared name is allow-listed.
func (c workspaceCatalog) seedMembers(allow mapset.Set[string]) []*workspaceEntry {
	var frontier []*workspaceEntry
	for _, entry := range c.entries {
		if entry.name != "" && allow.Contains(entry.name) {
			frontier = append(frontier, entry)
		}
	}
	return frontier
}

// seedRegistryTokens marks every top-level registry key whose bare package
// name is allow-listed as visited and queues it for traversal.
func seedRegistryTokens(doc types.LockDocument, allow mapset.Set[string], visited mapset.Set[string]) ([]string, error) {
	var frontier []string
	for _, id := range sortedRegistryIDs(doc) {
		for _, key := range sortedKeys(doc.Registries[id]) {
			parts, err := SplitMergedKey(key)
			if err != nil {
				return nil, err
			}
			name, _, err := SplitNameVersion(parts[0])
			if err != nil {
				return nil, err
			}
			if !allow.Contains(name) {
				continue
			}
			token := string(id) + ":" + key
			if visited.Add(token) {
				frontier = append(frontier, token)
			}
		}
	}
	return frontier, nil
}

// drainWorkspaceFrontier walks workspace-internal dependencies LIFO, records
// each member's directory, and converts registry-external ranges into
// registry tokens through the specifier table. Returns the grown registry
// frontier.
func (r LockResolver) drainWorkspaceFrontier(
	doc types.LockDocument,
	catalog workspaceCatalog,
	frontier []*workspaceEntry,
	regVisited mapset.Set[string],
	regFrontier []string,
	selection types.Selection,
) ([]string, error) {
	visited := mapset.NewSet[*workspaceEntry]()
	for steps := 0; len(frontier) > 0; steps++ {
		if steps >= traversalCap {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("workspace traversal exceeded iteration cap")
		}
		entry := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		if !visited.Add(entry) {
			continue
		}
		selection.Add(entry.dir)

		for _, name := range entry.member.WorkspaceDependencies {
			target, ok := catalog.byName[name]
			if !ok {
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeNotFound).
					WithMsg(fmt.Sprintf("missing dependency: workspace member %s", name))
			}
			frontier = append(frontier, target)
		}

		for _, dep := range entry.member.Dependencies {
			registry, rest := SplitDependencyRef(dep, types.RegistryNPM)
			if isWorkspaceProtocol(registry) {
				target, ok := catalog.byName[CleanName(rest)]
				if !ok {
					target, ok = catalog.byPath[filepath.Clean(rest)]
				}
				if !ok {
					return nil, errbuilder.New().
						WithCode(errbuilder.CodeNotFound).
						WithMsg(fmt.Sprintf("missing dependency: workspace member %s", rest))
				}
				frontier = append(frontier, target)
				continue
			}
			exact, ok := lookupSpecifier(doc, registry, rest)
			if !ok {
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeInvalidArgument).
					WithMsg(fmt.Sprintf("missing specifier for declared range: %s", dep))
			}
			token := string(registry) + ":" + CleanName(rest) + "@" + exact
			if regVisited.Add(token) {
				regFrontier = append(regFrontier, token)
			}
		}
	}
	return regFrontier, nil
}

// drainRegistryFrontier walks registry tokens LIFO: resolves each token to a
// lock key, expands merged keys into store directories, and enqueues the
// entry's own dependencies.
func (r LockResolver) drainRegistryFrontier(
	doc types.LockDocument,
	lockDir string,
	visited mapset.Set[string],
	frontier []string,
	selection types.Selection,
) error {
	for steps := 0; len(frontier) > 0; steps++ {
		if steps >= traversalCap {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("registry traversal exceeded iteration cap")
		}
		token := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]

		registry, ref := splitToken(token)
		entries, ok := doc.Registries[registry]
		if !ok {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("missing registry section: %s", registry))
		}
		key, err := resolveRegistryKey(entries, registry, ref)
		if err != nil {
			return err
		}

		parts, err := SplitMergedKey(key)
		if err != nil {
			return err
		}
		for _, part := range parts {
			name, version, err := SplitNameVersion(part)
			if err != nil {
				return err
			}
			dir, err := r.Store.ResolveDir(storePath(lockDir, name, version))
			if err != nil {
				return err
			}
			selection.Add(dir)
		}

		for _, dep := range entries[key].Dependencies {
			depRegistry, depRef := SplitDependencyRef(dep, registry)
			next := string(depRegistry) + ":" + depRef
			if visited.Add(next) {
				frontier = append(frontier, next)
			}
		}
	}
	return nil
}

// resolveRegistryKey maps a "name[@version]" reference onto an actual lock
// key. Versionless references resolve to the first key (in sorted order)
// whose prefix matches "name@"; versioned references may still land on a
// merged key carrying additional packages after an underscore.
func resolveRegistryKey(entries map[string]types.RegistryEntry, registry types.RegistryID, ref string) (string, error) {
	if _, ok := entries[ref]; ok {
		return ref, nil
	}
	prefix := ref + "@"
	if _, _, err := SplitNameVersion(ref); err == nil {
		prefix = ref + "_"
	}
	for _, key := range sortedKeys(entries) {
		if strings.HasPrefix(key, prefix) {
			return key, nil
		}
	}
	return "", errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(fmt.Sprintf("missing dependency: %s in registry %s", ref, registry))
}

// lookupSpecifier resolves a declared range to its exact version, accepting
// both bare and registry-prefixed specifier keys.
func lookupSpecifier(doc types.LockDocument, registry types.RegistryID, nameRange string) (string, bool) {
	if exact, ok := doc.Specifiers[nameRange]; ok {
		return exact, true
	}
	exact, ok := doc.Specifiers[string(registry)+":"+nameRange]
	return exact, ok
}

// storePath computes the deterministic on-disk store directory of one
// package version. Path separators in scoped names flatten to "+".
func storePath(lockDir string, name string, version string) string {
	flattened := strings.ReplaceAll(name, "/", "+")
	return filepath.Join(lockDir, nestedStorageSegment, storeSegment, flattened+"@"+version, nestedStorageSegment, name)
}

func isWorkspaceProtocol(registry types.RegistryID) bool {
	return registry == "workspace" || registry == "link"
}

func splitToken(token string) (types.RegistryID, string) {
	colon := strings.Index(token, ":")
	if colon < 0 {
		return types.RegistryNPM, token
	}
	return types.RegistryID(token[:colon]), token[colon+1:]
}

func sortedRegistryIDs(doc types.LockDocument) []types.RegistryID {
	ids := make([]types.RegistryID, 0, len(doc.Registries))
	for id := range doc.Registries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedKeys(entries map[string]types.RegistryEntry) []string {
	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
