package core

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/rs/zerolog/log"

	"depbundle/internal/types"
)

// traversalCap bounds every tree and graph walk in this package. Exceeding
// it means the input is malformed (or adversarially deep) and the call fails
// instead of hanging.
const traversalCap = 10000

// nestedStorageSegment is the directory under which the ecosystem physically
// nests a package's own sub-dependencies.
const nestedStorageSegment = "node_modules"

// NameIndex maps a package name to its node in a normalized forest. It is
// call-scoped: built for one selection walk and discarded with it.
type NameIndex map[string]*types.ResolvedNode

// ResolveTree converts a raw dependency forest into the set of directories
// that must be bundled. With no allow-list, nodes whose specifier looks like
// a semantic-version range are pruned (subtree and all) and everything else
// is kept. With an allow-list, the unpruned forest is indexed by name and
// only subtrees reachable from the listed names are kept.
func ResolveTree(ctx context.Context, forest []types.RawTreeNode, projectRoot string, allowList []string) (types.Selection, error) {
	selection := types.NewSelection(projectRoot)

	if len(allowList) == 0 {
		normalized, err := normalizeForest(forest, projectRoot, true)
		if err != nil {
			return types.Selection{}, err
		}
		if err := flattenInto(selection, normalized); err != nil {
			return types.Selection{}, err
		}
		log.Ctx(ctx).Debug().Int("directories", selection.Len()).Msg("tree resolved without allow-list")
		return selection, nil
	}

	normalized, err := normalizeForest(forest, projectRoot, false)
	if err != nil {
		return types.Selection{}, err
	}
	index, err := buildNameIndex(normalized)
	if err != nil {
		return types.Selection{}, err
	}
	seeds := make([]*types.ResolvedNode, 0, len(allowList))
	for _, name := range allowList {
		node, ok := index[name]
		if !ok {
			return types.Selection{}, errbuilder.New().
				WithCode(errbuilder.CodeNotFound).
				WithMsg(fmt.Sprintf("missing dependency: %s", name))
		}
		seeds = append(seeds, node)
	}
	if err := flattenInto(selection, seeds); err != nil {
		return types.Selection{}, err
	}
	log.Ctx(ctx).Debug().
		Int("seeds", len(seeds)).
		Int("directories", selection.Len()).
		Msg("tree resolved with allow-list")
	return selection, nil
}

// normalizeForest converts raw nodes into resolved nodes with absolute
// paths. The walk is stack-driven and capped rather than recursive, so a
// pathological tree fails deterministically. When pruneRanges is set, nodes
// whose raw specifier starts with a range operator are dropped together with
// their whole subtree before descending.
func normalizeForest(forest []types.RawTreeNode, projectRoot string, pruneRanges bool) ([]*types.ResolvedNode, error) {
	type frame struct {
		raw    types.RawTreeNode
		prefix string
		parent *types.ResolvedNode
	}

	rootPrefix := filepath.Join(projectRoot, nestedStorageSegment)
	stack := make([]frame, 0, len(forest))
	// Reverse push keeps sibling order stable in the output.
	for i := len(forest) - 1; i >= 0; i-- {
		stack = append(stack, frame{raw: forest[i], prefix: rootPrefix})
	}

	var roots []*types.ResolvedNode
	for steps := 0; len(stack) > 0; steps++ {
		if steps >= traversalCap {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("dependency tree exceeded traversal iteration cap")
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if pruneRanges && IsRangeSpecifier(VersionSpecifier(top.raw.RawLabel)) {
			continue
		}

		name, _, ok := ParseStrictLabel(top.raw.RawLabel)
		if !ok {
			name = CleanName(top.raw.RawLabel)
		}
		node := &types.ResolvedNode{
			Name: name,
			Path: filepath.Join(top.prefix, name),
		}
		if top.parent == nil {
			roots = append(roots, node)
		} else {
			top.parent.Children = append(top.parent.Children, node)
		}

		childPrefix := filepath.Join(top.prefix, name, nestedStorageSegment)
		for i := len(top.raw.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{raw: top.raw.Children[i], prefix: childPrefix, parent: node})
		}
	}
	return roots, nil
}

// buildNameIndex flattens a forest into a name-to-node index. Two nodes
// sharing one name is a format error, never a silent pick.
func buildNameIndex(forest []*types.ResolvedNode) (NameIndex, error) {
	index := NameIndex{}
	stack := append([]*types.ResolvedNode(nil), forest...)
	for steps := 0; len(stack) > 0; steps++ {
		if steps >= traversalCap {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("dependency tree exceeded traversal iteration cap")
		}
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, exists := index[node.Name]; exists {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeAlreadyExists).
				WithMsg(fmt.Sprintf("duplicate dependency name in tree: %s", node.Name))
		}
		index[node.Name] = node
		stack = append(stack, node.Children...)
	}
	return index, nil
}

// flattenInto records the path of every given node and all of its
// descendants. Once a node is selected its entire subtree is included
// unconditionally. The visited set is keyed by node identity so shared or
// cyclic references are walked at most once.
func flattenInto(selection types.Selection, nodes []*types.ResolvedNode) error {
	visited := mapset.NewSet[*types.ResolvedNode]()
	stack := append([]*types.ResolvedNode(nil), nodes...)
	for steps := 0; len(stack) > 0; steps++ {
		if steps >= traversalCap {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("dependency tree exceeded traversal iteration cap")
		}
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !visited.Add(node) {
			continue
		}
		selection.Add(node.Path)
		stack = append(stack, node.Children...)
	}
	return nil
}
