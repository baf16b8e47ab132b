package syntax

import (
	"go/ast"
	"go/importer"
	"go/types"
	"reflect"
	"sort"
	"sync"

	"golang.org/x/tools/go/ast/astutil"
)

const resolverCacheLimit = 512

// Resolver type-checks trees and repairs references a splice left dangling.
// It is safe for concurrent use.
type Resolver struct {
	mu       sync.Mutex
	importer types.Importer
	cache    map[*Tree]*checked
}

type checked struct {
	pkg  *types.Package
	info *types.Info
}

// NewResolver returns a resolver backed by the default compiler importer.
func NewResolver() *Resolver {
	return NewResolverWithImporter(importer.Default())
}

// NewResolverWithImporter allows tests to supply a restricted importer.
func NewResolverWithImporter(imp types.Importer) *Resolver {
	return &Resolver{
		importer: imp,
		cache:    make(map[*Tree]*checked),
	}
}

func (r *Resolver) check(t *Tree, memo bool) *checked {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.cache[t]; ok {
		return c
	}

	info := &types.Info{
		Defs:   make(map[*ast.Ident]types.Object),
		Uses:   make(map[*ast.Ident]types.Object),
		Scopes: make(map[ast.Node]*types.Scope),
	}

	conf := types.Config{
		Importer: r.importer,
		Error:    func(error) {},
	}

	// Type errors are expected in fuzzed code; Check still fills info.
	pkg, _ := conf.Check(t.File.Name.Name, t.Fset, []*ast.File{t.File}, info)

	c := &checked{pkg: pkg, info: info}
	if !memo {
		return c
	}

	if len(r.cache) >= resolverCacheLimit {
		clear(r.cache)
	}

	r.cache[t] = c

	return c
}

// Resolves reports whether id has a definition in t.
func (r *Resolver) Resolves(t *Tree, id *ast.Ident) bool {
	c := r.check(t, true)
	return c.info.Uses[id] != nil || c.info.Defs[id] != nil
}

// Repair renames identifiers inside code[start:end] that resolved in the
// donor but do not resolve in code. donor is the node whose text was spliced
// in. Identifiers are matched by position between the donor subtree and the
// re-parsed region. When anything does not line up the code is returned
// unchanged.
func (r *Resolver) Repair(code string, start, end int, donorTree *Tree, donor ast.Node) string {
	tree, err := Parse(code)
	if err != nil {
		return code
	}

	path, _ := astutil.PathEnclosingInterval(tree.File, tree.Pos(start), tree.Pos(end))
	if len(path) == 0 {
		return code
	}

	spliced := identsWithin(tree, path[0], start, end)
	original := identsWithin(donorTree, donor, -1, -1)

	if len(spliced) == 0 || len(spliced) != len(original) {
		return code
	}

	for i := range spliced {
		if spliced[i].Name != original[i].Name {
			return code
		}
	}

	donorChecked := r.check(donorTree, true)
	newChecked := r.check(tree, false)

	if newChecked.pkg == nil {
		return code
	}

	type rename struct {
		offset int
		old    string
		name   string
	}

	var renames []rename

	for i, id := range spliced {
		obj := donorChecked.info.Uses[original[i]]
		if obj == nil || !repairable(obj) {
			continue
		}

		if newChecked.info.Uses[id] != nil || newChecked.info.Defs[id] != nil {
			continue
		}

		if sel, ok := tree.Parent(id).(*ast.SelectorExpr); ok && sel.Sel == id {
			continue
		}

		name := nearestEquivalent(newChecked.pkg, id, obj)
		if name == "" {
			continue
		}

		offset, _, err := tree.Range(id)
		if err != nil {
			continue
		}

		renames = append(renames, rename{offset: offset, old: id.Name, name: name})
	}

	if len(renames) == 0 {
		return code
	}

	sort.Slice(renames, func(i, j int) bool { return renames[i].offset > renames[j].offset })

	out := code
	for _, rn := range renames {
		out = out[:rn.offset] + rn.name + out[rn.offset+len(rn.old):]
	}

	return out
}

// identsWithin lists identifiers under n in preorder. With start >= 0 only
// identifiers inside [start, end) are kept.
func identsWithin(t *Tree, n ast.Node, start, end int) []*ast.Ident {
	var out []*ast.Ident

	ast.Inspect(n, func(node ast.Node) bool {
		id, ok := node.(*ast.Ident)
		if !ok {
			return true
		}

		if start >= 0 {
			s, e, err := t.Range(id)
			if err != nil || s < start || e > end {
				return true
			}
		}

		out = append(out, id)

		return true
	})

	return out
}

func repairable(obj types.Object) bool {
	switch obj.(type) {
	case *types.Var, *types.Const, *types.Func, *types.TypeName:
		return obj.Parent() != types.Universe
	default:
		return false
	}
}

func nearestEquivalent(pkg *types.Package, id *ast.Ident, want types.Object) string {
	scope := pkg.Scope().Innermost(id.Pos())
	if scope == nil {
		scope = pkg.Scope()
	}

	for s := scope; s != nil && s != types.Universe; s = s.Parent() {
		for _, name := range s.Names() {
			if name == id.Name || name == "_" {
				continue
			}

			obj := s.Lookup(name)
			if reflect.TypeOf(obj) != reflect.TypeOf(want) {
				continue
			}

			if _, visible := scope.LookupParent(name, id.Pos()); visible != obj {
				continue
			}

			if sameType(obj.Type(), want.Type()) {
				return name
			}
		}
	}

	return ""
}

func sameType(a, b types.Type) bool {
	if a == nil || b == nil {
		return false
	}

	if types.Identical(a, b) {
		return true
	}

	// named types from two separate checks are distinct objects
	return types.TypeString(a, nil) == types.TypeString(b, nil)
}
