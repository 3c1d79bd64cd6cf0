package depm

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"daisyc/ast"
	"daisyc/common"
	"daisyc/report"
	"daisyc/syntax"
)

// Enumeration of module traversal colors.  White modules have not been
// visited, grey modules are being loaded somewhere up the dependency walk, and
// black modules are fully loaded.
const (
	colorWhite = iota
	colorGrey
	colorBlack
)

// Resolver loads a root module and the transitive closure of its dependencies.
// Loading is a depth first walk of the import graph: a module's dependencies
// finish loading before the module itself does, so encountering a grey module
// while descending means the walk has found an import cycle.
type Resolver struct {
	// The directory relative to which representative paths are produced.
	reprBase string

	// The directories searched for dependency modules not located by a
	// manifest path or workspace membership.
	searchPaths []string

	// Workspace member module directories keyed by module name.
	workspace map[string]string

	// The loaded modules keyed by absolute path.
	modules map[string]*Module

	// The names of the modules currently being loaded, outermost first.  Used
	// to describe import cycles.
	loadStack []string
}

// NewResolver creates a new resolver with the given dependency search paths.
func NewResolver(searchPaths []string) *Resolver {
	return &Resolver{
		searchPaths: searchPaths,
		workspace:   make(map[string]string),
		modules:     make(map[string]*Module),
	}
}

// Modules returns all loaded modules keyed by absolute path.
func (r *Resolver) Modules() map[string]*Module {
	return r.modules
}

// ResolveRoot loads the module rooted at the given directory together with
// every module it transitively imports.  Errors are reported as they are
// found; the returned flag indicates whether the whole graph loaded cleanly.
func (r *Resolver) ResolveRoot(rootDir string) (*Module, bool) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		report.ReportStdError(rootDir, err)
		return nil, false
	}

	r.reprBase = filepath.Dir(absRoot)

	man, ok := LoadManifest(absRoot)
	if !ok {
		return nil, false
	}

	if man.AbiMajor != common.AbiMajor {
		report.ReportStdError(filepath.Join(absRoot, common.DaisyManifestFileName),
			fmt.Errorf("module `%s` declares ABI major %d but this compiler targets ABI major %d",
				man.Name, man.AbiMajor, common.AbiMajor))
		return nil, false
	}

	// Index the workspace members so dependencies can resolve to them by
	// name before falling back to the search paths.
	for _, memberDir := range man.WorkspaceMembers {
		memberMan, ok := LoadManifest(memberDir)
		if !ok {
			return nil, false
		}

		r.workspace[memberMan.Name] = memberDir
	}

	mod, ok := r.loadModule(man)
	if !ok {
		return nil, false
	}

	return mod, report.ShouldProceed()
}

// -----------------------------------------------------------------------------

// loadModule loads a module from its validated manifest: its source files are
// read and parsed, its top level symbols are collected, and its imports are
// resolved, recursively loading any dependency modules not yet seen.
func (r *Resolver) loadModule(man *Manifest) (*Module, bool) {
	if mod, ok := r.modules[man.AbsPath]; ok {
		return mod, true
	}

	mod := NewModule(man)
	mod.color = colorGrey
	r.modules[man.AbsPath] = mod
	r.loadStack = append(r.loadStack, mod.Name)

	defer func() {
		mod.color = colorBlack
		r.loadStack = r.loadStack[:len(r.loadStack)-1]
	}()

	paths, err := discoverSourceFiles(man.AbsPath)
	if err != nil {
		report.ReportStdError(man.AbsPath, err)
		return nil, false
	}

	if len(paths) == 0 {
		report.ReportStdError(filepath.Join(man.AbsPath, common.DaisyManifestFileName),
			fmt.Errorf("module `%s` contains no source files", man.Name))
		return nil, false
	}

	for _, absPath := range paths {
		file, ok := LoadSourceFile(mod, absPath, r.reprPath(absPath))
		if !ok {
			continue
		}

		root, ok := syntax.NewParser(file.AbsPath, file.ReprPath, file.Contents).Parse()
		if !ok {
			continue
		}

		file.Root = root
		mod.Files = append(mod.Files, file)

		if rootName := strings.SplitN(root.ModuleName, ".", 2)[0]; rootName != mod.Name {
			report.ReportCompileError(file.AbsPath, file.ReprPath,
				report.Raise(report.KindSyntaxError, root.Span(),
					"file declares module `%s` but belongs to module `%s`", root.ModuleName, mod.Name))
		}
	}

	r.collectSymbols(mod)

	for _, file := range mod.Files {
		r.resolveImports(mod, file)
	}

	return mod, true
}

// collectSymbols defines the top level symbols of every file of a module into
// the module's shared symbol table.
func (r *Resolver) collectSymbols(mod *Module) {
	for _, file := range mod.Files {
		for _, def := range file.Root.Defs {
			sym := symbolFromDef(mod, def)
			if sym == nil {
				continue
			}

			if prev, ok := mod.SymTable.Define(sym); !ok {
				report.ReportCompileError(file.AbsPath, file.ReprPath,
					report.Raise(report.KindSyntaxError, sym.DefSpan,
						"multiple definitions of symbol `%s`", sym.Name).
						WithNote("first defined here", prev.DefSpan))
			}
		}
	}
}

// symbolFromDef produces the symbol a definition introduces, or nil for
// definitions which introduce no module level name.
func symbolFromDef(mod *Module, def ast.Def) *Symbol {
	var kind int

	switch def.(type) {
	case *ast.FuncDef:
		kind = DKFunc
	case *ast.ExternDef:
		kind = DKExtern
	case *ast.StructDef, *ast.EnumDef:
		kind = DKType
	case *ast.TraitDef:
		kind = DKTrait
	default:
		return nil
	}

	return &Symbol{
		Name:    def.DefName(),
		ModID:   mod.ID,
		DefSpan: def.Span(),
		DefKind: kind,
		Public:  defIsPublic(def),
		Def:     def,
	}
}

// defIsPublic extracts a definition's visibility flag.
func defIsPublic(def ast.Def) bool {
	switch d := def.(type) {
	case *ast.FuncDef:
		return d.Public
	case *ast.ExternDef:
		return d.Public
	case *ast.StructDef:
		return d.Public
	case *ast.EnumDef:
		return d.Public
	case *ast.TraitDef:
		return d.Public
	}

	return false
}

// -----------------------------------------------------------------------------

// resolveImports resolves a file's import and use declarations, loading the
// named dependency modules and binding them (or their symbols) into the
// file's scope.
func (r *Resolver) resolveImports(mod *Module, file *SourceFile) {
	for _, def := range file.Root.Defs {
		imp, ok := def.(*ast.ImportDef)
		if !ok {
			continue
		}

		r.resolveImport(mod, file, imp)
	}
}

// resolveImport resolves a single import or use declaration.
func (r *Resolver) resolveImport(mod *Module, file *SourceFile, imp *ast.ImportDef) {
	modPath := imp.Path
	if imp.IsUse {
		if len(imp.Path) < 2 {
			report.ReportCompileError(file.AbsPath, file.ReprPath,
				report.Raise(report.KindSyntaxError, imp.Span(),
					"use declaration requires a module path before the symbol name"))
			return
		}

		modPath = imp.Path[:len(imp.Path)-1]
	}

	depName := modPath[0]

	if depName == mod.Name {
		report.ReportCompileError(file.AbsPath, file.ReprPath,
			report.Raise(report.KindImportCycle, imp.Span(),
				"module `%s` imports itself", mod.Name))
		return
	}

	dep, ok := r.loadDependency(mod, file, imp, depName)
	if !ok {
		return
	}

	// Dotted import paths must name a submodule some file of the dependency
	// actually declares.
	dotted := strings.Join(modPath, ".")
	if len(modPath) > 1 && !dep.declaresSubmodule(dotted) {
		report.ReportCompileError(file.AbsPath, file.ReprPath,
			report.Raise(report.KindUnknownSymbol, imp.Span(),
				"module `%s` declares no submodule `%s`", depName, dotted))
		return
	}

	if imp.IsUse {
		symName := imp.Path[len(imp.Path)-1]

		sym, ok := dep.SymTable.LookupPublic(symName)
		if !ok {
			report.ReportCompileError(file.AbsPath, file.ReprPath,
				report.Raise(report.KindUnknownSymbol, imp.Span(),
					"module `%s` exports no symbol named `%s`", depName, symName))
			return
		}

		file.Visible[imp.DefName()] = sym
		return
	}

	file.Imports[imp.DefName()] = &ImportedModule{Mod: dep, Path: dotted, Span: imp.Span()}
}

// loadDependency locates and loads the dependency module an import names,
// enforcing the importing manifest's version requirement and the ABI major
// gate.
func (r *Resolver) loadDependency(mod *Module, file *SourceFile, imp *ast.ImportDef, depName string) (*Module, bool) {
	depDir, ok := r.locateDependency(mod, depName)
	if !ok {
		report.ReportCompileError(file.AbsPath, file.ReprPath,
			report.Raise(report.KindUnknownSymbol, imp.Span(),
				"unable to locate module `%s`", depName))
		return nil, false
	}

	if dep, ok := r.modules[depDir]; ok && dep.color == colorGrey {
		report.ReportCompileError(file.AbsPath, file.ReprPath,
			report.Raise(report.KindImportCycle, imp.Span(),
				"import cycle detected: %s", r.describeCycle(dep.Name)))
		return nil, false
	}

	depMan, ok := LoadManifest(depDir)
	if !ok {
		return nil, false
	}

	if depMan.Name != depName {
		report.ReportCompileError(file.AbsPath, file.ReprPath,
			report.Raise(report.KindUnknownSymbol, imp.Span(),
				"module at `%s` declares name `%s`, not `%s`", depDir, depMan.Name, depName))
		return nil, false
	}

	if depMan.AbiMajor != common.AbiMajor {
		report.ReportCompileError(file.AbsPath, file.ReprPath,
			report.Raise(report.KindAbiIncompatible, imp.Span(),
				"module `%s` declares ABI major %d but this compiler targets ABI major %d",
				depName, depMan.AbiMajor, common.AbiMajor))
		return nil, false
	}

	if decl, ok := mod.Manifest.Dependencies[depName]; ok && decl.Spec != nil {
		if !decl.Spec.Matches(depMan.Version) {
			report.ReportStdError(filepath.Join(mod.AbsPath, common.DaisyManifestFileName),
				fmt.Errorf("dependency `%s` requires version %s but version %s was found",
					depName, decl.Spec, depMan.Version))
			return nil, false
		}
	}

	dep, ok := r.loadModule(depMan)
	if !ok {
		return nil, false
	}

	mod.Deps[depName] = dep
	return dep, true
}

// locateDependency determines the directory a dependency name resolves to.
// Manifest path dependencies win, then workspace members, then the search
// paths in order.
func (r *Resolver) locateDependency(mod *Module, depName string) (string, bool) {
	if decl, ok := mod.Manifest.Dependencies[depName]; ok && decl.Path != "" {
		return decl.Path, true
	}

	if dir, ok := r.workspace[depName]; ok {
		return dir, true
	}

	for _, searchPath := range r.searchPaths {
		dir := filepath.Join(searchPath, depName)
		if _, err := os.Stat(filepath.Join(dir, common.DaisyManifestFileName)); err == nil {
			return dir, true
		}
	}

	return "", false
}

// describeCycle renders the chain of module names from the first occurrence
// of the named module on the load stack back around to it.
func (r *Resolver) describeCycle(name string) string {
	start := 0
	for i, loading := range r.loadStack {
		if loading == name {
			start = i
			break
		}
	}

	return strings.Join(append(r.loadStack[start:], name), " -> ")
}

// declaresSubmodule returns whether any file of the module declares the given
// dotted module name.
func (mod *Module) declaresSubmodule(dotted string) bool {
	for _, file := range mod.Files {
		if file.Root.ModuleName == dotted {
			return true
		}
	}

	return false
}

// reprPath produces the representative path of a file: its path relative to
// the directory containing the root module where possible.
func (r *Resolver) reprPath(absPath string) string {
	if rel, err := filepath.Rel(r.reprBase, absPath); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}

	return absPath
}
