package depm

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"daisyc/ast"
	"daisyc/common"
	"daisyc/report"
)

// Module represents a DAISY module: a directory of source files governed by a
// `daisy.toml` manifest.  Modules are the unit of dependency resolution,
// caching, and ABI compatibility.
type Module struct {
	// The module's unique ID, derived from its absolute path.
	ID uint64

	// The module's name as declared in its manifest.
	Name string

	// The module's validated manifest.
	Manifest *Manifest

	// The absolute path to the module's root directory.
	AbsPath string

	// The source files of the module, in deterministic (sorted path) order.
	Files []*SourceFile

	// The modules this module depends on, keyed by name.
	Deps map[string]*Module

	// The table of symbols defined at the top level of this module.
	SymTable *SymbolTable

	// The module's traversal color during import resolution.
	color int
}

// NewModule creates a new empty module for a validated manifest.
func NewModule(man *Manifest) *Module {
	mod := &Module{
		ID:       GenerateIDFromPath(man.AbsPath),
		Name:     man.Name,
		Manifest: man,
		AbsPath:  man.AbsPath,
		Deps:     make(map[string]*Module),
	}

	mod.SymTable = NewSymbolTable(mod.ID, mod.Name)
	return mod
}

// AbiMajor returns the ABI major version the module declares.
func (mod *Module) AbiMajor() int {
	return mod.Manifest.AbiMajor
}

// Version returns the module's declared version.
func (mod *Module) Version() *Version {
	return mod.Manifest.Version
}

// GenerateIDFromPath generates a module ID from a module's absolute path.
func GenerateIDFromPath(abspath string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(abspath))
	return h.Sum64()
}

// -----------------------------------------------------------------------------

// SourceFile represents a single DAISY source file belonging to a module.
type SourceFile struct {
	// The module the file belongs to.
	Parent *Module

	// The absolute path to the file.
	AbsPath string

	// The representative path to the file: the path displayed to the user in
	// diagnostics.
	ReprPath string

	// The file's contents with line endings normalized to `\n`.
	Contents string

	// The parsed form of the file, nil until parsing has run.
	Root *ast.File

	// The modules visible in this file by local name, as established by its
	// import declarations.
	Imports map[string]*ImportedModule

	// The foreign symbols pulled directly into this file's scope by its use
	// declarations, keyed by local name.
	Visible map[string]*Symbol
}

// ImportedModule binds a locally visible name to an imported module.
type ImportedModule struct {
	Mod *Module

	// The dotted path the import declared, joined with `.`.
	Path string

	// The span of the import declaration.
	Span *report.TextSpan
}

// -----------------------------------------------------------------------------

// LoadSourceFile reads a source file from disk, checks that it is valid UTF-8,
// and normalizes its line endings.  Errors are reported; the returned flag
// indicates success.
func LoadSourceFile(parent *Module, absPath, reprPath string) (*SourceFile, bool) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		report.ReportStdError(reprPath, fmt.Errorf("unable to read source file: %s", err))
		return nil, false
	}

	if !utf8.Valid(data) {
		report.ReportStdError(reprPath, fmt.Errorf("source file is not valid UTF-8"))
		return nil, false
	}

	return &SourceFile{
		Parent:   parent,
		AbsPath:  absPath,
		ReprPath: reprPath,
		Contents: strings.ReplaceAll(string(data), "\r\n", "\n"),
		Imports:  make(map[string]*ImportedModule),
		Visible:  make(map[string]*Symbol),
	}, true
}

// discoverSourceFiles lists the module's source files: every file directly in
// the module directory carrying the DAISY file extension, in sorted order.
func discoverSourceFiles(moduleDir string) ([]string, error) {
	entries, err := os.ReadDir(moduleDir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), common.DaisyFileExt) {
			continue
		}

		paths = append(paths, filepath.Join(moduleDir, entry.Name()))
	}

	sort.Strings(paths)
	return paths, nil
}
