// Package scanner finds controller types and their annotated methods in Go
// source files.
package scanner

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/toyz/dispatch/internal/annotations"
	derrors "github.com/toyz/dispatch/internal/errors"
)

// ControllerSuffix is the conventional suffix of controller type names.
const ControllerSuffix = "controller"

// Param is a method parameter as written in source.
type Param struct {
	Name string
	Type string
}

// Method is an exported method declared on a controller.
type Method struct {
	Name        string
	Params      []Param
	Annotations []*annotations.ParsedAnnotation
	Location    derrors.SourceLocation
}

// Controller is an exported struct type whose name ends with "Controller".
type Controller struct {
	Name        string
	Package     string
	File        string
	Dir         string // slash separated, relative to the scanned root; "" for the root itself
	Annotations []*annotations.ParsedAnnotation
	Methods     []*Method
	Location    derrors.SourceLocation
}

// Scanner parses Go files without type checking them.
type Scanner struct {
	parser *annotations.Parser
}

// New creates a new scanner
func New() *Scanner {
	return &Scanner{parser: annotations.NewParser()}
}

// IsControllerName reports whether name follows the controller naming convention.
func IsControllerName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ControllerSuffix)
}

// ScanPath scans a single Go file or, recursively, a directory. A path that
// does not exist is an error.
func (s *Scanner) ScanPath(path string) ([]*Controller, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, derrors.WrapFileSystemError("scan", path, err).
			WithSuggestion("check the controller path, relative paths resolve against the root path")
	}

	if !info.IsDir() {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, derrors.WrapFileSystemError("read", path, err)
		}
		return s.scanFiles("", map[string][]byte{path: src})
	}

	var dirs []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if p != path && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata") {
			return filepath.SkipDir
		}
		dirs = append(dirs, p)
		return nil
	})
	if err != nil {
		return nil, derrors.WrapFileSystemError("walk", path, err)
	}

	var controllers []*Controller
	for _, dir := range dirs {
		files, err := readGoFiles(dir)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(path, dir)
		if err != nil || rel == "." {
			rel = ""
		}
		found, err := s.scanFiles(filepath.ToSlash(rel), files)
		if err != nil {
			return nil, err
		}
		controllers = append(controllers, found...)
	}
	return controllers, nil
}

// ScanSource scans in-memory source as if it were a single file.
func (s *Scanner) ScanSource(filename, src string) ([]*Controller, error) {
	return s.scanFiles("", map[string][]byte{filename: []byte(src)})
}

func readGoFiles(dir string) (map[string][]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, derrors.WrapFileSystemError("read directory", dir, err)
	}

	files := make(map[string][]byte)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		full := filepath.Join(dir, name)
		src, err := os.ReadFile(full)
		if err != nil {
			return nil, derrors.WrapFileSystemError("read", full, err)
		}
		files[full] = src
	}
	return files, nil
}

// scanFiles treats files as one package so methods declared in a sibling file
// are attached to their controller.
func (s *Scanner) scanFiles(dir string, files map[string][]byte) ([]*Controller, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	fset := token.NewFileSet()
	parsed := make([]*ast.File, 0, len(names))
	for _, name := range names {
		f, err := parser.ParseFile(fset, name, files[name], parser.ParseComments)
		if err != nil {
			return nil, derrors.WrapParseError("source file", derrors.SourceLocation{File: name}, err)
		}
		parsed = append(parsed, f)
	}

	var (
		controllers []*Controller
		byName      = make(map[string]*Controller)
		errs        derrors.MultipleErrors
	)

	for i, file := range parsed {
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				ts := spec.(*ast.TypeSpec)
				if _, isStruct := ts.Type.(*ast.StructType); !isStruct {
					continue
				}
				if !ts.Name.IsExported() || !IsControllerName(ts.Name.Name) {
					continue
				}

				doc := ts.Doc
				if doc == nil && len(gen.Specs) == 1 {
					doc = gen.Doc
				}
				ctrl := &Controller{
					Name:     ts.Name.Name,
					Package:  file.Name.Name,
					File:     names[i],
					Dir:      dir,
					Location: location(fset, ts.Pos()),
				}
				ctrl.Annotations = s.parseDoc(fset, doc, annotations.TypeTarget, &errs)
				controllers = append(controllers, ctrl)
				byName[ctrl.Name] = ctrl
			}
		}
	}

	for _, file := range parsed {
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv == nil || len(fn.Recv.List) == 0 || !fn.Name.IsExported() {
				continue
			}
			ctrl, ok := byName[receiverName(fn.Recv.List[0].Type)]
			if !ok {
				continue
			}
			ctrl.Methods = append(ctrl.Methods, &Method{
				Name:        fn.Name.Name,
				Params:      params(fn.Type.Params),
				Annotations: s.parseDoc(fset, fn.Doc, annotations.MethodTarget, &errs),
				Location:    location(fset, fn.Pos()),
			})
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return controllers, nil
}

func (s *Scanner) parseDoc(fset *token.FileSet, doc *ast.CommentGroup, target annotations.Target, errs *derrors.MultipleErrors) []*annotations.ParsedAnnotation {
	if doc == nil {
		return nil
	}

	var result []*annotations.ParsedAnnotation
	for _, c := range doc.List {
		if !annotations.IsAnnotation(c.Text) {
			continue
		}
		parsed, err := s.parser.Parse(c.Text, target, location(fset, c.Pos()))
		if err != nil {
			errs.Add(err)
			continue
		}
		result = append(result, parsed)
	}
	return result
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		return receiverName(t.X)
	}
	return ""
}

func params(list *ast.FieldList) []Param {
	if list == nil {
		return nil
	}

	var result []Param
	for _, field := range list.List {
		typeName := types.ExprString(field.Type)
		if len(field.Names) == 0 {
			result = append(result, Param{Name: "arg" + strconv.Itoa(len(result)), Type: typeName})
			continue
		}
		for _, name := range field.Names {
			n := name.Name
			if n == "_" {
				n = "arg" + strconv.Itoa(len(result))
			}
			result = append(result, Param{Name: n, Type: typeName})
		}
	}
	return result
}

func location(fset *token.FileSet, pos token.Pos) derrors.SourceLocation {
	p := fset.Position(pos)
	return derrors.SourceLocation{File: p.Filename, Line: p.Line, Column: p.Column}
}
