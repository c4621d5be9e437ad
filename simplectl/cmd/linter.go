package cmd

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type lintIssue struct {
	Rule    string
	Message string
	Pos     token.Position
}

func (i lintIssue) format() string {
	path := i.Pos.Filename
	if path == "" {
		path = "unknown"
	} else if rel, err := filepath.Rel(".", path); err == nil {
		path = rel
	}
	return fmt.Sprintf("%s:%d:%d %s: %s",
		path, i.Pos.Line, i.Pos.Column, i.Rule, i.Message)
}

func newIssue(
	fset *token.FileSet, node ast.Node, fallbackPath, rule, msg string,
) lintIssue {
	var pos token.Position
	if fset != nil && node != nil {
		pos = fset.Position(node.Pos())
	}
	if pos.Filename == "" {
		pos.Filename = fallbackPath
	}
	if pos.Line == 0 {
		pos.Line = 1
	}
	if pos.Column == 0 {
		pos.Column = 1
	}
	return lintIssue{Rule: rule, Message: msg, Pos: pos}
}

func issueAtPath(path, rule, msg string) lintIssue {
	return lintIssue{Rule: rule, Message: msg, Pos: token.Position{Filename: path}}
}

// controllerDecl collects everything the lints need about one controller
// struct found in a folder.
type controllerDecl struct {
	name       string
	fset       *token.FileSet
	file       string
	typeSpec   *ast.TypeSpec
	structType *ast.StructType

	constructor *ast.FuncDecl
	disposeDecl *ast.FuncDecl
}

// LintControllerFolder runs the controller lints against the given folder
// path. It prints findings and returns true if any errors were found.
func LintControllerFolder(folderPath string) bool {
	displayPath := folderPath
	if filepath.IsAbs(folderPath) {
		if wd, err := os.Getwd(); err == nil {
			if rel, err := filepath.Rel(wd, folderPath); err == nil {
				displayPath = rel
			}
		}
	}
	fmt.Println(displayPath)

	controllers, err := collectControllers(folderPath)
	if err != nil {
		fmt.Printf("\t%s\n", issueAtPath(folderPath, "Rule 1.1", err.Error()).format())
		return true
	}
	if len(controllers) == 0 {
		fmt.Println("\t-- not a controller package")
		return false
	}

	var issues []lintIssue
	for _, c := range controllers {
		issues = append(issues, checkEmbedsBase(c)...)
		issues = append(issues, checkConstructor(c)...)
		issues = append(issues, checkDispose(c)...)
	}

	if len(issues) == 0 {
		fmt.Println("\tOK")
		return false
	}

	sort.Slice(issues, func(i, j int) bool {
		if issues[i].Pos.Filename == issues[j].Pos.Filename {
			if issues[i].Pos.Line == issues[j].Pos.Line {
				return issues[i].Rule < issues[j].Rule
			}
			return issues[i].Pos.Line < issues[j].Pos.Line
		}
		return issues[i].Pos.Filename < issues[j].Pos.Filename
	})

	for _, issue := range issues {
		fmt.Printf("\t%s\n", issue.format())
	}
	return true
}

// collectControllers parses every non-test Go file in the folder and gathers
// structs whose names end in "Controller", together with their constructors
// and Dispose overrides.
func collectControllers(folder string) ([]*controllerDecl, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}

	byName := map[string]*controllerDecl{}
	var files []*parsedFile

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") ||
			strings.HasSuffix(name, "_test.go") {
			continue
		}

		path := filepath.Join(folder, name)
		fset := token.NewFileSet()
		file, err := parser.ParseFile(fset, path, nil, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %v", name, err)
		}

		files = append(files, &parsedFile{fset: fset, file: file, path: path})

		for _, decl := range file.Decls {
			genDecl, ok := decl.(*ast.GenDecl)
			if !ok || genDecl.Tok != token.TYPE {
				continue
			}
			for _, spec := range genDecl.Specs {
				typeSpec, ok := spec.(*ast.TypeSpec)
				if !ok || !strings.HasSuffix(typeSpec.Name.Name, "Controller") {
					continue
				}
				structType, ok := typeSpec.Type.(*ast.StructType)
				if !ok {
					continue
				}
				byName[typeSpec.Name.Name] = &controllerDecl{
					name:       typeSpec.Name.Name,
					fset:       fset,
					file:       path,
					typeSpec:   typeSpec,
					structType: structType,
				}
			}
		}
	}

	for _, pf := range files {
		pf.attachFuncs(byName)
	}

	controllers := make([]*controllerDecl, 0, len(byName))
	for _, c := range byName {
		controllers = append(controllers, c)
	}
	sort.Slice(controllers, func(i, j int) bool {
		return controllers[i].name < controllers[j].name
	})

	return controllers, nil
}

type parsedFile struct {
	fset *token.FileSet
	file *ast.File
	path string
}

func (pf *parsedFile) attachFuncs(byName map[string]*controllerDecl) {
	for _, decl := range pf.file.Decls {
		funcDecl, ok := decl.(*ast.FuncDecl)
		if !ok || funcDecl.Name == nil {
			continue
		}

		if funcDecl.Recv == nil {
			name := strings.TrimPrefix(funcDecl.Name.Name, "New")
			if c, ok := byName[name]; ok && funcDecl.Name.Name != name {
				c.constructor = funcDecl
			}
			continue
		}

		recvType := receiverIdent(funcDecl.Recv.List[0].Type)
		c, ok := byName[recvType]
		if !ok {
			continue
		}
		if funcDecl.Name.Name == "Dispose" {
			c.disposeDecl = funcDecl
		}
	}
}

// checkEmbedsBase verifies Rule 1.2: a controller struct must embed
// *ctrl.ControllerBase.
func checkEmbedsBase(c *controllerDecl) []lintIssue {
	for _, field := range c.structType.Fields.List {
		if len(field.Names) > 0 {
			continue
		}
		star, ok := field.Type.(*ast.StarExpr)
		if !ok {
			continue
		}
		sel, ok := star.X.(*ast.SelectorExpr)
		if !ok || sel.Sel == nil {
			continue
		}
		pkg, ok := sel.X.(*ast.Ident)
		if ok && pkg.Name == "ctrl" && sel.Sel.Name == "ControllerBase" {
			return nil
		}
	}

	msg := fmt.Sprintf("`%s` must embed *ctrl.ControllerBase", c.name)
	return []lintIssue{newIssue(c.fset, c.typeSpec, c.file, "Rule 1.2", msg)}
}

// checkConstructor verifies Rule 1.3: a New<X> constructor must exist and
// return *<X>.
func checkConstructor(c *controllerDecl) []lintIssue {
	if c.constructor == nil {
		msg := fmt.Sprintf("constructor `New%s` not found", c.name)
		return []lintIssue{newIssue(c.fset, c.typeSpec, c.file, "Rule 1.3", msg)}
	}

	results := c.constructor.Type.Results
	if results == nil || results.NumFields() != 1 {
		msg := fmt.Sprintf("`New%s` must return *%s", c.name, c.name)
		return []lintIssue{newIssue(c.fset, c.constructor, c.file, "Rule 1.3", msg)}
	}

	star, ok := results.List[0].Type.(*ast.StarExpr)
	if !ok {
		msg := fmt.Sprintf("`New%s` must return pointer to %s", c.name, c.name)
		return []lintIssue{newIssue(c.fset, results.List[0].Type, c.file, "Rule 1.3", msg)}
	}
	if ident, ok := star.X.(*ast.Ident); !ok || ident.Name != c.name {
		msg := fmt.Sprintf("`New%s` must return *%s", c.name, c.name)
		return []lintIssue{newIssue(c.fset, results.List[0].Type, c.file, "Rule 1.3", msg)}
	}

	return nil
}

// checkDispose verifies Rule 1.4: a Dispose override must delegate to the
// embedded ControllerBase.
func checkDispose(c *controllerDecl) []lintIssue {
	if c.disposeDecl == nil {
		return nil
	}
	if c.disposeDecl.Body == nil {
		msg := "`Dispose` must delegate to ControllerBase.Dispose"
		return []lintIssue{newIssue(c.fset, c.disposeDecl, c.file, "Rule 1.4", msg)}
	}

	delegates := false
	ast.Inspect(c.disposeDecl.Body, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok || sel.Sel == nil || sel.Sel.Name != "Dispose" {
			return true
		}
		switch recv := sel.X.(type) {
		case *ast.SelectorExpr:
			if recv.Sel != nil && recv.Sel.Name == "ControllerBase" {
				delegates = true
				return false
			}
		case *ast.Ident:
			if recv.Name == "ControllerBase" {
				delegates = true
				return false
			}
		}
		return true
	})

	if !delegates {
		msg := "`Dispose` must delegate to ControllerBase.Dispose"
		return []lintIssue{newIssue(c.fset, c.disposeDecl, c.file, "Rule 1.4", msg)}
	}

	return nil
}

func receiverIdent(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		if ident, ok := t.X.(*ast.Ident); ok {
			return ident.Name
		}
	}
	return ""
}
