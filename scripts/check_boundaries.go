package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "assembly"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// checker inspects one module-local import of a file and reports the rule it
// breaks, or "" when the import is fine.
type checker func(importPath string) string

func main() {
	var violations []violation
	violations = append(violations, walk("contexts", contextChecker)...)
	violations = append(violations, walk("internal/platform", platformChecker)...)
	violations = append(violations, walk("cmd", entrypointChecker)...)

	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Import < b.Import
	})
	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

// walk parses the imports of every non-test Go file under root. checkerFor
// returns nil for files that carry no rules.
func walk(root string, checkerFor func(parts []string) checker) []violation {
	var violations []violation
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		normalized := filepath.ToSlash(path)
		check := checkerFor(strings.Split(normalized, "/"))
		if check == nil {
			return nil
		}

		fset := token.NewFileSet()
		file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			violations = append(violations, violation{File: normalized, Line: 1, Rule: "file must parse"})
			return nil
		}
		for _, imp := range file.Imports {
			importPath := strings.Trim(imp.Path.Value, "\"")
			if rule := check(importPath); rule != "" {
				violations = append(violations, violation{
					File:   normalized,
					Line:   fset.Position(imp.Pos()).Line,
					Import: importPath,
					Rule:   rule,
				})
			}
		}
		return nil
	})
	return violations
}

// contextChecker covers contexts/<context>/<service>/<layer>/...
func contextChecker(parts []string) checker {
	if len(parts) < 4 {
		return nil
	}
	service := modulePath + "/contexts/" + parts[1] + "/" + parts[2]
	layer := parts[3]
	inboundAdapter := layer == "adapters" && len(parts) > 5 && parts[4] == "http"

	return func(importPath string) string {
		if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, service) {
			return "cross-module imports are forbidden"
		}
		switch layer {
		case "domain":
			return allowOnly(importPath, "domain", service+"/domain")
		case "ports":
			return allowOnly(importPath, "ports", service+"/domain", modulePath+"/contracts")
		case "application":
			if strings.Contains(importPath, "/adapters/") {
				return "application must not import adapters"
			}
			return allowOnly(importPath, "application",
				service+"/application",
				service+"/domain",
				service+"/ports",
				modulePath+"/contracts",
			)
		case "transport":
			return allowOnly(importPath, "transport",
				service+"/domain",
				"github.com/go-playground/validator/v10",
			)
		case "adapters":
			if hasPrefix(importPath, modulePath+"/internal/app") || hasPrefix(importPath, modulePath+"/cmd") {
				return "adapters must not import process wiring"
			}
			if !inboundAdapter && hasPrefix(importPath, service+"/application") {
				return "outbound adapters must not import use cases"
			}
		}
		return ""
	}
}

// platformChecker keeps shared infrastructure on the port side of a service:
// it may use a service's facade, domain, ports and transport, never its use
// cases or adapters.
func platformChecker(parts []string) checker {
	return func(importPath string) string {
		if hasPrefix(importPath, modulePath+"/internal/app") || hasPrefix(importPath, modulePath+"/cmd") {
			return "platform must not import process wiring"
		}
		if !hasPrefix(importPath, modulePath+"/contexts") {
			return ""
		}
		segments := strings.Split(importPath, "/")
		if len(segments) < 5 {
			return ""
		}
		switch segments[4] {
		case "application":
			return "platform must not import use cases"
		case "adapters":
			return "platform must not import adapters"
		}
		return ""
	}
}

func entrypointChecker(parts []string) checker {
	return func(importPath string) string {
		if !hasPrefix(importPath, modulePath) || hasPrefix(importPath, modulePath+"/internal/app") {
			return ""
		}
		return "entrypoints only import process wiring"
	}
}

func allowOnly(importPath string, layer string, allowed ...string) string {
	if isStdlib(importPath) {
		return ""
	}
	for _, prefix := range allowed {
		if hasPrefix(importPath, prefix) {
			return ""
		}
	}
	return layer + " import is outside explicit allowlist"
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first := importPath
	if idx := strings.Index(first, "/"); idx != -1 {
		first = first[:idx]
	}
	return !strings.Contains(first, ".")
}
