package reader

import (
	"path/filepath"
	"strings"
)

// Category is the detected content kind of a file. It doubles as the markdown fence tag.
type Category string

const (
	CategoryGo         Category = "go"
	CategoryTypeScript Category = "typescript"
	CategoryJavaScript Category = "javascript"
	CategoryPython     Category = "python"
	CategoryRuby       Category = "ruby"
	CategoryJava       Category = "java"
	CategoryKotlin     Category = "kotlin"
	CategoryRust       Category = "rust"
	CategoryC          Category = "c"
	CategoryCPP        Category = "cpp"
	CategoryCSharp     Category = "csharp"
	CategoryPHP        Category = "php"
	CategorySwift      Category = "swift"
	CategoryScala      Category = "scala"
	CategoryShell      Category = "bash"
	CategoryMarkdown   Category = "markdown"
	CategoryJSON       Category = "json"
	CategoryYAML       Category = "yaml"
	CategoryTOML       Category = "toml"
	CategoryXML        Category = "xml"
	CategoryHTML       Category = "html"
	CategoryCSS        Category = "css"
	CategorySQL        Category = "sql"
	CategoryDockerfile Category = "dockerfile"
	CategoryText       Category = "text"
)

var extensionCategories = map[string]Category{
	".go":    CategoryGo,
	".ts":    CategoryTypeScript,
	".tsx":   CategoryTypeScript,
	".mts":   CategoryTypeScript,
	".cts":   CategoryTypeScript,
	".js":    CategoryJavaScript,
	".jsx":   CategoryJavaScript,
	".mjs":   CategoryJavaScript,
	".cjs":   CategoryJavaScript,
	".py":    CategoryPython,
	".pyi":   CategoryPython,
	".rb":    CategoryRuby,
	".java":  CategoryJava,
	".kt":    CategoryKotlin,
	".kts":   CategoryKotlin,
	".rs":    CategoryRust,
	".c":     CategoryC,
	".h":     CategoryC,
	".cc":    CategoryCPP,
	".cpp":   CategoryCPP,
	".cxx":   CategoryCPP,
	".hpp":   CategoryCPP,
	".cs":    CategoryCSharp,
	".php":   CategoryPHP,
	".swift": CategorySwift,
	".scala": CategoryScala,
	".sh":    CategoryShell,
	".bash":  CategoryShell,
	".zsh":   CategoryShell,
	".md":    CategoryMarkdown,
	".mdx":   CategoryMarkdown,
	".json":  CategoryJSON,
	".yaml":  CategoryYAML,
	".yml":   CategoryYAML,
	".toml":  CategoryTOML,
	".xml":   CategoryXML,
	".html":  CategoryHTML,
	".htm":   CategoryHTML,
	".css":   CategoryCSS,
	".scss":  CategoryCSS,
	".sql":   CategorySQL,
}

var codeCategories = map[Category]bool{
	CategoryGo: true, CategoryTypeScript: true, CategoryJavaScript: true, CategoryPython: true,
	CategoryRuby: true, CategoryJava: true, CategoryKotlin: true, CategoryRust: true,
	CategoryC: true, CategoryCPP: true, CategoryCSharp: true, CategoryPHP: true,
	CategorySwift: true, CategoryScala: true, CategoryShell: true,
}

// CategoryFor detects a category from a file name.
func CategoryFor(name string) Category {
	base := filepath.Base(name)
	if base == "Dockerfile" || strings.HasPrefix(base, "Dockerfile.") {
		return CategoryDockerfile
	}
	if c, ok := extensionCategories[strings.ToLower(filepath.Ext(base))]; ok {
		return c
	}
	return CategoryText
}

// IsCode reports whether the reducer should apply code-aware heuristics.
func (c Category) IsCode() bool {
	return codeCategories[c]
}

// FenceTag is the language tag used on markdown code fences.
func (c Category) FenceTag() string {
	if c == CategoryText {
		return ""
	}
	return string(c)
}
