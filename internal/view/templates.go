// Package view holds the HTML templates rendered by the public handlers.
package view

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// FuncMap 提供模板中使用的分页运算辅助函数。
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"mul": func(a, b int) int {
			return a * b
		},
	}
}

// Templates parses every embedded template. Each page is addressable by its
// file name, e.g. "index.html".
func Templates() (*template.Template, error) {
	return template.New("").Funcs(FuncMap()).ParseFS(templateFS, "templates/*.html")
}

// MustTemplates is Templates for package initialization paths.
func MustTemplates() *template.Template {
	return template.Must(Templates())
}
