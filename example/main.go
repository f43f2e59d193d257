package main

import (
	"fmt"
	"log"

	godocx "github.com/Navl-bm/docxtemplater"
	"github.com/Navl-bm/docxtemplater/internal/expression"
)

// Example usage: fill template.docx and write modified.docx.
func main() {
	data := map[string]any{
		"title": "Quarterly report",
		"notes": "line 1\nline 2\nline 3",
		"people": []any{
			map[string]any{"name": "Ivan Ivanov", "role": "author"},
			map[string]any{"name": "Petr Petrov", "role": "reviewer"},
		},
		"total": 1250.5,
	}

	opts := godocx.Options{
		ParagraphLoop: true,
		Linebreaks:    true,
		Parser:        expression.NewParser(),
	}
	if err := godocx.ProcessDocx("template.docx", "modified.docx", data, opts); err != nil {
		log.Fatal(err)
	}
	fmt.Println("Created modified.docx")
}
