package report

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

// TextInstruction returns the system instruction for text report requests:
// analyst framing, the layout and style guideline, and TextTemplate.
func TextInstruction() (string, error) {
	return render("text.tmpl", TextTemplate())
}

// ImageInstruction returns the instruction that leads an image report
// request. It is shorter than TextInstruction and embeds ImageTemplate.
func ImageInstruction() (string, error) {
	return render("image.tmpl", ImageTemplate())
}

func render(name string, t Template) (string, error) {
	example, err := Marshal(t)
	if err != nil {
		return "", fmt.Errorf("marshal template: %w", err)
	}

	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, struct{ Template string }{example}); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
