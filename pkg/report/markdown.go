package report

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Parse decodes a report returned by the relay.
func Parse(raw []byte) (*Template, error) {
	var t Template
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &t, nil
}

// ToMarkdown renders a report as Markdown for terminal previews. Styling
// attributes have no Markdown equivalent and are dropped.
func ToMarkdown(raw []byte) (string, error) {
	t, err := Parse(raw)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if t.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", t.Title)
	}
	if t.CoverImageURL != "" {
		fmt.Fprintf(&b, "![cover](%s)\n\n", t.CoverImageURL)
	}

	for _, blk := range t.Blocks {
		switch blk.Type {
		case BlockDivider:
			fmt.Fprintf(&b, "## %s\n\n", joinLines(blk.Content))
		case BlockMediumText:
			fmt.Fprintf(&b, "### %s\n\n", joinLines(blk.Content))
		case BlockPureText:
			fmt.Fprintf(&b, "**%s**\n\n", joinLines(blk.Content))
		default:
			if blk.Title != "" {
				fmt.Fprintf(&b, "#### %s\n\n", blk.Title)
			}
			for _, line := range blk.Content.Lines {
				if blk.Type == BlockSmall {
					fmt.Fprintf(&b, "> %s\n>\n", line)
				} else {
					fmt.Fprintf(&b, "%s\n\n", line)
				}
			}
			if blk.Type == BlockSmall && len(blk.Content.Lines) > 0 {
				b.WriteString("\n")
			}
		}
		for _, img := range blk.Images {
			fmt.Fprintf(&b, "![](%s)\n\n", img)
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n", nil
}

func joinLines(t Text) string {
	return strings.Join(t.Lines, " ")
}
