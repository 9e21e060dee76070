// Package report builds the instructions sent upstream and post-processes the
// model's reply into the report JSON returned to callers.
package report

import (
	"bytes"
	"encoding/json"
)

// SchemaVersion is the template_schema_version advertised to the model.
const SchemaVersion = "1.0"

// Block types understood by the long-image renderer.
const (
	BlockDivider    = "divider"
	BlockLarge      = "large"
	BlockSmall      = "small"
	BlockMediumText = "mediumtext"
	BlockPureText   = "puretext"
)

// Template is the report document the model is asked to fill in.
type Template struct {
	SchemaVersion string  `json:"template_schema_version"`
	Title         string  `json:"reportTitle"`
	CoverImageURL string  `json:"coverImageUrl"`
	Blocks        []Block `json:"blocks"`
}

// Block is one visual section of the report. Type selects which of the
// optional fields are meaningful.
type Block struct {
	Type            string   `json:"type"`
	Title           string   `json:"title,omitempty"`
	TitleBarColor   string   `json:"titleBarColor,omitempty"`
	Content         Text     `json:"content"`
	Images          []string `json:"images,omitempty"`
	Align           string   `json:"align,omitempty"`
	Color           string   `json:"color,omitempty"`
	BackgroundColor string   `json:"backgroundColor,omitempty"`
	FontSize        string   `json:"fontSize,omitempty"`
	TextColor       string   `json:"textColor,omitempty"`
}

// Text is block content. Headline blocks carry a single string and cards
// carry a list of paragraphs; both shapes decode into Text.
type Text struct {
	Lines  []string
	Inline bool
}

// Inline returns headline content serialized as a bare string.
func Inline(s string) Text {
	return Text{Lines: []string{s}, Inline: true}
}

// Paragraphs returns card content serialized as a string list.
func Paragraphs(lines ...string) Text {
	if lines == nil {
		lines = []string{}
	}
	return Text{Lines: lines}
}

func (t Text) MarshalJSON() ([]byte, error) {
	if t.Inline {
		var s string
		if len(t.Lines) > 0 {
			s = t.Lines[0]
		}
		return json.Marshal(s)
	}
	if t.Lines == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t.Lines)
}

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = Text{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Inline(s)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}
	*t = Paragraphs(lines...)
	return nil
}

// TextTemplate returns the example template embedded in the text report
// instruction. It demonstrates the headline/card layout rules.
func TextTemplate() Template {
	return Template{
		SchemaVersion: SchemaVersion,
		Title:         "【请填写报告主标题】",
		CoverImageURL: "【请粘贴封面图片的URL，或留空】",
		Blocks: []Block{
			{
				Type:    BlockDivider,
				Content: Inline("【全文总标题】"),
				Align:   "center",
				Color:   "black",
			},
			{
				Type:          BlockLarge,
				Title:         "【第一个核心板块标题】",
				TitleBarColor: "blue",
				Content:       Paragraphs("【内容段落1...】"),
			},
			{
				Type:    BlockDivider,
				Content: Inline("【第二个章节标题】"),
				Align:   "center",
				Color:   "default",
			},
			{
				Type:          BlockSmall,
				Title:         "【并列内容1】",
				TitleBarColor: "purple",
				Content:       Paragraphs("【简介1】"),
			},
			{
				Type:          BlockSmall,
				Title:         "【并列内容2】",
				TitleBarColor: "purple",
				Content:       Paragraphs("【简介2】"),
			},
		},
	}
}

// ImageTemplate returns the example template embedded in the image report
// instruction. It leans on slogan and key-figure blocks, which suit content
// read off brochures and screenshots.
func ImageTemplate() Template {
	return Template{
		SchemaVersion: SchemaVersion,
		Title:         "【根据图片内容填写报告主标题】",
		CoverImageURL: "",
		Blocks: []Block{
			{
				Type:    BlockDivider,
				Content: Inline("【全文总标题】"),
				Align:   "center",
				Color:   "black",
			},
			{
				Type:      BlockMediumText,
				Content:   Inline("【图片中的核心宣传语】"),
				Align:     "center",
				FontSize:  "20px",
				TextColor: "#1e3a8a",
			},
			{
				Type:            BlockLarge,
				Title:           "【图片信息归纳】",
				TitleBarColor:   "orange",
				BackgroundColor: "default",
				Content:         Paragraphs("【从图片中提取的要点1...】", "【要点2...】"),
			},
			{
				Type:    BlockPureText,
				Content: Inline("【关键参数1】"),
				Align:   "center",
			},
			{
				Type:    BlockPureText,
				Content: Inline("【关键参数2】"),
				Align:   "center",
			},
		},
	}
}

// Marshal serializes a template with two-space indentation and without HTML
// escaping, the form embedded into instructions.
func Marshal(t Template) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
