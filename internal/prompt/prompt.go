// Package prompt renders the conversations sent to the text generator at
// each pipeline step.
package prompt

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"text/template"

	"github.com/specialistvlad/testgrid/internal/model"
)

// Language describes how generated tests should be written for a source
// file.
type Language struct {
	Name      string
	Fence     string
	Framework string
}

var (
	Python = Language{Name: "Python", Fence: "python", Framework: "unittest"}
	Go     = Language{Name: "Go", Fence: "go", Framework: "testing"}
)

// LanguageOf picks the language from a source item id. Python is the
// fallback.
func LanguageOf(id string) Language {
	if strings.EqualFold(path.Ext(id), ".go") {
		return Go
	}
	return Python
}

type data struct {
	Lang      Language
	Path      string
	Source    string
	Code      string
	Name      string
	Receiver  string
	Artifacts []string
}

func render(t *template.Template, d data) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("render prompt '%s': %w", t.Name(), err)
	}
	return buf.String(), nil
}

func conversation(system *template.Template, users []*template.Template, d data) ([]model.Message, error) {
	sys, err := render(system, d)
	if err != nil {
		return nil, err
	}
	msgs := []model.Message{model.NewMessage(model.RoleSystem, sys)}
	for _, u := range users {
		text, err := render(u, d)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, model.NewMessage(model.RoleUser, text))
	}
	return msgs, nil
}

// Format asks for the unit's code to be reformatted. ok is false for kinds
// without a formatting prompt; the caller then keeps the raw text.
func Format(src model.SourceItem, u model.WorkUnit) (msgs []model.Message, ok bool, err error) {
	d := data{Lang: LanguageOf(src.ID), Path: src.ID, Code: u.Text, Name: u.Name, Receiver: u.Receiver}
	switch u.Kind {
	case model.KindFunction:
		msgs, err = conversation(formatSystem, []*template.Template{formatFunction}, d)
	case model.KindMethod:
		msgs, err = conversation(formatSystem, []*template.Template{formatMethod}, d)
	default:
		return nil, false, nil
	}
	return msgs, err == nil, err
}

// Explain opens the conversation a Processor carries: the full module, then
// the request to explain one unit of it.
func Explain(src model.SourceItem, code string) ([]model.Message, error) {
	d := data{Lang: LanguageOf(src.ID), Path: src.ID, Source: src.Content, Code: code}
	return conversation(explainSystem, []*template.Template{explainModule, explainUnit}, d)
}

// Plan asks for test scenarios covering the unit explained so far.
func Plan(lang Language) (model.Message, error) {
	text, err := render(planUser, data{Lang: lang})
	if err != nil {
		return model.Message{}, err
	}
	return model.NewMessage(model.RoleUser, text), nil
}

// Generate wraps a carried conversation with the instructions to write the
// test suite. System messages of the carried conversation are dropped; the
// step brings its own.
func Generate(lang Language, carried []model.Message) ([]model.Message, error) {
	d := data{Lang: lang}
	sys, err := render(generateSystem, d)
	if err != nil {
		return nil, err
	}
	user, err := render(generateUser, d)
	if err != nil {
		return nil, err
	}
	msgs := []model.Message{model.NewMessage(model.RoleSystem, sys)}
	for _, m := range carried {
		if m.Role != model.RoleSystem {
			msgs = append(msgs, m)
		}
	}
	return append(msgs, model.NewMessage(model.RoleUser, user)), nil
}

// Consolidate asks for several test files of one source file to be merged,
// in the order given.
func Consolidate(lang Language, texts []string) ([]model.Message, error) {
	return conversation(consolidateSystem, []*template.Template{consolidateUser}, data{Lang: lang, Artifacts: texts})
}

// ExtractCode returns the body of the first fenced code block in text, or
// the trimmed text when there is none.
func ExtractCode(text string) string {
	start := strings.Index(text, "```")
	if start < 0 {
		return strings.TrimSpace(text) + "\n"
	}
	rest := text[start+3:]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		return strings.TrimSpace(text) + "\n"
	}
	rest = rest[nl+1:]
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest) + "\n"
	}
	return strings.TrimSpace(rest[:end]) + "\n"
}
