package highlight

import (
	"strconv"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/GriffinCanCode/TextWarden/internal/domain/issue"
	"github.com/GriffinCanCode/TextWarden/internal/domain/surface"
	"github.com/GriffinCanCode/TextWarden/internal/shared/id"
)

// Popup actions carried on buttons as data-action
const (
	ActionApply    = "apply"
	ActionApplyAll = "apply-all"
)

// Popup lists every issue sharing one marker's quoted text
type Popup struct {
	Field     id.FieldID
	Marker    id.MarkerID
	IssueText string
	Issues    []issue.Issue
	Anchor    surface.Rect

	mu       sync.Mutex
	position Position
	html     string
	handle   surface.Disposable
}

// Position returns the current placement
func (p *Popup) Position() Position {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

// HTML returns the sanitised popup markup
func (p *Popup) HTML() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.html
}

// Close releases the popup's listeners. Safe to call more than once.
func (p *Popup) Close() {
	if p.handle != nil {
		p.handle.Dispose()
	}
}

func (p *Popup) setPosition(pos Position) {
	p.mu.Lock()
	p.position = pos
	p.mu.Unlock()
}

// PopupPolicy allows only the markup the popup builder emits
func PopupPolicy() *bluemonday.Policy {
	policy := bluemonday.NewPolicy()
	policy.AllowElements("div", "ul", "li", "span", "button")
	policy.AllowAttrs("class").Globally()
	policy.AllowAttrs("title").OnElements("button")
	policy.AllowDataAttributes()
	return policy
}

// renderPopup builds the popup markup as a node tree
func renderPopup(issues []issue.Issue, policy *bluemonday.Policy) string {
	content := element(atom.Div, "textwarden-popup-content")

	if len(issues) > 1 {
		container := element(atom.Div, "textwarden-apply-all-container")
		button := element(atom.Button, "textwarden-apply-all-button",
			html.Attribute{Key: "title", Val: "Apply all suggestions at once"},
			html.Attribute{Key: "data-action", Val: ActionApplyAll})
		button.AppendChild(text("Apply All Suggestions"))
		container.AppendChild(button)
		content.AppendChild(container)
	}

	list := element(atom.Ul, "textwarden-suggestions-list")
	for i, is := range issues {
		item := element(atom.Li, "textwarden-suggestion-item")
		header := element(atom.Div, "textwarden-item-header")

		if is.Applicable() {
			apply := element(atom.Button, "textwarden-small-apply-button",
				html.Attribute{Key: "title", Val: "Apply this suggestion"},
				html.Attribute{Key: "data-action", Val: ActionApply},
				html.Attribute{Key: "data-index", Val: strconv.Itoa(i)})
			apply.AppendChild(text("✓"))
			header.AppendChild(apply)
		}

		body := element(atom.Div, "textwarden-text-container")
		issueText := element(atom.Div, "textwarden-issue-text")
		issueText.AppendChild(text(orDefault(is.Text, "No issue text available")))
		suggestion := element(atom.Div, "textwarden-header-text")
		suggestion.AppendChild(text(orDefault(is.Suggestion, "No suggestion available")))
		body.AppendChild(issueText)
		body.AppendChild(suggestion)
		header.AppendChild(body)

		badge := element(atom.Span, "textwarden-type-badge textwarden-type-"+string(is.Type))
		badge.AppendChild(text(string(is.Type)))
		header.AppendChild(badge)

		explanation := element(atom.Div, "textwarden-explanation-tooltip")
		explanation.AppendChild(text(is.DisplayExplanation()))

		item.AppendChild(header)
		item.AppendChild(explanation)
		list.AppendChild(item)
	}
	content.AppendChild(list)

	var b strings.Builder
	_ = html.Render(&b, content)
	return policy.Sanitize(b.String())
}

func element(a atom.Atom, class string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     a.String(),
		DataAtom: a,
		Attr:     append([]html.Attribute{{Key: "class", Val: class}}, attrs...),
	}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
