package cascade

import "context"

// QueryKind selects how the automation server resolves a Query.
type QueryKind string

const (
	// QueryCSS resolves a CSS selector.
	QueryCSS QueryKind = "css"
	// QueryAttrPrefix matches elements whose accessible name starts with one
	// of the given prefixes.
	QueryAttrPrefix QueryKind = "attr_prefix"
	// QueryText matches interactive elements by visible text,
	// case-insensitive.
	QueryText QueryKind = "text"
	// QueryIconAncestor finds an icon reference and walks up to its nearest
	// enclosing interactive ancestor.
	QueryIconAncestor QueryKind = "icon_ancestor"
)

// Query is a structured element lookup. It is sent to the automation server
// as data; the server never receives generated script text, so candidate
// strings can't escape into executable code.
type Query struct {
	Kind        QueryKind `json:"kind"`
	Scope       string    `json:"scope,omitempty"`    // CSS scope, "" = whole page
	WithinRef   string    `json:"withinRef,omitempty"` // limit to a previously resolved element
	Selector    string    `json:"selector,omitempty"`  // QueryCSS
	Prefixes    []string  `json:"prefixes,omitempty"`  // QueryAttrPrefix
	Phrases     []string  `json:"phrases,omitempty"`   // QueryText
	Icon        string    `json:"icon,omitempty"`      // QueryIconAncestor
	VisibleOnly bool      `json:"visibleOnly"`
}

// Element is one resolved DOM node, identified by a server-assigned ref that
// stays valid for the lifetime of the page.
type Element struct {
	Ref     string `json:"ref"`
	Label   string `json:"label"`
	Text    string `json:"text"`
	Visible bool   `json:"visible"`
}

// DOM is the cascade's view of the live page. The production implementation
// forwards to the external automation server; tests substitute a fake.
type DOM interface {
	Navigate(ctx context.Context, url string) error
	QueryAll(ctx context.Context, q Query) ([]Element, error)
	Click(ctx context.Context, ref string) error
}
