// Package cascade implements the multi-tier DOM-resolution pipeline that
// opens a conversation from a profile view and harvests its messages despite
// drifting markup. The pipeline is a deterministic function of the current
// selector knowledge, the live DOM, and the requested limit; every abort is a
// typed fault code the reasoning loop can act on.
package cascade

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/reachloop/reachbot/internal/fault"
	"github.com/reachloop/reachbot/internal/logging"
	"github.com/reachloop/reachbot/internal/selectors"
)

// Accessible-name prefixes and visible-text phrases for the conversation CTA,
// in the two languages the target application ships to our accounts.
var (
	ctaPrefixes = []string{"Message", "Enviar mensaje"}
	ctaPhrases  = []string{"Message", "Enviar mensaje"}

	overflowPrefixes = []string{"More actions", "Más acciones"}
	overflowEntries  = []string{"Message", "Enviar mensaje"}
)

// ctaIcon is the icon reference used by the icon-ancestor tier.
const ctaIcon = `[data-test-icon^="send-privately"]`

// headerScope narrows tier matching to the profile header before widening to
// the whole page.
const headerScope = `section[class*="profile-topcard"], div[class*="profile-header"]`

// wrongSection matches accessible labels that belong to an unrelated
// business-page header. A CTA carrying such a label is a look-alike; clicking
// it would act on the wrong entity.
var wrongSection = regexp.MustCompile(`(?i)\b(page|company|empresa)\b`)

// genericRootFallback is tried once after the cached root candidates exhaust
// their poll budget.
var genericRootFallback = []string{
	`div[role="dialog"]`,
	`aside[class*="overlay"]`,
	`section[class*="conversation"]`,
}

// genericItemSelector drives the broad block-level scan when no cached item
// candidate matches inside the resolved root.
const genericItemSelector = `p, li, blockquote, div, span`

const (
	defaultLimit      = 10
	maxLimit          = 100
	fallbackItemCap   = 50
	minItemLen        = 2
	defaultSettle     = 2 * time.Second
	defaultPollBudget = 12 * time.Second
	defaultPollEvery  = 200 * time.Millisecond
)

// Config tunes the cascade's fixed local timeouts.
type Config struct {
	Settle     time.Duration // wait after navigation for client-side rendering
	PollBudget time.Duration // total budget for conversation-root detection
	PollEvery  time.Duration // root poll interval
}

// ReadRequest asks for the most recent messages of the conversation reachable
// from a profile resource.
type ReadRequest struct {
	ProfileURL string
	Limit      int
}

// ReadResult is a successful extraction. Messages are oldest-to-newest.
type ReadResult struct {
	Messages    []string  `json:"messages"`
	Limit       int       `json:"limit"`
	RootMatched string    `json:"rootMatched"`
	ExtractedAt time.Time `json:"extractedAt"`
}

// Engine runs the cascade against a DOM using a selector store.
type Engine struct {
	dom   DOM
	store *selectors.Store
	cfg   Config
	log   logging.Logger

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// New builds an Engine. Zero config fields fall back to the defaults.
func New(dom DOM, store *selectors.Store, cfg Config) *Engine {
	if cfg.Settle <= 0 {
		cfg.Settle = defaultSettle
	}
	if cfg.PollBudget <= 0 {
		cfg.PollBudget = defaultPollBudget
	}
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = defaultPollEvery
	}
	return &Engine{
		dom:   dom,
		store: store,
		cfg:   cfg,
		log:   logging.Component("cascade"),
		now:   time.Now,
		sleep: sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ReadConversation opens the conversation behind req.ProfileURL and returns
// its most recent messages. Aborts surface as *fault.Fault with a structural
// code; anything else is an infrastructure error.
func (e *Engine) ReadConversation(ctx context.Context, req ReadRequest) (*ReadResult, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	if err := e.dom.Navigate(ctx, req.ProfileURL); err != nil {
		return nil, err
	}
	if err := e.sleep(ctx, e.cfg.Settle); err != nil {
		return nil, err
	}

	if err := e.openConversation(ctx); err != nil {
		return nil, err
	}

	rootRef, rootSel, err := e.awaitRoot(ctx)
	if err != nil {
		return nil, err
	}
	e.log.Infof("conversation root matched via %q", rootSel)

	items, err := e.extractItems(ctx, rootRef)
	if err != nil {
		return nil, err
	}

	if len(items) > limit {
		items = items[len(items)-limit:]
	}
	return &ReadResult{
		Messages:    items,
		Limit:       limit,
		RootMatched: rootSel,
		ExtractedAt: e.now(),
	}, nil
}

// openConversation locates and activates the conversation CTA: attr-prefix,
// visible text, then icon ancestor, each scoped to the profile header before
// the whole page, with the overflow menu as the last resort.
func (e *Engine) openConversation(ctx context.Context) error {
	tiers := []Query{
		{Kind: QueryAttrPrefix, Prefixes: ctaPrefixes, VisibleOnly: true},
		{Kind: QueryText, Phrases: ctaPhrases, VisibleOnly: true},
		{Kind: QueryIconAncestor, Icon: ctaIcon, VisibleOnly: true},
	}
	for _, scope := range []string{headerScope, ""} {
		for _, q := range tiers {
			q.Scope = scope
			found, err := e.dom.QueryAll(ctx, q)
			if err != nil {
				return err
			}
			for _, el := range found {
				if !el.Visible {
					continue
				}
				if wrongSection.MatchString(el.Label) {
					return fault.New(fault.CTAHeaderMisselection,
						"conversation control label %q belongs to another section", el.Label)
				}
				return e.dom.Click(ctx, el.Ref)
			}
		}
	}
	return e.openViaOverflowMenu(ctx)
}

// openViaOverflowMenu opens the "more actions" menu and selects the
// conversation entry by localized text.
func (e *Engine) openViaOverflowMenu(ctx context.Context) error {
	triggers, err := e.dom.QueryAll(ctx, Query{
		Kind:        QueryAttrPrefix,
		Prefixes:    overflowPrefixes,
		VisibleOnly: true,
	})
	if err != nil {
		return err
	}
	var trigger *Element
	for i := range triggers {
		if triggers[i].Visible {
			trigger = &triggers[i]
			break
		}
	}
	if trigger == nil {
		return fault.New(fault.CTANotFound, "no conversation control on profile")
	}
	if err := e.dom.Click(ctx, trigger.Ref); err != nil {
		return err
	}
	entries, err := e.dom.QueryAll(ctx, Query{
		Kind:        QueryText,
		Phrases:     overflowEntries,
		VisibleOnly: true,
	})
	if err != nil {
		return err
	}
	for _, el := range entries {
		if el.Visible {
			return e.dom.Click(ctx, el.Ref)
		}
	}
	return fault.New(fault.CTANotFoundInMoreMenu, "overflow menu has no conversation entry")
}

// awaitRoot polls the cached root candidates until one exists and is visible,
// preferring the last match in document order since a freshly opened panel is
// appended last. After the budget it tries the generic fallback set once.
func (e *Engine) awaitRoot(ctx context.Context) (ref, selector string, err error) {
	candidates := e.store.Get(selectors.ConversationRoot)
	deadline := e.now().Add(e.cfg.PollBudget)

	for {
		if ref, sel, ok, err := e.probeRoot(ctx, candidates); err != nil {
			return "", "", err
		} else if ok {
			return ref, sel, nil
		}
		if !e.now().Before(deadline) {
			break
		}
		if err := e.sleep(ctx, e.cfg.PollEvery); err != nil {
			return "", "", err
		}
	}

	if ref, sel, ok, err := e.probeRoot(ctx, genericRootFallback); err != nil {
		return "", "", err
	} else if ok {
		e.log.Warnf("root found only via generic fallback %q", sel)
		return ref, sel, nil
	}
	return "", "", fault.New(fault.OverlayNotFound,
		"conversation root not detected within %s", e.cfg.PollBudget)
}

func (e *Engine) probeRoot(ctx context.Context, candidates []string) (ref, selector string, ok bool, err error) {
	for _, sel := range candidates {
		found, err := e.dom.QueryAll(ctx, Query{Kind: QueryCSS, Selector: sel, VisibleOnly: true})
		if err != nil {
			return "", "", false, err
		}
		for i := len(found) - 1; i >= 0; i-- {
			if found[i].Visible {
				return found[i].Ref, sel, true, nil
			}
		}
	}
	return "", "", false, nil
}

// extractItems collects message texts from the resolved root: the first
// cached item candidate with at least one match wins, then the generic
// block-level scan.
func (e *Engine) extractItems(ctx context.Context, rootRef string) ([]string, error) {
	for _, sel := range e.store.Get(selectors.ConversationItems) {
		found, err := e.dom.QueryAll(ctx, Query{Kind: QueryCSS, Selector: sel, WithinRef: rootRef})
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			continue
		}
		var texts []string
		for _, el := range found {
			if t := normalizeSpace(el.Text); t != "" {
				texts = append(texts, t)
			}
		}
		if len(texts) > 0 {
			return texts, nil
		}
	}
	return e.extractGeneric(ctx, rootRef)
}

// extractGeneric is the broad fallback scan: normalize whitespace, drop
// near-empty entries, dedupe preserving first-seen order, cap the result.
func (e *Engine) extractGeneric(ctx context.Context, rootRef string) ([]string, error) {
	found, err := e.dom.QueryAll(ctx, Query{Kind: QueryCSS, Selector: genericItemSelector, WithinRef: rootRef})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var texts []string
	for _, el := range found {
		t := normalizeSpace(el.Text)
		if len(t) < minItemLen || seen[t] {
			continue
		}
		seen[t] = true
		texts = append(texts, t)
		if len(texts) == fallbackItemCap {
			break
		}
	}
	return texts, nil
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
