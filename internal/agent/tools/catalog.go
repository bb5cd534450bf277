package tools

import (
	"github.com/reachloop/reachbot/internal/automation"
	"github.com/reachloop/reachbot/internal/cascade"
	"github.com/reachloop/reachbot/internal/screenshot"
	"github.com/reachloop/reachbot/internal/selectors"
)

// NewCatalog assembles the fixed tool catalog over the given collaborators.
// The catalog never changes at runtime; only the automation server's own
// advertisement (consulted by the proxy guard) is live.
func NewCatalog(engine *cascade.Engine, client *automation.Client, shots *screenshot.Client, store *selectors.Store) *Registry {
	r := NewRegistry()
	r.Register(NewReadChatTool(engine))
	r.Register(NewNavigateTool(client))
	r.Register(NewSnapshotTool(client))
	r.Register(NewRunCodeTool(client))
	r.Register(NewScreenshotTool(shots))
	r.Register(NewListToolsTool(client))
	r.Register(NewProxyTool(client))
	r.Register(NewGetHintsTool(store))
	r.Register(NewSaveHintsTool(store))
	return r
}
