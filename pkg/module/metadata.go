package module

import (
	"github.com/GrandEngineering/engine/pkg/events"
	"github.com/GrandEngineering/engine/pkg/registry"
)

// ABIVersion and ToolchainVersion are this build's module compatibility
// stamp. A module bundle is rejected unless both match exactly (spec
// §4.4); bump them together whenever EngineHandle's shape changes.
const (
	ABIVersion       = "1"
	ToolchainVersion = "go1.22"
)

// Metadata is the module bundle metadata surface, carrying more fields
// than the core needs at runtime (mod_license, mod_credits, etc. are
// exposed read-only to the ListModules admin extension; the start
// event carries only ModID, Name, Author and Version) so operators can
// identify what loaded and why a rejection happened.
type Metadata struct {
	ModID            string
	Name             string
	Author           string
	Version          string
	Description      string
	License          string
	Credits          string
	Dependencies     []string
	DisplayURL       string
	IssueTracker     string
	ABIVersion       string
	ToolchainVersion string
}

// EngineHandle is the capability set a module's registration entry
// receives: the task-type registry and the event bus it installs
// templates and handlers into.
type EngineHandle interface {
	Registry() *registry.Registry
	Events() *events.Bus
}
