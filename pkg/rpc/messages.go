package rpc

// State mirrors types.State on the wire; it is redeclared here so this
// package has no dependency on pkg/types, keeping the wire contract
// self-contained the way a generated protobuf package would be.
type State int32

const (
	StateQueued State = iota
	StateProcessing
	StateSolved
)

// Empty is the zero-field response for operations with no payload.
type Empty struct{}

// Task is the wire shape shared by AcquireTask's response, PublishTask's
// request, and CreateTask's request/response (spec §6). Ext is always
// empty on output; an implementation accepts it on input without
// interpreting it (spec §9, open question).
type Task struct {
	ID      string
	TaskID  string
	Payload []byte
	Ext     []byte
}

// ListTaskTypesRequest carries no fields; present for symmetry with the
// generated-stub shape a real build would have.
type ListTaskTypesRequest struct{}

// ListTaskTypesResponse lists every registered identifier as "ns:name".
type ListTaskTypesResponse struct {
	Tasks []string
}

// AcquireTaskRequest names the identifier to pop from, as its wire
// string form.
type AcquireTaskRequest struct {
	TaskID string
}

// DeleteTaskRequest names a task by identifier and id within a state.
type DeleteTaskRequest struct {
	Namespace string
	Name      string
	ID        string
	State     State
}

// GetTasksRequest pages through a collection.
type GetTasksRequest struct {
	Namespace string
	Name      string
	State     State
	Page      uint32
	PageSize  uint32
}

// GetTasksResponse carries a page of tasks.
type GetTasksResponse struct {
	Tasks []Task
}

// CgrpcRequest routes an opaque payload to a named handler.
type CgrpcRequest struct {
	HandlerModID string
	HandlerID    string
	EventPayload []byte
}

// CgrpcResponse carries the handler's reply bytes.
type CgrpcResponse struct {
	EventPayload []byte
}

// ModuleMetadata mirrors pkg/module.Metadata on the wire (supplemental
// admin extension, not in spec.md's RPC table).
type ModuleMetadata struct {
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

// ListModulesRequest carries no fields.
type ListModulesRequest struct{}

// ListModulesResponse lists every module the engine has loaded.
type ListModulesResponse struct {
	Modules []ModuleMetadata
}
