package dispatch

import (
	"context"
	"encoding/hex"
	"sync"

	"github.com/GrandEngineering/engine/pkg/events"
	"github.com/GrandEngineering/engine/pkg/log"
	"github.com/GrandEngineering/engine/pkg/metrics"
	"github.com/GrandEngineering/engine/pkg/module"
	"github.com/GrandEngineering/engine/pkg/registry"
	"github.com/GrandEngineering/engine/pkg/rpc"
	"github.com/GrandEngineering/engine/pkg/taskstore"
	"github.com/GrandEngineering/engine/pkg/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ModuleLister is the subset of *module.Loader the Service needs to
// serve ListModules, declared as an interface so tests can substitute a
// stub without constructing a real Loader.
type ModuleLister interface {
	Loaded() []module.Metadata
}

// Service implements rpc.DispatchServer. It holds the engine's single
// writer lock (spec §5): every operation acquires it for the full
// duration, since event dispatch may mutate handler state and there
// are no read-only fast paths in this core.
type Service struct {
	mu sync.Mutex

	registry *registry.Registry
	store    *taskstore.Store
	bus      *events.Bus
	modules  ModuleLister
	logger   zerolog.Logger
}

// New builds a Service over reg, store, bus, and the loader whose
// modules ListModules reports.
func New(reg *registry.Registry, store *taskstore.Store, bus *events.Bus, modules ModuleLister) *Service {
	return &Service{
		registry: reg,
		store:    store,
		bus:      bus,
		modules:  modules,
		logger:   log.WithComponent("dispatch"),
	}
}

func (s *Service) authorize(ctx context.Context) error {
	authorization, uid := rpc.AuthHeaders(ctx)
	event := events.NewAuthEvent(authorization, uid)
	s.bus.Dispatch(events.AuthIdentifier, event)
	if !event.Output {
		return status.Error(codes.PermissionDenied, "dispatch: authentication denied")
	}
	return nil
}

func (s *Service) authorizeAdmin(ctx context.Context, target types.Identifier) error {
	authorization, _ := rpc.AuthHeaders(ctx)
	event := events.NewAdminAuthEvent(authorization, target)
	s.bus.Dispatch(events.AdminAuthIdentifier, event)
	if !event.Output {
		return status.Error(codes.PermissionDenied, "dispatch: admin authentication denied")
	}
	return nil
}

// Lock and Unlock expose the engine's writer lock so the Reclaimer can
// serialize with RPC handlers under the same mutex (spec §5: "the
// entire engine state is guarded by a single readers-writer lock").
func (s *Service) Lock() {
	s.mu.Lock()
}

func (s *Service) Unlock() {
	s.mu.Unlock()
}

func (s *Service) observeCounts(id types.Identifier) {
	queued, processing, solved := s.store.Counts(id)
	metrics.TasksQueued.WithLabelValues(id.Namespace, id.Name).Set(float64(queued))
	metrics.TasksProcessing.WithLabelValues(id.Namespace, id.Name).Set(float64(processing))
	metrics.TasksSolved.WithLabelValues(id.Namespace, id.Name).Set(float64(solved))
}

// ListTaskTypes returns every registered identifier as "ns:name".
func (s *Service) ListTaskTypes(ctx context.Context, req *rpc.ListTaskTypesRequest) (*rpc.ListTaskTypesResponse, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.DispatchRequestDuration, "ListTaskTypes")

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authorize(ctx); err != nil {
		return nil, err
	}

	ids := s.registry.List()
	tasks := make([]string, 0, len(ids))
	for _, id := range ids {
		tasks = append(tasks, id.String())
	}
	return &rpc.ListTaskTypesResponse{Tasks: tasks}, nil
}

// AcquireTask pops the head of a queue and stamps it to the caller.
func (s *Service) AcquireTask(ctx context.Context, req *rpc.AcquireTaskRequest) (*rpc.Task, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.DispatchRequestDuration, "AcquireTask")

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authorize(ctx); err != nil {
		return nil, err
	}

	id, err := types.ParseIdentifier(req.TaskID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if _, ok := s.registry.Get(id); !ok {
		return nil, status.Error(codes.InvalidArgument, "dispatch: no template registered for "+id.String())
	}

	_, uid := rpc.AuthHeaders(ctx)
	task, err := s.store.Acquire(id, uid)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	metrics.TasksAcquiredTotal.WithLabelValues(id.Namespace, id.Name).Inc()
	s.observeCounts(id)

	wire := taskToWire(task)
	wire.TaskID = req.TaskID
	return &wire, nil
}

// PublishTask verifies and stores a worker's completed payload.
func (s *Service) PublishTask(ctx context.Context, req *rpc.Task) (*rpc.Empty, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.DispatchRequestDuration, "PublishTask")

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authorize(ctx); err != nil {
		return nil, err
	}

	id, err := types.ParseIdentifier(req.TaskID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	_, uid := rpc.AuthHeaders(ctx)
	if err := s.store.Publish(id, req.ID, uid, req.Payload); err != nil {
		return nil, mapStoreErr(err)
	}

	metrics.TasksPublishedTotal.WithLabelValues(id.Namespace, id.Name).Inc()
	s.observeCounts(id)

	return &rpc.Empty{}, nil
}

// CreateTask mints a fresh task id and enqueues payload.
func (s *Service) CreateTask(ctx context.Context, req *rpc.Task) (*rpc.Task, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.DispatchRequestDuration, "CreateTask")

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authorize(ctx); err != nil {
		return nil, err
	}

	id, err := types.ParseIdentifier(req.TaskID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	tmpl, ok := s.registry.Get(id)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "dispatch: no template registered for "+id.String())
	}
	if !tmpl.Verify(req.Payload) {
		return nil, status.Error(codes.InvalidArgument, "dispatch: payload failed template verification")
	}

	newID := mintID()
	stored := types.StoredTask{ID: newID, Payload: req.Payload}
	if err := s.store.Enqueue(id, stored); err != nil {
		return nil, mapStoreErr(err)
	}

	metrics.TasksCreatedTotal.WithLabelValues(id.Namespace, id.Name).Inc()
	s.observeCounts(id)

	return &rpc.Task{ID: newID, TaskID: req.TaskID, Payload: req.Payload}, nil
}

// DeleteTask removes a task by id from the named collection (admin).
func (s *Service) DeleteTask(ctx context.Context, req *rpc.DeleteTaskRequest) (*rpc.Empty, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.DispatchRequestDuration, "DeleteTask")

	id := types.NewIdentifier(req.Namespace, req.Name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authorizeAdmin(ctx, id); err != nil {
		return nil, err
	}

	if err := s.store.Delete(id, req.ID, stateFromWire(req.State)); err != nil {
		return nil, mapStoreErr(err)
	}

	s.observeCounts(id)
	return &rpc.Empty{}, nil
}

// GetTasks lists a page of a collection (admin).
func (s *Service) GetTasks(ctx context.Context, req *rpc.GetTasksRequest) (*rpc.GetTasksResponse, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.DispatchRequestDuration, "GetTasks")

	id := types.NewIdentifier(req.Namespace, req.Name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authorizeAdmin(ctx, id); err != nil {
		return nil, err
	}

	stored := s.store.List(id, stateFromWire(req.State), req.Page, req.PageSize)
	tasks := make([]rpc.Task, 0, len(stored))
	for _, t := range stored {
		tasks = append(tasks, taskToWire(t))
	}
	return &rpc.GetTasksResponse{Tasks: tasks}, nil
}

// CheckAuth is a capability probe: it runs the admin-auth preamble and
// returns empty, carrying no server-health information (spec §9's
// heartbeat-vs-probe question, resolved in favor of probe).
func (s *Service) CheckAuth(ctx context.Context, req *rpc.Empty) (*rpc.Empty, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.DispatchRequestDuration, "CheckAuth")

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authorizeAdmin(ctx, types.Identifier{}); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}

// Cgrpc routes an opaque payload to a named handler via cgrpc_event
// (admin).
func (s *Service) Cgrpc(ctx context.Context, req *rpc.CgrpcRequest) (*rpc.CgrpcResponse, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.DispatchRequestDuration, "Cgrpc")

	target := types.NewIdentifier(req.HandlerModID, req.HandlerID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authorizeAdmin(ctx, target); err != nil {
		return nil, err
	}

	event := events.NewCgrpcEvent(req.HandlerModID, req.HandlerID, req.EventPayload)
	s.bus.Dispatch(events.CgrpcIdentifier, event)
	return &rpc.CgrpcResponse{EventPayload: event.Output}, nil
}

// ListModules is the supplemental admin extension exposing the full
// module metadata surface (spec.md's table doesn't list this RPC; see
// SPEC_FULL.md §4, "Supplemented Features").
func (s *Service) ListModules(ctx context.Context, req *rpc.ListModulesRequest) (*rpc.ListModulesResponse, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDurationVec(metrics.DispatchRequestDuration, "ListModules")

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.authorizeAdmin(ctx, types.Identifier{}); err != nil {
		return nil, err
	}

	loaded := s.modules.Loaded()
	out := make([]rpc.ModuleMetadata, 0, len(loaded))
	for _, m := range loaded {
		out = append(out, rpc.ModuleMetadata{
			ModID:            m.ModID,
			Name:             m.Name,
			Author:           m.Author,
			Version:          m.Version,
			Description:      m.Description,
			License:          m.License,
			Credits:          m.Credits,
			Dependencies:     m.Dependencies,
			DisplayURL:       m.DisplayURL,
			IssueTracker:     m.IssueTracker,
			ABIVersion:       m.ABIVersion,
			ToolchainVersion: m.ToolchainVersion,
		})
	}
	return &rpc.ListModulesResponse{Modules: out}, nil
}

// mintID renders the 16 bytes of a random (version 4) UUID as lowercase
// hex: a 128-bit id of which 122 bits are random.
func mintID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
