package dispatch

import (
	"github.com/GrandEngineering/engine/pkg/rpc"
	"github.com/GrandEngineering/engine/pkg/types"
)

func stateFromWire(s rpc.State) types.State {
	switch s {
	case rpc.StateProcessing:
		return types.Processing
	case rpc.StateSolved:
		return types.Solved
	default:
		return types.Queued
	}
}

func taskToWire(t types.StoredTask) rpc.Task {
	return rpc.Task{ID: t.ID, Payload: t.Payload}
}
