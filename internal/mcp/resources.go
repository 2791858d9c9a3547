// ABOUTME: MCP resource implementations for the lift training log.
// ABOUTME: Provides lift://active and lift://sync resources.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/lift/internal/storage"
)

func (s *Server) registerResources() {
	// lift://active - the workout in progress
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "lift://active",
		Name:        "Active Workout",
		Description: "The workout in progress with its exercises and sets",
		MIMEType:    "application/json",
	}, s.handleActiveResource)

	// lift://sync - replication backlog
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "lift://sync",
		Name:        "Sync Status",
		Description: "Rows waiting to reach the remote mirror and pending remote deletes",
		MIMEType:    "application/json",
	}, s.handleSyncResource)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func (s *Server) handleActiveResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	w, err := s.svc.ActiveWorkout(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return jsonResource("lift://active", map[string]any{"active": nil})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active workout: %w", err)
	}

	done, total := 0, 0
	for _, e := range w.Exercises {
		for _, set := range e.Sets {
			total++
			if set.Completed {
				done++
			}
		}
	}

	return jsonResource("lift://active", map[string]any{
		"active":  w,
		"elapsed": time.Since(w.StartTime).Round(time.Second).String(),
		"sets": map[string]int{
			"completed": done,
			"total":     total,
		},
	})
}

func (s *Server) handleSyncResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	summary, err := s.svc.SyncStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read sync status: %w", err)
	}

	unsynced := make(map[string]int, len(summary.Unsynced))
	for kind, n := range summary.Unsynced {
		unsynced[string(kind)] = n
	}

	return jsonResource("lift://sync", map[string]any{
		"enabled":         s.svc.SyncEnabled(),
		"unsynced":        unsynced,
		"pending_deletes": summary.PendingDeletes,
		"total":           summary.Total(),
	})
}
