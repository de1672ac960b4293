package transport

import (
	"github.com/teamdash/teamdash/internal/assistant"
	"github.com/teamdash/teamdash/internal/reconcile"
)

// Request payloads

type AssistantRequest struct {
	ProjectID string `json:"project_id,omitempty"`
	ThreadID  string `json:"thread_id"`
	Text      string `json:"text" minLength:"1"`
}

// Response payloads

type ToolsResponse struct {
	Tools []assistant.Tool `json:"tools"`
}

type FeedResponse struct {
	CandidateID  string                `json:"candidate_id"`
	Revision     uint64                `json:"revision"`
	LastDeletion uint64                `json:"last_deletion"`
	Stale        bool                  `json:"stale"`
	Projects     []reconcile.FeedEntry `json:"projects"`
}

func feedResponse(candidateID string, s reconcile.State, stale bool) FeedResponse {
	feed := s.Feed()
	projects := feed.Projects
	if projects == nil {
		projects = []reconcile.FeedEntry{}
	}
	return FeedResponse{
		CandidateID:  candidateID,
		Revision:     feed.Revision,
		LastDeletion: s.LastDeletion,
		Stale:        stale,
		Projects:     projects,
	}
}
