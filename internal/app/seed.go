package app

import (
	"context"
	"fmt"
	"time"

	"github.com/teamdash/teamdash/internal/assistant"
	"github.com/teamdash/teamdash/internal/domain/message"
	"github.com/teamdash/teamdash/internal/domain/project"
	"github.com/teamdash/teamdash/internal/domain/staffing"
	"github.com/teamdash/teamdash/internal/domain/task"
)

// SeedResult lists what Seed created.
type SeedResult struct {
	ProjectID   string
	Candidates  []string
	Assignments []string
	Tasks       []string
	ThreadID    string
}

// Seed loads a demo project: an owner, three candidates, two accepted seats,
// one open search and a few tasks.
func (a *App) Seed(ctx context.Context, ownerID string) (*SeedResult, error) {
	res := &SeedResult{}

	proj, err := a.Projects.Create(ctx, project.CreateRequest{
		OwnerID:     ownerID,
		Title:       "Refonte du site e-commerce",
		Description: "Migration du checkout et nouveau catalogue produits.",
		Budget:      45000,
	})
	if err != nil {
		return nil, fmt.Errorf("seeding project: %w", err)
	}
	res.ProjectID = proj.ID

	candidates := []*staffing.Candidate{
		{DisplayName: "Marie Dupont", ProfileID: "backend", Seniority: staffing.SenioritySenior, Languages: []string{"fr", "en"}, Expertises: []string{"go", "postgres"}, DailyRate: 650},
		{DisplayName: "Lucas Martin", ProfileID: "frontend", Seniority: staffing.SeniorityIntermediate, Languages: []string{"fr"}, Expertises: []string{"react"}, DailyRate: 500},
		{DisplayName: "Ada", ProfileID: "assistant", Seniority: staffing.SeniorityExpert, IsAI: true},
	}
	for _, c := range candidates {
		if err := a.Staffing.CreateCandidate(ctx, c); err != nil {
			return nil, fmt.Errorf("seeding candidate %s: %w", c.DisplayName, err)
		}
		res.Candidates = append(res.Candidates, c.ID)
	}

	// Marie and Ada join; the frontend seat stays open for Lucas to find.
	for _, c := range []*staffing.Candidate{candidates[0], candidates[2], candidates[1]} {
		seat, err := a.Staffing.CreateAssignment(ctx, staffing.CreateAssignmentRequest{
			ProjectID: proj.ID,
			ProfileID: c.ProfileID,
			Seniority: c.Seniority,
			Languages: c.Languages,
		})
		if err != nil {
			return nil, fmt.Errorf("seeding assignment: %w", err)
		}
		if _, err := a.Staffing.Publish(ctx, seat.ID); err != nil {
			return nil, fmt.Errorf("publishing assignment: %w", err)
		}
		res.Assignments = append(res.Assignments, seat.ID)
		if c == candidates[1] {
			continue
		}
		if _, err := a.Staffing.Accept(ctx, seat.ID, c.Identity()); err != nil {
			return nil, fmt.Errorf("accepting assignment: %w", err)
		}
	}

	due := time.Now().AddDate(0, 0, 7)
	for _, t := range []task.CreateRequest{
		{Title: "Audit du checkout actuel", Assignee: candidates[0].ID, Status: task.StatusInProgress, Priority: task.PriorityHigh},
		{Title: "Schéma de la base catalogue", Assignee: candidates[0].ID, DueDate: &due},
		{Title: "Résumé hebdomadaire", Assignee: candidates[2].ID, Priority: task.PriorityLow},
	} {
		t.ProjectID = proj.ID
		t.CreatedBy = ownerID
		created, err := a.Tasks.Create(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("seeding task: %w", err)
		}
		res.Tasks = append(res.Tasks, created.ID)
	}

	thread, err := a.Messages.CreateThread(ctx, message.CreateThreadRequest{
		ProjectID: proj.ID,
		Type:      message.ThreadPrivate,
		Title:     "Assistant",
		CreatedBy: ownerID,
		Participants: []message.Participant{
			{UserID: ownerID},
			{UserID: assistant.AssistantID, IsAI: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("seeding thread: %w", err)
	}
	res.ThreadID = thread.ID

	a.logger.Info("demo data seeded", "project_id", proj.ID, "candidates", len(res.Candidates), "tasks", len(res.Tasks))
	return res, nil
}
