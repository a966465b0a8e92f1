package timer

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/balkashynov/tally/internal/models"
	"github.com/balkashynov/tally/internal/store"
)

// CreateClient adds a client billed at rate per hour.
func (e *Engine) CreateClient(ctx context.Context, name string, rate float64) (*models.Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("client name is required")
	}
	if rate < 0 {
		return nil, validationf("hourly rate must not be negative")
	}

	clients, err := e.store.ListClients(ctx)
	if err != nil {
		return nil, storageErr("list clients", err)
	}
	for _, c := range clients {
		if strings.EqualFold(c.Name, name) {
			return nil, conflictf("client %q already exists (#%d)", c.Name, c.ID)
		}
	}

	client, err := e.store.CreateClient(ctx, &models.Client{Name: name, HourlyRate: rate})
	if err != nil {
		return nil, storageErr("create client", err)
	}
	e.log.Info("client created", slog.Uint64("client_id", uint64(client.ID)), slog.String("name", name))
	return client, nil
}

// Clients lists clients by name.
func (e *Engine) Clients(ctx context.Context) ([]models.Client, error) {
	clients, err := e.store.ListClients(ctx)
	if err != nil {
		return nil, storageErr("list clients", err)
	}
	return clients, nil
}

// CreateProject adds a project under a client. A nil rate bills at the client's rate.
func (e *Engine) CreateProject(ctx context.Context, clientID uint, name string, rate *float64) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("project name is required")
	}
	if rate != nil && *rate < 0 {
		return nil, validationf("hourly rate must not be negative")
	}

	clients, err := e.store.ListClients(ctx)
	if err != nil {
		return nil, storageErr("list clients", err)
	}
	found := false
	for _, c := range clients {
		if c.ID == clientID {
			found = true
			break
		}
	}
	if !found {
		return nil, notFoundf("client #%d not found", clientID)
	}

	project, err := e.store.CreateProject(ctx, &models.Project{ClientID: clientID, Name: name, HourlyRate: rate})
	if err != nil {
		return nil, storageErr("create project", err)
	}
	e.log.Info("project created",
		slog.Uint64("project_id", uint64(project.ID)),
		slog.Uint64("client_id", uint64(clientID)))
	return project, nil
}

// Projects lists projects with their clients.
func (e *Engine) Projects(ctx context.Context) ([]models.Project, error) {
	projects, err := e.store.ListProjects(ctx)
	if err != nil {
		return nil, storageErr("list projects", err)
	}
	return projects, nil
}

// SetProjectRate overrides the project's rate, or clears the override when rate is nil.
func (e *Engine) SetProjectRate(ctx context.Context, projectID uint, rate *float64) (*models.Project, error) {
	if rate != nil && *rate < 0 {
		return nil, validationf("hourly rate must not be negative")
	}
	err := e.store.SetProjectRate(ctx, projectID, rate)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFoundf("project #%d not found", projectID)
	}
	if err != nil {
		return nil, storageErr("set project rate", err)
	}
	return e.Project(ctx, projectID)
}
