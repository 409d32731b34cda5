package treasury

import "github.com/dvloznov/treasury/internal/domain"

// Snapshot is the read-only view of the ledger a computation runs over.
// Whoever assembles it is responsible for its consistency.
type Snapshot struct {
	Movements []domain.Movement
	Accounts  []domain.Account
	Projects  []domain.Project
	Providers []domain.Provider
	Clients   []domain.Client
}

// directory resolves ids to display names and projects to clients.
type directory struct {
	projects  map[string]domain.Project
	providers map[string]string
	clients   map[string]string
}

func newDirectory(s Snapshot) directory {
	d := directory{
		projects:  make(map[string]domain.Project, len(s.Projects)),
		providers: make(map[string]string, len(s.Providers)),
		clients:   make(map[string]string, len(s.Clients)),
	}
	for _, p := range s.Projects {
		d.projects[p.ID] = p
	}
	for _, p := range s.Providers {
		d.providers[p.ID] = p.Name
	}
	for _, c := range s.Clients {
		d.clients[c.ID] = c.Name
	}
	return d
}

func (d directory) projectName(id string) string {
	if p, ok := d.projects[id]; ok && p.Name != "" {
		return p.Name
	}
	return id
}

func (d directory) providerName(id string) string {
	if name, ok := d.providers[id]; ok && name != "" {
		return name
	}
	return id
}

func (d directory) clientName(id string) string {
	if name, ok := d.clients[id]; ok && name != "" {
		return name
	}
	return id
}

// clientOf returns the client a project belongs to, or "".
func (d directory) clientOf(projectID string) string {
	if projectID == "" {
		return ""
	}
	return d.projects[projectID].ClientID
}
