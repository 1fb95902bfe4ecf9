package catalog

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"

	"archivist/internal/domain/models/docsystem"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry holds the folder icon set and the reserved system folders
type Registry struct {
	icons         map[string]struct{}
	iconOrder     []string
	systemFolders []SystemFolder
	mu            sync.RWMutex
}

// NewRegistry creates a registry from the embedded YAML catalog
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/folders.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read folder catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a registry from raw YAML
func Parse(data []byte) (*Registry, error) {
	var cat folderCatalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to unmarshal folder catalog: %w", err)
	}

	r := &Registry{
		icons:         make(map[string]struct{}, len(cat.Icons)+1),
		systemFolders: cat.SystemFolders,
	}
	for _, icon := range append([]string{docsystem.DefaultFolderIcon}, cat.Icons...) {
		if _, dup := r.icons[icon]; dup {
			continue
		}
		r.icons[icon] = struct{}{}
		r.iconOrder = append(r.iconOrder, icon)
	}

	for _, sf := range cat.SystemFolders {
		if sf.Code == "" || sf.Name == "" {
			return nil, fmt.Errorf("system folder entry missing code or name: %+v", sf)
		}
	}

	return r, nil
}

// ResolveIcon returns icon when it is in the catalog, otherwise the default icon
func (r *Registry) ResolveIcon(icon string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.icons[icon]; ok {
		return icon
	}
	return docsystem.DefaultFolderIcon
}

// Icons returns the selectable icons in catalog order
func (r *Registry) Icons() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.iconOrder))
	copy(out, r.iconOrder)
	return out
}

// SystemFolders returns the reserved folders, parents first
func (r *Registry) SystemFolders() []SystemFolder {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]SystemFolder, len(r.systemFolders))
	copy(out, r.systemFolders)
	return out
}
