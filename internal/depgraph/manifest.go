package depgraph

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Manifest records the dependency names declared in the workspace's
// Cargo.toml/pyproject.toml, so KnownExternal can check an import's root
// name against them. Versions are not recorded.
type Manifest struct {
	rustDeps   map[string]bool
	pythonDeps map[string]bool
}

// LoadManifest reads whichever manifests are present at root; a missing
// manifest is not an error, it just means that ecosystem's dependencies
// are reported unresolved.
func LoadManifest(root string) *Manifest {
	m := &Manifest{rustDeps: map[string]bool{}, pythonDeps: map[string]bool{}}
	m.loadCargo(filepath.Join(root, "Cargo.toml"))
	m.loadPyproject(filepath.Join(root, "pyproject.toml"))
	return m
}

func (m *Manifest) loadCargo(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var cargo struct {
		Dependencies    map[string]any `toml:"dependencies"`
		DevDependencies map[string]any `toml:"dev-dependencies"`
	}
	if toml.Unmarshal(data, &cargo) != nil {
		return
	}
	for name := range cargo.Dependencies {
		m.rustDeps[name] = true
	}
	for name := range cargo.DevDependencies {
		m.rustDeps[name] = true
	}
}

func (m *Manifest) loadPyproject(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var doc map[string]any
	if toml.Unmarshal(data, &doc) != nil {
		return
	}
	// PEP 621 project.dependencies is a list of "name>=1.0"-style strings.
	if project, ok := doc["project"].(map[string]any); ok {
		if deps, ok := project["dependencies"].([]any); ok {
			for _, d := range deps {
				if s, ok := d.(string); ok {
					m.pythonDeps[packageNameFromRequirement(s)] = true
				}
			}
		}
	}
	// Poetry declares dependencies under [tool.poetry.dependencies].
	if tool, ok := doc["tool"].(map[string]any); ok {
		if poetry, ok := tool["poetry"].(map[string]any); ok {
			if deps, ok := poetry["dependencies"].(map[string]any); ok {
				for name := range deps {
					m.pythonDeps[name] = true
				}
			}
		}
	}
}

func packageNameFromRequirement(s string) string {
	for _, sep := range []string{">=", "<=", "==", "!=", "~=", ">", "<", "["} {
		if i := strings.Index(s, sep); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

// KnownExternal reports whether path names a dependency declared in the
// workspace's manifest (e.g. the crate root of a `use` path, or the
// top-level package of a Python import).
func (m *Manifest) KnownExternal(path string) bool {
	root := path
	if i := strings.IndexAny(path, "::."); i >= 0 {
		root = path[:i]
	}
	return m.rustDeps[root] || m.pythonDeps[root]
}
