package template

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lca-cli/internal/model"
)

type catalogFile struct {
	StageTemplates     map[string][]model.StageDef `yaml:"stage_templates"`
	ParameterTemplates []model.ParamDef            `yaml:"parameter_templates"`
}

// LoadFile reads a YAML template catalog from path.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "template: read catalog file")
	}
	return Parse(data)
}

// Parse decodes a YAML template catalog. Unknown route types are rejected
// because a scenario could never select them.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "template: unmarshal catalog")
	}
	if len(f.StageTemplates) == 0 {
		return nil, eris.New("template: catalog has no stage templates")
	}

	stages := make(map[model.RouteType][]model.StageDef, len(f.StageTemplates))
	for name, defs := range f.StageTemplates {
		route := model.RouteType(name)
		if !route.IsValid() {
			return nil, eris.Errorf("template: unknown route type %q", name)
		}
		stages[route] = defs
	}
	return NewCatalog(stages, f.ParameterTemplates)
}

// Load returns the catalog at path, or the built-in catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}
