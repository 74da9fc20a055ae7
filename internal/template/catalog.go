// Package template holds the read-only stage and parameter template catalogs
// used to scaffold scenarios.
package template

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lca-cli/internal/model"
)

// Catalog is an indexed collection of stage templates (by route type) and
// parameter templates (by stage type and name).
type Catalog struct {
	stages  map[model.RouteType][]model.StageDef
	params  []model.ParamDef
	byStage map[string][]int
	byPair  map[pairKey]int
	byName  map[string]int
}

type pairKey struct {
	stageType string
	name      string
}

// NewCatalog builds a Catalog. Stage definitions are sorted by Order and must
// form a dense 0..N-1 sequence per route.
func NewCatalog(stages map[model.RouteType][]model.StageDef, params []model.ParamDef) (*Catalog, error) {
	c := &Catalog{
		stages:  make(map[model.RouteType][]model.StageDef, len(stages)),
		params:  make([]model.ParamDef, len(params)),
		byStage: make(map[string][]int),
		byPair:  make(map[pairKey]int, len(params)),
		byName:  make(map[string]int),
	}

	for route, defs := range stages {
		if len(defs) == 0 {
			return nil, eris.Errorf("template: route %q has no stages", route)
		}
		sorted := make([]model.StageDef, len(defs))
		copy(sorted, defs)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
		for i, d := range sorted {
			if d.Order != i {
				return nil, eris.Errorf("template: route %q stage orders must be dense from 0, got %d at position %d", route, d.Order, i)
			}
			if d.StageType == "" {
				return nil, eris.Errorf("template: route %q stage %d has no stage type", route, d.Order)
			}
		}
		c.stages[route] = sorted
	}

	copy(c.params, params)
	for i := range c.params {
		p := &c.params[i]
		p.Type = model.ParseParameterType(string(p.Type))
		if p.Name == "" {
			return nil, eris.Errorf("template: parameter template %d has no name", i)
		}
		if p.StageType != "" {
			c.byStage[p.StageType] = append(c.byStage[p.StageType], i)
		}
		key := pairKey{stageType: p.StageType, name: p.Name}
		if _, dup := c.byPair[key]; !dup {
			c.byPair[key] = i
		}
	}

	// Name-only tier: global entries win, otherwise the first stage-specific entry.
	for i, p := range c.params {
		if p.StageType == "" {
			if _, ok := c.byName[p.Name]; !ok {
				c.byName[p.Name] = i
			}
		}
	}
	for i, p := range c.params {
		if _, ok := c.byName[p.Name]; !ok {
			c.byName[p.Name] = i
		}
	}

	return c, nil
}

// StageTemplate returns the ordered stage definitions for route.
func (c *Catalog) StageTemplate(route model.RouteType) ([]model.StageDef, bool) {
	defs, ok := c.stages[route]
	if !ok {
		return nil, false
	}
	out := make([]model.StageDef, len(defs))
	copy(out, defs)
	return out, true
}

// ParameterTemplates returns the templates declared for stageType, in
// declaration order. Global entries are not included.
func (c *Catalog) ParameterTemplates(stageType string) []model.ParamDef {
	idx := c.byStage[stageType]
	out := make([]model.ParamDef, 0, len(idx))
	for _, i := range idx {
		out = append(out, c.params[i])
	}
	return out
}

// LookupDefault finds the template for a parameter, preferring an exact
// (stageType, name) match and falling back to a name-only match.
func (c *Catalog) LookupDefault(stageType, name string) (model.ParamDef, bool) {
	if i, ok := c.byPair[pairKey{stageType: stageType, name: name}]; ok {
		return c.params[i], true
	}
	if i, ok := c.byName[name]; ok {
		return c.params[i], true
	}
	return model.ParamDef{}, false
}

// Routes returns the route types that have a stage template, sorted.
func (c *Catalog) Routes() []model.RouteType {
	routes := make([]model.RouteType, 0, len(c.stages))
	for r := range c.stages {
		routes = append(routes, r)
	}
	sort.Slice(routes, func(i, j int) bool { return routes[i] < routes[j] })
	return routes
}

// StageTypes returns every stage type with at least one parameter template, sorted.
func (c *Catalog) StageTypes() []string {
	types := make([]string, 0, len(c.byStage))
	for st := range c.byStage {
		types = append(types, st)
	}
	sort.Strings(types)
	return types
}
