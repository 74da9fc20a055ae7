package lca

import "github.com/sells-group/lca-cli/internal/model"

// paramIndex groups parameters by stage and name. When a stage carries the
// same name twice the first one wins.
type paramIndex map[string]map[string]model.StageParameter

func indexParameters(params []model.StageParameter) paramIndex {
	idx := make(paramIndex)
	for _, p := range params {
		byName, ok := idx[p.StageID]
		if !ok {
			byName = make(map[string]model.StageParameter)
			idx[p.StageID] = byName
		}
		if _, dup := byName[p.Name]; !dup {
			byName[p.Name] = p
		}
	}
	return idx
}

func (idx paramIndex) numeric(stageID, name string) (float64, bool) {
	p, ok := idx[stageID][name]
	if !ok {
		return 0, false
	}
	return p.Numeric()
}
