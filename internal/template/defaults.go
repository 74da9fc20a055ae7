package template

import "github.com/sells-group/lca-cli/internal/model"

// Default returns the built-in catalog covering the primary, secondary, and
// hybrid routes. Energy figures are per tonne of metal in kWh.
func Default() *Catalog {
	c, err := NewCatalog(defaultStages(), defaultParams())
	if err != nil {
		// The built-in tables are static; failing here is a programming error.
		panic(err)
	}
	return c
}

func stage(order int, stageType, name string) model.StageDef {
	return model.StageDef{Order: order, StageType: stageType, Name: name}
}

func defaultStages() map[model.RouteType][]model.StageDef {
	return map[model.RouteType][]model.StageDef{
		model.RouteTypePrimary: {
			stage(0, model.StageOreExtraction, "Ore extraction"),
			stage(1, model.StageBeneficiation, "Beneficiation"),
			stage(2, model.StageSmelting, "Smelting"),
			stage(3, model.StageRefining, "Refining"),
			stage(4, model.StageCasting, "Casting"),
			stage(5, model.StageFabrication, "Fabrication"),
			stage(6, model.StageUse, "Use phase"),
			stage(7, model.StageEndOfLife, "End of life"),
		},
		model.RouteTypeSecondary: {
			stage(0, model.StageScrapCollection, "Scrap collection"),
			stage(1, model.StageScrapSorting, "Scrap sorting"),
			stage(2, model.StageRemelting, "Remelting"),
			stage(3, model.StageRefining, "Refining"),
			stage(4, model.StageCasting, "Casting"),
			stage(5, model.StageFabrication, "Fabrication"),
			stage(6, model.StageUse, "Use phase"),
			stage(7, model.StageEndOfLife, "End of life"),
		},
		model.RouteTypeHybrid: {
			stage(0, model.StageOreExtraction, "Ore extraction"),
			stage(1, model.StageSmelting, "Smelting"),
			stage(2, model.StageScrapSorting, "Scrap sorting"),
			stage(3, model.StageRemelting, "Remelting"),
			stage(4, model.StageRefining, "Refining"),
			stage(5, model.StageCasting, "Casting"),
			stage(6, model.StageFabrication, "Fabrication"),
			stage(7, model.StageUse, "Use phase"),
			stage(8, model.StageEndOfLife, "End of life"),
		},
	}
}

func num(stageType, name, unit string, def float64) model.ParamDef {
	return model.ParamDef{
		StageType:    stageType,
		Name:         name,
		Type:         model.ParameterTypeNumeric,
		Unit:         unit,
		DefaultValue: model.Float(def),
	}
}

// processParams returns the energy, emission factor, yield, and scrap
// templates shared by every transforming stage.
func processParams(stageType string, energy, factor, yield, scrap float64) []model.ParamDef {
	return []model.ParamDef{
		num(stageType, model.ParamEnergyConsumption, "kWh/t", energy),
		num(stageType, model.ParamEmissionFactor, "kg CO2e/kWh", factor),
		num(stageType, model.ParamMaterialYield, "%", yield),
		num(stageType, model.ParamScrapRate, "%", scrap),
	}
}

func defaultParams() []model.ParamDef {
	var params []model.ParamDef
	params = append(params, processParams(model.StageOreExtraction, 350, 0.75, 97, 1)...)
	params = append(params, processParams(model.StageBeneficiation, 420, 0.6, 92, 3)...)
	params = append(params, processParams(model.StageSmelting, 14500, 0.55, 96, 2)...)
	params = append(params, processParams(model.StageRefining, 900, 0.5, 98, 1.5)...)
	params = append(params, processParams(model.StageCasting, 380, 0.45, 95, 4)...)
	params = append(params, processParams(model.StageFabrication, 650, 0.45, 88, 8)...)
	params = append(params, processParams(model.StageScrapCollection, 60, 0.7, 99, 0.5)...)
	params = append(params, processParams(model.StageScrapSorting, 45, 0.5, 95, 2)...)
	params = append(params, processParams(model.StageRemelting, 750, 0.45, 94, 3)...)

	params = append(params,
		num(model.StageScrapSorting, model.ParamRecycledContent, "%", 60),
		num(model.StageRemelting, model.ParamRecycledContent, "%", 75),
		model.ParamDef{
			StageType:    model.StageUse,
			Name:         "service_life",
			Type:         model.ParameterTypeNumeric,
			Unit:         "years",
			DefaultValue: model.Float(30),
		},
		model.ParamDef{
			StageType: model.StageUse,
			Name:      "application",
			Type:      model.ParameterTypeChoice,
		},
		num(model.StageEndOfLife, model.ParamRecyclingRate, "%", 70),
		num(model.StageEndOfLife, model.ParamScrapRate, "%", 5),
		model.ParamDef{
			StageType:    model.StageEndOfLife,
			Name:         "collection_quality",
			Type:         model.ParameterTypeScore,
			DefaultValue: model.Float(3),
		},

		// Global fallbacks.
		num("", model.ParamEmissionFactor, "kg CO2e/kWh", 0.5),
		num("", model.ParamScrapRate, "%", 0),
		num("", model.ParamMaterialYield, "%", 100),
	)
	return params
}
