package domain

// VariableInfo describes a harmonized variable and its canonical unit.
type VariableInfo struct {
	Name  string
	Units string
	Desc  string
}

// Reference variable names follow the CF standard-name conventions where one exists.
var referenceVariables = []VariableInfo{
	{Name: "air-temperature", Units: "kelvin"},
	{Name: "dewpoint-temperature", Units: "kelvin"},
	{Name: "relative-humidity", Units: "percent"},
	{Name: "specific-humidity", Units: "fraction", Desc: "Mass fraction of water in air."},
	{Name: "height_of_vegetation", Units: "meter"},
	{
		Name:  "height_of_vegetation_standard_deviation",
		Units: "meter",
		Desc:  "Uncertainty of the 'height_of_vegetation' variable.",
	},
	{Name: "altitude", Units: "meter"},
	{Name: DimLatitude, Units: "degree_north"},
	{Name: DimLongitude, Units: "degree_east"},
}

// LookupVariable returns the reference entry for name.
func LookupVariable(name string) (VariableInfo, bool) {
	for _, v := range referenceVariables {
		if v.Name == name {
			return v, true
		}
	}
	return VariableInfo{}, false
}

// FillReferenceUnits sets the units, and the description where the table has
// one, of every reference variable that does not carry them already.
func (g *Grid) FillReferenceUnits() {
	for _, v := range g.Variables {
		info, ok := LookupVariable(v.Name)
		if !ok {
			continue
		}
		if v.Attrs == nil {
			v.Attrs = make(map[string]string)
		}
		if v.Attrs["units"] == "" {
			v.Attrs["units"] = info.Units
		}
		if info.Desc != "" && v.Attrs["description"] == "" {
			v.Attrs["description"] = info.Desc
		}
	}
}
