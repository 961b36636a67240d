package constants

import "strings"

// Department is a stage in the fabrication pipeline.
type Department string

// Stable values (store these exact strings in DB and exports).
const (
	DeptEngineering Department = "ENGINEERING"
	DeptLaser       Department = "LASER"
	DeptPressBrake  Department = "PRESS_BRAKE"
	DeptWelding     Department = "WELDING"
	DeptPolishing   Department = "POLISHING"
	DeptAssembly    Department = "ASSEMBLY"
)

// PipelineOrder is the production sequence every job flows through.
var PipelineOrder = []Department{
	DeptEngineering,
	DeptLaser,
	DeptPressBrake,
	DeptWelding,
	DeptPolishing,
	DeptAssembly,
}

// Index returns the pipeline position of d, or -1 if d is not a known department.
func (d Department) Index() int {
	for i, dept := range PipelineOrder {
		if dept == d {
			return i
		}
	}
	return -1
}

func (d Department) String() string {
	return string(d)
}

// DisplayName returns a human-readable name for reports.
func (d Department) DisplayName() string {
	switch d {
	case DeptPressBrake:
		return "Press Brake"
	default:
		s := strings.ToLower(string(d))
		if s == "" {
			return ""
		}
		return strings.ToUpper(s[:1]) + s[1:]
	}
}

var departmentAliases = map[string]Department{
	"engineering": DeptEngineering,
	"eng":         DeptEngineering,
	"laser":       DeptLaser,
	"laser cut":   DeptLaser,
	"press brake": DeptPressBrake,
	"press_brake": DeptPressBrake,
	"brake":       DeptPressBrake,
	"welding":     DeptWelding,
	"weld":        DeptWelding,
	"polishing":   DeptPolishing,
	"polish":      DeptPolishing,
	"assembly":    DeptAssembly,
	"assy":        DeptAssembly,
}

// CanonicalDepartment maps free-text department names (imports, API input)
// onto a pipeline department.
func CanonicalDepartment(input string) (Department, bool) {
	key := strings.ToLower(strings.TrimSpace(input))
	if d, ok := departmentAliases[key]; ok {
		return d, true
	}
	if d := Department(strings.ToUpper(strings.ReplaceAll(key, " ", "_"))); d.Index() >= 0 {
		return d, true
	}
	return "", false
}
