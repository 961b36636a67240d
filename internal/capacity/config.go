package capacity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dsifab/fabsched/constants"
)

// modelSchema guards department-config files against the silent-zero failures
// a bad hand-edited JSON would otherwise cause.
const modelSchema = `{
  "type": "object",
  "required": ["departments"],
  "properties": {
    "departments": {
      "type": "object",
      "minProperties": 1,
      "additionalProperties": {
        "type": "object",
        "required": ["department", "order", "pools"],
        "properties": {
          "department": {"type": "string"},
          "order": {"type": "integer", "minimum": 0},
          "is_constraint": {"type": "boolean"},
          "time_multiplier": {"type": "integer", "minimum": 0},
          "max_concurrent_big_rocks": {"type": "integer", "minimum": 0},
          "pools": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["name", "count", "output_per_day"],
              "properties": {
                "name": {"type": "string"},
                "count": {"type": "integer", "minimum": 1},
                "output_per_day": {"type": "integer", "minimum": 1},
                "max_per_project": {"type": "integer", "minimum": 0},
                "weekly_capacity": {"type": "integer", "minimum": 0},
                "product_types": {
                  "type": "array",
                  "items": {"enum": ["FAB", "DOORS", "HARMONIC"]}
                }
              }
            }
          }
        }
      }
    },
    "big_rock_threshold": {"type": "integer", "minimum": 1},
    "medium_job_threshold": {"type": "integer", "minimum": 0},
    "default_max_big_rocks": {"type": "integer", "minimum": 1},
    "big_rock_capacity_percent": {"type": "integer", "minimum": 1, "maximum": 100},
    "buffer_days": {"type": "integer", "minimum": 0},
    "same_day_department_cap": {"type": "integer", "minimum": 1},
    "max_shift_attempts": {"type": "integer", "minimum": 1}
  }
}`

// LoadModel reads a department-config JSON file, validates it against the
// embedded schema, and overlays it onto the compiled defaults. Fields the
// file omits keep their default values.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read department config: %w", err)
	}
	if err := validateModelJSON(data); err != nil {
		return nil, err
	}

	model := DefaultModel()
	if err := json.Unmarshal(data, model); err != nil {
		return nil, fmt.Errorf("parse department config: %w", err)
	}
	if err := model.Check(); err != nil {
		return nil, err
	}
	return model, nil
}

func validateModelJSON(data []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("model.json", bytes.NewReader([]byte(modelSchema))); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("model.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("parse department config: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("department config does not match schema: %w", err)
	}
	return nil
}

// Check verifies cross-field consistency the schema cannot express.
func (m *Model) Check() error {
	if len(m.Departments) == 0 {
		return fmt.Errorf("department config: no departments")
	}
	for key, dc := range m.Departments {
		if dc.Department.Index() < 0 {
			return fmt.Errorf("department config: unknown department %q", dc.Department)
		}
		if constants.Department(key) != dc.Department {
			return fmt.Errorf("department config: key %q does not match department %q", key, dc.Department)
		}
		if len(dc.Pools) == 0 {
			return fmt.Errorf("department config: %s has no worker pools", dc.Department)
		}
		for _, p := range dc.Pools {
			for _, pt := range p.ProductTypes {
				if !pt.Valid() {
					return fmt.Errorf("department config: pool %q has unknown product type %q", p.Name, pt)
				}
			}
		}
	}
	return nil
}
