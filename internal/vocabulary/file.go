package vocabulary

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed content/*.yml
var content embed.FS

// LoadTable reads a vocabulary table from a YAML file.
func LoadTable(path string) (Table, error) {
	return readYamlFile[Table](path)
}

// LoadPlan reads a plan from a YAML file.
func LoadPlan(path string) (Plan, error) {
	return readYamlFile[Plan](path)
}

// Default returns the embedded vocabulary table and plan.
func Default() (Table, Plan, error) {
	tableBytes, err := content.ReadFile("content/vocabulary.yml")
	if err != nil {
		return nil, nil, fmt.Errorf("read embedded vocabulary: %w", err)
	}
	var table Table
	if err := yaml.Unmarshal(tableBytes, &table); err != nil {
		return nil, nil, fmt.Errorf("decode embedded vocabulary: %w", err)
	}

	planBytes, err := content.ReadFile("content/plan.yml")
	if err != nil {
		return nil, nil, fmt.Errorf("read embedded plan: %w", err)
	}
	var plan Plan
	if err := yaml.Unmarshal(planBytes, &plan); err != nil {
		return nil, nil, fmt.Errorf("decode embedded plan: %w", err)
	}
	return table, plan, nil
}

// Load reads the table and plan from the given files, falling back to the
// embedded content for any empty path. The plan is validated against the table.
func Load(tablePath, planPath string) (Table, Plan, error) {
	table, plan, err := Default()
	if err != nil {
		return nil, nil, err
	}
	if tablePath != "" {
		if table, err = LoadTable(tablePath); err != nil {
			return nil, nil, fmt.Errorf("load vocabulary table: %w", err)
		}
	}
	if planPath != "" {
		if plan, err = LoadPlan(planPath); err != nil {
			return nil, nil, fmt.Errorf("load plan: %w", err)
		}
	}
	if err := plan.Validate(table); err != nil {
		return nil, nil, fmt.Errorf("invalid plan: %w", err)
	}
	return table, plan, nil
}

// WriteTable writes the table as YAML.
func WriteTable(path string, table Table) error {
	return writeYamlFile(path, table)
}

// WritePlan writes the plan as YAML.
func WritePlan(path string, plan Plan) error {
	return writeYamlFile(path, plan)
}

func readYamlFile[T any](path string) (T, error) {
	var result T

	file, err := os.Open(path)
	if err != nil {
		return result, fmt.Errorf("os.Open(%s) > %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	if err := yaml.NewDecoder(file).Decode(&result); err != nil {
		return result, fmt.Errorf("yaml.NewDecoder().Decode() > %w", err)
	}
	return result, nil
}

func writeYamlFile[T any](path string, data T) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("os.Create(%s) > %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	return yaml.NewEncoder(file).Encode(data)
}
