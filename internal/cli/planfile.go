package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/planreport/internal/plan"
)

// planFile is the on-disk form of a plan. Files are YAML unless the
// extension is .json.
type planFile struct {
	Name        string    `json:"name" yaml:"name"`
	ClientName  string    `json:"client_name" yaml:"clientName"`
	CompanyName string    `json:"company_name" yaml:"companyName"`
	Data        plan.Data `json:"plan_data" yaml:"planData"`
}

func loadPlanFile(path string) (plan.Plan, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return plan.Plan{}, fmt.Errorf("read plan: %w", err)
	}
	var f planFile
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(raw, &f)
	} else {
		err = yaml.Unmarshal(raw, &f)
	}
	if err != nil {
		return plan.Plan{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := plan.Validate(f.Data); err != nil {
		return plan.Plan{}, err
	}
	p := plan.Plan{
		Name:        f.Name,
		ClientName:  f.ClientName,
		CompanyName: f.CompanyName,
		Data:        plan.Compute(f.Data),
	}
	if p.ClientName == "" {
		p.ClientName = p.Data.Client.Name
	}
	return p, nil
}

// overrides applies the --client, --name and --company flags.
type overrides struct {
	client  string
	name    string
	company string
}

func (o overrides) apply(p *plan.Plan) {
	if o.client != "" {
		p.ClientName = o.client
	}
	if o.name != "" {
		p.Name = o.name
	}
	if o.company != "" {
		p.CompanyName = o.company
	}
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
