// Package scenario loads a task universe, a set of workers and an assignment
// of tasks to workers from YAML, checks that the assignment can run to
// completion, and builds the workload objects the engine consumes.
package scenario

import (
	"bytes"
	"errors"
	"io"
	"os"

	goerrors "github.com/TudorHulban/go-errors"
	"gopkg.in/yaml.v3"
)

const serviceName = "scenario"

// TaskSpec describes one task of the universe.
type TaskSpec struct {
	Name      string   `yaml:"name" valid:"required"`
	Kind      string   `yaml:"kind" valid:"required"`
	Duration  float64  `yaml:"duration"`
	DependsOn []string `yaml:"depends_on,omitempty"`
}

// WorkerSpec describes one worker and the ordered queue assigned to it.
type WorkerSpec struct {
	Name    string             `yaml:"name" valid:"required"`
	Skills  map[string]float64 `yaml:"skills,omitempty"`
	History bool               `yaml:"history,omitempty"`
	Queue   []string           `yaml:"queue,omitempty"`
}

// Scenario is a complete simulation input.
type Scenario struct {
	// SkillBase is the base of the skill curve of every worker. Zero means the
	// default of 2.
	SkillBase float64 `yaml:"skill_base,omitempty"`

	Tasks   []TaskSpec   `yaml:"tasks" valid:"required"`
	Workers []WorkerSpec `yaml:"workers" valid:"required"`
}

// Load reads a scenario from a YAML file.
func Load(path string) (*Scenario, error) {
	data, errRead := os.ReadFile(path)
	if errRead != nil {
		return nil,
			goerrors.ErrServiceValidation{
				ServiceName: serviceName,
				Caller:      "Load",
				Issue:       errRead,
			}
	}

	return Parse(data)
}

// Parse decodes a scenario from YAML. Unknown fields are rejected.
func Parse(data []byte) (*Scenario, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var s Scenario
	if errDecode := decoder.Decode(&s); errDecode != nil {
		if errors.Is(errDecode, io.EOF) {
			errDecode = errors.New("empty document")
		}

		return nil,
			goerrors.ErrServiceValidation{
				ServiceName: serviceName,
				Caller:      "Parse",
				Issue:       errDecode,
			}
	}

	return &s, nil
}

// Marshal encodes the scenario as YAML.
func (s *Scenario) Marshal() ([]byte, error) {
	var buf bytes.Buffer

	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if errEncode := encoder.Encode(s); errEncode != nil {
		return nil, errEncode
	}

	if errClose := encoder.Close(); errClose != nil {
		return nil, errClose
	}

	return buf.Bytes(), nil
}
