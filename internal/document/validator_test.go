package document

import (
	"encoding/json"
	"testing"

	"github.com/KevinKickass/ScriptSynth/internal/types"
)

func TestValidatorAcceptsProjection(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Validate(Project(sampleConfig(t))); err != nil {
		t.Errorf("projected document rejected: %v", err)
	}
	if err := v.Validate(Project(types.RunConfiguration{})); err != nil {
		t.Errorf("empty document rejected: %v", err)
	}
}

func TestValidatorRejectsStructuralErrors(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatal(err)
	}

	valid, err := json.Marshal(Project(types.RunConfiguration{}))
	if err != nil {
		t.Fatal(err)
	}
	if err := v.ValidateJSON(valid); err != nil {
		t.Fatalf("baseline rejected: %v", err)
	}

	tests := map[string]string{
		"not json":         `{`,
		"missing commands": `{"test_name":"","sampling_frequency":"","metadata":"","output":{},"hardware":[]}`,
		"false sink":       `{"test_name":"","sampling_frequency":"","metadata":"","output":{"CSV":false},"hardware":[],"commands":[]}`,
		"unknown kind":     `{"test_name":"","sampling_frequency":"","metadata":"","output":{},"hardware":[{"name":"LABJACK","channels":{}}],"commands":[]}`,
		"residual type":    `{"test_name":"","sampling_frequency":"","metadata":"","output":{},"hardware":[{"name":"ADAM","type":"ADAM","channels":{},"hw_type":"","host":"","input_type":""}],"commands":[]}`,
		"numeric field":    `{"test_name":"","sampling_frequency":5000,"metadata":"","output":{},"hardware":[],"commands":[]}`,
		"short command":    `{"test_name":"","sampling_frequency":"","metadata":"","output":{},"hardware":[],"commands":[{"time":"1"}]}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if err := v.ValidateJSON([]byte(body)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
