package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type settings struct {
	Mode       string `validate:"omitempty,mode"`
	Difficulty string `validate:"omitempty,difficulty"`
}

func TestGameValidations(t *testing.T) {
	v := GetValidator()

	tests := []struct {
		name    string
		in      settings
		wantErr bool
	}{
		{"Empty is allowed", settings{}, false},
		{"Known values", settings{Mode: "pvc", Difficulty: "hard"}, false},
		{"Unknown mode", settings{Mode: "bot"}, true},
		{"Unknown difficulty", settings{Difficulty: "medium"}, true},
		{"Case sensitive", settings{Mode: "PvP"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
