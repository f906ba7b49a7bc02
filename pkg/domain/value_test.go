package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/visaguide/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_JSON(t *testing.T) {
	tests := []struct {
		name  string
		value domain.Value
		raw   string
	}{
		{"bool", domain.Bool(true), `true`},
		{"text", domain.Text("student"), `"student"`},
		{"number", domain.Number(5), `5`},
		{"none", domain.Value{}, `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.value)
			require.NoError(t, err)
			assert.JSONEq(t, tt.raw, string(data))

			var back domain.Value
			require.NoError(t, json.Unmarshal(data, &back))
			assert.True(t, tt.value.Equal(back), "round trip changed %v into %v", tt.value, back)
		})
	}
}

func TestValue_KindMismatchIsNotEqual(t *testing.T) {
	assert.False(t, domain.Text("1").Equal(domain.Number(1)))
	assert.False(t, domain.Bool(false).Equal(domain.Value{}))
}

func TestValueOf_RejectsComposite(t *testing.T) {
	_, err := domain.ValueOf([]any{1})
	assert.Error(t, err)
}

func TestParseBool(t *testing.T) {
	for _, in := range []string{"y", "YES", " true ", "1"} {
		b, ok := domain.ParseBool(in)
		assert.True(t, ok, in)
		assert.True(t, b, in)
	}
	for _, in := range []string{"n", "No", "false", "0"} {
		b, ok := domain.ParseBool(in)
		assert.True(t, ok, in)
		assert.False(t, b, in)
	}
	_, ok := domain.ParseBool("maybe")
	assert.False(t, ok)
}
