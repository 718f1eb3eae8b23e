package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

type person struct{ name string }

func (p person) Name() string { return p.name }

func TestFirstTruthy(t *testing.T) {
	when := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	empty := ""

	tests := []struct {
		name       string
		candidates []any
		want       string
		ok         bool
	}{
		{"zero is valid", []any{0, "fallback"}, "0", true},
		{"false is valid", []any{nil, false}, "false", true},
		{"empty strings skipped", []any{"", "   ", "Jane"}, "Jane", true},
		{"strings trimmed", []any{"  Jane Doe  "}, "Jane Doe", true},
		{"nil pointer skipped", []any{(*string)(nil), &empty, "x"}, "x", true},
		{"float", []any{0.015}, "0.015", true},
		{"int64", []any{int64(42)}, "42", true},
		{"time", []any{when}, "2024-03-01T09:30:00Z", true},
		{"named object", []any{map[string]any{"name": "Ana"}}, "Ana", true},
		{"object without name skipped", []any{map[string]any{"id": 1}, "next"}, "next", true},
		{"Named", []any{person{""}, person{"Bo"}}, "Bo", true},
		{"unsupported skipped", []any{[]string{"a"}, struct{}{}}, "", false},
		{"json number", []any{gjson.Parse(`0`)}, "0", true},
		{"json object name", []any{gjson.Parse(`{"name":" Li "}`)}, "Li", true},
		{"json array skipped", []any{gjson.Parse(`["a"]`), gjson.Parse(`null`)}, "", false},
		{"nothing", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FirstTruthy(tt.candidates...)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstTruthyOr(t *testing.T) {
	assert.Equal(t, "fallback", FirstTruthyOr("fallback", "", nil))
	assert.Equal(t, "0", FirstTruthyOr("fallback", 0))
}
