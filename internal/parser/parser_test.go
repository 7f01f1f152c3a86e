package parser

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethria/headlamp/pkg/core"
)

func newTestParser() *Parser {
	return NewParser(slog.Default())
}

func TestNewParser(t *testing.T) {
	require.NotNil(t, newTestParser())
	require.NotNil(t, NewParser(nil).logger)
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"alex", "alex"},
		{`"alex"`, "alex"},
		{`  "alex" `, "alex"},
		{"'alex'", "'alex'"},
		{`""`, ""},
		{`"say ""hi"""`, `say "hi`},
		{`a""""b`, `a""b`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, unquote(tt.input))
		})
	}
}

func TestClean_DoesNotAlias(t *testing.T) {
	in := []string{`"alex"`, "39"}
	out := clean(in)

	assert.Equal(t, []string{"alex", "39"}, out)
	assert.Equal(t, `"alex"`, in[0])
}

func TestParseIntFromFloat(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"39", 39, false},
		{"39.00", 39, false},
		{"-1", -1, false},
		{"1e2", 100, false},
		{"39.5", 0, true},
		{"abc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseIntFromFloat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseModel(t *testing.T) {
	tests := []struct {
		input   string
		want    core.ModelID
		wantErr bool
	}{
		{"", core.NoModel, false},
		{"nil", core.NoModel, false},
		{"-1", core.NoModel, false},
		{"91", 91, false},
		{"91.00", 91, false},
		{"helmet", core.NoModel, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseModel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIntList(t *testing.T) {
	tests := []struct {
		input   string
		want    []int
		wantErr bool
	}{
		{"[38,39]", []int{38, 39}, false},
		{"38, 39.00", []int{38, 39}, false},
		{"[]", nil, false},
		{"", nil, false},
		{"[38,x]", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseIntList(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
