package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequestDefaults(t *testing.T) {
	req, err := NewRequest(Request{Query: "SELECT 1"})
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, req.Timeout)
	assert.Equal(t, 1000, req.MaxRows)
	assert.Equal(t, FormatJSON, req.OutputFormat)
}

func TestNewRequestRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		in   Request
	}{
		{name: "empty query", in: Request{Query: "   "}},
		{name: "negative timeout", in: Request{Query: "SELECT 1", Timeout: -time.Second}},
		{name: "negative max rows", in: Request{Query: "SELECT 1", MaxRows: -1}},
		{name: "bad format", in: Request{Query: "SELECT 1", OutputFormat: "xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRequest(tt.in)
			assert.Error(t, err)
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatJSON},
		{in: "json", want: FormatJSON},
		{in: "CSV", want: FormatCSV},
		{in: " markdown ", want: FormatMarkdown},
		{in: "table", want: FormatTable},
		{in: "xml", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseEngine(t *testing.T) {
	got, err := ParseEngine("POSTGRES")
	require.NoError(t, err)
	assert.Equal(t, EnginePostgres, got)

	_, err = ParseEngine("oracle")
	assert.Error(t, err)
}
