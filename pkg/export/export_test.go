package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRendersRowsInHeaderOrder(t *testing.T) {
	data := Dataset{
		Headers: []string{"ID", "Patient"},
		Rows: []map[string]string{
			{"Patient": "Jane Doe", "ID": "rx-1"},
			{"ID": "rx-2"},
		},
	}

	payload, err := NewCSVExporter().Render(data)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID,Patient", lines[0])
	assert.Equal(t, "rx-1,Jane Doe", lines[1])
	// Missing cells render as empty fields, not dropped columns.
	assert.Equal(t, "rx-2,", lines[2])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterProducesDocument(t *testing.T) {
	data := Dataset{
		Headers: []string{"ID", "Status"},
		Rows:    []map[string]string{{"ID": "rx-1", "Status": "draft"}},
	}

	payload, err := NewPDFExporter().Render(data, "Prescription Register")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

func TestPDFExporterRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Dataset{}, "")
	assert.Error(t, err)
}
