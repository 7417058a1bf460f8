package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"roll_number", "reason"},
		Rows: []map[string]string{
			{"roll_number": "B0010012", "reason": "student not found"},
			{"roll_number": "B0010013"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "roll_number,reason\nB0010012,student not found\nB0010013,\n", string(out))

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(Document{
		Title:  "Semester 3 marksheet",
		Header: []Field{{Label: "Roll No", Value: "242101-0012"}},
		Table: Dataset{
			Headers: []string{"Paper", "Total", "Grade"},
			Rows:    []map[string]string{{"Paper": "PHY101", "Total": "93", "Grade": "A+"}},
		},
		Summary: []Field{{Label: "SGPA", Value: "8.455"}},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
