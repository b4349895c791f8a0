package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Title: "Schedule backup",
		Columns: []Column{
			{Key: "batch_id", Title: "Batch"},
			{Key: "date", Title: "Date", Width: 2},
			{Key: "reg_no"},
		},
		Rows: []map[string]string{
			{"batch_id": "1", "date": "01.03.2025", "reg_no": "S1"},
			{"batch_id": "2", "date": "02.03.2025"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Batch,Date,reg_no\n1,01.03.2025,S1\n2,02.03.2025,\n", string(out))

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestColumnWidthsAreProportional(t *testing.T) {
	widths := columnWidths(sampleDataset().Columns)
	assert.InDelta(t, pageWidth/4, widths[0], 0.001)
	assert.InDelta(t, pageWidth/2, widths[1], 0.001)
}
