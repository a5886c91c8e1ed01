package ingestion

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ordersense/internal/domain"
)

func TestExportXLSXRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "objednavky.csv", "orders_cz", strings.NewReader(czechCSV))
	require.NoError(t, err)

	blob, err := svc.ExportXLSX(ctx, "orders_cz")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(blob))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	rows, err := f.GetRows("Data")
	require.NoError(t, err)
	require.Len(t, rows, 4) // header + 3 data rows

	header := rows[0]
	assert.Equal(t, "code", header[0])
	assert.Contains(t, header, "total_price")
	assert.NotContains(t, header, "raw_data")
	assert.NotContains(t, header, "source")

	codeIdx, priceIdx := -1, -1
	for i, h := range header {
		switch h {
		case "code":
			codeIdx = i
		case "total_price":
			priceIdx = i
		}
	}
	assert.Equal(t, "OBJ-1", rows[1][codeIdx])
	assert.Equal(t, "1250,50", rows[1][priceIdx])
	assert.Equal(t, "OBJ-2", rows[3][codeIdx])
}

func TestExportXLSXEmptySource(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ExportXLSX(context.Background(), "orders_cz")
	var nerr *domain.NotFoundError
	assert.ErrorAs(t, err, &nerr)
}

func TestExportXLSXUnknownSource(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.ExportXLSX(context.Background(), "mystery")
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}
