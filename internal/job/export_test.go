package job

import (
	"bytes"
	"context"
	"testing"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportFilter_DateRange(t *testing.T) {
	loc := time.UTC

	f, err := exportFilter(usecase.ExportOrdersParams{From: "2025-01-01", To: "2025-01-31"}, loc)
	require.NoError(t, err)
	require.NotNil(t, f.From)
	require.NotNil(t, f.To)

	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, loc), *f.From)
	// toは当日いっぱいまで含む
	assert.Equal(t, time.Date(2025, 1, 31, 23, 59, 59, 999999999, loc), *f.To)

	_, err = exportFilter(usecase.ExportOrdersParams{From: "01.01.2025"}, loc)
	assert.Error(t, err)
}

func TestRunner_Run_ExportWritesWorkbook(t *testing.T) {
	env := newRunnerTestEnv()
	env.runner.now = func() time.Time {
		return time.Date(2025, 1, 15, 10, 30, 45, 0, time.UTC)
	}

	created := time.Date(2025, 1, 14, 9, 0, 0, 0, time.UTC)
	env.orders.rows = []repo.OrderExportRow{
		{
			OrderNumber: "#20250114-001",
			Status:      "Received",
			CreatedAt:   created,
			UserID:      7,
			Username:    "ivan",
			ProductID:   10,
			ProductName: "Tovuq filesi",
			Quantity:    decimal.RequireFromString("2.5"),
		},
	}
	env.addJob(t, "job-1", model.JobTypeExportOrders, `{"status":"Received"}`)

	env.runner.Run(context.Background(), "job-1")

	j := env.jobs.get("job-1")
	require.Equal(t, model.JobStatusSuccess, j.Status, "error: %s", j.Error)
	assert.Equal(t, "/media/orders_20250115_103045.xlsx", j.ResultURL)
	assert.Equal(t, "orders_20250115_103045.xlsx", env.store.filename)

	// 保存されたワークブックを読み戻して中身を確認
	f, err := excelize.OpenReader(bytes.NewReader(env.store.data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, exportHeader, rows[0])
	assert.Equal(t, []string{
		"#20250114-001", "Received", "2025-01-14T09:00:00Z", "7",
		"ivan", "10", "Tovuq filesi", "2.5",
	}, rows[1])
}

func TestRunner_Run_ExportEmptyResult(t *testing.T) {
	env := newRunnerTestEnv()
	env.addJob(t, "job-1", model.JobTypeExportOrders, "{}")

	env.runner.Run(context.Background(), "job-1")

	j := env.jobs.get("job-1")
	require.Equal(t, model.JobStatusSuccess, j.Status, "error: %s", j.Error)

	// ヘッダ行だけのワークブックになる
	f, err := excelize.OpenReader(bytes.NewReader(env.store.data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, exportHeader, rows[0])
}
