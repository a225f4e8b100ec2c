package job

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/xuri/excelize/v2"
)

const exportSheetName = "Orders"

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var exportHeader = []string{
	"order_number", "status", "created_at", "user_id",
	"username", "product_id", "product_name", "quantity",
}

// runExport は絞り込んだ注文を(注文,明細)の平坦な行に落としてxlsxを作る。
// 失敗はそのままerrorで返し、Runner側でFAILEDになる。
func (r *Runner) runExport(ctx context.Context, j model.AsyncJob) (string, error) {
	var params usecase.ExportOrdersParams
	if err := json.Unmarshal([]byte(j.InputParams), &params); err != nil {
		return "", fmt.Errorf("parse input params: %w", err)
	}

	filter, err := exportFilter(params, r.loc)
	if err != nil {
		return "", err
	}

	rows, err := r.orderRepo.ListExportRows(ctx, filter)
	if err != nil {
		return "", fmt.Errorf("query orders: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), exportSheetName)

	for col, name := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return "", err
		}
		if err := f.SetCellValue(exportSheetName, cell, name); err != nil {
			return "", err
		}
	}

	for i, row := range rows {
		values := []interface{}{
			row.OrderNumber,
			row.Status,
			row.CreatedAt.In(r.loc).Format(time.RFC3339),
			row.UserID,
			row.Username,
			row.ProductID,
			row.ProductName,
			row.Quantity.String(),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return "", err
			}
			if err := f.SetCellValue(exportSheetName, cell, v); err != nil {
				return "", err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return "", fmt.Errorf("write workbook: %w", err)
	}

	filename := fmt.Sprintf("orders_%s.xlsx", r.now().In(r.loc).Format("20060102_150405"))
	url, err := r.store.SaveBytes(ctx, buf.Bytes(), filename, xlsxContentType)
	if err != nil {
		return "", fmt.Errorf("save export file: %w", err)
	}
	return url, nil
}

// フィルタのJSON表現をrepo向けに変換。日付は設定タイムゾーンで解釈する。
func exportFilter(p usecase.ExportOrdersParams, loc *time.Location) (repo.AdminOrderListFilter, error) {
	f := repo.AdminOrderListFilter{
		Status: p.Status,
		UserID: p.UserID,
	}

	if p.From != "" {
		t, err := time.ParseInLocation("2006-01-02", p.From, loc)
		if err != nil {
			return f, fmt.Errorf("invalid from date: %w", err)
		}
		f.From = &t
	}
	if p.To != "" {
		t, err := time.ParseInLocation("2006-01-02", p.To, loc)
		if err != nil {
			return f, fmt.Errorf("invalid to date: %w", err)
		}
		// toは当日いっぱいまで
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.To = &end
	}
	return f, nil
}
