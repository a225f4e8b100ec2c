package job

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"

	"github.com/xuri/excelize/v2"
)

// 1列でも違えばジョブごと失敗させる
var importHeader = []string{
	"name_uz", "name_ru", "category", "supplier",
	"image_url", "description", "status",
}

// 行ごとの処理結果
type rowAction struct {
	RowNumber int
	Action    string // created / updated / skipped
	Message   string
	Errors    []string
}

// runImport はスプールに置かれたxlsxを読み、行単位でupsertする。
// ヘッダ不一致・I/O・DB障害は全体失敗、行単位の検証エラーはその行だけスキップ。
func (r *Runner) runImport(ctx context.Context, j model.AsyncJob) (string, error) {
	var params usecase.ImportProductsParams
	if err := json.Unmarshal([]byte(j.InputParams), &params); err != nil {
		return "", fmt.Errorf("parse input params: %w", err)
	}
	defer os.Remove(params.FilePath)

	f, err := excelize.OpenFile(params.FilePath)
	if err != nil {
		return "", fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return "", fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("workbook is empty")
	}

	if err := checkImportHeader(rows[0]); err != nil {
		return "", err
	}

	actions := make([]rowAction, 0, len(rows)-1)

	// 有効行のupsertは1トランザクション。行スキップはロールバックしない。
	err = r.tx.WithinTx(ctx, func(tr repo.TxRepos) error {
		for i, cells := range rows[1:] {
			rowNum := i + 2 // シート上の行番号
			actions = append(actions, r.importRow(ctx, tr, rowNum, cells))
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("import transaction: %w", err)
	}

	url, err := r.writeImportSummary(ctx, actions)
	if err != nil {
		return "", err
	}
	return url, nil
}

func (r *Runner) importRow(ctx context.Context, tr repo.TxRepos, rowNum int, cells []string) rowAction {
	// 短い行は空文字で埋める
	padded := make([]string, len(importHeader))
	for i := range padded {
		if i < len(cells) {
			padded[i] = strings.TrimSpace(cells[i])
		}
	}

	nameUz, nameRu := padded[0], padded[1]
	categoryName, supplierName := padded[2], padded[3]
	imageURL, description, statusCell := padded[4], padded[5], padded[6]

	var rowErrs []string
	if nameUz == "" {
		rowErrs = append(rowErrs, "name_uz is required")
	}
	if nameRu == "" {
		rowErrs = append(rowErrs, "name_ru is required")
	}
	if categoryName == "" {
		rowErrs = append(rowErrs, "category is required")
	}
	if supplierName == "" {
		rowErrs = append(rowErrs, "supplier is required")
	}

	status, err := parseBooleanCell(statusCell)
	if err != nil {
		rowErrs = append(rowErrs, err.Error())
	}

	if len(rowErrs) > 0 {
		return rowAction{RowNumber: rowNum, Action: "skipped", Message: "validation failed", Errors: rowErrs}
	}

	category, err := tr.Categories().GetOrCreateByNameUz(ctx, categoryName)
	if err != nil {
		return rowAction{RowNumber: rowNum, Action: "skipped", Message: "category lookup failed", Errors: []string{err.Error()}}
	}
	supplier, err := tr.Suppliers().GetOrCreateByName(ctx, supplierName)
	if err != nil {
		return rowAction{RowNumber: rowNum, Action: "skipped", Message: "supplier lookup failed", Errors: []string{err.Error()}}
	}

	_, created, err := tr.Products().UpsertByNameUz(ctx, model.Product{
		NameUz:      nameUz,
		NameRu:      nameRu,
		CategoryID:  category.ID,
		SupplierID:  supplier.ID,
		ImageURL:    imageURL,
		Description: description,
		Status:      status,
	})
	if err != nil {
		return rowAction{RowNumber: rowNum, Action: "skipped", Message: "product upsert failed", Errors: []string{err.Error()}}
	}

	if created {
		return rowAction{RowNumber: rowNum, Action: "created", Message: fmt.Sprintf("product %q created", nameUz)}
	}
	return rowAction{RowNumber: rowNum, Action: "updated", Message: fmt.Sprintf("product %q updated", nameUz)}
}

// 2シート（行ごとの結果 + 合計）のサマリを書いて保存する
func (r *Runner) writeImportSummary(ctx context.Context, actions []rowAction) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	const totalsSheet = "Totals"

	f.SetSheetName(f.GetSheetName(0), summarySheet)

	summaryHeader := []interface{}{"row_number", "action", "message", "errors"}
	if err := setRow(f, summarySheet, 1, summaryHeader); err != nil {
		return "", err
	}

	var created, updated, skipped int
	for i, a := range actions {
		switch a.Action {
		case "created":
			created++
		case "updated":
			updated++
		default:
			skipped++
		}
		values := []interface{}{a.RowNumber, a.Action, a.Message, strings.Join(a.Errors, "; ")}
		if err := setRow(f, summarySheet, i+2, values); err != nil {
			return "", err
		}
	}

	if _, err := f.NewSheet(totalsSheet); err != nil {
		return "", err
	}
	if err := setRow(f, totalsSheet, 1, []interface{}{"created", "updated", "skipped"}); err != nil {
		return "", err
	}
	if err := setRow(f, totalsSheet, 2, []interface{}{created, updated, skipped}); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return "", fmt.Errorf("write summary workbook: %w", err)
	}

	url, err := r.store.SaveBytes(ctx, buf.Bytes(), "import_products_summary.xlsx", xlsxContentType)
	if err != nil {
		return "", fmt.Errorf("save summary file: %w", err)
	}
	return url, nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func checkImportHeader(got []string) error {
	if len(got) != len(importHeader) {
		return fmt.Errorf("invalid header: expected %d columns, got %d", len(importHeader), len(got))
	}
	for i, want := range importHeader {
		if strings.TrimSpace(got[i]) != want {
			return fmt.Errorf("invalid header: column %d must be %q, got %q", i+1, want, strings.TrimSpace(got[i]))
		}
	}
	return nil
}

// セル値の真偽値解釈。
// true/false（大文字小文字無視）と1/0だけを受け、それ以外は行エラー。
func parseBooleanCell(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid status value: %q", s)
	}
}
