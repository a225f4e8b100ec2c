package handler

import (
	"bytes"
	"io"
	"net/http"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// エクスポート/インポートのジョブ受付と状況取得
type AdminJobHandler struct {
	uc *usecase.JobUsecase
}

func NewAdminJobHandler(uc *usecase.JobUsecase) *AdminJobHandler {
	return &AdminJobHandler{uc: uc}
}

type ExportOrdersRequest struct {
	Status string `json:"status"`
	UserID *int64 `json:"user_id"`
	From   string `json:"from"`
	To     string `json:"to"`
}

func (h *AdminJobHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/admin")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))
	g.Use(middleware.AdminRoleGuard())

	g.POST("/export/orders", h.exportOrders)
	g.POST("/import/products", h.importProducts)
	g.GET("/import/products/template", h.importTemplate)
	g.GET("/jobs/:id", h.jobStatus)
}

// 受け付けてトークンを返すだけ。生成はワーカー側。
func (h *AdminJobHandler) exportOrders(c echo.Context) error {
	var req ExportOrdersRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.EnqueueExport(c.Request().Context(), usecase.ExportOrdersParams{
		Status: req.Status,
		UserID: req.UserID,
		From:   req.From,
		To:     req.To,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusAccepted, out)
}

func (h *AdminJobHandler) importProducts(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file is required"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot read file"})
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot read file"})
	}

	out, err := h.uc.EnqueueImport(c.Request().Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		data,
	)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusAccepted, out)
}

// 取り込みフォーマットの雛形をその場で生成して返す
func (h *AdminJobHandler) importTemplate(c echo.Context) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := []string{"name_uz", "name_ru", "category", "supplier", "image_url", "description", "status"}
	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="import_products_template.xlsx"`)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *AdminJobHandler) jobStatus(c echo.Context) error {
	out, err := h.uc.GetStatus(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
