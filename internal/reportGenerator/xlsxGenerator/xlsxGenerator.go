package xlsxGenerator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/propshare/checkout/internal/model"
	"github.com/propshare/checkout/utils"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Statement"

type XLSXGenerator struct{}

func New() *XLSXGenerator {
	return &XLSXGenerator{}
}

func (g *XLSXGenerator) Generate(ctx context.Context, portfolio model.Portfolio, operations []model.PaymentOperation) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XLSXGenerator.Generate"

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	if _, err := f.NewSheet(sheetName); err != nil {
		slog.Error("got error while creating NewSheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"#cfe2f3"},
		},
	})
	if err != nil {
		return nil, "", err
	}

	// holdings
	if err := f.MergeCell(sheetName, "A1", "E1"); err != nil {
		return nil, "", err
	}
	f.SetCellValue(sheetName, "A1", "Holdings")
	if err := f.SetCellStyle(sheetName, "A1", "A1", headerStyle); err != nil {
		return nil, "", fmt.Errorf("apply style: %w", err)
	}

	_ = f.SetCellStr(sheetName, "A2", "property")
	_ = f.SetCellStr(sheetName, "B2", "shares")
	_ = f.SetCellStr(sheetName, "C2", "price per share")
	_ = f.SetCellStr(sheetName, "D2", "amount")
	_ = f.SetCellStr(sheetName, "E2", "date")

	for i, investment := range portfolio.Investments {
		row := i + 3
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", row), investment.PropertyRef)
		_ = f.SetCellInt(sheetName, fmt.Sprintf("B%d", row), investment.ShareCount)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), investment.PricePerShare.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), investment.Amount.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), investment.CreatedAt)
	}

	totalRow := len(portfolio.Investments) + 3
	_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", totalRow), "total")
	_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", totalRow), portfolio.TotalInvested.InexactFloat64())

	// payment history
	rowNum := totalRow + 3

	if err := f.MergeCell(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("F%d", rowNum)); err != nil {
		return nil, "", err
	}
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", rowNum), "Payment history")
	if err := f.SetCellStyle(sheetName, fmt.Sprintf("A%d", rowNum), fmt.Sprintf("A%d", rowNum), headerStyle); err != nil {
		return nil, "", fmt.Errorf("apply style: %w", err)
	}

	rowNum++
	_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), "reference")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", rowNum), "property")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("C%d", rowNum), "amount")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("D%d", rowNum), "status")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("E%d", rowNum), "message")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("F%d", rowNum), "date")

	for _, operation := range operations {
		rowNum++
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", rowNum), operation.InvestmentRef)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", rowNum), operation.PropertyRef)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", rowNum), operation.Amount.InexactFloat64())
		_ = f.SetCellStr(sheetName, fmt.Sprintf("D%d", rowNum), operation.Status)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("E%d", rowNum), operation.Message)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", rowNum), operation.CreatedAt)
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		slog.Error("got error while deleting Sheet1", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}
