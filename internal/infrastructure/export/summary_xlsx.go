package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/vitingo/advance-workflow/internal/application/port"
	"github.com/vitingo/advance-workflow/internal/currency"
	"github.com/vitingo/advance-workflow/internal/domain/entity"
	"github.com/vitingo/advance-workflow/internal/domain/expense"
)

const sheetName = "Kapanış"

var lineHeaders = []string{
	"Tarih", "Tedarikçi", "Kategori", "Alt Kategori", "Açıklama",
	"Tutar", "Para Birimi", "Çevrilen Tutar", "Kur",
	"Belge", "Ödeme", "Masraf Merkezi", "Finans",
}

// SummaryXLSX renders closing summaries as Excel workbooks
type SummaryXLSX struct {
	now    func() time.Time
	logger *zap.Logger
}

// NewSummaryXLSX creates the exporter
func NewSummaryXLSX(logger *zap.Logger) *SummaryXLSX {
	return &SummaryXLSX{now: time.Now, logger: logger}
}

var _ port.SummaryExporter = (*SummaryXLSX)(nil)

// ExportClosing writes the header block, one row per line and the totals
func (e *SummaryXLSX) ExportClosing(summary port.ClosingSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	adv := summary.Advance
	info := [][]interface{}{
		{"Avans No", adv.AdvanceNumber},
		{"Talep Eden", adv.RequesterName},
		{"Avans Tutarı", currency.FormatMoney(adv.ApprovedAmount, adv.Currency)},
		{"Oluşturma", e.now().Format("2006-01-02 15:04")},
	}
	for i, row := range info {
		if err := f.SetSheetRow(sheetName, cell(1, i+1), &row); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	headerRow := len(info) + 2
	if err := f.SetSheetRow(sheetName, cell(1, headerRow), &lineHeaders); err != nil {
		return nil, fmt.Errorf("failed to write column headers: %w", err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		e.setStyle(f, cell(1, headerRow), cell(len(lineHeaders), headerRow), style)
	}

	row := headerRow + 1
	for _, sl := range summary.Lines {
		values := lineRow(sl, summary.CostCenterNames[sl.Line.ID], adv.Currency)
		if err := f.SetSheetRow(sheetName, cell(1, row), &values); err != nil {
			return nil, fmt.Errorf("failed to write line %s: %w", sl.Line.ID, err)
		}
		row++
	}

	row++
	totals := [][]interface{}{
		{"Toplam Harcama", summary.TotalExpenses.InexactFloat64(), adv.Currency},
		{"Kalan Bakiye", summary.RemainingBalance.InexactFloat64(), adv.Currency},
	}
	for _, t := range totals {
		if err := f.SetSheetRow(sheetName, cell(5, row), &t); err != nil {
			return nil, fmt.Errorf("failed to write totals: %w", err)
		}
		row++
	}
	if style, err := f.NewStyle(&excelize.Style{NumFmt: 4}); err == nil {
		e.setStyle(f, cell(6, headerRow+1), cell(6, row), style)
		e.setStyle(f, cell(8, headerRow+1), cell(8, row), style)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Closing summary exported",
		zap.String("advance_number", adv.AdvanceNumber),
		zap.Int("lines", len(summary.Lines)),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func lineRow(sl port.SummaryLine, costCenter, advanceCurrency string) []interface{} {
	l := sl.Line
	var converted, rate interface{} = "", ""
	switch {
	case sl.Converted != nil:
		converted, rate = sl.Converted.Amount.InexactFloat64(), sl.Converted.Rate.InexactFloat64()
	case l.Currency == advanceCurrency:
		converted = l.AmountValue().InexactFloat64()
	}
	if costCenter == "" {
		costCenter = l.CostCenterID
	}
	return []interface{}{
		expense.DisplayDate(l.Date), l.Supplier, l.Category, l.Subcategory, l.Description,
		l.AmountValue().InexactFloat64(), l.Currency, converted, rate,
		string(l.DocumentStatus), paymentLabel(l.PaymentMethod), costCenter, financeLabel(l.FinanceStatus),
	}
}

func paymentLabel(p entity.PaymentMethod) string {
	switch p {
	case entity.PaymentMethodCash:
		return "Nakit"
	case entity.PaymentMethodCreditCard:
		return "Kredi Kartı"
	case entity.PaymentMethodBankTransfer:
		return "Havale/EFT"
	}
	return string(p)
}

func financeLabel(s entity.FinanceStatus) string {
	switch s {
	case entity.FinanceStatusApproved:
		return "Onaylandı"
	case entity.FinanceStatusRejected:
		return "Reddedildi"
	}
	return ""
}

func (e *SummaryXLSX) setStyle(f *excelize.File, from, to string, style int) {
	if err := f.SetCellStyle(sheetName, from, to, style); err != nil {
		e.logger.Warn("Failed to set cell style", zap.String("range", from+":"+to), zap.Error(err))
	}
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
