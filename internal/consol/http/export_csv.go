package consolhttp

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/finboard-hq/finboard/internal/consol"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer, flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeRow(row []string) error {
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.Flush()
	}
	return nil
}

func (s *csvStreamer) Flush() error {
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	query, err := parseQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	report, err := h.buildReport(r, query)
	if err != nil {
		http.Error(w, "report build failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="consolidated_report.csv"`)
	if err := writeReportCSV(w, report); err != nil {
		h.logger.Error("stream report csv", "error", err)
	}
}

func writeReportCSV(w io.Writer, report consol.Report) error {
	streamer := newCSVStreamer(w)
	kpiRows := [][]string{
		{"metric", "value", "change_pct"},
		{"revenue", money(report.KPIs.Revenue), pctStr(report.KPIs.RevenuePct)},
		{"gross_profit", money(report.KPIs.GrossProfit), pctStr(report.KPIs.GrossProfitPct)},
		{"net_income", money(report.KPIs.NetIncome), pctStr(report.KPIs.NetIncomePct)},
		{"cash_balance", money(report.KPIs.CashBalance), pctStr(report.KPIs.CashBalancePct)},
		{"burn_rate", money(report.KPIs.BurnRate), ""},
		{},
		{"date", "revenue", "cogs", "expenses", "cash"},
	}
	for _, row := range kpiRows {
		if err := streamer.writeRow(row); err != nil {
			return err
		}
	}
	for _, point := range report.Series {
		row := []string{
			point.Date,
			money(point.Revenue),
			money(point.COGS),
			money(point.Expenses),
			money(point.Cash),
		}
		if err := streamer.writeRow(row); err != nil {
			return err
		}
	}
	return streamer.Flush()
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func pctStr(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
