package http

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"pennywise/internal/core"
	"pennywise/internal/export"
	"pennywise/internal/log"
	"pennywise/internal/services"
)

const (
	msgInvalidDate      = "Invalid date, expected YYYY-MM-DD"
	msgUnknownFormat    = "Unknown export format"
	msgExportFailed     = "Failed to export expenses"
	msgExportNotEnabled = "Google Sheets export is not configured"
)

var templateFuncs = template.FuncMap{
	"money": formatMoney,
	"share": func(f float64) string { return strconv.FormatFloat(f, 'f', 1, 64) },
}

// formatMoney renders an amount with the rupee sign and two decimals.
func formatMoney(m core.Money) string {
	if m.Cents < 0 {
		return "-₹" + core.Money{Cents: -m.Cents}.String()
	}
	return "₹" + m.String()
}

// referenceDate reads ?date=, defaulting to the ledger's today.
func (s *Server) referenceDate(r *http.Request) (core.Date, bool) {
	v := strings.TrimSpace(r.URL.Query().Get("date"))
	if v == "" {
		return s.svc.Ledger().Today(), true
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, false
	}
	return d, true
}

// summary returns the dashboard figures for ref. Entries are keyed by ledger
// revision so a mutation makes older entries unreachable.
func (s *Server) summary(ref core.Date) core.Summary {
	l := s.svc.Ledger()
	key := strconv.FormatUint(l.Revision(), 10) + "|" + ref.String()
	sum, _ := s.summaries.GetOrLoad(key, func() (core.Summary, error) {
		sum, _ := l.Summary(ref)
		return sum, nil
	})
	return sum
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.referenceDate(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, msgInvalidDate)
		return
	}
	writeData(w, r, http.StatusOK, s.summary(ref), "")
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, ok := export.ParseFormat(r.PathValue("format"))
	if !ok {
		writeError(w, r, http.StatusNotFound, msgUnknownFormat)
		return
	}

	var buf bytes.Buffer
	if err := s.svc.Export(r.Context(), f, &buf); err != nil {
		if errors.Is(err, export.ErrNothingToExport) {
			writeError(w, r, http.StatusNotFound, services.MsgNothingToExport)
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Export failed", log.FieldFormat, f, log.FieldError, err)
		writeError(w, r, http.StatusInternalServerError, msgExportFailed)
		return
	}

	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+f.Filename()+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleSheetsExport(w http.ResponseWriter, r *http.Request) {
	err := s.svc.RequestSheetsExport(r.Context())
	switch {
	case err == nil:
		writeEnvelope(w, r, http.StatusAccepted, successMessage(services.MsgExportQueued))
	case errors.Is(err, services.ErrExportUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, msgExportNotEnabled)
	case errors.Is(err, export.ErrNothingToExport):
		writeError(w, r, http.StatusNotFound, services.MsgNothingToExport)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Queueing sheets export failed", log.FieldError, err)
		writeError(w, r, http.StatusBadGateway, msgExportFailed)
	}
}

type categoryBar struct {
	Name   string
	Amount core.Money
	Share  float64
	Width  int
}

type dashboardView struct {
	Summary      core.Summary
	Bars         []categoryBar
	Transactions []core.Transaction
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.referenceDate(r)
	if !ok {
		ref = s.svc.Ledger().Today()
	}
	sum := s.summary(ref)
	view := dashboardView{
		Summary:      sum,
		Bars:         categoryBars(sum.ByCategory),
		Transactions: s.svc.Ledger().List(),
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard.html", view); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Dashboard template execution failed", log.FieldError, err)
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// categoryBars scales each category against the largest one. Non-empty bars
// are at least 2% wide so they stay visible.
func categoryBars(rows []core.CategoryAmount) []categoryBar {
	var maxCents int64
	for _, r := range rows {
		if r.Amount.Cents > maxCents {
			maxCents = r.Amount.Cents
		}
	}
	bars := make([]categoryBar, 0, len(rows))
	for _, r := range rows {
		width := 0
		if maxCents > 0 && r.Amount.Cents > 0 {
			width = int((r.Amount.Cents*100 + maxCents/2) / maxCents)
			if width < 2 {
				width = 2
			}
			if width > 100 {
				width = 100
			}
		}
		bars = append(bars, categoryBar{Name: r.Name, Amount: r.Amount, Share: r.Share, Width: width})
	}
	return bars
}
