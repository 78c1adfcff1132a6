package handlers

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/josejalvarezm/payments-webhook-connector/internal/domain"
)

const dateFormat = "2006-01-02"

// Defaults for /customers/top10 when no range is given
const (
	DefaultStartRange = "1995-01-01"
	DefaultEndRange   = "1995-03-31"
)

const readFailure = "Error reading from Snowflake. Check the logs for details."

var emailHistoryTemplate = template.Must(template.New("email_history").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Email history</title>
  <style>
    body { font-family: "Helvetica Neue", Arial, sans-serif; padding: 24px; color: #111827; }
    table { border-collapse: collapse; width: 100%; }
    th, td { border: 1px solid #e5e7eb; padding: 6px 10px; text-align: left; font-size: 13px; }
    th { background: #f3f4f6; }
  </style>
</head>
<body>
  <h1>Email history</h1>
  {{if .Rows}}
  <table>
    <thead><tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
    <tbody>
    {{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
    {{end}}
    </tbody>
  </table>
  {{else}}
  <p>No emails found.</p>
  {{end}}
</body>
</html>`))

// QueryHandler serves the warehouse read endpoints
type QueryHandler struct {
	warehouse domain.Warehouse
	logger    domain.Logger
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(warehouse domain.Warehouse, logger domain.Logger) *QueryHandler {
	return &QueryHandler{
		warehouse: warehouse,
		logger:    logger,
	}
}

// LatestTransaction returns the most recently dated stored transaction
func (h *QueryHandler) LatestTransaction(c *gin.Context) {
	h.logger.Info("querying latest transaction")
	row, err := h.warehouse.LatestTransaction(c.Request.Context())
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No transactions stored yet."})
		return
	}
	if err != nil {
		h.logger.Error("failed to read latest transaction", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": readFailure})
		return
	}
	c.JSON(http.StatusOK, row)
}

// TopCustomers returns the top 10 customers by order total in a date range
func (h *QueryHandler) TopCustomers(c *gin.Context) {
	start := c.DefaultQuery("start_range", DefaultStartRange)
	end := c.DefaultQuery("end_range", DefaultEndRange)
	if start == "" {
		start = DefaultStartRange
	}
	if end == "" {
		end = DefaultEndRange
	}

	startDate, errStart := time.Parse(dateFormat, start)
	endDate, errEnd := time.Parse(dateFormat, end)
	if errStart != nil || errEnd != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start and/or end dates."})
		return
	}

	rows, err := h.warehouse.TopCustomers(c.Request.Context(), startDate.Format(dateFormat), endDate.Format(dateFormat))
	if err != nil {
		h.logger.Error("failed to read top customers", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": readFailure})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// ClerkYearlySales returns monthly sales totals for a clerk in a year
func (h *QueryHandler) ClerkYearlySales(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year."})
		return
	}
	clerkID := c.Param("clerkid")
	if !isDigits(clerkID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Clerk ID can only contain numbers."})
		return
	}

	rows, err := h.warehouse.ClerkYearlySales(c.Request.Context(), "Clerk#"+clerkID, year)
	if err != nil {
		h.logger.Error("failed to read clerk sales", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": readFailure})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// EmailHistory renders email messages for a parent and/or related record as HTML
func (h *QueryHandler) EmailHistory(c *gin.Context) {
	parentID := c.Query("ParentId")
	relatedToID := c.Query("RelatedToId")
	if parentID == "" && relatedToID == "" {
		c.JSON(http.StatusOK, gin.H{"message": "Provide ParentId and/or RelatedToId to look up email history."})
		return
	}

	rows, err := h.warehouse.EmailHistory(c.Request.Context(), parentID, relatedToID)
	if err != nil {
		h.logger.Error("failed to read email history", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": readFailure})
		return
	}

	page, err := renderRows(rows)
	if err != nil {
		h.logger.Error("failed to render email history", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render email history."})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func renderRows(rows []domain.Row) ([]byte, error) {
	var columns []string
	if len(rows) > 0 {
		for col := range rows[0] {
			columns = append(columns, col)
		}
		sort.Strings(columns)
	}

	cells := make([][]any, len(rows))
	for i, row := range rows {
		cells[i] = make([]any, len(columns))
		for j, col := range columns {
			if v := row[col]; v != nil {
				cells[i][j] = v
			} else {
				cells[i][j] = ""
			}
		}
	}

	var buf bytes.Buffer
	err := emailHistoryTemplate.Execute(&buf, struct {
		Columns []string
		Rows    [][]any
	}{columns, cells})
	return buf.Bytes(), err
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
