package handler

import (
	"io"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/transit-ticketing/internal/ledger"
)

// ReportHandler receives periodic gate reports.  Reports are attachments:
// the back-office stores them verbatim and never validates their contents.
type ReportHandler struct {
	Registry *ledger.Registry
}

// NewReportHandler constructs a ReportHandler.
func NewReportHandler(reg *ledger.Registry) *ReportHandler {
	if reg == nil {
		panic("nil registry passed to NewReportHandler")
	}
	return &ReportHandler{Registry: reg}
}

// Receive handles POST /api/reports.  The body is opaque; gates currently
// send XML but nothing here depends on that.
func (h *ReportHandler) Receive(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"success": false, "error": "unreadable body"})
	}
	h.Registry.RecordReport(c.Request().Header.Get(echo.HeaderContentType), body)
	log.Printf("backoffice: report received (%d bytes)", len(body))

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Report received"})
}

// List handles GET /api/reports and returns the stored reports oldest
// first, for inspection during integration runs.
func (h *ReportHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Registry.Reports())
}
