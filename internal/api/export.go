package api

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	models "github.com/chrisdamba/rentalbooking/internal"
	"github.com/chrisdamba/rentalbooking/internal/utils"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const exportSheet = "Bookings"

var exportHeader = []string{
	"reference", "status", "client_id", "vehicle_id", "owner_id", "driver_id",
	"start_date", "end_date", "total_days", "daily_rate", "total_amount",
	"payment_method", "payment_status", "created_at",
}

func exportRow(b models.Booking) []string {
	driverID := ""
	if b.Driver.DriverID != nil {
		driverID = *b.Driver.DriverID
	}
	return []string{
		b.Reference,
		string(b.Status),
		b.ClientID,
		b.VehicleID,
		b.OwnerID,
		driverID,
		b.StartDate.UTC().Format(time.RFC3339),
		b.EndDate.UTC().Format(time.RFC3339),
		strconv.Itoa(b.TotalDays),
		strconv.FormatInt(b.Pricing.DailyRate, 10),
		strconv.FormatInt(b.Pricing.TotalAmount, 10),
		string(b.Payment.Method),
		string(b.Payment.Status),
		b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// AdminExport writes the filtered bookings as ?format=csv (default), json or xlsx.
func (h *Handler) AdminExport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		format := r.URL.Query().Get("format")
		if format == "" {
			format = "csv"
		}
		if format != "csv" && format != "json" && format != "xlsx" {
			ae := utils.NewBadRequest(fmt.Sprintf("unsupported export format %q", format))
			utils.RenderResponse(r, w, ae.StatusCode, ae)
			return
		}

		filter, err := parseFilter(r.URL.Query())
		if err != nil {
			h.renderError(w, r, err)
			return
		}
		bookings, err := h.service.ExportBookings(r.Context(), filter)
		if err != nil {
			h.renderError(w, r, err)
			return
		}

		name := "bookings-" + time.Now().UTC().Format("20060102-150405") + "." + format
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)

		switch format {
		case "csv":
			err = writeCSV(w, bookings)
		case "json":
			w.Header().Set("Content-Type", "application/json")
			err = json.NewEncoder(w).Encode(bookings)
		case "xlsx":
			err = writeXLSX(w, bookings)
		}
		if err != nil {
			// headers are gone by now
			h.logger.Error("write booking export failed", zap.String("format", format), zap.Error(err))
		}
	}
}

func writeCSV(w http.ResponseWriter, bookings []models.Booking) error {
	w.Header().Set("Content-Type", "text/csv")
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, b := range bookings {
		if err := cw.Write(exportRow(b)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(w http.ResponseWriter, bookings []models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}
	header := make([]interface{}, len(exportHeader))
	for i, v := range exportHeader {
		header[i] = v
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(exportSheet, 1, 1, bold); err != nil {
		return err
	}

	for i, b := range bookings {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := exportRow(b)
		row := make([]interface{}, len(values))
		for j, v := range values {
			row[j] = v
		}
		// numeric columns stay numbers in the sheet
		row[8] = b.TotalDays
		row[9] = b.Pricing.DailyRate
		row[10] = b.Pricing.TotalAmount
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return f.Write(w)
}
