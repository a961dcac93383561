package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/p57/feedback-hub/app/dto"
	"github.com/p57/feedback-hub/models"
	"github.com/xuri/excelize/v2"
)

const (
	ticketExportSheet   = "Tickets"
	ticketExportMaxRows = 10000
)

var ticketExportHeader = []string{
	"ticket_number", "status", "priority", "department", "category_id", "subcategory_id",
	"title", "client_name", "client_email", "client_phone", "assignee_id", "reporter_id",
	"sla_deadline", "first_response_at", "resolved_at", "closed_at",
	"is_escalated", "escalation_reason", "sentiment", "ai_tags", "created_at",
}

// ExportTickets renders the filtered tickets, newest first, as one XLSX sheet
func (f *TicketFlowImpl) ExportTickets(ctx context.Context, req *dto.ListTicketsRequest) (string, []byte, error) {
	filter, err := ticketFilterFromRequest(req)
	if err != nil {
		return "", nil, err
	}
	rows, err := f.repos.Tickets.ByFilter(ctx, filter, "created_at DESC, id DESC", ticketExportMaxRows, 0)
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_TICKETS_FAILED", "Failed to fetch tickets", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	xl.SetSheetName(xl.GetSheetName(0), ticketExportSheet)
	header := ticketExportHeader
	if err := xl.SetSheetRow(ticketExportSheet, "A1", &header); err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel header", err)
	}

	for i, t := range rows {
		record := ticketExportRecord(t)
		cellRef, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := xl.SetSheetRow(ticketExportSheet, cellRef, &record); err != nil {
			return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel row", err)
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	filename := fmt.Sprintf("tickets_%s.xlsx", f.now().Format("20060102_150405"))
	return filename, buf.Bytes(), nil
}

func ticketExportRecord(t *models.Ticket) []string {
	return []string{
		t.TicketNumber,
		string(t.Status),
		string(t.Priority),
		deref(departmentString(t.Department), ""),
		strconv.FormatUint(uint64(t.CategoryID), 10),
		uintString(t.SubcategoryID),
		t.Title,
		t.ClientName,
		deref(t.ClientEmail, ""),
		deref(t.ClientPhone, ""),
		uintString(t.AssigneeID),
		strconv.FormatUint(uint64(t.ReporterID), 10),
		exportTime(t.SLADeadline),
		exportTime(t.FirstResponseAt),
		exportTime(t.ResolvedAt),
		exportTime(t.ClosedAt),
		strconv.FormatBool(t.IsEscalated != nil && *t.IsEscalated),
		deref(t.EscalationReason, ""),
		deref(t.Sentiment, ""),
		strings.Join(t.AITags, ","),
		t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func exportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
