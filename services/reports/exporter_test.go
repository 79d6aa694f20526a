package reports

import (
	"bytes"
	"testing"

	"almanara_go/models"

	"github.com/xuri/excelize/v2"
)

func TestBuildPaymentsWorkbook(t *testing.T) {
	payments := []models.Payment{
		{
			ID: 1, Email: "a@x.sa", CourseName: "Tajweed", Method: "Bank Transfer",
			AccountNumber: "SA1", TransactionNum: "TX1", Amount: 50, Currency: "USD",
			WantedTime: "evening", Status: 1, CreatedAt: "2026-08-01",
		},
		{
			ID: 2, Email: "b@x.sa", CourseName: "Fiqh", Method: "PayPal",
			AccountNumber: "PP2", TransactionNum: "TX2", Amount: 187.5, Currency: "SAR",
			WantedTime: "morning", Status: 0, CreatedAt: "2026-08-02",
		},
	}

	buf, err := BuildPaymentsWorkbook(payments)
	if err != nil {
		t.Fatalf("BuildPaymentsWorkbook returned error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("workbook is not readable: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Payments")
	if err != nil {
		t.Fatalf("missing Payments sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Payment ID" {
		t.Errorf("header row: %v", rows[0])
	}
	if rows[1][1] != "a@x.sa" || rows[1][9] != "accepted" {
		t.Errorf("row 1: %v", rows[1])
	}
	if rows[2][2] != "Fiqh" || rows[2][9] != "pending" {
		t.Errorf("row 2: %v", rows[2])
	}
}

func TestBuildPaymentsWorkbookEmpty(t *testing.T) {
	buf, err := BuildPaymentsWorkbook(nil)
	if err != nil {
		t.Fatalf("BuildPaymentsWorkbook returned error: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("workbook is not readable: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Payments")
	if err != nil {
		t.Fatalf("missing Payments sheet: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected header only, got %d rows", len(rows))
	}
}
