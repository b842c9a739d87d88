package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"khazana/internal/models"
)

func TestEncodePipe(t *testing.T) {
	txns := []models.Transaction{
		{
			ID: "1", Kind: models.Withdrawal, Date: models.NewDate(2024, time.January, 10),
			Amount: decimal.NewFromInt(300), Category: "Food", Details: "lunch\nwith team",
			Timestamp: "2024-01-10 12:00:00",
		},
		{
			ID: "2", Kind: models.Deposit, Date: models.NewDate(2024, time.January, 5),
			Amount: decimal.RequireFromString("1000.5"), Category: "Salary", Details: "acme",
			Timestamp: "2024-01-05 09:00:00",
		},
	}

	want := "1|withdrawal|2024-01-10|300.00|Food|lunch with team|2024-01-10 12:00:00\n" +
		"2|deposit|2024-01-05|1000.50|Salary|acme|2024-01-05 09:00:00"
	if got := EncodePipe(txns); got != want {
		t.Errorf("EncodePipe:\n got %q\nwant %q", got, want)
	}
}

func TestDecodePipeDetailsWithPipes(t *testing.T) {
	txns, err := DecodePipe("9|transfer|2024-02-01|50.00|Rent|flat 4 | landlord | feb|2024-02-01 08:00:00\n")
	if err != nil {
		t.Fatalf("DecodePipe: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("got %d rows", len(txns))
	}
	tx := txns[0]
	if tx.Details != "flat 4 | landlord | feb" {
		t.Errorf("Details = %q", tx.Details)
	}
	if tx.Timestamp != "2024-02-01 08:00:00" || tx.Category != "Rent" || tx.Kind != models.Transfer {
		t.Errorf("unexpected row %+v", tx)
	}
}

func TestDecodePipeErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"too few fields", "1|deposit|2024-01-01|10|Food"},
		{"bad kind", "1|refund|2024-01-01|10|Food|x|ts"},
		{"bad date", "1|deposit|01/02/2024|10|Food|x|ts"},
		{"bad amount", "1|deposit|2024-01-01|ten|Food|x|ts"},
		{"negative amount", "1|deposit|2024-01-01|-5|Food|x|ts"},
		{"missing id", "|deposit|2024-01-01|5|Food|x|ts"},
		{"one bad line among good", "1|deposit|2024-01-01|10|Food|x|ts\nnot a record"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePipe(tt.text)
			if !models.IsParse(err) {
				t.Errorf("got %v, want parse error", err)
			}
		})
	}
}

func TestDecodePipeSkipsBlankLines(t *testing.T) {
	txns, err := DecodePipe("\r\n1|deposit|2024-01-01|10.00|Food|x|ts\r\n\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(txns) != 1 || txns[0].Timestamp != "ts" {
		t.Errorf("got %+v", txns)
	}
}

func TestPipeRoundTripCategoryWithPipe(t *testing.T) {
	in := []models.Transaction{{
		ID: "7", Kind: models.Withdrawal, Date: models.NewDate(2024, time.March, 2),
		Amount: decimal.NewFromInt(120), Category: "Food|Drink", Details: "lunch | tips",
		Timestamp: "2024-03-02 13:00:00",
	}}

	out, err := DecodePipe(EncodePipe(in))
	if err != nil {
		t.Fatalf("DecodePipe: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d rows", len(out))
	}
	tx := out[0]
	if tx.Category != "Food/Drink" {
		t.Errorf("Category = %q, want %q", tx.Category, "Food/Drink")
	}
	if tx.Details != "lunch | tips" {
		t.Errorf("Details = %q", tx.Details)
	}
	if tx.Timestamp != in[0].Timestamp || !tx.Amount.Equal(in[0].Amount) {
		t.Errorf("unexpected row %+v", tx)
	}
}
