package main

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"khazana/internal/config"
	"khazana/internal/handlers/transactions"
	"khazana/internal/models"
	"khazana/internal/services/analytics"
	"khazana/internal/services/gate"
	"khazana/internal/testutil"
)

const alice = "/api/users/alice"

// setupTestServer initializes dependencies on an in-memory backend and returns a test server
func setupTestServer(t *testing.T) *testutil.TestServer {
	t.Helper()

	if err := SetupDependencies(testutil.TestConfig(t)); err != nil {
		t.Fatalf("Failed to setup dependencies: %v", err)
	}
	t.Cleanup(func() { registry.Close() })

	return testutil.NewTestServer(t, SetupRouter())
}

func today() string {
	return models.DateOf(time.Now()).String()
}

// seed records a deposit of 1000 and a Food withdrawal of 300 dated today
func seed(t *testing.T, ts *testutil.TestServer) {
	t.Helper()

	testutil.AssertResponse(t, ts.POSTJSON(alice+"/transactions", transactions.CreateRequest{
		Type: "deposit", Date: models.DateOf(time.Now()), Amount: decimal.NewFromInt(1000),
		Category: "Salary", Source: "Employer",
	})).StatusCreated()

	testutil.AssertResponse(t, ts.POSTJSON(alice+"/transactions", map[string]any{
		"type": "withdrawal", "date": today(), "amount": 300, "category": "Food", "reason": "Groceries",
	})).StatusCreated()
}

func unlock(t *testing.T, ts *testutil.TestServer) {
	t.Helper()
	testutil.AssertResponse(t, ts.POSTJSON(alice+"/gate/verify", map[string]string{"pin": gate.DefaultPIN})).
		StatusOK().
		Contains(`"state":"unlocked"`)
}

func TestHealthEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	testutil.AssertResponse(t, ts.GET("/api/health")).
		StatusOK().
		ContentTypeJSON().
		ContainsAll(`"status":"ok"`, `"backend":"memory"`)
}

func TestVersionEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	testutil.AssertResponse(t, ts.GET("/api/version")).
		StatusOK().
		ContentTypeJSON().
		Contains(`"name":"khazana"`)
}

func TestInvalidUser(t *testing.T) {
	ts := setupTestServer(t)

	testutil.AssertResponse(t, ts.GET("/api/users/%20/transactions")).
		Status(http.StatusBadRequest).
		ContentTypeJSON()
}

func TestCreateAndListTransactions(t *testing.T) {
	ts := setupTestServer(t)
	seed(t, ts)

	var list transactions.ListResponse
	testutil.AssertResponse(t, ts.GET(alice+"/transactions")).
		StatusOK().
		ContentTypeJSON().
		JSON(&list)

	if list.TotalCount != 2 || len(list.Transactions) != 2 {
		t.Fatalf("expected 2 transactions, got %d", list.TotalCount)
	}
	// same date: the newer record comes first
	if list.Transactions[0].Kind != models.Withdrawal {
		t.Errorf("expected withdrawal first, got %s", list.Transactions[0].Kind)
	}
	if list.Transactions[0].Details != "Groceries" || list.Transactions[1].Details != "Employer" {
		t.Errorf("details not taken from kind-specific fields: %+v", list.Transactions)
	}
	if !list.Net.Equal(decimal.NewFromInt(700)) {
		t.Errorf("net = %s, want 700", list.Net)
	}
}

func TestTransactionFilters(t *testing.T) {
	ts := setupTestServer(t)
	seed(t, ts)

	tests := []struct {
		name  string
		query map[string]string
		want  int
	}{
		{"type", map[string]string{"type": "deposit"}, 1},
		{"category", map[string]string{"category": "Food"}, 1},
		{"search", map[string]string{"q": "grocer"}, 1},
		{"min amount", map[string]string{"min": "500"}, 1},
		{"amount range", map[string]string{"min": "100", "max": "2000"}, 2},
		{"date range", map[string]string{"start": "2000-01-01", "end": "2000-12-31"}, 0},
		{"page size", map[string]string{"perPage": "1", "page": "2"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var list transactions.ListResponse
			testutil.AssertResponse(t, ts.GETWithQuery(alice+"/transactions", tt.query)).
				StatusOK().
				JSON(&list)
			if len(list.Transactions) != tt.want {
				t.Errorf("got %d transactions, want %d", len(list.Transactions), tt.want)
			}
		})
	}

	testutil.AssertResponse(t, ts.GETWithQuery(alice+"/transactions", map[string]string{"type": "refund"})).
		Status(http.StatusBadRequest)
	testutil.AssertResponse(t, ts.GETWithQuery(alice+"/transactions", map[string]string{"start": "yesterday"})).
		Status(http.StatusBadRequest)
}

func TestCreateTransactionErrors(t *testing.T) {
	ts := setupTestServer(t)
	seed(t, ts)

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"unknown type", map[string]any{"type": "refund", "date": today(), "amount": 10}, http.StatusBadRequest},
		{"missing date", map[string]any{"type": "deposit", "amount": 10}, http.StatusBadRequest},
		{"negative amount", map[string]any{"type": "deposit", "date": today(), "amount": -5}, http.StatusBadRequest},
		{"insufficient funds", map[string]any{"type": "transfer", "date": today(), "amount": 701}, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertResponse(t, ts.POSTJSON(alice+"/transactions", tt.body)).
				Status(tt.status).
				ContentTypeJSON()
		})
	}

	testutil.AssertResponse(t, ts.POSTJSON(alice+"/transactions",
		map[string]any{"type": "withdrawal", "date": today(), "amount": 1000})).
		Status(http.StatusUnprocessableEntity).
		Contains(`"balance":"700.00"`)

	// exactly the balance is allowed
	testutil.AssertResponse(t, ts.POSTJSON(alice+"/transactions",
		map[string]any{"type": "transfer", "date": today(), "amount": 700, "transferTo": "Savings"})).
		StatusCreated()
}

func TestDeleteTransaction(t *testing.T) {
	ts := setupTestServer(t)
	seed(t, ts)

	var list transactions.ListResponse
	testutil.AssertResponse(t, ts.GET(alice+"/transactions")).StatusOK().JSON(&list)

	deleted := list.Transactions[0].ID
	testutil.AssertResponse(t, ts.DELETE(alice+"/transactions/"+deleted)).
		Status(http.StatusNoContent)
	testutil.AssertResponse(t, ts.DELETE(alice+"/transactions/no-such-id")).
		Status(http.StatusNoContent)

	testutil.AssertResponse(t, ts.GET(alice+"/transactions")).StatusOK().JSON(&list)
	if list.TotalCount != 1 {
		t.Errorf("expected 1 transaction after delete, got %d", list.TotalCount)
	}
	testutil.AssertResponse(t, ts.GET(alice+"/export/txt")).StatusOK().NotContains(deleted)
}

func TestBalanceRequiresUnlock(t *testing.T) {
	ts := setupTestServer(t)
	seed(t, ts)

	testutil.AssertResponse(t, ts.GET(alice+"/balance")).
		Status(http.StatusForbidden)

	unlock(t, ts)
	testutil.AssertResponse(t, ts.GET(alice+"/balance")).
		StatusOK().
		ContainsAll(`"balance":700`, `"status":"positive"`)

	testutil.AssertResponse(t, ts.POST(alice+"/gate/logout", "", nil)).
		StatusOK().
		Contains(`"state":"locked"`)
	testutil.AssertResponse(t, ts.GET(alice+"/balance")).
		Status(http.StatusForbidden)
}

func TestGateDigits(t *testing.T) {
	ts := setupTestServer(t)

	for i, d := range gate.DefaultPIN {
		var status gate.Status
		testutil.AssertResponse(t, ts.POSTJSON(alice+"/gate/digits", map[string]string{"digit": string(d)})).
			StatusOK().
			JSON(&status)
		if i < gate.CodeLength-1 && (status.State != gate.Unlocking || status.Entered != i+1) {
			t.Fatalf("after digit %d: %+v", i+1, status)
		}
		if i == gate.CodeLength-1 && status.State != gate.Unlocked {
			t.Fatalf("expected unlocked after last digit, got %s", status.State)
		}
	}

	testutil.AssertResponse(t, ts.POSTJSON(alice+"/gate/digits", map[string]string{"digit": "x"})).
		StatusOK() // ignored while unlocked
}

func TestGateLockout(t *testing.T) {
	ts := setupTestServer(t)

	for i := 1; i < gate.MaxAttempts; i++ {
		testutil.AssertResponse(t, ts.POSTJSON(alice+"/gate/verify", map[string]string{"pin": "000000"})).
			StatusOK().
			Contains(`"state":"locked"`)
	}
	testutil.AssertResponse(t, ts.POSTJSON(alice+"/gate/verify", map[string]string{"pin": "000000"})).
		Status(http.StatusLocked).
		Contains(`"remaining_attempts":0`)

	// even the right PIN is refused until logout
	testutil.AssertResponse(t, ts.POSTJSON(alice+"/gate/verify", map[string]string{"pin": gate.DefaultPIN})).
		Status(http.StatusLocked)

	testutil.AssertResponse(t, ts.POST(alice+"/gate/logout", "", nil)).StatusOK()
	unlock(t, ts)

	// other users are unaffected
	testutil.AssertResponse(t, ts.GET("/api/users/bob/gate")).
		StatusOK().
		Contains(`"attempts":0`)
}

func TestChangePIN(t *testing.T) {
	ts := setupTestServer(t)

	testutil.AssertResponse(t, ts.PUTJSON(alice+"/pin", map[string]string{"old": "999999", "new": "654321"})).
		Status(http.StatusBadRequest)
	testutil.AssertResponse(t, ts.PUTJSON(alice+"/pin", map[string]string{"old": gate.DefaultPIN, "new": "12ab56"})).
		Status(http.StatusBadRequest)
	testutil.AssertResponse(t, ts.PUTJSON(alice+"/pin", map[string]string{"old": gate.DefaultPIN, "new": "654321"})).
		Status(http.StatusNoContent)

	testutil.AssertResponse(t, ts.POSTJSON(alice+"/gate/verify", map[string]string{"pin": "654321"})).
		StatusOK().
		Contains(`"state":"unlocked"`)
}

func TestStats(t *testing.T) {
	ts := setupTestServer(t)
	seed(t, ts)

	testutil.AssertResponse(t, ts.GET(alice+"/stats")).
		StatusOK().
		ContainsAll(`"transaction_count":2`, `"month_spend":300`, `"month_income":1000`)
}

func TestBudgets(t *testing.T) {
	ts := setupTestServer(t)
	seed(t, ts)

	testutil.AssertResponse(t, ts.PUTJSON(alice+"/budgets", map[string]any{"category": "Food", "amount": 400})).
		StatusOK().
		Contains(`"category":"Food"`)
	testutil.AssertResponse(t, ts.PUTJSON(alice+"/budgets", map[string]any{"category": "Food", "amount": 0})).
		Status(http.StatusBadRequest)

	var overview models.BudgetOverview
	testutil.AssertResponse(t, ts.GET(alice+"/budgets")).StatusOK().JSON(&overview)
	if len(overview.Budgets) != 1 {
		t.Fatalf("expected 1 budget, got %d", len(overview.Budgets))
	}
	p := overview.Budgets[0]
	if p.PercentUsed != 75 || p.Tier != models.TierWarning || p.Icon != "🍕" {
		t.Errorf("progress = %+v, want 75%% warning", p)
	}

	testutil.AssertResponse(t, ts.DELETE(alice+"/budgets/Food")).Status(http.StatusNoContent)
	testutil.AssertResponse(t, ts.GET(alice+"/budgets")).StatusOK().JSON(&overview)
	if len(overview.Budgets) != 0 {
		t.Errorf("expected no budgets after delete, got %d", len(overview.Budgets))
	}
}

func TestCategories(t *testing.T) {
	ts := setupTestServer(t)
	seed(t, ts)

	testutil.AssertResponse(t, ts.POSTJSON(alice+"/categories", map[string]string{"name": "Pets", "icon": "🐶"})).
		StatusCreated().
		Contains(`"type":"expense"`)
	testutil.AssertResponse(t, ts.POSTJSON(alice+"/categories", map[string]string{"name": "pets"})).
		Status(http.StatusBadRequest)

	testutil.AssertResponse(t, ts.GET(alice+"/categories")).
		StatusOK().
		ContainsAll(`"Pets"`, `"Food"`)

	var ranked []models.CategorySummary
	testutil.AssertResponse(t, ts.GET(alice+"/categories/breakdown")).StatusOK().JSON(&ranked)
	if len(ranked) != 1 || ranked[0].Category != "Food" || ranked[0].Percentage != 100 {
		t.Errorf("breakdown = %+v", ranked)
	}
}

func TestAnalyticsEndpoints(t *testing.T) {
	ts := setupTestServer(t)
	seed(t, ts)

	endpoints := []string{"summary", "series", "forecast", "insights", "patterns", "compare"}
	for _, ep := range endpoints {
		t.Run(ep, func(t *testing.T) {
			testutil.AssertResponse(t, ts.GET(alice+"/analytics/"+ep)).
				StatusOK().
				ContentTypeJSON()
		})
	}

	var forecast models.Forecast
	testutil.AssertResponse(t, ts.GET(alice+"/analytics/forecast")).StatusOK().JSON(&forecast)
	if forecast.Available {
		t.Error("forecast needs two months of data")
	}

	var cmp analytics.Comparison
	testutil.AssertResponse(t, ts.GET(alice+"/analytics/compare")).StatusOK().JSON(&cmp)
	if !cmp.Expense.Equal(decimal.NewFromInt(300)) || cmp.HasPrevious {
		t.Errorf("compare = %+v", cmp)
	}

	testutil.AssertResponse(t, ts.GETWithQuery(alice+"/analytics/compare", map[string]string{"month": "May"})).
		Status(http.StatusBadRequest)
}

func TestExport(t *testing.T) {
	ts := setupTestServer(t)
	seed(t, ts)

	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"csv", "text/csv", "Date,Type,Category,Details,Amount,Timestamp"},
		{"json", "application/json", `"customCategories"`},
		{"txt", "text/plain", "|withdrawal|300.00|Food|Groceries|"},
		{"ml", "text/csv", "date,type,category,amount,day_of_week,month,year"},
		{"report", "text/plain", "KHAZANA MONTHLY REPORT"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			testutil.AssertResponse(t, ts.GET(alice+"/export/"+tt.format)).
				StatusOK().
				ContentType(tt.contentType).
				Header("Content-Disposition", "attachment").
				Contains(tt.contains)
		})
	}

	testutil.AssertResponse(t, ts.GET(alice+"/export/xml")).Status(http.StatusBadRequest)
	testutil.AssertResponse(t, ts.GETWithQuery(alice+"/export/report", map[string]string{"month": "2001-02"})).
		StatusOK().
		Header("Content-Disposition", "monthly_report_February_2001.txt").
		Contains("February 2001")
}

func TestImportRoundTrip(t *testing.T) {
	ts := setupTestServer(t)
	seed(t, ts)
	testutil.AssertResponse(t, ts.PUTJSON(alice+"/budgets", map[string]any{"category": "Food", "amount": 400})).StatusOK()

	backup := testutil.ReadBody(t, ts.GET(alice+"/export/json"))

	testutil.AssertResponse(t, ts.Upload("/api/users/bob/import", "backup.json", []byte(backup))).
		StatusOK().
		ContainsAll(`"transactions":2`, `"budgets_replaced":true`)

	var list transactions.ListResponse
	testutil.AssertResponse(t, ts.GET("/api/users/bob/transactions")).StatusOK().JSON(&list)
	if list.TotalCount != 2 || !list.Net.Equal(decimal.NewFromInt(700)) {
		t.Errorf("imported ledger: count=%d net=%s", list.TotalCount, list.Net)
	}
	testutil.AssertResponse(t, ts.GET("/api/users/bob/budgets")).StatusOK().Contains(`"Food"`)
}

func TestCSVImport(t *testing.T) {
	ts := setupTestServer(t)
	seed(t, ts)

	exported := testutil.ReadBody(t, ts.GET(alice+"/export/csv"))
	testutil.AssertResponse(t, ts.Upload("/api/users/bob/import", "khazana_transactions.csv", []byte(exported))).
		StatusOK().
		ContainsAll(`"format":"csv"`, `"transactions":2`, `"budgets_replaced":false`)

	var list transactions.ListResponse
	testutil.AssertResponse(t, ts.GET("/api/users/bob/transactions")).StatusOK().JSON(&list)
	if list.TotalCount != 2 || !list.Net.Equal(decimal.NewFromInt(700)) {
		t.Errorf("imported ledger: count=%d net=%s", list.TotalCount, list.Net)
	}

	statement := "Txn Date,Narration,Withdrawal Amt.,Deposit Amt.\n2024-02-01,NEFT Salary,,\"50,000.00\"\n2024-02-03,UPI Rent,18000,\n"
	testutil.AssertResponse(t, ts.Upload("/api/users/carol/import", "hdfc.csv", []byte(statement))).
		StatusOK().
		Contains(`"transactions":2`)
	testutil.AssertResponse(t, ts.GET("/api/users/carol/transactions")).
		StatusOK().
		ContainsAll(`"UPI Rent"`, `"Uncategorized"`)
}

func TestImportErrors(t *testing.T) {
	ts := setupTestServer(t)
	seed(t, ts)

	tests := []struct {
		name     string
		filename string
		content  string
	}{
		{"malformed json", "backup.json", "{not json"},
		{"missing transactions", "backup.json", `{"budgets":[]}`},
		{"short pipe line", "ledger.txt", "1|2|3"},
		{"csv without columns", "statement.csv", "a,b"},
		{"unsupported extension", "ledger.xlsx", "a,b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertResponse(t, ts.Upload(alice+"/import", tt.filename, []byte(tt.content))).
				Status(http.StatusBadRequest)
		})
	}

	// nothing was replaced
	var list transactions.ListResponse
	testutil.AssertResponse(t, ts.GET(alice+"/transactions")).StatusOK().JSON(&list)
	if list.TotalCount != 2 {
		t.Errorf("ledger changed by failed imports: %d transactions", list.TotalCount)
	}
}

func TestPipeImport(t *testing.T) {
	ts := setupTestServer(t)

	text := strings.Join([]string{
		"1-a|deposit|2024-01-05|1000.00|Salary|ACME|2024-01-05 09:00:00",
		"2-b|withdrawal|2024-01-10|250.50|Food|Lunch | with pipe|2024-01-10 13:00:00",
	}, "\n")
	testutil.AssertResponse(t, ts.Upload(alice+"/import", "transactions_alice.txt", []byte(text))).
		StatusOK().
		Contains(`"transactions":2`)

	var list transactions.ListResponse
	testutil.AssertResponse(t, ts.GET(alice+"/transactions")).StatusOK().JSON(&list)
	if list.TotalCount != 2 || list.Transactions[0].Details != "Lunch | with pipe" {
		t.Errorf("imported = %+v", list.Transactions)
	}
}

func TestServeClosesStorage(t *testing.T) {
	tests := []struct {
		name     string
		addr     string
		cancel   bool
		wantCode int
	}{
		{"listen error", "127.0.0.1:-1", false, 1},
		{"shutdown", "127.0.0.1:0", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testutil.TestConfig(t)
			c.Backend = config.BackendSQLite
			c.ListenAddr = tt.addr

			ctx, cancel := context.WithCancel(context.Background())
			if tt.cancel {
				cancel()
			}
			defer cancel()

			if code := serve(ctx, c); code != tt.wantCode {
				t.Fatalf("serve() = %d, want %d", code, tt.wantCode)
			}
			if _, _, err := registry.Backend().Get(context.Background(), "anything"); err == nil {
				t.Error("storage still open after serve returned")
			}
		})
	}
}

func TestServeRejectsInvalidConfig(t *testing.T) {
	c := testutil.TestConfig(t)
	c.Currency = "rupees"

	if code := serve(context.Background(), c); code != 1 {
		t.Errorf("serve() = %d, want 1", code)
	}
}
