package ledger

import (
	"testing"
	"time"

	"khazana/internal/models"
)

func dated(id string, day int) models.Transaction {
	return models.Transaction{ID: id, Kind: models.Deposit, Date: models.NewDate(2024, time.March, day)}
}

func ids(txns []models.Transaction) string {
	s := ""
	for _, t := range txns {
		s += t.ID
	}
	return s
}

func TestMergeSortByDateDesc(t *testing.T) {
	tests := []struct {
		name string
		in   []models.Transaction
		want string
	}{
		{"empty", nil, ""},
		{"single", []models.Transaction{dated("a", 1)}, "a"},
		{"ascending", []models.Transaction{dated("a", 1), dated("b", 2), dated("c", 3)}, "cba"},
		{"already sorted", []models.Transaction{dated("c", 3), dated("b", 2), dated("a", 1)}, "cba"},
		{
			"ties keep order",
			[]models.Transaction{dated("a", 2), dated("b", 1), dated("c", 2), dated("d", 1), dated("e", 2)},
			"acebd",
		},
		{
			"all same date",
			[]models.Transaction{dated("a", 5), dated("b", 5), dated("c", 5), dated("d", 5)},
			"abcd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeSortByDateDesc(tt.in)
			if ids(got) != tt.want {
				t.Errorf("got %q, want %q", ids(got), tt.want)
			}
		})
	}
}

func TestMergeSortDoesNotMutateInput(t *testing.T) {
	in := []models.Transaction{dated("a", 1), dated("b", 2)}
	MergeSortByDateDesc(in)
	if ids(in) != "ab" {
		t.Errorf("input mutated: %q", ids(in))
	}
}
