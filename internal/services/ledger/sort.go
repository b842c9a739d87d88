package ledger

import "khazana/internal/models"

// MergeSortByDateDesc returns a copy of txns ordered most recent date first.
// The sort is stable: transactions sharing a date keep their relative order.
func MergeSortByDateDesc(txns []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, len(txns))
	copy(out, txns)
	return mergeSort(out)
}

func mergeSort(txns []models.Transaction) []models.Transaction {
	if len(txns) <= 1 {
		return txns
	}
	mid := len(txns) / 2
	left := mergeSort(txns[:mid])
	right := mergeSort(txns[mid:])
	return merge(left, right)
}

func merge(left, right []models.Transaction) []models.Transaction {
	result := make([]models.Transaction, 0, len(left)+len(right))
	i, j := 0, 0
	for i < len(left) && j < len(right) {
		// ties take from the left half
		if !left[i].Date.Before(right[j].Date) {
			result = append(result, left[i])
			i++
		} else {
			result = append(result, right[j])
			j++
		}
	}
	result = append(result, left[i:]...)
	return append(result, right[j:]...)
}
