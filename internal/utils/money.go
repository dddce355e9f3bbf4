package utils

import (
	"fmt"
	"strings"
)

// Semua nominal di ledger adalah paise (int64). Konversi ke rupee hanya
// terjadi di boundary presentasi.

// CalculatePlatformFee returns the platform's cut of amount, rounded
// half-up: round(amount * feePercent / 100).
func CalculatePlatformFee(amount int64, feePercent int) int64 {
	if amount <= 0 || feePercent <= 0 {
		return 0
	}
	return (amount*int64(feePercent) + 50) / 100
}

// EstimateGatewayFee approximates the payment gateway's charge fee
// (2.9% + ₹3). Display only; never posted to the ledger.
func EstimateGatewayFee(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	return (amount*29+500)/1000 + 300
}

// RupeesToPaise converts a major-unit amount to paise.
func RupeesToPaise(rupees float64) int64 {
	if rupees >= 0 {
		return int64(rupees*100 + 0.5)
	}
	return int64(rupees*100 - 0.5)
}

// FormatCurrency renders paise as whole rupees with Indian digit grouping,
// e.g. 123456700 -> "₹12,34,567".
func FormatCurrency(paise int64) string {
	rupees := paise / 100
	if paise%100 >= 50 {
		rupees++
	}

	neg := rupees < 0
	if neg {
		rupees = -rupees
	}

	s := fmt.Sprintf("%d", rupees)
	if len(s) > 3 {
		head := s[:len(s)-3]
		tail := s[len(s)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		s = strings.Join(groups, ",") + "," + tail
	}

	if neg {
		return "-₹" + s
	}
	return "₹" + s
}
