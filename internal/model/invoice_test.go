package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeAmounts_LineMath(t *testing.T) {
	cases := []struct {
		name        string
		qty         int
		unitPrice   string
		discountPct string
		taxRate     string
		net         string
		tax         string
		gross       string
	}{
		{"no discount no tax", 5, "10.00", "0", "0", "50", "0", "50"},
		{"tax only", 2, "12.50", "0", "21", "25", "5.25", "30.25"},
		{"discount and tax", 3, "10.00", "10", "21", "27", "5.67", "32.67"},
		{"full discount", 4, "9.99", "100", "21", "0", "0", "0"},
		{"rounding", 3, "0.10", "0", "21", "0.3", "0.06", "0.36"},
		{"negative qty credits", -2, "12.50", "0", "21", "-25", "-5.25", "-30.25"},
	}

	for _, tc := range cases {
		line := InvoiceProduct{
			Quantity:    tc.qty,
			UnitPrice:   dec(tc.unitPrice),
			DiscountPct: dec(tc.discountPct),
			TaxRate:     dec(tc.taxRate),
		}
		line.ComputeAmounts()

		if !line.NetAmount.Equal(dec(tc.net)) {
			t.Errorf("%s: net expected %s, got %s", tc.name, tc.net, line.NetAmount)
		}
		if !line.TaxAmount.Equal(dec(tc.tax)) {
			t.Errorf("%s: tax expected %s, got %s", tc.name, tc.tax, line.TaxAmount)
		}
		if !line.GrossAmount.Equal(dec(tc.gross)) {
			t.Errorf("%s: gross expected %s, got %s", tc.name, tc.gross, line.GrossAmount)
		}
	}
}

func TestRecalculateTotals(t *testing.T) {
	inv := Invoice{
		ShippingCost:   dec("5.00"),
		DiscountAmount: dec("2.00"),
	}
	lines := []InvoiceProduct{
		{Quantity: 2, UnitPrice: dec("12.50"), TaxRate: dec("21")},
		{Quantity: 1, UnitPrice: dec("8.00"), DiscountPct: dec("25"), TaxRate: dec("10")},
	}
	for i := range lines {
		lines[i].ComputeAmounts()
	}
	inv.Lines = lines
	inv.RecalculateTotals()

	// Line 1: net 25.00, tax 5.25. Line 2: net 6.00, tax 0.60.
	if !inv.SubTotal.Equal(dec("31.00")) {
		t.Errorf("sub_total expected 31.00, got %s", inv.SubTotal)
	}
	if !inv.TaxAmount.Equal(dec("5.85")) {
		t.Errorf("tax_amount expected 5.85, got %s", inv.TaxAmount)
	}
	// 31.00 + 5.85 + 5.00 - 2.00
	if !inv.Total.Equal(dec("39.85")) {
		t.Errorf("total expected 39.85, got %s", inv.Total)
	}
}

func TestRecalculateTotals_AdjustmentLineReducesTotal(t *testing.T) {
	inv := Invoice{}
	regular := InvoiceProduct{Quantity: 4, UnitPrice: dec("10.00"), TaxRate: dec("21")}
	regular.ComputeAmounts()
	credit := InvoiceProduct{Quantity: -1, UnitPrice: dec("10.00"), TaxRate: dec("21"), IsAdjustment: true}
	credit.ComputeAmounts()

	inv.Lines = []InvoiceProduct{regular, credit}
	inv.RecalculateTotals()

	if !inv.SubTotal.Equal(dec("30.00")) {
		t.Errorf("sub_total expected 30.00, got %s", inv.SubTotal)
	}
	if !inv.Total.Equal(dec("36.30")) {
		t.Errorf("total expected 36.30, got %s", inv.Total)
	}
}

func TestStatusForPayment(t *testing.T) {
	total := dec("100.00")
	cases := []struct {
		paid     string
		expected InvoiceStatus
	}{
		{"0", InvoiceIssued},
		{"-5", InvoiceIssued},
		{"0.01", InvoicePartiallyPaid},
		{"99.99", InvoicePartiallyPaid},
		{"100.00", InvoicePaid},
		{"120.00", InvoicePaid},
	}
	for _, tc := range cases {
		if got := StatusForPayment(dec(tc.paid), total); got != tc.expected {
			t.Errorf("StatusForPayment(%s, 100.00) expected %s, got %s", tc.paid, tc.expected, got)
		}
	}
}

func TestConfirmedPaymentSum_SkipsUnconfirmed(t *testing.T) {
	payments := []Payment{
		{Amount: dec("10.00"), IsConfirmed: true},
		{Amount: dec("5.00"), IsConfirmed: false},
		{Amount: dec("2.50"), IsConfirmed: true},
	}
	if got := ConfirmedPaymentSum(payments); !got.Equal(dec("12.50")) {
		t.Errorf("expected 12.50, got %s", got)
	}
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 1)

	cases := []struct {
		status   InvoiceStatus
		due      time.Time
		expected bool
	}{
		{InvoiceIssued, past, true},
		{InvoicePartiallyPaid, past, true},
		{InvoiceIssued, future, false},
		{InvoiceDraft, past, false},
		{InvoicePaid, past, false},
		{InvoiceCancelled, past, false},
	}
	for _, tc := range cases {
		inv := Invoice{Status: tc.status, DueDate: tc.due}
		if got := inv.IsOverdue(now); got != tc.expected {
			t.Errorf("IsOverdue(%s, due %s) expected %v, got %v", tc.status, tc.due, tc.expected, got)
		}
	}
}

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from    InvoiceStatus
		to      InvoiceStatus
		allowed bool
	}{
		{InvoiceDraft, InvoiceIssued, true},
		{InvoiceDraft, InvoiceCancelled, true},
		{InvoiceDraft, InvoicePaid, false},
		{InvoiceIssued, InvoicePartiallyPaid, true},
		{InvoiceIssued, InvoicePaid, true},
		{InvoiceIssued, InvoiceCancelled, true},
		{InvoiceIssued, InvoiceIssued, false},
		{InvoicePartiallyPaid, InvoicePaid, true},
		{InvoicePartiallyPaid, InvoiceCancelled, false},
		{InvoicePaid, InvoiceCancelled, false},
		{InvoicePaid, InvoiceIssued, false},
		{InvoiceCancelled, InvoiceIssued, false},
	}
	for _, tc := range cases {
		inv := Invoice{Status: tc.from}
		if got := inv.CanTransitionTo(tc.to); got != tc.allowed {
			t.Errorf("%s -> %s expected %v, got %v", tc.from, tc.to, tc.allowed, got)
		}
	}
}

func TestFormatInvoiceNumber(t *testing.T) {
	cases := []struct {
		prefix   string
		value    int64
		expected string
	}{
		{"INV", 1, "INV-000001"},
		{"INV", 42, "INV-000042"},
		{"FA", 1234567, "FA-1234567"},
	}
	for _, tc := range cases {
		if got := FormatInvoiceNumber(tc.prefix, tc.value); got != tc.expected {
			t.Errorf("FormatInvoiceNumber(%s, %d) expected %s, got %s", tc.prefix, tc.value, tc.expected, got)
		}
	}
}
