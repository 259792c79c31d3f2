package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to InvoiceStatus
		allowed  bool
	}{
		{InvoiceStatusPending, InvoiceStatusPaid, true},
		{InvoiceStatusPending, InvoiceStatusCancelled, true},
		{InvoiceStatusPending, InvoiceStatusOverdue, true},
		{InvoiceStatusOverdue, InvoiceStatusPaid, true},
		{InvoiceStatusOverdue, InvoiceStatusCancelled, true},
		{InvoiceStatusOverdue, InvoiceStatusPending, false},
		{InvoiceStatusPaid, InvoiceStatusCancelled, false},
		{InvoiceStatusCancelled, InvoiceStatusPaid, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.allowed, c.from.CanTransitionTo(c.to),
			"%s -> %s", c.from, c.to)
	}
}

func TestInvoicePastDue(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, Invoice{Status: InvoiceStatusPending, DueDate: &past}.PastDue(now))
	assert.False(t, Invoice{Status: InvoiceStatusPending, DueDate: &future}.PastDue(now))
	assert.False(t, Invoice{Status: InvoiceStatusPaid, DueDate: &past}.PastDue(now))
	assert.False(t, Invoice{Status: InvoiceStatusPending}.PastDue(now), "no due date, never past due")
}

func TestParseInvoiceStatus(t *testing.T) {
	s, err := ParseInvoiceStatus("OVERDUE")
	assert.NoError(t, err)
	assert.Equal(t, InvoiceStatusOverdue, s)

	_, err = ParseInvoiceStatus("shredded")
	assert.Error(t, err)
}
