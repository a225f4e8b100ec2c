package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatOrderNumber(t *testing.T) {
	day := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

	assert.Equal(t, "#20250115-001", FormatOrderNumber(day, 1))
	assert.Equal(t, "#20250115-042", FormatOrderNumber(day, 42))
	assert.Equal(t, "#20250115-999", FormatOrderNumber(day, 999))

	// 999を超えたら桁が広がるだけで巻き戻らない
	assert.Equal(t, "#20250115-1000", FormatOrderNumber(day, 1000))
}

func TestOrderStatus_Valid(t *testing.T) {
	assert.True(t, OrderStatusReceived.Valid())
	assert.True(t, OrderStatusConfirmed.Valid())
	assert.True(t, OrderStatusShipped.Valid())
	assert.False(t, OrderStatus("Cancelled").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{OrderStatusReceived, OrderStatusConfirmed, true},
		{OrderStatusConfirmed, OrderStatusShipped, true},
		{OrderStatusReceived, OrderStatusShipped, false},
		{OrderStatusConfirmed, OrderStatusReceived, false},
		{OrderStatusShipped, OrderStatusConfirmed, false},
		{OrderStatusShipped, OrderStatusReceived, false},
		{OrderStatusReceived, OrderStatusReceived, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestJobStatus_Terminal(t *testing.T) {
	assert.False(t, JobStatusPending.Terminal())
	assert.False(t, JobStatusRunning.Terminal())
	assert.True(t, JobStatusSuccess.Terminal())
	assert.True(t, JobStatusFailed.Terminal())
}

func TestUser_DisplayName(t *testing.T) {
	// 法人は会社名を優先
	legal := User{Username: "acme", UserType: UserTypeLegal, CompanyName: "OOO Acme", FIO: "Петров"}
	assert.Equal(t, "OOO Acme", legal.DisplayName())

	individual := User{Username: "ivan", UserType: UserTypeIndividual, FIO: "Иванов Иван"}
	assert.Equal(t, "Иванов Иван", individual.DisplayName())

	bare := User{Username: "ivan"}
	assert.Equal(t, "ivan", bare.DisplayName())
}
