package booking_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/revstay/internal/apperr"
	"github.com/MrJamesThe3rd/revstay/internal/booking"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    booking.Status
		wantErr bool
	}{
		{in: "PENDING", want: booking.StatusPending},
		{in: "confirmed", want: booking.StatusConfirmed},
		{in: " Cancelled ", want: booking.StatusCancelled},
		{in: "COMPLETED", want: booking.StatusCompleted},
		{in: "REJECTED", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := booking.ParseStatus(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, apperr.ErrInvalidArgument)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatus_CanTransitionTo(t *testing.T) {
	all := []booking.Status{booking.StatusPending, booking.StatusConfirmed, booking.StatusCancelled, booking.StatusCompleted}

	allowed := map[[2]booking.Status]bool{
		{booking.StatusPending, booking.StatusConfirmed}:   true,
		{booking.StatusPending, booking.StatusCancelled}:   true,
		{booking.StatusConfirmed, booking.StatusCompleted}: true,
		{booking.StatusConfirmed, booking.StatusCancelled}: true,
	}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]booking.Status{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	assert.True(t, booking.StatusCancelled.Terminal())
	assert.True(t, booking.StatusCompleted.Terminal())
	assert.False(t, booking.StatusPending.Terminal())
	assert.False(t, booking.StatusConfirmed.Terminal())
}

func TestStatus_Active(t *testing.T) {
	assert.True(t, booking.StatusPending.Active())
	assert.True(t, booking.StatusConfirmed.Active())
	assert.False(t, booking.StatusCancelled.Active())
	assert.False(t, booking.StatusCompleted.Active())
}

func TestStatus_Next(t *testing.T) {
	assert.Equal(t, []booking.Status{booking.StatusConfirmed, booking.StatusCancelled}, booking.StatusPending.Next())
	assert.Equal(t, []booking.Status{booking.StatusCompleted, booking.StatusCancelled}, booking.StatusConfirmed.Next())
	assert.Empty(t, booking.StatusCancelled.Next())
	assert.Empty(t, booking.StatusCompleted.Next())

	next := booking.StatusPending.Next()
	next[0] = booking.StatusCompleted
	assert.False(t, booking.StatusPending.CanTransitionTo(booking.StatusCompleted))
}
