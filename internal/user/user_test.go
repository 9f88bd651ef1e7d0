package user_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/revstay/internal/apperr"
	"github.com/MrJamesThe3rd/revstay/internal/user"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    user.Role
		wantErr bool
	}{
		{in: "BUYER", want: user.RoleBuyer},
		{in: "seller", want: user.RoleSeller},
		{in: " Admin ", want: user.RoleAdmin},
		{in: "owner", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := user.ParseRole(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
