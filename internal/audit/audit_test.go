package audit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/revstay/internal/audit"
)

func TestMetadata_Touch(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	m := audit.New("alice", created)
	assert.Nil(t, m.LastModifiedAt)

	modified := created.Add(time.Hour)
	m.Touch("bob", modified)

	assert.Equal(t, "alice", m.CreatedBy)
	assert.Equal(t, created, m.CreatedAt)
	assert.Equal(t, "bob", m.LastModifiedBy)
	require.NotNil(t, m.LastModifiedAt)
	assert.Equal(t, modified, *m.LastModifiedAt)
}
