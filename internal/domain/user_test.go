package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "alice", NormalizeID("  Alice "))
	assert.Equal(t, "a@x.com", NormalizeID("A@X.com"))
	assert.Equal(t, "", NormalizeID("   "))
}

func TestNewMetaInfo(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mi := NewMetaInfo(now)
	assert.Equal(t, now, mi.LastLogin)
	assert.Equal(t, now, mi.SynchronizationDate)
}

func TestErrorKinds(t *testing.T) {
	assert.True(t, errors.Is(ErrIdentityConflict, ErrUserSynchronization))
	assert.True(t, errors.Is(ErrEmailAlreadyExists, ErrUserSynchronization))
	assert.True(t, errors.Is(ErrUserNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrIdentityConflict, ErrEmailAlreadyExists))
	assert.False(t, errors.Is(ErrEmailResolutionFailed, ErrUserSynchronization))
}
