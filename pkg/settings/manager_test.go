package settings

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestToggle(t *testing.T) {
	m := newManager(t)
	alice := TelegramUser{ID: "1", Name: "alice", ChatID: 100}

	n, err := m.ListNotifications(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, AllDisabled(), n)

	n, err = m.Toggle(alice, "race")
	require.NoError(t, err)
	assert.True(t, n[Race])
	assert.False(t, n[Qual])

	n, err = m.Toggle(alice, Qual)
	require.NoError(t, err)
	assert.Equal(t, Notifications{Practice: false, Qual: true, Race: true}, n)

	n, err = m.Toggle(alice, Race)
	require.NoError(t, err)
	assert.False(t, n[Race])

	stored, err := m.ListNotifications(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, n, stored)

	_, err = m.Toggle(alice, "warmup")
	assert.Error(t, err)
}

func TestListSubscribers(t *testing.T) {
	m := newManager(t)
	alice := TelegramUser{ID: "1", Name: "alice", ChatID: 100}
	bob := TelegramUser{ID: "2", Name: "o'brien", ChatID: -200}

	_, err := m.Toggle(alice, Race)
	require.NoError(t, err)
	_, err = m.Toggle(bob, Race)
	require.NoError(t, err)
	_, err = m.Toggle(bob, Practice)
	require.NoError(t, err)

	users, err := m.ListSubscribers(Race)
	require.NoError(t, err)
	assert.Equal(t, []TelegramUser{alice, bob}, users)

	users, err = m.ListSubscribers(Practice)
	require.NoError(t, err)
	assert.Equal(t, []TelegramUser{bob}, users)

	users, err = m.ListSubscribers(Qual)
	require.NoError(t, err)
	assert.Empty(t, users)

	_, err = m.ListSubscribers("race; DROP TABLE subscriptions")
	assert.Error(t, err)
}

func TestNotificationsString(t *testing.T) {
	s := Notifications{Race: true}.String()
	assert.Contains(t, s, `🔔 Comparisons of "Race" sessions`)
	assert.Contains(t, s, `🔕 Comparisons of "Qual" sessions`)
}
