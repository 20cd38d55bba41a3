package settings

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"f1lapcompare/pkg/log"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	_ "github.com/mattn/go-sqlite3"
)

const (
	DbName = "./f1lapcompare.db"

	Practice = "Practice"
	Qual     = "Qual"
	Race     = "Race"
)

// Categories are the session groups a user can subscribe to, matching
// model.SessionType.Category.
var Categories = []string{Practice, Qual, Race}

type TelegramUser struct {
	ID     string
	Name   string
	ChatID int64
}

// Notifications tells which categories a user is subscribed to.
type Notifications map[string]bool

func AllEnabled() Notifications {
	return Notifications{
		Practice: true,
		Qual:     true,
		Race:     true,
	}
}

func AllDisabled() Notifications {
	return Notifications{
		Practice: false,
		Qual:     false,
		Race:     false,
	}
}

func (n Notifications) String() string {
	status := []string{}
	for _, c := range Categories {
		status = append(status, fmt.Sprintf("%s Comparisons of %q sessions", symbolStatus(n[c]), c))
	}
	return strings.Join(status, "\n")
}

func symbolStatus(enabled bool) string {
	if enabled {
		return "🔔"
	}
	return "🔕"
}

func enabledInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ParseCategory accepts a category name in any case.
func ParseCategory(s string) (string, bool) {
	for _, c := range Categories {
		if strings.EqualFold(c, strings.TrimSpace(s)) {
			return c, true
		}
	}
	return "", false
}

// Manager stores the subscriptions of the bot users in sqlite.
type Manager struct {
	db *sql.DB
	mu sync.Mutex
}

func NewManager(dbPath string) (*Manager, error) {
	l := log.Named("settings")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		l.Error("error opening database", zap.String("db", dbPath), zap.Error(err))
		return nil, err
	}

	if _, err := db.Exec(createSubscriptionsTable); err != nil {
		l.Error("error init database", zap.String("db", dbPath), zap.Error(err))
		_ = db.Close()
		return nil, err
	}

	return &Manager{
		db: db,
		mu: sync.Mutex{},
	}, nil
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.db.Close()
}

// Toggle flips the subscription of a user to a category and returns the
// resulting state.
func (m *Manager) Toggle(user TelegramUser, category string) (Notifications, error) {
	c, ok := ParseCategory(category)
	if !ok {
		return nil, errors.Errorf("unknown category %q", category)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.listNotifications(user.ID)
	if err != nil {
		return n, err
	}
	n[c] = !n[c]
	if _, err := m.db.Exec(upsertUser,
		user.ID, user.Name, user.ChatID,
		enabledInt(n[Practice]), enabledInt(n[Qual]), enabledInt(n[Race])); err != nil {
		log.Named("settings").Error("error updating database", zap.String("user", user.ID), zap.Error(err))
		return n, err
	}
	return n, nil
}

func (m *Manager) ListNotifications(userID string) (Notifications, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.listNotifications(userID)
}

// ListSubscribers returns the users subscribed to a category.
func (m *Manager) ListSubscribers(category string) ([]TelegramUser, error) {
	query, ok := selectSubscribers[category]
	if !ok {
		return nil, errors.Errorf("unknown category %q", category)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rows, err := m.db.Query(query)
	if err != nil {
		return nil, err
	}
	return readUsers(rows)
}

func (m *Manager) listNotifications(userID string) (Notifications, error) {
	rows, err := m.db.Query(selectUser, userID)
	if err != nil {
		return AllDisabled(), err
	}
	return readNotifications(rows)
}
