package settings

import (
	"database/sql"
)

const (
	createSubscriptionsTable = `CREATE TABLE IF NOT EXISTS subscriptions (
		userid TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		chatid INTEGER NOT NULL,
		practice INTEGER,
		qual INTEGER,
		race INTEGER);`

	selectUser = `SELECT practice, qual, race FROM subscriptions WHERE userid = ?`

	upsertUser = `INSERT OR REPLACE INTO subscriptions (userid, name, chatid, practice, qual, race) VALUES (?, ?, ?, ?, ?, ?)`
)

// column names cannot be bound, one statement per category
var selectSubscribers = map[string]string{
	Practice: `SELECT userid, name, chatid FROM subscriptions WHERE practice = 1 ORDER BY userid`,
	Qual:     `SELECT userid, name, chatid FROM subscriptions WHERE qual = 1 ORDER BY userid`,
	Race:     `SELECT userid, name, chatid FROM subscriptions WHERE race = 1 ORDER BY userid`,
}

func readNotifications(rows *sql.Rows) (Notifications, error) {
	defer rows.Close()

	n := AllDisabled()
	// only can be one row
	if rows.Next() {
		var practice, qual, race int
		if err := rows.Scan(&practice, &qual, &race); err != nil {
			return n, err
		}
		n[Practice] = practice == 1
		n[Qual] = qual == 1
		n[Race] = race == 1
		return n, nil
	}
	return n, rows.Err()
}

func readUsers(rows *sql.Rows) ([]TelegramUser, error) {
	defer rows.Close()

	users := make([]TelegramUser, 0)
	for rows.Next() {
		var u TelegramUser
		if err := rows.Scan(&u.ID, &u.Name, &u.ChatID); err != nil {
			return users, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
