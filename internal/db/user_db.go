package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dreamiestore/dreamie-api/internal/models"
)

// ErrUnknownList возвращается при попытке изменить несуществующий список профиля
var ErrUnknownList = errors.New("недопустимый список профиля")

// GetUserByID возвращает полный профиль пользователя
func GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := Pool.QueryRow(ctx, `
		SELECT id, user_number, username, owned, favourites, wishlist,
		       last_seen_at, trade_restricted, banned, created_at, updated_at
		FROM ac_users
		WHERE id = $1
	`, userID).Scan(
		&user.ID,
		&user.UserNumber,
		&user.Username,
		&user.Owned,
		&user.Favourites,
		&user.Wishlist,
		&user.LastSeenAt,
		&user.TradeRestricted,
		&user.Banned,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя %s: %w", userID, err)
	}

	return &user, nil
}

// GetUserInfo возвращает базовую информацию о пользователе для API
func GetUserInfo(ctx context.Context, userID uuid.UUID) *models.UserInfo {
	var info models.UserInfo
	err := Pool.QueryRow(ctx, `
		SELECT id, user_number, username
		FROM ac_users
		WHERE id = $1
	`, userID).Scan(&info.ID, &info.UserNumber, &info.Username)
	if err != nil {
		return nil
	}

	return &info
}

// UpdateLastSeen обновляет отметку активности пользователя.
// Вызывается heartbeat-ом клиента и при каждом нажатии клавиши в чате:
// от этой отметки считаются и "онлайн", и "печатает".
func UpdateLastSeen(ctx context.Context, userID uuid.UUID) error {
	_, err := Pool.Exec(ctx, `
		UPDATE ac_users SET last_seen_at = NOW() WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("ошибка обновления last_seen_at: %w", err)
	}
	return nil
}

// GetLastSeen возвращает отметку активности пользователя
func GetLastSeen(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	var lastSeen *time.Time
	err := Pool.QueryRow(ctx, `
		SELECT last_seen_at FROM ac_users WHERE id = $1
	`, userID).Scan(&lastSeen)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения last_seen_at: %w", err)
	}
	return lastSeen, nil
}

// ToggleListItem добавляет или убирает жителя в одном из списков профиля.
// column ограничен вызывающим кодом значениями owned/favourites/wishlist.
func ToggleListItem(ctx context.Context, userID uuid.UUID, column, villager string) (bool, error) {
	switch column {
	case "owned", "favourites", "wishlist":
	default:
		return false, ErrUnknownList
	}

	// Одна условная запись: либо убираем элемент, либо добавляем его
	var added bool
	query := fmt.Sprintf(`
		UPDATE ac_users
		SET %[1]s = CASE
			WHEN %[1]s @> ARRAY[$2]::text[] THEN array_remove(%[1]s, $2)
			ELSE array_append(%[1]s, $2)
		END,
		updated_at = NOW()
		WHERE id = $1
		RETURNING %[1]s @> ARRAY[$2]::text[]
	`, column)

	err := Pool.QueryRow(ctx, query, userID, villager).Scan(&added)
	if err != nil {
		return false, fmt.Errorf("ошибка обновления списка %s: %w", column, err)
	}

	return added, nil
}

// ListUsers возвращает всех пользователей для панели модератора
func ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := Pool.Query(ctx, `
		SELECT id, user_number, username, owned, favourites, wishlist,
		       last_seen_at, trade_restricted, banned, created_at, updated_at
		FROM ac_users
		ORDER BY user_number ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса пользователей: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(
			&u.ID, &u.UserNumber, &u.Username, &u.Owned, &u.Favourites, &u.Wishlist,
			&u.LastSeenAt, &u.TradeRestricted, &u.Banned, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}

// LeaderboardEntry представляет строку таблицы лидеров
type LeaderboardEntry struct {
	UserID     uuid.UUID `json:"user_id"`
	UserNumber int       `json:"user_number"`
	Username   string    `json:"username,omitempty"`
	Count      int       `json:"count"`
}

// TopTraders возвращает пользователей с наибольшим числом завершённых обменов
func TopTraders(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	rows, err := Pool.Query(ctx, `
		SELECT u.id, u.user_number, u.username, COUNT(t.id) AS cnt
		FROM ac_users u
		JOIN trade_requests t ON t.acceptor_id = u.id AND t.status = 'completed'
		GROUP BY u.id
		ORDER BY cnt DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса таблицы лидеров: %w", err)
	}
	defer rows.Close()

	return scanLeaderboard(rows)
}

// TopVerifiedOwners возвращает пользователей с наибольшим числом подтверждённых жителей.
// Подтверждённым считается житель, полученный через завершённый обмен.
func TopVerifiedOwners(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	rows, err := Pool.Query(ctx, `
		SELECT u.id, u.user_number, u.username, COUNT(DISTINCT t.villager_name) AS cnt
		FROM ac_users u
		JOIN trade_requests t ON t.requester_id = u.id AND t.status = 'completed'
		GROUP BY u.id
		ORDER BY cnt DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса таблицы лидеров: %w", err)
	}
	defer rows.Close()

	return scanLeaderboard(rows)
}

func scanLeaderboard(rows pgx.Rows) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.UserNumber, &e.Username, &e.Count); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки таблицы лидеров: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
