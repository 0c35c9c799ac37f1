package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/cartsync/internal/models"
	"github.com/iudanet/cartsync/internal/server/storage"
)

// CreateCart stores a new empty cart
func (s *Storage) CreateCart(ctx context.Context, cart *models.ServerCart) error {
	now := s.now().UTC()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	if cart.UpdatedAt.IsZero() {
		cart.UpdatedAt = cart.CreatedAt
	}

	query := `
		INSERT INTO carts (token, currency, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		cart.Token,
		cart.Currency,
		cart.CreatedAt.UnixNano(),
		cart.UpdatedAt.UnixNano(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: carts.token") {
			return storage.ErrCartAlreadyExists
		}
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

// GetCart retrieves the cart with its lines ordered by position
func (s *Storage) GetCart(ctx context.Context, token string) (*models.ServerCart, error) {
	cart := &models.ServerCart{Token: token}
	var created, updated int64

	err := s.db.QueryRowContext(ctx,
		`SELECT currency, created_at, updated_at FROM carts WHERE token = ?`, token,
	).Scan(&cart.Currency, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	cart.CreatedAt = time.Unix(0, created).UTC()
	cart.UpdatedAt = time.Unix(0, updated).UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT line_key, variant_id, title, quantity, price, properties, position
		FROM cart_lines
		WHERE cart_token = ?
		ORDER BY position
	`, token)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	cart.Lines = []models.ServerLine{}
	for rows.Next() {
		var (
			line  models.ServerLine
			props string
		)
		if err := rows.Scan(&line.Key, &line.VariantID, &line.Title, &line.Quantity,
			&line.Price, &props, &line.Position); err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		if line.Properties, err = decodeProperties(props); err != nil {
			return nil, err
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart lines: %w", err)
	}

	return cart, nil
}

// AddLine добавляет количество варианта. Строка с тем же вариантом и
// теми же свойствами объединяется, иначе добавляется новая в конец.
func (s *Storage) AddLine(ctx context.Context, token string, line *models.ServerLine) (*models.ServerLine, error) {
	props, err := encodeProperties(line.Properties)
	if err != nil {
		return nil, err
	}

	var result *models.ServerLine
	err = s.withTx(ctx, token, func(tx *sql.Tx) error {
		existing := models.ServerLine{Properties: line.Properties}
		err := tx.QueryRowContext(ctx, `
			SELECT line_key, variant_id, title, quantity, price, position
			FROM cart_lines
			WHERE cart_token = ? AND variant_id = ? AND properties = ?
		`, token, line.VariantID, props).Scan(&existing.Key, &existing.VariantID,
			&existing.Title, &existing.Quantity, &existing.Price, &existing.Position)

		switch {
		case err == nil:
			existing.Quantity += line.Quantity
			if line.Title != "" {
				existing.Title = line.Title
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE cart_lines SET quantity = ?, title = ? WHERE cart_token = ? AND line_key = ?`,
				existing.Quantity, existing.Title, token, existing.Key,
			); err != nil {
				return fmt.Errorf("failed to merge cart line: %w", err)
			}
			result = &existing
			return nil

		case errors.Is(err, sql.ErrNoRows):
			created := *line
			created.Key = line.VariantID + ":" + uuid.NewString()[:8]
			if err := tx.QueryRowContext(ctx,
				`SELECT COALESCE(MAX(position) + 1, 0) FROM cart_lines WHERE cart_token = ?`, token,
			).Scan(&created.Position); err != nil {
				return fmt.Errorf("failed to get next position: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO cart_lines (cart_token, line_key, variant_id, title, quantity, price, properties, position)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, token, created.Key, created.VariantID, created.Title, created.Quantity,
				created.Price, props, created.Position); err != nil {
				return fmt.Errorf("failed to insert cart line: %w", err)
			}
			result = &created
			return nil

		default:
			return fmt.Errorf("failed to find cart line: %w", err)
		}
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ChangeLine задает количество строки по ключу или, если ключ не найден,
// по идентификатору варианта. Количество 0 удаляет строку.
func (s *Storage) ChangeLine(ctx context.Context, token, id string, quantity int) error {
	return s.withTx(ctx, token, func(tx *sql.Tx) error {
		key := id
		var found string
		err := tx.QueryRowContext(ctx,
			`SELECT line_key FROM cart_lines WHERE cart_token = ? AND line_key = ?`, token, id,
		).Scan(&found)
		if errors.Is(err, sql.ErrNoRows) {
			err = tx.QueryRowContext(ctx, `
				SELECT line_key FROM cart_lines
				WHERE cart_token = ? AND variant_id = ?
				ORDER BY position LIMIT 1
			`, token, id).Scan(&key)
		}
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return storage.ErrLineNotFound
			}
			return fmt.Errorf("failed to find cart line: %w", err)
		}

		if quantity <= 0 {
			_, err = tx.ExecContext(ctx,
				`DELETE FROM cart_lines WHERE cart_token = ? AND line_key = ?`, token, key)
		} else {
			_, err = tx.ExecContext(ctx,
				`UPDATE cart_lines SET quantity = ? WHERE cart_token = ? AND line_key = ?`,
				quantity, token, key)
		}
		if err != nil {
			return fmt.Errorf("failed to change cart line: %w", err)
		}
		return nil
	})
}

// ClearCart removes every line of the cart
func (s *Storage) ClearCart(ctx context.Context, token string) error {
	return s.withTx(ctx, token, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cart_lines WHERE cart_token = ?`, token); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
}

// DeleteStaleCarts removes carts not updated since before.
// Строки удаляются каскадно.
func (s *Storage) DeleteStaleCarts(ctx context.Context, before time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM carts WHERE updated_at < ?`, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale carts: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}

// withTx выполняет fn в транзакции и обновляет updated_at корзины.
// Возвращает ErrCartNotFound, если корзины нет.
func (s *Storage) withTx(ctx context.Context, token string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`UPDATE carts SET updated_at = ? WHERE token = ?`, s.now().UTC().UnixNano(), token)
	if err != nil {
		return fmt.Errorf("failed to touch cart: %w", err)
	}
	if n, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	} else if n == 0 {
		return storage.ErrCartNotFound
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// encodeProperties сериализует свойства в канонический JSON: ключи
// отсортированы, пустой набор хранится как {}
func encodeProperties(props map[string]string) (string, error) {
	if len(props) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("failed to encode properties: %w", err)
	}
	return string(data), nil
}

func decodeProperties(data string) (map[string]string, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var props map[string]string
	if err := json.Unmarshal([]byte(data), &props); err != nil {
		return nil, fmt.Errorf("failed to decode properties: %w", err)
	}
	return props, nil
}
