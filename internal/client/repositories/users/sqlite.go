package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ideauth/internal/client/models"
	"github.com/dmitrijs2005/ideauth/internal/common"
	"github.com/dmitrijs2005/ideauth/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectUser = `
	SELECT user_id, username_cipher, username_nonce, email_cipher, email_nonce,
	       password, aes_key_cipher, aes_key_nonce, aes_salt,
	       preferences, keybindings, created_at
	FROM users`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*models.User, error) {
	var (
		u           models.User
		prefs, keys []byte
	)
	err := s.Scan(&u.UserID, &u.Username.Cipher, &u.Username.Nonce, &u.Email.Cipher, &u.Email.Nonce,
		&u.PasswordHash, &u.AESKeyEncrypted.Cipher, &u.AESKeyEncrypted.Nonce, &u.AESSalt,
		&prefs, &keys, &u.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(prefs, &u.Preferences); err != nil {
		return nil, fmt.Errorf("%w: preferences of %s: %v", common.ErrPersistence, u.UserID, err)
	}
	if err := json.Unmarshal(keys, &u.Keybindings); err != nil {
		return nil, fmt.Errorf("%w: keybindings of %s: %v", common.ErrPersistence, u.UserID, err)
	}
	return &u, nil
}

func encodeSettings(u *models.User) (prefs, keys []byte, err error) {
	if prefs, err = json.Marshal(u.Preferences); err != nil {
		return nil, nil, err
	}
	kb := u.Keybindings
	if kb == nil {
		kb = models.Keybindings{}
	}
	if keys, err = json.Marshal(kb); err != nil {
		return nil, nil, err
	}
	return prefs, keys, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, u *models.User) error {
	prefs, keys, err := encodeSettings(u)
	if err != nil {
		return fmt.Errorf("failed to encode user[%s]: %w", u.UserID, err)
	}

	err = dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO users (user_id, username_cipher, username_nonce, email_cipher, email_nonce,
			                   password, aes_key_cipher, aes_key_nonce, aes_salt,
			                   preferences, keybindings, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			u.UserID, u.Username.Cipher, u.Username.Nonce, u.Email.Cipher, u.Email.Nonce,
			u.PasswordHash, u.AESKeyEncrypted.Cipher, u.AESKeyEncrypted.Nonce, u.AESSalt,
			prefs, keys, u.CreatedAt.UTC())
		if err != nil {
			return err
		}
		return dbx.ExpectOneRow(res)
	})
	if err != nil {
		return fmt.Errorf("failed to create user[%s]: %w", u.UserID, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, selectUser+` ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	result := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		result = append(result, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, userID string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUser+` WHERE user_id = ?`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user[%s]: %w", userID, err)
	}
	return u, nil
}

func (r *SQLiteRepository) Update(ctx context.Context, u *models.User) error {
	prefs, keys, err := encodeSettings(u)
	if err != nil {
		return fmt.Errorf("failed to encode user[%s]: %w", u.UserID, err)
	}

	err = dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE users SET username_cipher = ?, username_nonce = ?, email_cipher = ?, email_nonce = ?,
			                 password = ?, aes_key_cipher = ?, aes_key_nonce = ?, aes_salt = ?,
			                 preferences = ?, keybindings = ?
			WHERE user_id = ?`,
			u.Username.Cipher, u.Username.Nonce, u.Email.Cipher, u.Email.Nonce,
			u.PasswordHash, u.AESKeyEncrypted.Cipher, u.AESKeyEncrypted.Nonce, u.AESSalt,
			prefs, keys, u.UserID)
		if err != nil {
			return err
		}
		if err := dbx.ExpectOneRow(res); errors.Is(err, dbx.ErrNoRowsAffected) {
			return common.ErrorNotFound
		} else if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update user[%s]: %w", u.UserID, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, userID string) error {
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE user_id = ?`, userID)
		if err != nil {
			return err
		}
		if err := dbx.ExpectOneRow(res); errors.Is(err, dbx.ErrNoRowsAffected) {
			return common.ErrorNotFound
		} else if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete user[%s]: %w", userID, err)
	}
	return nil
}
