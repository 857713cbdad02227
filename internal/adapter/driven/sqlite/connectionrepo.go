package sqlite

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ksuzuki/salesync/internal/domain/model"
	"github.com/ksuzuki/salesync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ConnectionStore = (*ConnectionRepo)(nil)

// ConnectionRepo is the SQLite implementation of the ConnectionStore port.
// Token bundles are stored as JSON and, when a key is configured, encrypted
// with AES-256-GCM before write and decrypted after read.
type ConnectionRepo struct {
	db  *DB
	key []byte // 32-byte AES-256 key; nil stores token bundles in plaintext.
}

// NewConnectionRepo creates a ConnectionRepo. key must be 32 bytes for
// AES-256-GCM, or nil to store token bundles unencrypted.
func NewConnectionRepo(db *DB, key []byte) *ConnectionRepo {
	return &ConnectionRepo{db: db, key: key}
}

// Get retrieves the connection for the given account.
// Returns nil, nil if no connection is stored.
func (r *ConnectionRepo) Get(ctx context.Context, userID string) (*model.Connection, error) {
	const query = `SELECT token_info, encrypted, updated_at FROM user_connections WHERE user_id = ?`

	var (
		tokenInfo string
		encrypted int
		updatedAt string
	)
	err := r.db.Reader.QueryRowContext(ctx, query, userID).Scan(&tokenInfo, &encrypted, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get connection %q: %w", userID, err)
	}

	if encrypted != 0 {
		tokenInfo, err = r.decrypt(tokenInfo)
		if err != nil {
			return nil, fmt.Errorf("decrypt connection %q: %w", userID, err)
		}
	}

	var conn model.Connection
	if err := json.Unmarshal([]byte(tokenInfo), &conn); err != nil {
		return nil, fmt.Errorf("decode connection %q: %w", userID, err)
	}

	if conn.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at for connection %q: %w", userID, err)
	}

	return &conn, nil
}

// Put stores or replaces the connection for the given account.
func (r *ConnectionRepo) Put(ctx context.Context, userID string, conn model.Connection) error {
	tokenInfo, err := json.Marshal(conn)
	if err != nil {
		return fmt.Errorf("encode connection %q: %w", userID, err)
	}

	stored := string(tokenInfo)
	encrypted := 0
	if r.key != nil {
		if stored, err = r.encrypt(stored); err != nil {
			return fmt.Errorf("encrypt connection %q: %w", userID, err)
		}
		encrypted = 1
	}

	const query = `
		INSERT INTO user_connections (user_id, token_info, encrypted, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			token_info = excluded.token_info,
			encrypted = excluded.encrypted,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := r.db.Writer.ExecContext(ctx, query, userID, stored, encrypted); err != nil {
		return fmt.Errorf("put connection %q: %w", userID, err)
	}

	return nil
}

// encrypt encrypts plaintext using AES-256-GCM and returns a base64-encoded
// string containing the nonce (12 bytes) prepended to the ciphertext.
func (r *ConnectionRepo) encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// decrypt decrypts a base64-encoded AES-256-GCM ciphertext.
func (r *ConnectionRepo) decrypt(encoded string) (string, error) {
	if r.key == nil {
		return "", errors.New("stored token is encrypted but no encryption key is configured")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}

	block, err := aes.NewCipher(r.key)
	if err != nil {
		return "", fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("cipher.NewGCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("gcm.Open: %w", err)
	}

	return string(plaintext), nil
}
