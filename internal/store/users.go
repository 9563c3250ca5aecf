package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront-service/internal/checkout"
	"storefront-service/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// FindByContact resolves a shopper identity by contact handle.
// Returns checkout.ErrIdentityNotFound when no account matches.
func (s *Store) FindByContact(ctx context.Context, contact string) (*models.Identity, error) {
	var identity models.Identity
	err := s.db.GetContext(ctx, &identity,
		"SELECT id, name, contact FROM users WHERE contact = $1", contact)
	if err == sql.ErrNoRows {
		return nil, checkout.ErrIdentityNotFound
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

// GetUserByID retrieves a shopper identity by id
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.Identity, error) {
	var identity models.Identity
	err := s.db.GetContext(ctx, &identity,
		"SELECT id, name, contact FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

// CreateAccount creates a new shopper account with a bcrypt-hashed credential
func (s *Store) CreateAccount(ctx context.Context, profile checkout.Profile) (*models.Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(profile.Secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash credential: %w", err)
	}

	identity := &models.Identity{Name: profile.Name, Contact: profile.Contact}
	err = s.db.GetContext(ctx, &identity.ID, `
		INSERT INTO users (name, contact, credential_hash)
		VALUES ($1, $2, $3)
		RETURNING id`,
		profile.Name, profile.Contact, string(hash))
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return identity, nil
}

// VerifyCredential checks a supplied secret against the stored hash
func (s *Store) VerifyCredential(ctx context.Context, identity *models.Identity, secret string) (bool, error) {
	var hash string
	err := s.db.GetContext(ctx, &hash,
		"SELECT credential_hash FROM users WHERE id = $1", identity.ID)
	if err == sql.ErrNoRows {
		return false, checkout.ErrIdentityNotFound
	}
	if err != nil {
		return false, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return false, nil
	}
	return true, nil
}
