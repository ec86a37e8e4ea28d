package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func marshalProperties(properties Properties) (string, error) {
	if properties == nil {
		properties = Properties{}
	}
	encoded, err := json.Marshal(properties)
	if err != nil {
		return "", fmt.Errorf("marshal properties: %w", err)
	}
	return string(encoded), nil
}

func unmarshalProperties(raw []byte) Properties {
	properties := Properties{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &properties)
	}
	return properties
}

// ---- users ----

func (s *PostgresStore) CreateUser(ctx context.Context, user User) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (display_name, email, password_hash, is_email_verified, verification_token)
		VALUES ($1, LOWER($2), $3, $4, $5)
		RETURNING id
	`, user.DisplayName, user.Email, user.PasswordHash, user.IsEmailVerified, user.VerificationToken).Scan(&userID)
	if err != nil {
		return "", fmt.Errorf("insert user: %w", err)
	}
	return userID, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, is_email_verified
		FROM users
		WHERE email = LOWER($1)
	`, email).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.IsEmailVerified)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, email, password_hash, is_email_verified
		FROM users
		WHERE id=$1
	`, userID).Scan(&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.IsEmailVerified)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) UpdateUserVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET verification_token=$2, verification_expires_at=$3, updated_at=NOW()
		WHERE id=$1
	`, userID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("set verification token: %w", err)
	}
	return nil
}

func (s *PostgresStore) VerifyUserEmail(ctx context.Context, token string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET is_email_verified=TRUE, verification_token='', verification_expires_at=NULL, updated_at=NOW()
		WHERE verification_token=$1 AND verification_token <> '' AND verification_expires_at > NOW()
	`, token)
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("verify email rows: %w", err)
	}
	if affected == 0 {
		return errors.New("verification token not found")
	}
	return nil
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1
	`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreatePasswordReset(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO password_resets (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, token, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("insert password reset: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPasswordReset(ctx context.Context, token string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id FROM password_resets
		WHERE token=$1 AND used_at IS NULL AND expires_at > NOW()
	`, token).Scan(&userID)
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (s *PostgresStore) MarkPasswordResetUsed(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE password_resets SET used_at=NOW() WHERE token=$1`, token)
	if err != nil {
		return fmt.Errorf("mark password reset used: %w", err)
	}
	return nil
}

// ---- refresh sessions ----

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.display_name, u.email, u.is_email_verified
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`, tokenHash).Scan(&user.ID, &user.DisplayName, &user.Email, &user.IsEmailVerified)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

// ---- restaurants ----

func (s *PostgresStore) GetRestaurantByUserID(ctx context.Context, userID string) (Restaurant, error) {
	var item Restaurant
	err := s.db.QueryRowContext(ctx, `
		SELECT restaurant_id, user_id, name, owner_email, created_at
		FROM restaurants
		WHERE user_id=$1
	`, userID).Scan(&item.ID, &item.UserID, &item.Name, &item.OwnerEmail, &item.CreatedAt)
	if err != nil {
		return Restaurant{}, err
	}
	return item, nil
}

func (s *PostgresStore) CreateRestaurant(ctx context.Context, restaurant Restaurant) (Restaurant, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO restaurants (user_id, name, owner_email)
		VALUES ($1, $2, $3)
		RETURNING restaurant_id, created_at
	`, restaurant.UserID, restaurant.Name, restaurant.OwnerEmail).Scan(&restaurant.ID, &restaurant.CreatedAt)
	if err != nil {
		return Restaurant{}, fmt.Errorf("insert restaurant: %w", err)
	}
	return restaurant, nil
}

// ---- locations ----

func (s *PostgresStore) ListLocations(ctx context.Context, restaurantID string) ([]Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT location_id, restaurant_id, location_name, address, phone_number, maps_link, delivery_available, dine_in, created_at
		FROM locations
		WHERE restaurant_id=$1
		ORDER BY created_at ASC
	`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	items := make([]Location, 0)
	for rows.Next() {
		var item Location
		if err := rows.Scan(
			&item.ID,
			&item.RestaurantID,
			&item.LocationName,
			&item.Address,
			&item.PhoneNumber,
			&item.MapsLink,
			&item.DeliveryAvailable,
			&item.DineIn,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetLocation(ctx context.Context, locationID string) (Location, error) {
	var item Location
	err := s.db.QueryRowContext(ctx, `
		SELECT location_id, restaurant_id, location_name, address, phone_number, maps_link, delivery_available, dine_in, created_at
		FROM locations
		WHERE location_id=$1
	`, locationID).Scan(
		&item.ID,
		&item.RestaurantID,
		&item.LocationName,
		&item.Address,
		&item.PhoneNumber,
		&item.MapsLink,
		&item.DeliveryAvailable,
		&item.DineIn,
		&item.CreatedAt,
	)
	if err != nil {
		return Location{}, err
	}
	return item, nil
}

func (s *PostgresStore) InsertLocation(ctx context.Context, location Location) (Location, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO locations (restaurant_id, location_name, address, phone_number, maps_link, delivery_available, dine_in)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING location_id, created_at
	`, location.RestaurantID, location.LocationName, location.Address, location.PhoneNumber, location.MapsLink, location.DeliveryAvailable, location.DineIn).
		Scan(&location.ID, &location.CreatedAt)
	if err != nil {
		return Location{}, fmt.Errorf("insert location: %w", err)
	}
	return location, nil
}

func (s *PostgresStore) UpdateLocation(ctx context.Context, location Location) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE locations
		SET location_name=$2, address=$3, phone_number=$4, maps_link=$5, delivery_available=$6, dine_in=$7, updated_at=NOW()
		WHERE location_id=$1
	`, location.ID, location.LocationName, location.Address, location.PhoneNumber, location.MapsLink, location.DeliveryAvailable, location.DineIn)
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	return nil
}
