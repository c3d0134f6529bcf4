package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hawk-economy-core/internal/model"
)

// Common errors for repository operations.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

const userColumns = "id, coins, energy, energy_max, mood, mood_max, created_at"

// UserRepository handles user account persistence.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Coins,
		&user.Energy,
		&user.EnergyMax,
		&user.Mood,
		&user.MoodMax,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Ensure lazily creates the user with default stats and returns the
// current row. Safe to call on every interaction.
func (r *UserRepository) Ensure(ctx context.Context, userID int64) (*model.User, error) {
	const insert = `
		INSERT INTO users (id, coins, energy, energy_max, mood, mood_max, created_at)
		VALUES ($1, 0, 100, 100, 100, 100, NOW())
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, insert, userID); err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}
	return r.GetByID(ctx, userID)
}

// GetByID retrieves a user by ID.
// Returns ErrUserNotFound if the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetForUpdate retrieves a user with a row lock. Must run inside a
// transaction.
func (r *UserRepository) GetForUpdate(ctx context.Context, q Querier, userID int64) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`

	user, err := scanUser(q.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user for update: %w", err)
	}
	return user, nil
}

// AddCoins credits coins to a user. Use DebitCoins for withdrawals so
// the non-negative invariant is enforced.
func (r *UserRepository) AddCoins(ctx context.Context, q Querier, userID int64, amount int64) (int64, error) {
	const query = `
		UPDATE users SET coins = coins + $2
		WHERE id = $1
		RETURNING coins
	`
	var coins int64
	err := q.QueryRow(ctx, query, userID, amount).Scan(&coins)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to add coins: %w", err)
	}
	return coins, nil
}

// DebitCoins removes coins from a user, failing with
// ErrInsufficientFunds when the balance would go negative.
func (r *UserRepository) DebitCoins(ctx context.Context, q Querier, userID int64, amount int64) (int64, error) {
	const query = `
		UPDATE users SET coins = coins - $2
		WHERE id = $1 AND coins >= $2
		RETURNING coins
	`
	var coins int64
	err := q.QueryRow(ctx, query, userID, amount).Scan(&coins)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish missing user from short balance.
			if _, gerr := r.GetByID(ctx, userID); gerr != nil {
				return 0, gerr
			}
			return 0, ErrInsufficientFunds
		}
		return 0, fmt.Errorf("failed to debit coins: %w", err)
	}
	return coins, nil
}

// AddEnergy adjusts energy by delta, clamped to [0, energy_max].
func (r *UserRepository) AddEnergy(ctx context.Context, q Querier, userID int64, delta int) (int, error) {
	const query = `
		UPDATE users SET energy = LEAST(GREATEST(energy + $2, 0), energy_max)
		WHERE id = $1
		RETURNING energy
	`
	var energy int
	err := q.QueryRow(ctx, query, userID, delta).Scan(&energy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to adjust energy: %w", err)
	}
	return energy, nil
}

// AddMood adjusts mood by delta, clamped to [0, mood_max].
func (r *UserRepository) AddMood(ctx context.Context, q Querier, userID int64, delta int) (int, error) {
	const query = `
		UPDATE users SET mood = LEAST(GREATEST(mood + $2, 0), mood_max)
		WHERE id = $1
		RETURNING mood
	`
	var mood int
	err := q.QueryRow(ctx, query, userID, delta).Scan(&mood)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to adjust mood: %w", err)
	}
	return mood, nil
}

// RaiseEnergyMax permanently raises a user's energy cap.
func (r *UserRepository) RaiseEnergyMax(ctx context.Context, q Querier, userID int64, delta int) (int, error) {
	const query = `
		UPDATE users SET energy_max = energy_max + $2
		WHERE id = $1
		RETURNING energy_max
	`
	var energyMax int
	err := q.QueryRow(ctx, query, userID, delta).Scan(&energyMax)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to raise energy max: %w", err)
	}
	return energyMax, nil
}

// SpendEnergy deducts energy only when the user has enough; returns
// false without mutation otherwise.
func (r *UserRepository) SpendEnergy(ctx context.Context, q Querier, userID int64, cost int) (bool, error) {
	const query = `
		UPDATE users SET energy = energy - $2
		WHERE id = $1 AND energy >= $2
	`
	tag, err := q.Exec(ctx, query, userID, cost)
	if err != nil {
		return false, fmt.Errorf("failed to spend energy: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// TopByCoins returns the richest users, wealthiest first.
func (r *UserRepository) TopByCoins(ctx context.Context, limit int) ([]model.User, error) {
	const query = `
		SELECT id, coins, energy, energy_max, mood, mood_max, created_at
		FROM users
		ORDER BY coins DESC, id
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Coins, &u.Energy, &u.EnergyMax, &u.Mood, &u.MoodMax, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Exists checks if a user with the given ID exists.
func (r *UserRepository) Exists(ctx context.Context, userID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}
