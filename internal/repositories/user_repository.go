package repositories

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"salespipe/internal/authz"
	"salespipe/internal/models"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id string) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	List(limit, offset int) ([]*models.User, error)
	// ListIDsByRoles returns the ids of users holding any of the roles,
	// optionally restricted to one community. Used for the "team" stats scope.
	ListIDsByRoles(communityID string, roles []authz.Role) ([]string, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role, community_id, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	var community sql.NullString
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &community, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.CommunityID = community.String
	return u, nil
}

func (r *userRepository) Create(user *models.User) error {
	const query = `
		INSERT INTO users (id, name, email, password_hash, role, community_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6,''), $7)
	`
	_, err := r.db.Exec(query, user.ID, user.Name, user.Email, user.PasswordHash,
		user.Role, user.CommunityID, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRow(query, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *userRepository) List(limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *userRepository) ListIDsByRoles(communityID string, roles []authz.Role) ([]string, error) {
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	query := `SELECT id FROM users WHERE role = ANY($1)`
	args := []interface{}{pq.Array(names)}
	if communityID != "" {
		query += ` AND community_id = $2`
		args = append(args, communityID)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list user ids by roles: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
