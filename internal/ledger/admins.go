package ledger

import (
	"database/sql"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Admin roles.
const (
	RoleManager  = "manager"
	RoleEmployee = "employee"
)

// Auto-lock bounds in minutes.
const (
	minAutoLock = 1
	maxAutoLock = 60
)

// Admin is an application user. PasswordHash never leaves this package
// through the JSON surface.
type Admin struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	PasswordHash    string `json:"-"`
	Role            string `json:"role"`
	AutoLockMinutes int    `json:"auto_lock_minutes"`
}

func validRole(role string) bool {
	return role == RoleManager || role == RoleEmployee
}

func clampAutoLock(minutes int) int {
	if minutes < minAutoLock {
		return minAutoLock
	}
	if minutes > maxAutoLock {
		return maxAutoLock
	}
	return minutes
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// SeedDefaultAdmin creates the bootstrap manager account if the admins table
// is empty, so a fresh install is never locked out.
func (s *Store) SeedDefaultAdmin(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return nil
	}
	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO admins (username, password_hash, role, auto_lock_minutes) VALUES (?, ?, ?, ?)`,
		username, hashed, RoleManager, minAutoLock)
	if err != nil {
		return fmt.Errorf("seed default admin: %w", err)
	}
	return nil
}

// CreateAdmin adds a user. Username must be unique; role defaults to
// employee when blank.
func (s *Store) CreateAdmin(username, password, role string, autoLockMinutes int) (Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return Admin{}, fmt.Errorf("%w: username and password are required", ErrValidation)
	}
	if role == "" {
		role = RoleEmployee
	}
	if !validRole(role) {
		return Admin{}, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	hashed, err := hashPassword(password)
	if err != nil {
		return Admin{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`INSERT INTO admins (username, password_hash, role, auto_lock_minutes) VALUES (?, ?, ?, ?)`,
		username, hashed, role, clampAutoLock(autoLockMinutes))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return Admin{}, fmt.Errorf("%w: username %q is taken", ErrValidation, username)
		}
		return Admin{}, fmt.Errorf("create admin: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Admin{}, fmt.Errorf("create admin: %w", err)
	}
	return Admin{ID: id, Username: username, Role: role, AutoLockMinutes: clampAutoLock(autoLockMinutes)}, nil
}

func scanAdmin(scan func(dest ...any) error) (Admin, error) {
	var a Admin
	err := scan(&a.ID, &a.Username, &a.PasswordHash, &a.Role, &a.AutoLockMinutes)
	return a, err
}

// Authenticate checks a username/password pair against the stored bcrypt
// hash. Unknown users and wrong passwords both come back as
// ErrInvalidCredentials so the response does not leak which it was.
func (s *Store) Authenticate(username, password string) (Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(
		`SELECT id, username, password_hash, role, auto_lock_minutes FROM admins WHERE username = ?`,
		strings.TrimSpace(username))
	admin, err := scanAdmin(row.Scan)
	if err == sql.ErrNoRows {
		return Admin{}, ErrInvalidCredentials
	}
	if err != nil {
		return Admin{}, fmt.Errorf("authenticate: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return Admin{}, ErrInvalidCredentials
	}
	return admin, nil
}

// ListAdmins returns all users ordered by username.
func (s *Store) ListAdmins() ([]Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT id, username, password_hash, role, auto_lock_minutes FROM admins ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	var out []Admin
	for rows.Next() {
		a, err := scanAdmin(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAdmin fetches one user by id.
func (s *Store) GetAdmin(id int64) (Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(
		`SELECT id, username, password_hash, role, auto_lock_minutes FROM admins WHERE id = ?`, id)
	admin, err := scanAdmin(row.Scan)
	if err == sql.ErrNoRows {
		return Admin{}, fmt.Errorf("%w: admin %d", ErrNotFound, id)
	}
	if err != nil {
		return Admin{}, fmt.Errorf("get admin: %w", err)
	}
	return admin, nil
}

// AdminUpdate carries the optional fields of UpdateAdmin; nil means keep.
type AdminUpdate struct {
	Password        *string
	Role            *string
	AutoLockMinutes *int
}

// UpdateAdmin applies the non-nil fields of upd to the user.
func (s *Store) UpdateAdmin(id int64, upd AdminUpdate) error {
	var (
		sets []string
		args []any
	)
	if upd.Password != nil {
		if *upd.Password == "" {
			return fmt.Errorf("%w: password cannot be empty", ErrValidation)
		}
		hashed, err := hashPassword(*upd.Password)
		if err != nil {
			return err
		}
		sets = append(sets, "password_hash = ?")
		args = append(args, hashed)
	}
	if upd.Role != nil {
		if !validRole(*upd.Role) {
			return fmt.Errorf("%w: unknown role %q", ErrValidation, *upd.Role)
		}
		sets = append(sets, "role = ?")
		args = append(args, *upd.Role)
	}
	if upd.AutoLockMinutes != nil {
		sets = append(sets, "auto_lock_minutes = ?")
		args = append(args, clampAutoLock(*upd.AutoLockMinutes))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`UPDATE admins SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update admin: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update admin: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: admin %d", ErrNotFound, id)
	}
	return nil
}

// DeleteAdmin removes a user. Deleting the last manager is refused so the
// application cannot lock itself out.
func (s *Store) DeleteAdmin(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var role string
	err := s.db.QueryRow(`SELECT role FROM admins WHERE id = ?`, id).Scan(&role)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: admin %d", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	if role == RoleManager {
		var managers int
		if err := s.db.QueryRow(`SELECT COUNT(*) FROM admins WHERE role = ?`, RoleManager).Scan(&managers); err != nil {
			return fmt.Errorf("delete admin: %w", err)
		}
		if managers <= 1 {
			return fmt.Errorf("%w: cannot delete the last manager", ErrValidation)
		}
	}
	if _, err := s.db.Exec(`DELETE FROM admins WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	return nil
}
