package users

import (
	"github.com/JaimeStill/neuroscan/pkg/query"
	"github.com/JaimeStill/neuroscan/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "users", "u").
	Project("id", "ID").
	Project("email", "Email").
	Project("password_hash", "PasswordHash").
	Project("created_at", "CreatedAt")

func scanUser(s repository.Scanner) (User, error) {
	var u User
	err := s.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.CreatedAt,
	)
	return u, err
}
