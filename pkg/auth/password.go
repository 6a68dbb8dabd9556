package auth

import (
	"errors"

	"github.com/lessonforge/lessonplan-api/pkg/apperror"
	"golang.org/x/crypto/bcrypt"
)

// Hasher wraps bcrypt hashing. The cost is injectable so tests can run at
// bcrypt.MinCost instead of the ~250ms default.
type Hasher struct {
	cost int
}

func NewHasher() *Hasher {
	return &Hasher{cost: bcrypt.DefaultCost}
}

func NewHasherWithCost(cost int) *Hasher {
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(password string) (string, error) {
	// bcrypt silently truncates inputs beyond 72 bytes; reject instead.
	if len(password) > 72 {
		return "", errors.New("password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func (h *Hasher) Verify(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return apperror.ErrUnauthorized
	}
	return nil
}
