package blogboot

import "golang.org/x/crypto/bcrypt"

type Crypt struct {
	cost int
}

// NewCrypt returns a bcrypt hasher; a cost outside bcrypt's range falls back
// to bcrypt.DefaultCost.
func NewCrypt(cost int) *Crypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Crypt{cost: cost}
}

func (c Crypt) GetPasswordHash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (Crypt) IsMatching(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
