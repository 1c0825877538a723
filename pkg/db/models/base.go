package models

import (
	"github.com/google/uuid"
)

// ensureID assigns a client side id so rows insert the same way on Postgres
// (which also has gen_random_uuid defaults) and on sqlite.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
