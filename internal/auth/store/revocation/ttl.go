package revocation

import (
	"fmt"
	"time"
)

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("revocation ttl must be positive, got %s", ttl)
	}
	return nil
}
