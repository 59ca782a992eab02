package scraper

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"crowdpulse/internal/models"
)

// ContentID derives a stable synthetic item id from the item's content, for
// sources whose export carries no native ids.
func ContentID(platform models.Platform, author, body string) string {
	raw := fmt.Sprintf("%s:%s:%s", platform, author, body)
	hash := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(hash[:])
}
