package detect

import "github.com/your-org/mediascan/internal/models"

// IsScreenshot is a pure metadata check on the asset's media-subtype flag.
func IsScreenshot(ref models.AssetRef) bool {
	return ref.IsScreenshot
}
