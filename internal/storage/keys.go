package storage

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProofKey is where an uploaded proof-of-work photo lives. The thumbnail
// sits next to it with a "thumb_" prefix.
func ProofKey(orderID, photoID uuid.UUID, ext string) (original, thumb string) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" {
		ext = "jpg"
	}
	dir := path.Join("proof-of-work", orderID.String())
	return path.Join(dir, photoID.String()+"."+ext), path.Join(dir, "thumb_"+photoID.String()+".jpg")
}

// ExportKey names an archived spreadsheet export.
func ExportKey(kind string, at time.Time) string {
	return fmt.Sprintf("exports/%s/%s_%s.xlsx", kind, kind, at.UTC().Format("20060102_150405"))
}
