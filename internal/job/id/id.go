// Package id provides unique identifier generation for jobs.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"
)

// idPattern matches IDs produced by Generate. Job IDs double as file
// names in the file-backed repository, so anything else is rejected.
var idPattern = regexp.MustCompile(`^job-\d+-[0-9a-f]{12}$`)

// Generate creates a new unique job ID.
// Format: job-<timestamp>-<random>
// Example: job-1701432000-a1b2c3d4e5f6
func Generate() string {
	timestamp := time.Now().Unix()
	random := make([]byte, 6)
	if _, err := rand.Read(random); err != nil {
		// Fallback to timestamp only if crypto/rand fails
		return fmt.Sprintf("job-%d", timestamp)
	}
	return fmt.Sprintf("job-%d-%s", timestamp, hex.EncodeToString(random))
}

// Valid reports whether s looks like an ID produced by Generate.
func Valid(s string) bool {
	return idPattern.MatchString(s)
}
