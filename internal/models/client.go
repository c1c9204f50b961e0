package models

import (
	"strings"
	"time"
)

// Admin permissions granted to API clients
const (
	PermCatalogRead  = "catalog:read"
	PermCatalogWrite = "catalog:write"
)

// APIClient is an admin integration authenticated by API key
type APIClient struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	APIKey      string            `json:"-"`
	IsActive    bool              `json:"is_active"`
	CreatedAt   time.Time         `json:"created_at"`
	LastUsedAt  *time.Time        `json:"last_used_at,omitempty"`
	Permissions []string          `json:"permissions"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// HasPermission checks for an exact grant, a "catalog:*" style
// prefix wildcard or the global "*".
func (c *APIClient) HasPermission(required string) bool {
	if c == nil || !c.IsActive {
		return false
	}
	for _, perm := range c.Permissions {
		switch {
		case perm == "*", perm == required:
			return true
		case strings.HasSuffix(perm, ":*") && strings.HasPrefix(required, strings.TrimSuffix(perm, "*")):
			return true
		}
	}
	return false
}

// MaskedKey returns the key prefix safe for logs
func (c *APIClient) MaskedKey() string {
	return MaskKey(c.APIKey)
}

// MaskKey keeps the first 8 characters of a secret
func MaskKey(key string) string {
	if len(key) < 8 {
		return "***"
	}
	return key[:8] + "..."
}
