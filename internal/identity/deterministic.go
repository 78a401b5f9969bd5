// Package identity derives stable record identifiers.
package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers prefix keys by record type so different kinds never collide.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// BundleKey is the catalog address of a bundle: namespace/language.
func BundleKey(namespace, language string) string {
	return strings.TrimSpace(namespace) + "/" + strings.ToLower(strings.TrimSpace(language))
}

// BundleUUID identifies a persisted bundle document.
func BundleUUID(namespace, language string) uuid.UUID {
	return UUID("go-lingo:bundle:" + BundleKey(namespace, language))
}
