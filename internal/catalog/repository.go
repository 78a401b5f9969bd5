// Package catalog persists translation bundles for deployments that keep
// their documents in a database rather than on disk.
package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-lingo/internal/bundle"
	"github.com/goliatone/go-lingo/internal/identity"
)

var (
	// ErrBundleNotFound indicates no bundle is stored for the address.
	ErrBundleNotFound = errors.New("catalog: bundle not found")
	// ErrInvalidAddress is returned for an empty namespace or language.
	ErrInvalidAddress = errors.New("catalog: namespace and language are required")
	// ErrNilBundle rejects upserts without a tree.
	ErrNilBundle = errors.New("catalog: bundle tree is required")
)

// Record is a stored bundle document. Payload holds the tree as JSON with
// keys in document order.
type Record struct {
	ID        uuid.UUID
	Key       string
	Namespace string
	Language  string
	Payload   string
	Checksum  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tree decodes the payload.
func (r Record) Tree() (*bundle.Node, error) {
	return bundle.Decode(bundle.FormatJSON, []byte(r.Payload))
}

// Repository persists bundles and emits change notifications.
type Repository interface {
	Get(ctx context.Context, namespace, language string) (Record, error)
	List(ctx context.Context) ([]Record, error)
	Upsert(ctx context.Context, namespace, language string, tree *bundle.Node) (Record, error)
	Delete(ctx context.Context, namespace, language string) error
	Subscribe(ctx context.Context) (<-chan ChangeEvent, error)
}

// ChangeType enumerates bundle change events.
type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// ChangeEvent reports bundle mutations to subscribers.
type ChangeEvent struct {
	Type      ChangeType
	Namespace string
	Language  string
	Record    Record
}

func newChangeEvent(changeType ChangeType, record Record) ChangeEvent {
	return ChangeEvent{
		Type:      changeType,
		Namespace: record.Namespace,
		Language:  record.Language,
		Record:    record,
	}
}

func normalizeAddress(namespace, language string) (string, string, error) {
	namespace = strings.TrimSpace(namespace)
	language = strings.ToLower(strings.TrimSpace(language))
	if namespace == "" || language == "" {
		return "", "", ErrInvalidAddress
	}
	return namespace, language, nil
}

// buildRecord encodes tree and fills the identity fields. Timestamps are left
// to the caller.
func buildRecord(namespace, language string, tree *bundle.Node) (Record, error) {
	namespace, language, err := normalizeAddress(namespace, language)
	if err != nil {
		return Record{}, err
	}
	if tree == nil {
		return Record{}, ErrNilBundle
	}
	payload, err := json.Marshal(tree)
	if err != nil {
		return Record{}, fmt.Errorf("catalog: encode bundle: %w", err)
	}
	sum := sha256.Sum256(payload)
	return Record{
		ID:        identity.BundleUUID(namespace, language),
		Key:       identity.BundleKey(namespace, language),
		Namespace: namespace,
		Language:  language,
		Payload:   string(payload),
		Checksum:  hex.EncodeToString(sum[:]),
	}, nil
}
