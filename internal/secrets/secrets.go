// Package secrets resolves the Google service-account key used for the
// Sheets API.
package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretmanagerpb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/sellerops/masstemplate-go/pkg/masstemplate"
	"github.com/sirupsen/logrus"
)

// ErrMissingCredentials indicates that no credential source is configured.
var ErrMissingCredentials = masstemplate.ErrMissingCredentials

// DefaultTTL is how long fetched secrets stay cached.
const DefaultTTL = 5 * time.Minute

// AccessFunc fetches the payload of a secret version resource name.
type AccessFunc func(ctx context.Context, name string) ([]byte, error)

// cacheEntry represents a cached secret with expiration
type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// Manager reads secrets from GCP Secret Manager with a TTL cache.
type Manager struct {
	access    AccessFunc
	closer    func() error
	projectID string
	cache     map[string]*cacheEntry
	cacheMu   sync.RWMutex
	cacheTTL  time.Duration
	now       func() time.Time
}

// NewManager creates a Secret Manager client for projectID.
func NewManager(ctx context.Context, projectID string) (*Manager, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	access := func(ctx context.Context, name string) ([]byte, error) {
		result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
		if err != nil {
			return nil, err
		}
		return result.GetPayload().GetData(), nil
	}
	m := NewManagerWithAccess(projectID, access)
	m.closer = client.Close
	return m, nil
}

// NewManagerWithAccess creates a Manager backed by access.
func NewManagerWithAccess(projectID string, access AccessFunc) *Manager {
	return &Manager{
		access:    access,
		projectID: projectID,
		cache:     make(map[string]*cacheEntry),
		cacheTTL:  DefaultTTL,
		now:       time.Now,
	}
}

// Close closes the Secret Manager client
func (m *Manager) Close() error {
	if m.closer != nil {
		return m.closer()
	}
	return nil
}

// SecretName expands a secret ID to its latest version resource name. Full
// resource names are returned with /versions/latest appended when missing.
func (m *Manager) SecretName(secret string) string {
	secret = strings.TrimSpace(secret)
	if !strings.HasPrefix(secret, "projects/") {
		secret = fmt.Sprintf("projects/%s/secrets/%s", m.projectID, secret)
	}
	if !strings.Contains(secret, "/versions/") {
		secret += "/versions/latest"
	}
	return secret
}

// Get returns the payload of a secret, served from cache while fresh.
func (m *Manager) Get(ctx context.Context, secret string) ([]byte, error) {
	name := m.SecretName(secret)

	m.cacheMu.RLock()
	if entry, ok := m.cache[name]; ok && m.now().Before(entry.expiresAt) {
		m.cacheMu.RUnlock()
		return entry.data, nil
	}
	m.cacheMu.RUnlock()

	data, err := m.access(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to access secret %s: %w", name, err)
	}

	m.cacheMu.Lock()
	m.cache[name] = &cacheEntry{data: data, expiresAt: m.now().Add(m.cacheTTL)}
	m.cacheMu.Unlock()
	return data, nil
}

// ClearCache removes all secrets from the cache
func (m *Manager) ClearCache() {
	m.cacheMu.Lock()
	m.cache = make(map[string]*cacheEntry)
	m.cacheMu.Unlock()
}

// Sources lists where a service-account key may come from.
type Sources struct {
	// JSON is the key itself.
	JSON string
	// File is a path to the key.
	File string
	// ProjectID and Secret locate the key in Secret Manager.
	ProjectID string
	Secret    string
}

// Loader resolves credentials from Sources in order: inline JSON, key file,
// Secret Manager.
type Loader struct {
	Sources Sources
	// Manager is created on first use when nil and a secret is configured.
	Manager *Manager
	Log     logrus.FieldLogger
}

// Load returns the service-account JSON key.
func (l *Loader) Load(ctx context.Context) ([]byte, error) {
	log := l.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	src := l.Sources
	if s := strings.TrimSpace(src.JSON); s != "" {
		log.Debug("using inline service account credentials")
		return []byte(s), nil
	}
	if src.File != "" {
		data, err := os.ReadFile(src.File)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		log.WithField("file", src.File).Debug("using service account key file")
		return data, nil
	}
	if src.Secret == "" {
		return nil, ErrMissingCredentials
	}
	if l.Manager == nil {
		if src.ProjectID == "" && !strings.HasPrefix(src.Secret, "projects/") {
			return nil, fmt.Errorf("%w: GCP_PROJECT_ID is required for secret %s", ErrMissingCredentials, src.Secret)
		}
		m, err := NewManager(ctx, src.ProjectID)
		if err != nil {
			return nil, err
		}
		l.Manager = m
	}
	data, err := l.Manager.Get(ctx, src.Secret)
	if err != nil {
		return nil, err
	}
	log.WithField("secret", src.Secret).Debug("using service account key from secret manager")
	return data, nil
}
