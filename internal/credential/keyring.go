package credential

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
)

const (
	serviceName = "unreadwatch"

	// FeedPasswordKey stores the password used for feed basic auth.
	FeedPasswordKey = "feed-password"
)

var ErrNotFound = errors.New("credential not found")

func fileDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "credentials")
	}

	return filepath.Join(home, ".config", serviceName, "credentials")
}

func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir(),
		FilePasswordFunc:         keyring.FixedStringPrompt(serviceName + "-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}

	return ring, nil
}

// Get returns the stored value for key, or ErrNotFound.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", fmt.Errorf("get credential %q: %w", key, ErrNotFound)
		}

		return "", fmt.Errorf("get credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:         key,
		Data:        []byte(value),
		Label:       serviceName + " " + key,
		Description: "unread mail monitor credential",
	})
	if err != nil {
		return fmt.Errorf("set credential %q: %w", key, err)
	}

	return nil
}

func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	if err = ring.Remove(key); err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) || errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete credential %q: %w", key, ErrNotFound)
		}

		return fmt.Errorf("delete credential %q: %w", key, err)
	}

	return nil
}

// ResolvePassword prefers an explicit password and falls back to the
// keyring. A missing keyring entry is not an error.
func ResolvePassword(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	password, err := Get(FeedPasswordKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}

		return "", err
	}

	return password, nil
}
