package settings

import (
	"errors"
	"fmt"
	"os/user"
	"strings"

	"github.com/dixieflatline76/rngpaper/config"
	"github.com/dixieflatline76/rngpaper/pkg/errkind"
	"github.com/dixieflatline76/rngpaper/util/log"
	"github.com/zalando/go-keyring"
)

// APIKeyKeyringService is the keyring service the wallhaven API key is stored under.
const APIKeyKeyringService = config.AppName + ".wallhaven.api_key"

// keyringUser returns the account name used for keyring entries.
func keyringUser() string {
	u, err := user.Current()
	if err != nil || u.Uid == "" {
		return config.AppName
	}
	return u.Uid
}

// StoredAPIKey returns the wallhaven API key saved in the OS keyring, or "" if there is none.
func StoredAPIKey() string {
	key, err := keyring.Get(APIKeyKeyringService, keyringUser())
	if err != nil {
		if !errors.Is(err, keyring.ErrNotFound) {
			log.Printf("failed to retrieve wallhaven API key from keyring: %v", err)
		}
		return ""
	}
	return key
}

// SaveAPIKey stores the wallhaven API key in the OS keyring. An empty key removes it.
func SaveAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		err := keyring.Delete(APIKeyKeyringService, keyringUser())
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("%w: remove API key from keyring: %v", errkind.ErrConfig, err)
		}
		return nil
	}
	if err := keyring.Set(APIKeyKeyringService, keyringUser(), key); err != nil {
		return fmt.Errorf("%w: save API key to keyring: %v", errkind.ErrConfig, err)
	}
	return nil
}

// withStoredAPIKey fills in the API key from the keyring when the file does not set one.
func withStoredAPIKey(s Snapshot) Snapshot {
	if s.APIKey == "" {
		s.APIKey = StoredAPIKey()
	}
	return s
}
