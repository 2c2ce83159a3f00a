package bootstrap

import (
	"log/slog"

	"github.com/deskmetrics/deskmetrics/config"
	"github.com/deskmetrics/deskmetrics/internal/data/cryptoutil"
	apperrors "github.com/deskmetrics/deskmetrics/internal/errors"
)

// CreateEncryptor builds the config store encryptor from the configured
// passphrase. The AES-256 key is derived once at startup; the passphrase is
// fixed for the process lifetime, so changing it orphans previously encrypted
// values.
//
// A missing passphrase is a startup error in production. Development falls
// back to noop encryption so a local instance works without secrets set up.
//
//nolint:ireturn // Returning interface is intentional for encryptor abstraction
func CreateEncryptor(cfg config.ConfigStoreConfig, isDev bool, logger *slog.Logger) (cryptoutil.Encryptor, error) {
	if cfg.Passphrase == "" {
		if !isDev {
			return nil, apperrors.Configuration("CONFIG_PASSPHRASE is required outside development")
		}
		if logger != nil {
			logger.Warn("config passphrase is empty, using noop encryptor")
		}
		return &cryptoutil.NoopEncryptor{}, nil
	}

	key, err := cryptoutil.DeriveKey(cfg.Passphrase)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfiguration, "derive config encryption key")
	}
	return cryptoutil.NewAESGCMEncryptor(key)
}
