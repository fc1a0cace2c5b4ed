// Package auth resolves the player identity games are saved under.
package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"weaver/internal/config"
)

const anonymousIDFile = "anonymous_id"

// Identity is opaque to the store; only UID scopes saved games.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	IsAnonymous bool   `json:"is_anonymous"`
}

// Resolve returns the configured user, or an anonymous identity persisted
// under stateDir so saved games survive restarts.
func Resolve(user config.UserConfig, stateDir string) (Identity, error) {
	if id := strings.TrimSpace(user.ID); id != "" {
		return Identity{UID: id, Email: strings.TrimSpace(user.Email)}, nil
	}

	uid, err := anonymousID(stateDir)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UID: uid, IsAnonymous: true}, nil
}

func anonymousID(stateDir string) (string, error) {
	path := filepath.Join(stateDir, anonymousIDFile)

	data, err := os.ReadFile(path)
	if err == nil {
		id := strings.TrimSpace(string(data))
		if _, perr := uuid.Parse(id); perr == nil {
			return id, nil
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("reading anonymous id: %w", err)
	}

	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return "", fmt.Errorf("creating state directory: %w", err)
	}
	id := uuid.NewString()
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("writing anonymous id: %w", err)
	}
	return id, nil
}
