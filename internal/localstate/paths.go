package localstate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Totktonada/vk-messages-backup/internal/model"
)

const (
	envHome  = "VKBACKUP_HOME" // override for tests
	appName  = "vk_messages_backup"
	confName = "config.json"
	sysDir   = "/etc"
)

// EnsureDir creates dir when it does not exist. An existing path that is not
// a directory is an error; nothing is removed or replaced.
func EnsureDir(dir string) error {
	info, err := os.Stat(dir)
	switch {
	case err == nil:
		if !info.IsDir() {
			return fmt.Errorf("%s: %w", dir, model.ErrNotDirectory)
		}
		return nil
	case os.IsNotExist(err):
		return os.MkdirAll(dir, 0o755)
	default:
		return err
	}
}

// DirExists reports whether dir exists. An existing non-directory is an
// error.
func DirExists(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !info.IsDir() {
		return false, fmt.Errorf("%s: %w", dir, model.ErrNotDirectory)
	}
	return true, nil
}

// RequireRegular fails unless path names a regular file (symlinks are
// followed).
func RequireRegular(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s: %w", path, model.ErrNotRegularFile)
	}
	return nil
}

// HomeDir returns the user's home directory, or VKBACKUP_HOME when set.
func HomeDir() (string, error) {
	if custom := os.Getenv(envHome); custom != "" {
		return custom, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user home: %w", err)
	}
	return home, nil
}

// ConfigCandidates lists the default config locations in lookup order: next
// to the executable, ~/.vk_messages_backup, $XDG_CONFIG_HOME (or ~/.config)
// and /etc.
func ConfigCandidates() ([]string, error) {
	home, err := HomeDir()
	if err != nil {
		return nil, err
	}
	xdg := os.Getenv("XDG_CONFIG_HOME")
	if xdg == "" {
		xdg = filepath.Join(home, ".config")
	}

	var out []string
	if exe, err := os.Executable(); err == nil {
		out = append(out, filepath.Join(filepath.Dir(exe), confName))
	}
	return append(out,
		filepath.Join(home, "."+appName, confName),
		filepath.Join(xdg, appName, confName),
		filepath.Join(sysDir, appName, confName),
	), nil
}
