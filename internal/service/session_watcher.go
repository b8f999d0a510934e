package service

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/njprem/umrah_marketplace_client/internal/domain"
)

type IdentityParser interface {
	Identity(token string) (*domain.Identity, error)
}

// SessionFileWatcher mirrors a session token file written by the
// authentication provider into an AuthState. A missing, empty or invalid
// token means signed out.
type SessionFileWatcher struct {
	path   string
	parser IdentityParser
	auth   *AuthState
}

func NewSessionFileWatcher(path string, parser IdentityParser, auth *AuthState) *SessionFileWatcher {
	return &SessionFileWatcher{
		path:   filepath.Clean(path),
		parser: parser,
		auth:   auth,
	}
}

// Apply reads the token file once and updates the auth state.
func (w *SessionFileWatcher) Apply() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("session: read %s: %v", w.path, err)
		}
		w.auth.SignOut()
		return
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		w.auth.SignOut()
		return
	}

	identity, err := w.parser.Identity(token)
	if err != nil {
		log.Printf("session: ignoring token in %s: %v", w.path, err)
		w.auth.SignOut()
		return
	}
	w.auth.SignIn(identity)
}

// Run applies the current file and then every change to it until ctx is done.
// The parent directory is watched so atomic rename-into-place writes are seen.
func (w *SessionFileWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.Apply()

	const relevant = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) == w.path && event.Op&relevant != 0 {
				w.Apply()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("session: watch %s: %v", w.path, err)
		}
	}
}
