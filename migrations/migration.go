package migrations

import (
	"context"
	"fmt"
	"strings"
)

// Key identifies a migration within an app, e.g. msgs.0064_broadcast_recipients.
type Key struct {
	App  string
	Name string
}

func (k Key) String() string { return k.App + "." + k.Name }

// ParseKey parses "app.name".
func ParseKey(s string) (Key, error) {
	app, name, ok := strings.Cut(s, ".")
	if !ok || app == "" || name == "" {
		return Key{}, fmt.Errorf("migrations: invalid key %q: want app.name", s)
	}
	return Key{App: app, Name: name}, nil
}

// Func is one direction of a migration.
type Func func(ctx context.Context) error

// Noop is a reverse step that leaves data as it is.
func Noop(context.Context) error { return nil }

// Migration is one step in the migration history. It runs only after every
// key in Dependencies has been applied.
type Migration struct {
	Key
	Dependencies []Key
	Forward      Func
	Backward     Func
}
