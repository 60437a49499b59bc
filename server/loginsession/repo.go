package loginsession

import (
	"time"

	"github.com/jrsteele09/go-church-portal/navigation"
	"github.com/jrsteele09/go-church-portal/shell"
)

// Entry is the server side of one browser: its mounted shell and the navigation the shell
// has asked for but no response has delivered yet.
type Entry struct {
	BrowserID string
	Shell     *shell.Shell
	Navigator *navigation.Recorder

	CreatedAt time.Time
	LastSeen  time.Time
}

type Repo interface {
	Upsert(browserID string, entry *Entry) error
	Get(browserID string) (*Entry, error)
	Delete(browserID string) error

	// Expire removes and returns every entry not seen since before.
	Expire(before time.Time) []*Entry
}
