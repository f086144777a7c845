package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/rupeelog/rupeelog/internal/domain"
)

// PollInterval is the fixed wait between status polls while an import is
// being worked on.
const PollInterval = 2 * time.Second

// NextPoll tells a client how long to wait before polling the import again.
// It returns false once the status no longer changes on its own: extracted
// and ready wait for the client's next action, completed and failed are
// final.
func NextPoll(status domain.ImportStatus) (time.Duration, bool) {
	if status.Active() {
		return PollInterval, true
	}
	return 0, false
}

// ImportGetter is the read surface the watcher needs.
type ImportGetter interface {
	Get(ctx context.Context, userID, importID string) (*domain.StatementImport, error)
}

// Watcher polls an import until the pipeline stops moving it.
type Watcher struct {
	getter   ImportGetter
	interval time.Duration
}

func NewWatcher(getter ImportGetter) *Watcher {
	return &Watcher{getter: getter, interval: PollInterval}
}

// Watch polls the import and invokes observe after every poll. It returns
// the first snapshot whose status is not worth polling anymore, or the
// context's error. observe may be nil.
func (w *Watcher) Watch(ctx context.Context, userID, importID string, observe func(*domain.StatementImport)) (*domain.StatementImport, error) {
	for {
		si, err := w.getter.Get(ctx, userID, importID)
		if err != nil {
			return nil, fmt.Errorf("Watch: %w", err)
		}
		if observe != nil {
			observe(si)
		}
		wait, again := NextPoll(si.Status)
		if !again {
			return si, nil
		}
		if w.interval > 0 {
			wait = w.interval
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}
