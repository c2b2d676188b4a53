package history

import (
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/logging"
	"github.com/goshitsarch-eng/gosh-transfer-linux/internal/uiloop"
)

// Log is the UI-side copy of the history file. Refresh re-reads the file
// off the UI loop and posts the fresh records back; Records always
// returns whatever was last loaded, so rendering never blocks on disk.
type Log struct {
	store *FileStore
	loop  uiloop.Loop
	log   *logging.Logger

	records  []Record
	onChange func()
}

// NewLog builds an empty log over store. Call Refresh to populate it.
func NewLog(store *FileStore, loop uiloop.Loop, log *logging.Logger) *Log {
	if log == nil {
		log = logging.Nop()
	}
	return &Log{store: store, loop: loop, log: log}
}

// SetOnChange registers a render callback fired after each reload.
func (l *Log) SetOnChange(fn func()) { l.onChange = fn }

// Records returns the last loaded records, newest first. The slice must
// not be mutated.
func (l *Log) Records() []Record { return l.records }

// Refresh re-reads the history file in the background.
func (l *Log) Refresh() {
	go func() {
		records, err := l.store.List()
		if err != nil {
			l.log.Error().Err(err).Msg("history reload failed")
			return
		}
		l.loop.Post(func() {
			l.records = records
			if l.onChange != nil {
				l.onChange()
			}
		})
	}()
}

// Clear empties both the file and the in-memory view.
func (l *Log) Clear() error {
	if err := l.store.Clear(); err != nil {
		return err
	}
	l.records = nil
	if l.onChange != nil {
		l.onChange()
	}
	return nil
}
