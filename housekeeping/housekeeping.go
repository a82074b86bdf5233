// Package housekeeping periodically sweeps the attic and orphaned
// message directories, entirely decoupled from the dispatcher's
// single-threaded event loop. It only ever deletes; it never touches
// a live task.
package housekeeping

import (
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nuntium/mmsengine/logger"
)

// ActiveIDs is consulted before removing a <root>/msg/<id> directory,
// so a sweep never races a task still working on it.
type ActiveIDs interface {
	IsActive(id string) bool
}

// Sweeper deletes stale attic entries and, optionally, orphaned
// message directories on a cron schedule.
type Sweeper struct {
	log           logger.Logger
	root          string
	retention     time.Duration
	keepTempFiles bool
	active        ActiveIDs

	cron *cron.Cron
}

// New builds a Sweeper rooted at root. retention bounds how long an
// attic entry survives; keepTempFiles, when true, disables the
// orphaned-message-tree sweep entirely (the operator wants everything
// kept for inspection).
func New(log logger.Logger, root string, retention time.Duration, keepTempFiles bool, active ActiveIDs) *Sweeper {
	if log == nil {
		log = logger.Nop
	}
	return &Sweeper{
		log:           log.With("housekeeping"),
		root:          root,
		retention:     retention,
		keepTempFiles: keepTempFiles,
		active:        active,
		cron:          cron.New(),
	}
}

// Start schedules the sweep at spec (standard 5-field cron syntax, the
// caller's local time) and begins running it in the background.
func (s *Sweeper) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, s.sweep)
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop cancels the schedule, waiting for any in-flight sweep to
// finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// SweepNow runs one sweep pass synchronously, useful for tests and for
// an explicit operator-triggered cleanup.
func (s *Sweeper) SweepNow() { s.sweep() }

func (s *Sweeper) sweep() {
	now := time.Now()
	s.sweepAttic(now)
	if !s.keepTempFiles {
		s.sweepOrphanedMessages()
	}
}

func (s *Sweeper) sweepAttic(now time.Time) {
	atticDir := filepath.Join(s.root, "attic")
	entries, err := os.ReadDir(atticDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) <= s.retention {
			continue
		}
		path := filepath.Join(atticDir, e.Name())
		if err := os.RemoveAll(path); err != nil {
			s.log.Warn("removing stale attic entry %s: %v", path, err)
			continue
		}
		s.log.Debug("removed stale attic entry %s", path)
	}
}

func (s *Sweeper) sweepOrphanedMessages() {
	msgDir := filepath.Join(s.root, "msg")
	entries, err := os.ReadDir(msgDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id := e.Name()
		if s.active != nil && s.active.IsActive(id) {
			continue
		}
		path := filepath.Join(msgDir, id)
		if err := os.RemoveAll(path); err != nil {
			s.log.Warn("removing orphaned message tree %s: %v", path, err)
			continue
		}
		s.log.Debug("removed orphaned message tree %s", path)
	}
}
