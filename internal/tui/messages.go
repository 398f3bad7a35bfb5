package tui

import (
	"time"

	"github.com/fentz26/labtrack/internal/reconcile"
)

// snapshotMsg carries a reconciled collection into the update loop.
type snapshotMsg struct {
	snap reconcile.Snapshot
}

// commandResultMsg reports the outcome of a command bar action.
type commandResultMsg struct {
	message string
	err     error
}

type tickMsg time.Time
