package speaking

import (
	"time"

	"github.com/abhisek/ielts-coach/internal/practice"
)

// snapshotMsg carries a state change published by the practice machine.
type snapshotMsg practice.Snapshot

// subscriptionClosedMsg is sent when the machine ends the subscription.
type subscriptionClosedMsg struct{}

// evaluatedMsg is sent when an evaluation request finished.
type evaluatedMsg struct {
	Err error
}

// recordingMsg is sent when a recording start or stop completed.
type recordingMsg struct {
	Err error
}

// savedMsg is sent when a recording was written to disk.
type savedMsg struct {
	Path string
	Err  error
}

// spinnerTickMsg animates the evaluation spinner.
type spinnerTickMsg time.Time
