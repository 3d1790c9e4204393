// Package lifecycle implements the workspace lifecycle worker: a long-running
// daemon that pulls pending workspace jobs from the control-plane, drives each
// workspace through its current lifecycle phase and reports progress back.
package lifecycle

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
)

// Mode is a workspace's durable lifecycle state as observed from the
// control-plane.
type Mode string

const (
	ModePendingCreation        Mode = "pending-creation"
	ModeCreating               Mode = "creating"
	ModeUpgrading              Mode = "upgrading"
	ModeActive                 Mode = "active"
	ModeArchivingPendingBackup Mode = "archiving-pending-backup"
	ModeArchivingBackup        Mode = "archiving-backup"
	ModeArchivingPendingClean  Mode = "archiving-pending-clean"
	ModeArchivingClean         Mode = "archiving-clean"
	ModeMigrationPendingBackup Mode = "migration-pending-backup"
	ModeMigrationBackup        Mode = "migration-backup"
	ModeMigrationPendingClean  Mode = "migration-pending-clean"
	ModeMigrationClean         Mode = "migration-clean"
	ModePendingRestore         Mode = "pending-restore"
	ModeRestoring              Mode = "restoring"
	ModePendingDeletion        Mode = "pending-deletion"
	ModeDeleting               Mode = "deleting"
)

// Event is a named progress marker sent back to the control-plane.
type Event string

const (
	EventPing     Event = "ping"
	EventProgress Event = "progress"

	EventCreateStarted          Event = "create-started"
	EventCreateDone             Event = "create-done"
	EventUpgradeStarted         Event = "upgrade-started"
	EventUpgradeDone            Event = "upgrade-done"
	EventArchivingBackupStarted Event = "archiving-backup-started"
	EventArchivingBackupDone    Event = "archiving-backup-done"
	EventArchivingCleanStarted  Event = "archiving-clean-started"
	EventArchivingCleanDone     Event = "archiving-clean-done"
	EventDeleteStarted          Event = "delete-started"
	EventDeleteDone             Event = "delete-done"
	EventMigrateBackupStarted   Event = "migrate-backup-started"
	EventMigrateBackupDone      Event = "migrate-backup-done"
	EventMigrateCleanStarted    Event = "migrate-clean-started"
	EventMigrateCleanDone       Event = "migrate-clean-done"
	EventRestoreStarted         Event = "restore-started"
	EventRestoreDone            Event = "restore-done"
)

// Version is the semantic version triple exchanged with the control-plane.
type Version struct {
	Major uint64 `json:"major"`
	Minor uint64 `json:"minor"`
	Patch uint64 `json:"patch"`
}

// VersionOf converts a parsed semver into the wire triple.
func VersionOf(v *semver.Version) Version {
	return Version{Major: v.Major(), Minor: v.Minor(), Patch: v.Patch()}
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Semver returns the version as a comparable semver value.
func (v Version) Semver() *semver.Version {
	return semver.New(v.Major, v.Minor, v.Patch, "", "")
}

// Compare returns -1, 0 or 1 when v is older than, equal to or newer than o.
func (v Version) Compare(o Version) int {
	return v.Semver().Compare(o.Semver())
}

// WorkspaceInfo is a snapshot of a workspace received from the control-plane.
// It is never mutated locally.
type WorkspaceInfo struct {
	Workspace string    `json:"workspace"`
	UUID      uuid.UUID `json:"uuid"`
	Branding  string    `json:"branding,omitempty"`
	Version   *Version  `json:"version,omitempty"`
	Mode      Mode      `json:"mode,omitempty"`
	Progress  *float64  `json:"progress,omitempty"`
	Disabled  bool      `json:"disabled,omitempty"`
}

// EffectiveMode returns the workspace mode, defaulting to active when the
// control-plane sent none.
func (w *WorkspaceInfo) EffectiveMode() Mode {
	if w.Mode == "" {
		return ModeActive
	}
	return w.Mode
}

// ObservedProgress returns the last progress the control-plane recorded for
// the workspace, or 0 when none was recorded.
func (w *WorkspaceInfo) ObservedProgress() float64 {
	if w.Progress == nil {
		return 0
	}
	return *w.Progress
}
