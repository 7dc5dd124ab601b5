package submission

import (
	"log/slog"

	"municipal-portal/internal/infrastructure/attachment"
	"municipal-portal/internal/infrastructure/metrics"
)

// stage is the last step a submission reached; logged when it aborts.
type stage string

const (
	stageValidating          stage = "validating"
	stageTransactionOpen     stage = "transaction_open"
	stageFolderReady         stage = "folder_ready"
	stageAttachmentsStored   stage = "attachments_stored"
	stageDocumentPersisted   stage = "document_persisted"
	stageFolderPathCommitted stage = "folder_path_committed"
	stageCommitted           stage = "committed"
)

// compensator records the artifacts an attempt created so an abort can
// remove them in reverse order: PDF, stored files, the leaf folder with its
// contents, then any ancestors the attempt created. Ancestors go only while
// empty since concurrent submissions share them. The open transaction is
// rolled back after it runs.
type compensator struct {
	folders Folders
	logger  *slog.Logger
	kind    attachment.Kind

	stage  stage
	pdf    string
	files  []string
	leaf   string   // set only when this attempt created it
	dirs   []string // ancestors created by this attempt, in creation order
	ran    bool
}

func newCompensator(f Folders, logger *slog.Logger, kind attachment.Kind) *compensator {
	return &compensator{folders: f, logger: logger, kind: kind, stage: stageValidating}
}

func (c *compensator) reached(s stage) { c.stage = s }

func (c *compensator) empty() bool {
	return c.pdf == "" && len(c.files) == 0 && c.leaf == "" && len(c.dirs) == 0
}

// created splits the directories returned by EnsureChain into the leaf
// and its ancestors.
func (c *compensator) created(dirs []string, leaf string) {
	if n := len(dirs); n > 0 && dirs[n-1] == leaf {
		c.leaf = leaf
		dirs = dirs[:n-1]
	}
	c.dirs = dirs
}

// run is safe to call more than once; only the first call acts.
func (c *compensator) run() {
	if c.ran {
		return
	}
	c.ran = true
	if c.empty() {
		return
	}

	clean := true
	if c.pdf != "" {
		if err := c.folders.RemoveFile(c.pdf); err != nil {
			clean = false
			c.logger.Error("compensation: remove document", slog.String("path", c.pdf), slog.Any("error", err))
		}
	}
	for i := len(c.files) - 1; i >= 0; i-- {
		if err := c.folders.RemoveFile(c.files[i]); err != nil {
			clean = false
			c.logger.Error("compensation: remove attachment", slog.String("path", c.files[i]), slog.Any("error", err))
		}
	}
	if c.leaf != "" {
		if err := c.folders.Remove(c.leaf); err != nil {
			clean = false
			c.logger.Error("compensation: remove folder", slog.String("path", c.leaf), slog.Any("error", err))
		}
	}
	for i := len(c.dirs) - 1; i >= 0; i-- {
		if err := c.folders.RemoveEmpty(c.dirs[i]); err != nil {
			clean = false
			c.logger.Error("compensation: remove folder", slog.String("path", c.dirs[i]), slog.Any("error", err))
		}
	}

	metrics.ObserveCompensation(string(c.kind), clean)
	c.logger.Warn("submission artifacts removed",
		slog.String("kind", string(c.kind)),
		slog.String("stage", string(c.stage)),
		slog.Bool("clean", clean),
	)
}
