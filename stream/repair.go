// Package stream provides a DynamoDB Streams handler that finishes
// interrupted cascade deletes.
//
// The hierarchy's Delete computes the descendant closure and removes it in
// one bulk operation, but the store offers no multi-document transaction: a
// crash or throttling mid-batch can leave descendants behind with their
// ancestor gone. This handler watches folder-table REMOVE events and deletes
// any children the removed record still listed; each of those removals emits
// its own REMOVE event, so the repair recurses through the stream until the
// subtree is gone. Deleting an already-absent id is a no-op, so replays and
// overlap with a completed cascade are harmless.
package stream

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/espalier/hierarchy"
)

// Handler processes DynamoDB stream events for cascade repair.
type Handler struct {
	store  hierarchy.Store
	logger *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(s hierarchy.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:  s,
		logger: logger,
	}
}

// HandleFolderRemoval processes DynamoDB stream events from the folder
// table. This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleFolderRemoval(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	if record.EventName != "REMOVE" {
		return nil
	}

	old := record.Change.OldImage
	folderID := getStringAttr(old, "id")
	if folderID == "" {
		return nil
	}
	children := getStringSetAttr(old, "children")
	items := getStringSetAttr(old, "items")

	// Items are externally owned; report them so operators can reconcile.
	if len(items) > 0 {
		h.logger.Info("items unreferenced by folder removal",
			"folder", folderID,
			"itemCount", len(items),
		)
	}
	if len(children) == 0 {
		return nil
	}

	ids := make([]hierarchy.FolderID, 0, len(children))
	for _, c := range children {
		ids = append(ids, hierarchy.FolderID(c))
	}

	h.logger.Info("removing children of deleted folder",
		"folder", folderID,
		"childCount", len(ids),
	)

	n, err := h.store.DeleteMany(ctx, ids)
	if err != nil {
		return fmt.Errorf("delete children of %s: %w", folderID, err)
	}

	h.logger.Info("cascade repair completed",
		"folder", folderID,
		"childrenDeleted", n,
	)
	return nil
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok {
		return v.String()
	}
	return ""
}

// getStringSetAttr extracts a string set attribute from a DynamoDB stream image.
func getStringSetAttr(image map[string]events.DynamoDBAttributeValue, key string) []string {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeStringSet {
			return v.StringSet()
		}
	}
	return nil
}
