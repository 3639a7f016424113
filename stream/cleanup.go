// Package stream provides DynamoDB Streams handlers for constraint cleanup.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/GonzalezAnguita/dynamodeve/store"
)

// Constraint is the ordered field tuple of one uniqueness constraint, as
// passed to StageConstraintInsert when the entity was written.
type Constraint []string

// Handler releases the uniqueness locks of removed entity items. When an
// item is deleted without going through a transaction that stages the
// matching constraint removals, its lock rows would stay behind and block
// the constrained values forever; wiring this handler to the table's stream
// garbage-collects them.
type Handler struct {
	store       *store.Store
	constraints []Constraint
	logger      *slog.Logger
}

// NewHandler creates a stream handler for the store's entity. constraints
// lists the uniqueness tuples declared for the entity.
func NewHandler(s *store.Store, constraints []Constraint, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:       s,
		constraints: constraints,
		logger:      logger,
	}
}

// HandleConstraintCleanup processes DynamoDB stream events, staging one
// constraint removal per declared tuple of every removed entity item. This
// function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleConstraintCleanup(ctx context.Context, event events.DynamoDBEvent) error {
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

// processRecord handles a single stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	if record.EventName != "REMOVE" {
		return nil
	}

	old := record.Change.OldImage
	primary := h.store.PrimaryIndex()

	// Only this entity's items, and never the lock rows themselves.
	pk := getStringAttr(old, primary.PartitionKey)
	if !strings.HasPrefix(pk, h.store.KeyPrefix()) {
		return nil
	}
	if store.IsConstraintRow(getStringAttr(old, primary.SortKey)) {
		return nil
	}

	tx := h.store.NewTransaction()
	staged := 0
	for _, constraint := range h.constraints {
		values, ok := constraintValues(old, constraint)
		if !ok {
			continue
		}
		tx.StageConstraintRemove(values...)
		staged++
	}
	if staged == 0 {
		return nil
	}

	if err := tx.Execute(ctx); err != nil {
		return fmt.Errorf("remove constraints: %w", err)
	}

	h.logger.Info("released unique constraints",
		"pk", pk,
		"constraints", staged,
	)
	return nil
}

// constraintValues extracts the ordered value tuple for a constraint from a
// stream image. It reports false when any field is missing, in which case the
// item never held that lock.
func constraintValues(image map[string]events.DynamoDBAttributeValue, constraint Constraint) ([]string, bool) {
	values := make([]string, 0, len(constraint))
	for _, field := range constraint {
		av, ok := image[store.StoredName(field)]
		if !ok || av.DataType() != events.DataTypeString {
			return nil, false
		}
		values = append(values, av.String())
	}
	return values, true
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}
