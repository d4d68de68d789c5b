package reconcile

import (
	"fmt"
	"strings"
	"time"
)

// Policy selects how an entity's tags are brought to its performer-derived target.
type Policy string

const (
	// PolicyAdd merges performer tags into the entity's existing tags. Nothing is removed.
	PolicyAdd Policy = "ADD"
	// PolicySet makes the entity's tags equal to the performer-derived target.
	PolicySet Policy = "SET"
)

// ParsePolicy parses a tag mode, ignoring case and surrounding whitespace.
func ParsePolicy(mode string) (Policy, error) {
	switch Policy(strings.ToUpper(strings.TrimSpace(mode))) {
	case PolicyAdd:
		return PolicyAdd, nil
	case PolicySet:
		return PolicySet, nil
	default:
		return "", fmt.Errorf("%w: tag mode %q must be ADD or SET", ErrConfig, mode)
	}
}

// EntityKind names the relations that make up one kind of media entity.
// The engine is identical for every kind; only these names differ.
type EntityKind struct {
	// Name is the display name of the kind (e.g., "images").
	Name string

	// Table is the entity table holding the id and organized columns.
	Table string

	// PerformerTable is the entity↔performer association table.
	PerformerTable string

	// PerformerColumn is the entity id column in PerformerTable.
	PerformerColumn string

	// TagTable is the entity↔tag association table.
	TagTable string

	// TagColumn is the entity id column in TagTable.
	TagColumn string
}

// Filter holds the eligibility filters of a pass. Active filters compose conjunctively.
type Filter struct {
	// ExcludeOrganized keeps only entities whose organized flag is false or NULL.
	ExcludeOrganized bool

	// ExclusionTagID, when set, skips every entity already carrying that tag.
	ExclusionTagID *int64
}

// WritePlan is the set of writes needed to bring one entity to its target tags.
type WritePlan struct {
	// EntityID identifies the entity within its kind.
	EntityID int64 `json:"entity_id"`

	// Insert holds tags to add.
	Insert IDSet `json:"insert"`

	// Delete holds tags to remove.
	Delete IDSet `json:"delete"`

	// Target is set under SET. The commit then removes every tag outside Target
	// and inserts all of Target, whatever the entity holds at commit time.
	Target IDSet `json:"target,omitempty"`
}

// Empty reports whether the plan would write nothing.
func (p WritePlan) Empty() bool {
	return p.Insert.Len() == 0 && p.Delete.Len() == 0
}

// KindResult summarizes one entity kind pass.
type KindResult struct {
	// Kind is the entity kind name.
	Kind string `json:"kind"`

	// Scanned counts eligible entities selected for processing.
	Scanned int `json:"entities_scanned"`

	// Updated counts entities whose write plan was non-empty.
	Updated int `json:"entities_updated"`

	// TagsInserted counts planned tag insertions.
	TagsInserted int `json:"tags_inserted"`

	// TagsDeleted counts planned tag deletions.
	TagsDeleted int `json:"tags_deleted"`

	// Batches counts processed batches.
	Batches int `json:"batches"`

	// Duration is the wall time of the pass.
	Duration time.Duration `json:"duration_ns"`
}

// RunResult is the summary of one invocation across all enabled kinds.
type RunResult struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`

	// Policy is the tag mode used by the run.
	Policy Policy `json:"policy"`

	// DryRun is true when plans were computed but not committed.
	DryRun bool `json:"dry_run"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended, successfully or not.
	FinishedAt time.Time `json:"finished_at"`

	// Performers is the number of performers with at least one tag.
	Performers int `json:"performers"`

	// ExclusionTagID is the resolved exclusion tag, if any.
	ExclusionTagID *int64 `json:"exclusion_tag_id,omitempty"`

	// Kinds holds one result per completed pass, in processing order.
	Kinds []KindResult `json:"kinds"`
}

// TotalUpdated returns the number of updated entities across all kinds.
func (r *RunResult) TotalUpdated() int {
	total := 0
	for _, k := range r.Kinds {
		total += k.Updated
	}
	return total
}

// Kind returns the result for the named kind.
func (r *RunResult) Kind(name string) (KindResult, bool) {
	for _, k := range r.Kinds {
		if k.Kind == name {
			return k, true
		}
	}
	return KindResult{}, false
}
