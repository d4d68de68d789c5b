package reconcile

// Reconcile computes the write plan of one entity. It does no I/O.
//
// current may be nil when the entity's tags were not fetched; both modes then
// treat them as empty. A SET plan carries its target so the commit can enforce
// it against the tags present at write time.
func Reconcile(policy Policy, entityID int64, performers IDSet, index *TagIndex, current IDSet) WritePlan {
	plan := WritePlan{EntityID: entityID}

	target := index.Target(performers)
	// No performer tags means nothing to derive; manual tags are left alone in both modes.
	if target.Len() == 0 {
		return plan
	}

	switch policy {
	case PolicySet:
		plan.Insert = target.Difference(current)
		plan.Delete = current.Difference(target)
		plan.Target = target
	default:
		plan.Insert = target.Difference(current)
	}

	return plan
}

// PlanBatch reconciles every entity of a batch, in id order, and drops empty plans.
// current may be nil, meaning tags were not fetched for the batch.
func PlanBatch(policy Policy, ids []int64, performers map[int64]IDSet, current map[int64]IDSet, index *TagIndex) []WritePlan {
	plans := make([]WritePlan, 0, len(ids))
	for _, id := range ids {
		var tags IDSet
		if current != nil {
			tags = current[id]
			if tags == nil {
				tags = IDSet{}
			}
		}

		plan := Reconcile(policy, id, performers[id], index, tags)
		if plan.Empty() {
			continue
		}
		plans = append(plans, plan)
	}
	return plans
}

// planCounts returns the number of tag insertions and deletions in plans.
func planCounts(plans []WritePlan) (inserted, deleted int) {
	for _, p := range plans {
		inserted += p.Insert.Len()
		deleted += p.Delete.Len()
	}
	return inserted, deleted
}
