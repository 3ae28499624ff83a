package reconcile

import "github.com/opencall-dev/opencall-cli/internal/model"

// Result is the outcome of folding one batch into the opportunity set.
type Result struct {
	// Opportunities is the full post-run set: prior entities (possibly
	// updated) plus anything created this run.
	Opportunities []*model.Opportunity

	// Created and Updated list the ids touched this run; an id appears in
	// at most one of the two.
	Created []string
	Updated []string

	// Changes holds the change events recorded per opportunity id. They
	// must be committed atomically with the opportunity they belong to.
	Changes map[string][]model.ChangeEvent

	Summary model.RunSummary
}

// Touched reports whether the opportunity was created or updated this run.
func (r *Result) Touched(id string) bool {
	for _, c := range r.Created {
		if c == id {
			return true
		}
	}
	for _, u := range r.Updated {
		if u == id {
			return true
		}
	}
	return false
}

// TouchedOpportunities returns the opportunities needing persistence, in
// stable creation-then-update order.
func (r *Result) TouchedOpportunities() []*model.Opportunity {
	byID := make(map[string]*model.Opportunity, len(r.Opportunities))
	for _, o := range r.Opportunities {
		byID[o.ID] = o
	}
	out := make([]*model.Opportunity, 0, len(r.Created)+len(r.Updated))
	for _, id := range r.Created {
		if o := byID[id]; o != nil {
			out = append(out, o)
		}
	}
	for _, id := range r.Updated {
		if o := byID[id]; o != nil {
			out = append(out, o)
		}
	}
	return out
}
