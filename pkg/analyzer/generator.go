package analyzer

import (
	"context"

	"policy-advisor/pkg/model"
	"policy-advisor/pkg/store"
)

// Generator runs the flow-to-policy pipeline: resolve the selected flows,
// normalize them, invoke the engine, and persist the resulting policy with
// its first version. Any engine failure aborts the request with nothing
// persisted.
type Generator struct {
	Flows    store.FlowStore
	Policies store.PolicyStore
	Engine   *Runner
}

// Generate produces one new policy from the given flow ids. Ids that
// resolve to nothing are dropped silently; only a total miss fails with
// store.ErrNotFound. The policy's namespace comes from the destination
// namespace of the first resolved flow.
func (g *Generator) Generate(ctx context.Context, flowIDs []string, policyName string) (model.Policy, error) {
	if len(flowIDs) == 0 {
		return model.Policy{}, &store.ValidationError{Field: "flow_ids"}
	}
	flows, err := g.Flows.GetByIDs(flowIDs)
	if err != nil {
		return model.Policy{}, err
	}
	if len(flows) == 0 {
		return model.Policy{}, store.ErrNotFound
	}

	batch := make([]NormalizedFlow, 0, len(flows))
	for _, f := range flows {
		batch = append(batch, Normalize(f))
	}

	document, err := g.Engine.Generate(ctx, batch)
	if err != nil {
		return model.Policy{}, err
	}

	namespace := flows[0].DestinationNamespace
	return g.Policies.CreateFromDocument(policyName, namespace, document)
}
