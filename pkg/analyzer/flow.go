package analyzer

import (
	"time"

	"policy-advisor/pkg/model"
)

// NormalizedFlow is the Hubble-style shape the analysis engine reads from
// stdin. The l4/l7 sections serialize as empty objects, never null, when the
// flow carries no matching data; the engine depends on that.
type NormalizedFlow struct {
	FlowID      string              `json:"flow_id"`
	Timestamp   time.Time           `json:"timestamp"`
	Source      Endpoint            `json:"source"`
	Destination Endpoint            `json:"destination"`
	L4          map[string]PortRule `json:"l4"`
	L7          map[string]HTTPRule `json:"l7"`
}

// Endpoint identifies one side of a flow.
type Endpoint struct {
	Namespace string            `json:"namespace"`
	Pod       string            `json:"pod,omitempty"`
	Labels    map[string]string `json:"labels"`
}

// PortRule is the l4 payload, keyed by transport protocol.
type PortRule struct {
	DestinationPort int `json:"destination_port"`
}

// HTTPRule is the l7 payload under the "http" key.
type HTTPRule struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// Normalize converts a stored flow into the engine's expected shape.
func Normalize(f model.Flow) NormalizedFlow {
	nf := NormalizedFlow{
		FlowID:    f.FlowID,
		Timestamp: f.Timestamp,
		Source: Endpoint{
			Namespace: f.SourceNamespace,
			Pod:       f.SourcePod,
			Labels:    labelMap(f.SourceLabels),
		},
		Destination: Endpoint{
			Namespace: f.DestinationNamespace,
			Pod:       f.DestinationPod,
			Labels:    labelMap(f.DestinationLabels),
		},
		L4: map[string]PortRule{},
		L7: map[string]HTTPRule{},
	}
	if f.Protocol != "" && f.DestinationPort > 0 {
		nf.L4[f.Protocol] = PortRule{DestinationPort: f.DestinationPort}
	}
	if f.HTTPMethod != "" && f.HTTPPath != "" {
		nf.L7["http"] = HTTPRule{Method: f.HTTPMethod, Path: f.HTTPPath}
	}
	return nf
}

func labelMap(l model.Labels) map[string]string {
	if l == nil {
		return map[string]string{}
	}
	return l
}
