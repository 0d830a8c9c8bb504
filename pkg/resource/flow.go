package resource

import (
	"context"
	"fmt"

	"github.com/openimpair/controlplane/pkg/filter"
	"github.com/openimpair/controlplane/pkg/impairment"
	"github.com/openimpair/controlplane/pkg/transport"
)

// FlowManager aggregates one ShadowFilter and the flow's seven named
// impairments: drop, misordering, latencyJitter,
// duplication, corruption, policer, shaper, plus the flow's own comment.
// get/set on FlowManager itself only touch the comment — everything else
// is reached through its Filter/Drop/.../Shaper fields.
type FlowManager struct {
	transport transport.Transport
	resource  transport.ResourceRef
	index     int
	path string // e.g. "tester:t0/module:0/port:0/flows/3"

	Filter *filter.Manager

	Drop          *impairment.Manager
	Misordering   *impairment.Manager
	LatencyJitter *impairment.Manager
	Duplication   *impairment.Manager
	Corruption    *impairment.Manager

	Policer *impairment.BandwidthManager
	Shaper  *impairment.BandwidthManager
}

// newFlowManager builds the flow's filter and seven impairment managers.
// The seven impairments are independent — each gets its own Manager
// instance, none sharing state.
func newFlowManager(t transport.Transport, resource transport.ResourceRef, portPath string, index int) *FlowManager {
	path := fmt.Sprintf("%s/flows/%d", portPath, index)
	return &FlowManager{
		transport: t,
		resource:  resource,
		index:     index,
		path:      path,

		Filter: filter.New(t, resource, path),

		Drop:          impairment.New(t, resource, impairment.Drop, path+"/drop"),
		Misordering:   impairment.New(t, resource, impairment.Misordering, path+"/misordering"),
		LatencyJitter: impairment.New(t, resource, impairment.LatencyJitter, path+"/latencyJitter"),
		Duplication:   impairment.New(t, resource, impairment.Duplication, path+"/duplication"),
		Corruption:    impairment.New(t, resource, impairment.Corruption, path+"/corruption"),

		Policer: impairment.NewBandwidth(t, resource, impairment.Policer, path+"/policer"),
		Shaper:  impairment.NewBandwidth(t, resource, impairment.Shaper, path+"/shaper"),
	}
}

// Index returns the flow's position in the port's 0..7 array.
func (f *FlowManager) Index() int { return f.index }

// GetComment reads the flow's comment field.
func (f *FlowManager) GetComment(ctx context.Context) (string, error) {
	resp, err := f.transport.Get(ctx, transport.GetToken{Resource: f.resource, Path: f.path + "/comment"})
	if err != nil {
		return "", err
	}
	s, _ := resp.Fields["value"].(string)
	return s, nil
}

// SetComment writes the flow's comment field.
func (f *FlowManager) SetComment(ctx context.Context, comment string) error {
	return f.transport.Set(ctx, transport.SetToken{
		Resource: f.resource, Path: f.path + "/comment", Params: map[string]any{"value": comment},
	})
}
