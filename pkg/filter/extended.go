package filter

import "context"
import "strconv"

import "github.com/openimpair/controlplane/pkg/transport"

// SegmentType names one protocol segment in an extended-mode filter.
type SegmentType string

const (
	SegmentEthernet SegmentType = "Ethernet"
	SegmentVLAN     SegmentType = "VLAN"
	SegmentIPv4     SegmentType = "IPv4"
	SegmentIPv6     SegmentType = "IPv6"
	SegmentTCP      SegmentType = "TCP"
	SegmentUDP      SegmentType = "UDP"
	SegmentMPLS     SegmentType = "MPLS"
	SegmentRaw      SegmentType = "Raw"
)

// Segment is one position in the extended-mode protocol sequence: its type
// (which fixes the byte width the device expects) plus a hex value and hex
// mask matched against that position of the packet prefix, up to
// 128 bytes total across all segments.
type Segment struct {
	Type  SegmentType
	Value string      // hex
	Mask  string      // hex
}

// ExtendedConfig is the full extended-mode shadow-filter tree: an ordered
// sequence of segments.
type ExtendedConfig struct {
	Segments []Segment
}

// ExtendedConfigurator is the extended-mode shadow-filter configurator.
type ExtendedConfigurator struct {
	transport transport.Transport
	resource  transport.ResourceRef
	path      string                // e.g. "flows/0/filter/extended"
}

func (c *ExtendedConfigurator) field(parts ...string) string {
	p := c.path
	for _, s := range parts {
		p += "/" + s
	}
	return p
}

// Get reads the ordered segment-type list, then reads each segment's value
// and mask in parallel.
func (c *ExtendedConfigurator) Get(ctx context.Context) (*ExtendedConfig, error) {
	listResp, err := c.transport.Get(ctx, transport.GetToken{
		Resource: c.resource, Path: c.field("segments"),
	})
	if err != nil {
		return nil, err
	}
	rawTypes, _ := listResp.Fields["types"].([]string)

	toks := make([]transport.Token, 0, len(rawTypes)*2)
	for i := range rawTypes {
		toks = append(toks,
			transport.GetToken{Resource: c.resource, Path: c.field("segments", strconv.Itoa(i), "value")},
			transport.GetToken{Resource: c.resource, Path: c.field("segments", strconv.Itoa(i), "mask")},
		)
	}

	result, err := c.transport.Apply(ctx, toks...)
	if err != nil {
		return nil, err
	}

	cfg := &ExtendedConfig{Segments: make([]Segment, len(rawTypes))}
	for i, t := range rawTypes {
		valIdx, maskIdx := 2*i, 2*i+1
		if result.Errs[valIdx] != nil {
			return nil, result.Errs[valIdx]
		}
		if result.Errs[maskIdx] != nil {
			return nil, result.Errs[maskIdx]
		}
		cfg.Segments[i] = Segment{
			Type:  SegmentType(t),
			Value: toString(result.Responses[valIdx].Fields["value"]),
			Mask:  toString(result.Responses[maskIdx].Fields["value"]),
		}
	}
	return cfg, nil
}

// Set first replaces the segment type list, then writes value+mask for each
// segment in order, as one atomic set-mode batch.
func (c *ExtendedConfigurator) Set(ctx context.Context, cfg ExtendedConfig) error {
	types := make([]string, len(cfg.Segments))
	for i, seg := range cfg.Segments {
		types[i] = string(seg.Type)
	}

	toks := []transport.Token{
		transport.SetToken{Resource: c.resource, Path: c.field("segments"), Params: map[string]any{"types": types}},
	}
	for i, seg := range cfg.Segments {
		toks = append(toks,
			transport.SetToken{Resource: c.resource, Path: c.field("segments", strconv.Itoa(i), "value"), Params: map[string]any{"value": seg.Value}},
			transport.SetToken{Resource: c.resource, Path: c.field("segments", strconv.Itoa(i), "mask"), Params: map[string]any{"value": seg.Mask}},
		)
	}

	_, err := c.transport.Apply(ctx, toks...)
	return err
}
