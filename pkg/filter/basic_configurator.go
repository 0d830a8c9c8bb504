package filter

import (
	"context"
	"errors"
	"strconv"

	"github.com/openimpair/controlplane/pkg/transport"
)

// BasicConfigurator is the basic-mode shadow-filter configurator: get()
// issues 62 parallel reads (21 field matchers, 25 sub-filter settings, 16
// TPLD entries) and assembles the tree; set()
// emits conditional writes, skipping any sub-filter whose FilterUse is Off
// so untouched layers keep whatever working-side state apply() last
// promoted.
type BasicConfigurator struct {
	transport transport.Transport
	resource  transport.ResourceRef
	path      string                // e.g. "flows/0/filter/basic"
}

func (c *BasicConfigurator) field(parts ...string) string {
	p := c.path
	for _, s := range parts {
		p += "/" + s
	}
	return p
}

// Get reads every sub-filter's settings, field matchers, and the 16 TPLD
// entries in parallel, then assembles BasicConfig.
func (c *BasicConfigurator) Get(ctx context.Context) (*BasicConfig, error) {
	type fieldRef struct {
		path string
		dst  *Match
	}

	cfg := &BasicConfig{}
	var refs []fieldRef

	refs = append(refs,
		fieldRef{c.field("ethernet", "srcAddr"), &cfg.Ethernet.SrcAddr},
		fieldRef{c.field("ethernet", "destAddr"), &cfg.Ethernet.DestAddr},
		fieldRef{c.field("l2plus", "vlan1", "tagInner"), &cfg.L2Plus.VLAN1.TagInner},
		fieldRef{c.field("l2plus", "vlan1", "pcpInner"), &cfg.L2Plus.VLAN1.PCPInner},
		fieldRef{c.field("l2plus", "vlan1", "tagOuter"), &cfg.L2Plus.VLAN1.TagOuter},
		fieldRef{c.field("l2plus", "vlan1", "pcpOuter"), &cfg.L2Plus.VLAN1.PCPOuter},
		fieldRef{c.field("l2plus", "vlan2", "tagInner"), &cfg.L2Plus.VLAN2.TagInner},
		fieldRef{c.field("l2plus", "vlan2", "pcpInner"), &cfg.L2Plus.VLAN2.PCPInner},
		fieldRef{c.field("l2plus", "vlan2", "tagOuter"), &cfg.L2Plus.VLAN2.TagOuter},
		fieldRef{c.field("l2plus", "vlan2", "pcpOuter"), &cfg.L2Plus.VLAN2.PCPOuter},
		fieldRef{c.field("l2plus", "mpls", "label"), &cfg.L2Plus.MPLS.Label},
		fieldRef{c.field("l2plus", "mpls", "toc"), &cfg.L2Plus.MPLS.TOC},
		fieldRef{c.field("l3", "ipv4", "srcAddr"), &cfg.L3.IPv4.SrcAddr},
		fieldRef{c.field("l3", "ipv4", "destAddr"), &cfg.L3.IPv4.DestAddr},
		fieldRef{c.field("l3", "ipv4", "dscp"), &cfg.L3.IPv4.DSCP},
		fieldRef{c.field("l3", "ipv6", "srcAddr"), &cfg.L3.IPv6.SrcAddr},
		fieldRef{c.field("l3", "ipv6", "destAddr"), &cfg.L3.IPv6.DestAddr},
		fieldRef{c.field("l4", "tcp", "srcPort"), &cfg.L4.TCP.SrcPort},
		fieldRef{c.field("l4", "tcp", "destPort"), &cfg.L4.TCP.DestPort},
		fieldRef{c.field("l4", "udp", "srcPort"), &cfg.L4.UDP.SrcPort},
		fieldRef{c.field("l4", "udp", "destPort"), &cfg.L4.UDP.DestPort},
	)

	toks := make([]transport.Token, 0, len(refs)+16+8)
	for _, r := range refs {
		toks = append(toks, transport.GetToken{Resource: c.resource, Path: r.path})
	}

	presenceToks := []string{
		c.field("ethernet", "filterUse"), c.field("ethernet", "matchAction"),
		c.field("l2plus", "kind"),
		c.field("l2plus", "vlan1", "filterUse"), c.field("l2plus", "vlan1", "matchAction"),
		c.field("l2plus", "vlan2", "filterUse"), c.field("l2plus", "vlan2", "matchAction"),
		c.field("l2plus", "mpls", "filterUse"), c.field("l2plus", "mpls", "matchAction"),
		c.field("l3", "kind"),
		c.field("l3", "ipv4", "filterUse"), c.field("l3", "ipv4", "matchAction"),
		c.field("l3", "ipv6", "filterUse"), c.field("l3", "ipv6", "matchAction"),
		c.field("l4", "kind"),
		c.field("l4", "tcp", "filterUse"), c.field("l4", "tcp", "matchAction"),
		c.field("l4", "udp", "filterUse"), c.field("l4", "udp", "matchAction"),
		c.field("any", "filterUse"), c.field("any", "matchAction"), c.field("any", "position"),
		c.field("any", "value"), c.field("any", "mask"),
		c.field("tpld", "matchAction"),
	}
	for _, p := range presenceToks {
		toks = append(toks, transport.GetToken{Resource: c.resource, Path: p})
	}

	tpldBase := len(toks)
	for i := 0; i < 16; i++ {
		toks = append(toks, transport.GetToken{Resource: c.resource, Path: c.field("tpld", "entries", strconv.Itoa(i))})
	}

	result, err := c.transport.Apply(ctx, toks...)
	if err != nil {
		return nil, err
	}

	for i, r := range refs {
		if err := applyOptionalMatch(result, i, r.dst); err != nil {
			return nil, err
		}
	}

	base := len(refs)
	get := func(i int) (map[string]any, bool, error) {
		idx := base + i
		if result.Errs[idx] != nil {
			if isNotValid(result.Errs[idx]) {
				return nil, false, nil
			}
			return nil, false, result.Errs[idx]
		}
		return result.Responses[idx].Fields, true, nil
	}

	if f, ok, err := get(0); err != nil {
		return nil, err
	} else if ok {
		cfg.Ethernet.FilterUse = Toggle(toString(f["value"]))
	}
	if f, ok, err := get(1); err != nil {
		return nil, err
	} else if ok {
		cfg.Ethernet.MatchAction = MatchAction(toString(f["value"]))
	}
	if f, ok, err := get(2); err != nil {
		return nil, err
	} else if ok {
		cfg.L2Plus.Kind = L2PlusKind(toString(f["value"]))
	}
	if f, ok, err := get(3); err != nil {
		return nil, err
	} else if ok {
		cfg.L2Plus.VLAN1.FilterUse = Toggle(toString(f["value"]))
	}
	if f, ok, err := get(4); err != nil {
		return nil, err
	} else if ok {
		cfg.L2Plus.VLAN1.MatchAction = MatchAction(toString(f["value"]))
	}
	if f, ok, err := get(5); err != nil {
		return nil, err
	} else if ok {
		cfg.L2Plus.VLAN2.FilterUse = Toggle(toString(f["value"]))
	}
	if f, ok, err := get(6); err != nil {
		return nil, err
	} else if ok {
		cfg.L2Plus.VLAN2.MatchAction = MatchAction(toString(f["value"]))
	}
	if f, ok, err := get(7); err != nil {
		return nil, err
	} else if ok {
		cfg.L2Plus.MPLS.FilterUse = Toggle(toString(f["value"]))
	}
	if f, ok, err := get(8); err != nil {
		return nil, err
	} else if ok {
		cfg.L2Plus.MPLS.MatchAction = MatchAction(toString(f["value"]))
	}
	if f, ok, err := get(9); err != nil {
		return nil, err
	} else if ok {
		cfg.L3.Kind = L3Kind(toString(f["value"]))
	}
	if f, ok, err := get(10); err != nil {
		return nil, err
	} else if ok {
		cfg.L3.IPv4.FilterUse = Toggle(toString(f["value"]))
	}
	if f, ok, err := get(11); err != nil {
		return nil, err
	} else if ok {
		cfg.L3.IPv4.MatchAction = MatchAction(toString(f["value"]))
	}
	if f, ok, err := get(12); err != nil {
		return nil, err
	} else if ok {
		cfg.L3.IPv6.FilterUse = Toggle(toString(f["value"]))
	}
	if f, ok, err := get(13); err != nil {
		return nil, err
	} else if ok {
		cfg.L3.IPv6.MatchAction = MatchAction(toString(f["value"]))
	}
	if f, ok, err := get(14); err != nil {
		return nil, err
	} else if ok {
		cfg.L4.Kind = L4Kind(toString(f["value"]))
	}
	if f, ok, err := get(15); err != nil {
		return nil, err
	} else if ok {
		cfg.L4.TCP.FilterUse = Toggle(toString(f["value"]))
	}
	if f, ok, err := get(16); err != nil {
		return nil, err
	} else if ok {
		cfg.L4.TCP.MatchAction = MatchAction(toString(f["value"]))
	}
	if f, ok, err := get(17); err != nil {
		return nil, err
	} else if ok {
		cfg.L4.UDP.FilterUse = Toggle(toString(f["value"]))
	}
	if f, ok, err := get(18); err != nil {
		return nil, err
	} else if ok {
		cfg.L4.UDP.MatchAction = MatchAction(toString(f["value"]))
	}
	if f, ok, err := get(19); err != nil {
		return nil, err
	} else if ok {
		cfg.Any.FilterUse = Toggle(toString(f["value"]))
	}
	if f, ok, err := get(20); err != nil {
		return nil, err
	} else if ok {
		cfg.Any.MatchAction = MatchAction(toString(f["value"]))
	}
	if f, ok, err := get(21); err != nil {
		return nil, err
	} else if ok {
		cfg.Any.Position = toUint32(f["value"])
	}
	if f, ok, err := get(22); err != nil {
		return nil, err
	} else if ok {
		cfg.Any.Value = toString(f["value"])
	}
	if f, ok, err := get(23); err != nil {
		return nil, err
	} else if ok {
		cfg.Any.Mask = toString(f["value"])
	}
	if f, ok, err := get(24); err != nil {
		return nil, err
	} else if ok {
		cfg.TPLD.MatchAction = MatchAction(toString(f["value"]))
	}

	for i := 0; i < 16; i++ {
		respIdx := tpldBase + i
		if result.Errs[respIdx] != nil {
			if isNotValid(result.Errs[respIdx]) {
				continue
			}
			return nil, result.Errs[respIdx]
		}
		f := result.Responses[respIdx].Fields
		cfg.TPLD.Entries[i] = TPLDEntry{
			Index:  i,
			TPLDID: toUint32(f["tpldId"]),
			Use:    Toggle(toString(f["use"])),
		}
	}

	return cfg, nil
}

func applyOptionalMatch(result *transport.BatchResult, idx int, dst *Match) error {
	if result.Errs[idx] != nil {
		if isNotValid(result.Errs[idx]) {
			return nil
		}
		return result.Errs[idx]
	}
	*dst = matchFromFields(result.Responses[idx].Fields)
	return nil
}

// Set emits conditional command sequences: only sub-filters whose
// FilterUse != Off are written — skipping untouched layers leaves their
// working registers intact on apply. Layer
// 2+ and Layer 3 emit a presence-selector command first, then branch;
// TPLD always emits its match action plus all 16 entries. Every command is
// part of one set-mode batch so the whole configurator write is atomic on
// the shadow side.
func (c *BasicConfigurator) Set(ctx context.Context, cfg BasicConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	var toks []transport.Token
	set := func(path string, params map[string]any) {
		toks = append(toks, transport.SetToken{Resource: c.resource, Path: path, Params: params})
	}

	if cfg.Ethernet.FilterUse != Off {
		set(c.field("ethernet", "filterUse"), map[string]any{"value": string(cfg.Ethernet.FilterUse)})
		set(c.field("ethernet", "matchAction"), map[string]any{"value": string(cfg.Ethernet.MatchAction)})
		set(c.field("ethernet", "srcAddr"), cfg.Ethernet.SrcAddr.fields())
		set(c.field("ethernet", "destAddr"), cfg.Ethernet.DestAddr.fields())
	}

	set(c.field("l2plus", "kind"), map[string]any{"value": string(cfg.L2Plus.Kind)})
	switch cfg.L2Plus.Kind {
	case L2PlusVLAN1:
		c.emitVLAN(&toks, "vlan1", cfg.L2Plus.VLAN1)
	case L2PlusVLAN2:
		c.emitVLAN(&toks, "vlan2", cfg.L2Plus.VLAN2)
	case L2PlusMPLS:
		if cfg.L2Plus.MPLS.FilterUse != Off {
			set(c.field("l2plus", "mpls", "filterUse"), map[string]any{"value": string(cfg.L2Plus.MPLS.FilterUse)})
			set(c.field("l2plus", "mpls", "matchAction"), map[string]any{"value": string(cfg.L2Plus.MPLS.MatchAction)})
			set(c.field("l2plus", "mpls", "label"), cfg.L2Plus.MPLS.Label.fields())
			set(c.field("l2plus", "mpls", "toc"), cfg.L2Plus.MPLS.TOC.fields())
		}
	}

	set(c.field("l3", "kind"), map[string]any{"value": string(cfg.L3.Kind)})
	switch cfg.L3.Kind {
	case L3IPv4:
		if cfg.L3.IPv4.FilterUse != Off {
			set(c.field("l3", "ipv4", "filterUse"), map[string]any{"value": string(cfg.L3.IPv4.FilterUse)})
			set(c.field("l3", "ipv4", "matchAction"), map[string]any{"value": string(cfg.L3.IPv4.MatchAction)})
			set(c.field("l3", "ipv4", "srcAddr"), cfg.L3.IPv4.SrcAddr.fields())
			set(c.field("l3", "ipv4", "destAddr"), cfg.L3.IPv4.DestAddr.fields())
			set(c.field("l3", "ipv4", "dscp"), cfg.L3.IPv4.DSCP.fields())
		}
	case L3IPv6:
		if cfg.L3.IPv6.FilterUse != Off {
			set(c.field("l3", "ipv6", "filterUse"), map[string]any{"value": string(cfg.L3.IPv6.FilterUse)})
			set(c.field("l3", "ipv6", "matchAction"), map[string]any{"value": string(cfg.L3.IPv6.MatchAction)})
			set(c.field("l3", "ipv6", "srcAddr"), cfg.L3.IPv6.SrcAddr.fields())
			set(c.field("l3", "ipv6", "destAddr"), cfg.L3.IPv6.DestAddr.fields())
		}
	}

	// TCP-wins precedence when both are non-Off: only the effective kind's
	// block is written.
	switch cfg.L4.effectiveKind() {
	case L4TCP:
		set(c.field("l4", "kind"), map[string]any{"value": string(L4TCP)})
		set(c.field("l4", "tcp", "filterUse"), map[string]any{"value": string(cfg.L4.TCP.FilterUse)})
		set(c.field("l4", "tcp", "matchAction"), map[string]any{"value": string(cfg.L4.TCP.MatchAction)})
		set(c.field("l4", "tcp", "srcPort"), cfg.L4.TCP.SrcPort.fields())
		set(c.field("l4", "tcp", "destPort"), cfg.L4.TCP.DestPort.fields())
	case L4UDP:
		set(c.field("l4", "kind"), map[string]any{"value": string(L4UDP)})
		set(c.field("l4", "udp", "filterUse"), map[string]any{"value": string(cfg.L4.UDP.FilterUse)})
		set(c.field("l4", "udp", "matchAction"), map[string]any{"value": string(cfg.L4.UDP.MatchAction)})
		set(c.field("l4", "udp", "srcPort"), cfg.L4.UDP.SrcPort.fields())
		set(c.field("l4", "udp", "destPort"), cfg.L4.UDP.DestPort.fields())
	default:
		set(c.field("l4", "kind"), map[string]any{"value": string(L4None)})
	}

	if cfg.Any.FilterUse != Off {
		set(c.field("any", "filterUse"), map[string]any{"value": string(cfg.Any.FilterUse)})
		set(c.field("any", "matchAction"), map[string]any{"value": string(cfg.Any.MatchAction)})
		set(c.field("any", "position"), map[string]any{"value": cfg.Any.Position})
		set(c.field("any", "value"), map[string]any{"value": cfg.Any.Value})
		set(c.field("any", "mask"), map[string]any{"value": cfg.Any.Mask})
	}

	// TPLD always emits its match action plus all 16 entries.
	set(c.field("tpld", "matchAction"), map[string]any{"value": string(cfg.TPLD.MatchAction)})
	for i, e := range cfg.TPLD.Entries {
		set(c.field("tpld", "entries", strconv.Itoa(i)), map[string]any{"tpldId": e.TPLDID, "use": string(e.Use)})
	}

	_, err := c.transport.Apply(ctx, toks...)
	return err
}

func (c *BasicConfigurator) emitVLAN(toks *[]transport.Token, name string, v VLANFilter) {
	if v.FilterUse == Off {
		return
	}
	set := func(path string, params map[string]any) {
		*toks = append(*toks, transport.SetToken{Resource: c.resource, Path: path, Params: params})
	}
	set(c.field("l2plus", name, "filterUse"), map[string]any{"value": string(v.FilterUse)})
	set(c.field("l2plus", name, "matchAction"), map[string]any{"value": string(v.MatchAction)})
	set(c.field("l2plus", name, "tagInner"), v.TagInner.fields())
	set(c.field("l2plus", name, "pcpInner"), v.PCPInner.fields())
	set(c.field("l2plus", name, "tagOuter"), v.TagOuter.fields())
	set(c.field("l2plus", name, "pcpOuter"), v.PCPOuter.fields())
}

func isNotValid(err error) bool {
	return errors.Is(err, transport.ErrNotValid)
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func toUint32(v any) uint32 {
	switch n := v.(type) {
	case uint32:
		return n
	case int:
		return uint32(n)
	case int64:
		return uint32(n)
	case float64:
		return uint32(n)
	default:
		return 0
	}
}
