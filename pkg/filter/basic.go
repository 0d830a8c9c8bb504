// Package filter implements the per-flow shadow-filter packet classifier in
// both its basic mode (a fixed tree of protocol-layer sub-filters) and
// extended mode (an ordered sequence of raw protocol segments), with the
// shadow/working commit semantics described elsewhere.
package filter

import "fmt"

// Toggle mirrors the device's per-field and per-sub-filter On/Off switch.
type Toggle string

const (
	On  Toggle = "On"
	Off Toggle = "Off"
)

// MatchAction is the sub-filter's overall verdict contribution.
type MatchAction string

const (
	Include MatchAction = "Include"
	Exclude MatchAction = "Exclude"
)

// Match is one field matcher: {use, value, mask}. Value and Mask
// are carried pre-encoded to their wire hex width (MAC=12 hex chars,
// IPv4=8, IPv6=32, VLAN tag=3, VLAN PCP=1, MPLS label=5, MPLS TOC=1, L4
// port=4, DSCP=2) — this package does not
// re-derive widths, it only carries and round-trips what the caller supplies
// so a caller's mistake surfaces as a device validation error, not a silent
// truncation here.
type Match struct {
	Use   Toggle
	Value string
	Mask  string
}

func (m Match) fields() map[string]any {
	return map[string]any{"use": string(m.Use), "value": m.Value, "mask": m.Mask}
}

func matchFromFields(fields map[string]any) Match {
	use, _ := fields["use"].(string)
	value, _ := fields["value"].(string)
	mask, _ := fields["mask"].(string)
	return Match{Use: Toggle(use), Value: value, Mask: mask}
}

// EthernetFilter is the basic-mode Layer 2 sub-filter.
type EthernetFilter struct {
	FilterUse   Toggle
	MatchAction MatchAction
	SrcAddr     Match
	DestAddr    Match
}

// L2PlusKind selects which Layer 2+ block is active; at most one of
// VLAN1/VLAN2/MPLS is meaningful at a time, selected by Kind.
type L2PlusKind string

const (
	L2PlusNone  L2PlusKind = "None"
	L2PlusVLAN1 L2PlusKind = "VLAN1"
	L2PlusVLAN2 L2PlusKind = "VLAN2"
	L2PlusMPLS  L2PlusKind = "MPLS"
)

// VLANFilter carries the Layer 2+ VLAN1/VLAN2 fields. Inner/outer
// naming matches double-tagged (QinQ) frames; VLAN1 uses only the Inner
// pair, VLAN2 uses both.
type VLANFilter struct {
	FilterUse   Toggle
	MatchAction MatchAction
	TagInner    Match
	PCPInner    Match
	TagOuter    Match
	PCPOuter    Match
}

// MPLSFilter carries the Layer 2+ MPLS fields.
type MPLSFilter struct {
	FilterUse   Toggle
	MatchAction MatchAction
	Label       Match
	TOC         Match
}

// L2PlusFilter is the basic-mode Layer 2+ sub-filter: a presence selector
// (Kind) plus whichever of VLAN/MPLS is active. Layer 2+ and Layer 3 emit
// presence-selector commands first, then branch.
type L2PlusFilter struct {
	Kind  L2PlusKind
	VLAN1 VLANFilter
	VLAN2 VLANFilter
	MPLS  MPLSFilter
}

// L3Kind selects which Layer 3 block is active.
type L3Kind string

const (
	L3None L3Kind = "None"
	L3IPv4 L3Kind = "IPv4"
	L3IPv6 L3Kind = "IPv6"
)

// IPv4Filter carries the Layer 3 IPv4 fields.
type IPv4Filter struct {
	FilterUse   Toggle
	MatchAction MatchAction
	SrcAddr     Match
	DestAddr    Match
	DSCP        Match
}

// IPv6Filter carries the Layer 3 IPv6 fields.
type IPv6Filter struct {
	FilterUse   Toggle
	MatchAction MatchAction
	SrcAddr     Match
	DestAddr    Match
}

// L3Filter is the basic-mode Layer 3 sub-filter.
type L3Filter struct {
	Kind L3Kind
	IPv4 IPv4Filter
	IPv6 IPv6Filter
}

// L4Kind selects which Layer 4 block is active.
type L4Kind string

const (
	L4None L4Kind = "None"
	L4TCP  L4Kind = "TCP"
	L4UDP  L4Kind = "UDP"
)

// TCPUDPFilter is the basic-mode Layer 4 sub-filter shape shared by TCP and
// UDP.
type TCPUDPFilter struct {
	FilterUse   Toggle
	MatchAction MatchAction
	SrcPort     Match
	DestPort    Match
}

// L4Filter is the basic-mode Layer 4 sub-filter. TCP and UDP are mutually
// exclusive in practice; when both carry non-Off FilterUse, TCP wins.
type L4Filter struct {
	Kind L4Kind
	TCP  TCPUDPFilter
	UDP  TCPUDPFilter
}

// effectiveKind resolves which Layer 4 block the device will actually honor,
// applying the TCP-wins precedence rule regardless of what Kind was last
// recorded by a caller.
func (l L4Filter) effectiveKind() L4Kind {
	tcpOn := l.TCP.FilterUse != Off
	udpOn := l.UDP.FilterUse != Off
	switch {
	case tcpOn:
		return L4TCP
	case udpOn:
		return L4UDP
	default:
		return L4None
	}
}

// TPLDEntry is one of the 16 Xena TPLD sub-filter entries.
type TPLDEntry struct {
	Index  int
	TPLDID uint32
	Use    Toggle
}

// TPLDFilter is the basic-mode Xena TPLD sub-filter: 16 entries plus a
// single match action for the whole sub-filter.
type TPLDFilter struct {
	MatchAction MatchAction
	Entries     [16]TPLDEntry
}

// AnyFilter is the basic-mode arbitrary-byte matcher.
type AnyFilter struct {
	FilterUse   Toggle
	MatchAction MatchAction
	Position    uint32
	Value       string
	Mask        string
}

// BasicConfig is the full basic-mode shadow-filter tree: one
// Ethernet sub-filter, one Layer 2+ block, one Layer 3 block, one Layer 4
// block, one TPLD sub-filter, one arbitrary-byte sub-filter.
type BasicConfig struct {
	Ethernet EthernetFilter
	L2Plus   L2PlusFilter
	L3       L3Filter
	L4       L4Filter
	TPLD     TPLDFilter
	Any      AnyFilter
}

// Validate rejects an L2Plus.Kind other than None, VLAN1, VLAN2 or MPLS;
// nothing else is checked. It does not reject a
// both-TCP-and-UDP-non-Off config (the configurator resolves that via
// effectiveKind/TCP-wins — the device never sees an
// ambiguous state even though the client-side struct can represent one).
func (c BasicConfig) Validate() error {
	if c.L2Plus.Kind == L2PlusNone {
		return nil
	}
	switch c.L2Plus.Kind {
	case L2PlusVLAN1, L2PlusVLAN2, L2PlusMPLS:
		return nil
	default:
		return fmt.Errorf("filter: unknown L2+ kind %q", c.L2Plus.Kind)
	}
}
