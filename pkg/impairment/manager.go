package impairment

import (
	"context"
	"errors"

	"github.com/openimpair/controlplane/pkg/distribution"
	"github.com/openimpair/controlplane/pkg/transport"
)

// Manager exposes get/set/start/stop for one distribution-bearing
// impairment on one flow. It owns the batched-read protocol
// that reconstructs Config from partial get responses, and owns nothing
// else: no caching, no background state — every call round-trips the
// transport.
type Manager struct {
	transport transport.Transport
	resource  transport.ResourceRef
	kind      Kind
	path      string                // e.g. "flows/3/drop"
}

// New builds a Manager for kind on resource, addressing fields under path.
func New(t transport.Transport, resource transport.ResourceRef, kind Kind, path string) *Manager {
	return &Manager{transport: t, resource: resource, kind: kind, path: path}
}

// Get reconstructs Config by issuing, in parallel, enable.get, schedule.get,
// and distribution.<v>.get for every variant in this impairment's allowed
// set. NotValid responses are expected for every distribution
// not currently configured and are filtered out; a TransportError on any
// token is fatal to the whole call. Among the surviving distribution
// responses, the one with the most recent SetAt wins; ties (or an absent
// SetAt) fall back to allowed-set declaration order.
func (m *Manager) Get(ctx context.Context) (*Config, error) {
	variants := AllowedDistributions(m.kind)

	toks := make([]transport.Token, 0, 3+len(variants))
	toks = append(toks,
		transport.GetToken{Resource: m.resource, Path: m.path + "/enable"},
		transport.GetToken{Resource: m.resource, Path: m.path + "/schedule"},
	)
	typeIdx := -1
	if m.kind == Corruption {
		typeIdx = len(toks)
		toks = append(toks, transport.GetToken{Resource: m.resource, Path: m.path + "/type"})
	}
	variantStart := len(toks)
	for _, v := range variants {
		toks = append(toks, transport.GetToken{Resource: m.resource, Path: m.path + "/distribution/" + string(v)})
	}

	result, err := m.transport.Apply(ctx, toks...)
	if err != nil {
		return nil, err
	}

	enableResp, enableErr := result.Responses[0], result.Errs[0]
	if enableErr != nil && !errors.Is(enableErr, transport.ErrNotValid) {
		return nil, enableErr
	}
	scheduleResp, scheduleErr := result.Responses[1], result.Errs[1]
	if scheduleErr != nil && !errors.Is(scheduleErr, transport.ErrNotValid) {
		return nil, scheduleErr
	}

	cfg := &Config{Enable: Off}
	if enableErr == nil {
		if v, ok := enableResp.Fields["enable"].(bool); ok && v {
			cfg.Enable = On
		}
	}
	if typeIdx >= 0 {
		typeErr := result.Errs[typeIdx]
		if typeErr != nil && !errors.Is(typeErr, transport.ErrNotValid) {
			return nil, typeErr
		}
		if typeErr == nil {
			if v, ok := result.Responses[typeIdx].Fields["type"].(string); ok {
				cfg.CorruptionType = CorruptionType(v)
			}
		}
	}

	type candidate struct {
		variant distribution.Variant
		order   int
		resp    transport.Response
	}
	var candidates []candidate
	for i, v := range variants {
		idx := variantStart + i
		err := result.Errs[idx]
		if err != nil {
			if errors.Is(err, transport.ErrNotValid) {
				continue // expected: this variant has never been set
			}
			return nil, err // TransportError is fatal
		}
		candidates = append(candidates, candidate{variant: v, order: i, resp: result.Responses[idx]})
	}

	if len(candidates) == 0 {
		return cfg, nil // no distribution configured on this side
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.resp.SetAt.After(best.resp.SetAt) {
			best = c
		}
		// equal or zero SetAt: keep the earlier allowed-set order (best
		// already holds the lower index since candidates is built in order)
	}

	d, err := distribution.New(best.variant)
	if err != nil {
		return nil, err
	}
	scheduleFields := map[string]any{}
	if scheduleErr == nil {
		scheduleFields = scheduleResp.Fields
	}
	if err := d.LoadFromResponse(best.resp.Fields, scheduleFields); err != nil {
		return nil, err
	}
	cfg.CurrentDistribution = d

	return cfg, nil
}

// Set applies config to the device without touching enable. It
// fails synchronously, before any I/O, if config has no currentDistribution.
func (m *Manager) Set(ctx context.Context, cfg *Config) error {
	if cfg.CurrentDistribution == nil {
		return &DistributionNotSetError{Impairment: m.kind}
	}
	toks := cfg.CurrentDistribution.EmitApply(m.resource, m.path)
	toks = append(toks, m.emitCorruptionType(cfg)...)
	_, err := m.transport.Apply(ctx, toks...)
	return err
}

// emitCorruptionType emits the corruption_type token when this
// Manager owns the Corruption impairment and cfg names one; nil otherwise.
func (m *Manager) emitCorruptionType(cfg *Config) []transport.Token {
	if m.kind != Corruption || cfg.CorruptionType == "" {
		return nil
	}
	return []transport.Token{transport.SetToken{
		Resource: m.resource, Path: m.path + "/type", Params: map[string]any{"type": string(cfg.CorruptionType)},
	}}
}

// Start applies cfg (if supplied) then sets enable := On, as a single
// set-mode batch (distribution-set-then-enable) so a mid-sequence failure
// never leaves an enabled impairment with no distribution configured. If
// cfg is nil, only enable is set, reusing whatever distribution is already
// active on the device.
func (m *Manager) Start(ctx context.Context, cfg *Config) error {
	var toks []transport.Token
	if cfg != nil {
		if cfg.CurrentDistribution == nil {
			return &DistributionNotSetError{Impairment: m.kind}
		}
		toks = append(toks, cfg.CurrentDistribution.EmitApply(m.resource, m.path)...)
		toks = append(toks, m.emitCorruptionType(cfg)...)
	}
	toks = append(toks, transport.SetToken{Resource: m.resource, Path: m.path + "/enable", Params: map[string]any{"enable": true}})

	_, err := m.transport.Apply(ctx, toks...)
	return err
}

// Stop sets enable := Off, leaving the distribution intact on-device.
func (m *Manager) Stop(ctx context.Context) error {
	_, err := m.transport.Apply(ctx, transport.SetToken{
		Resource: m.resource, Path: m.path + "/enable", Params: map[string]any{"enable": false},
	})
	return err
}
