package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func portRef() ResourceRef {
	return ResourceRef{Kind: KindPort, TesterID: "t1", ModuleID: 0, PortID: 0}
}

func TestSimulator_GetUnsetFieldReturnsNotValid(t *testing.T) {
	sim := NewSimulator()

	_, err := sim.Get(context.Background(), GetToken{Resource: portRef(), Path: "drop/enable"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotValid))
}

func TestSimulator_SetThenApplyPromotesToWorking(t *testing.T) {
	sim := NewSimulator()
	ref := portRef()
	tok := SetToken{Resource: ref, Path: "drop/enable", Params: map[string]any{"enable": true}}

	result, err := sim.Apply(context.Background(), tok)
	require.NoError(t, err)
	assert.True(t, result.Ok())

	resp, err := sim.Get(context.Background(), GetToken{Resource: ref, Path: "drop/enable"})
	require.NoError(t, err)
	assert.Equal(t, true, resp.Fields["enable"])
}

func TestSimulator_ApplyGetModeFoldsPerTokenResults(t *testing.T) {
	sim := NewSimulator()
	ref := portRef()

	_, err := sim.Apply(context.Background(), SetToken{Resource: ref, Path: "drop/enable", Params: map[string]any{"enable": true}})
	require.NoError(t, err)

	result, err := sim.Apply(context.Background(),
		GetToken{Resource: ref, Path: "drop/enable"},
		GetToken{Resource: ref, Path: "misorder/enable"},
	)
	require.NoError(t, err)
	require.Len(t, result.Responses, 2)

	assert.NoError(t, result.Errs[0])
	assert.Equal(t, true, result.Responses[0].Fields["enable"])

	assert.Error(t, result.Errs[1])
	assert.True(t, errors.Is(result.Errs[1], ErrNotValid))

	assert.False(t, result.Ok())
}

func TestSimulator_ApplyMixedBatchRejected(t *testing.T) {
	sim := NewSimulator()
	ref := portRef()

	_, err := sim.Apply(context.Background(),
		SetToken{Resource: ref, Path: "drop/enable", Params: map[string]any{"enable": true}},
		GetToken{Resource: ref, Path: "drop/enable"},
	)
	require.Error(t, err)
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
}

func TestSimulator_SetModeAbortsOnFirstFailure(t *testing.T) {
	sim := NewSimulator()
	ref := portRef()

	badExec := func(ctx context.Context, tok Token) (Response, error) {
		if tok.Addr() == "poison" {
			return Response{}, errors.New("boom")
		}
		return Response{}, sim.Set(ctx, tok.(SetToken))
	}

	toks := []Token{
		SetToken{Resource: ref, Path: "first", Params: map[string]any{"v": 1}},
		SetToken{Resource: ref, Path: "poison", Params: map[string]any{"v": 2}},
		SetToken{Resource: ref, Path: "third", Params: map[string]any{"v": 3}},
	}

	err := RunSetBatch(context.Background(), badExec, toks)
	require.Error(t, err)

	_, err = sim.Get(context.Background(), GetToken{Resource: ref, Path: "third"})
	assert.ErrorIs(t, err, ErrNotValid, "tokens after the failing one must never be delivered")
}

func TestSimulator_ShadowWorkingRegisterPair(t *testing.T) {
	sim := NewSimulator()
	ref := portRef()

	require.NoError(t, sim.Set(context.Background(), SetToken{Resource: ref, Path: "flows/0/filter/basic/l2/protocol", Params: map[string]any{"value": "ethernet"}}))

	_, workingSet := sim.GetShadow(ref, "flows/0/filter/basic/l2/protocol")
	assert.True(t, workingSet)
	_, err := sim.Get(context.Background(), GetToken{Resource: ref, Path: "flows/0/filter/basic/l2/protocol"})
	assert.ErrorIs(t, err, ErrNotValid, "a Set only touches shadow until ApplyShadow promotes it")

	sim.ApplyShadow(ref)
	resp, err := sim.Get(context.Background(), GetToken{Resource: ref, Path: "flows/0/filter/basic/l2/protocol"})
	require.NoError(t, err)
	assert.Equal(t, "ethernet", resp.Fields["value"])

	require.NoError(t, sim.Set(context.Background(), SetToken{Resource: ref, Path: "flows/0/filter/basic/l2/protocol", Params: map[string]any{"value": "vlan1"}}))
	sim.CancelShadow(ref)
	shadowResp, ok := sim.GetShadow(ref, "flows/0/filter/basic/l2/protocol")
	require.True(t, ok)
	assert.Equal(t, "ethernet", shadowResp.Fields["value"], "cancel reloads shadow from working, discarding the pending edit")
}

func TestSimulator_ReservationStateMachine(t *testing.T) {
	sim := NewSimulator()
	ref := portRef()
	ctx := context.Background()

	state, err := sim.ReservationState(ctx, ref, "session-a")
	require.NoError(t, err)
	assert.Equal(t, Released, state)

	require.NoError(t, sim.Reserve(ctx, ref, "session-a"))
	state, err = sim.ReservationState(ctx, ref, "session-a")
	require.NoError(t, err)
	assert.Equal(t, ReservedByYou, state)

	sim.ForceReservedByOther(ref, "session-b")
	err = sim.Reserve(ctx, ref, "session-a")
	require.Error(t, err)
	var terr *TransportError
	require.ErrorAs(t, err, &terr)

	require.NoError(t, sim.Relinquish(ctx, ref))
	state, err = sim.ReservationState(ctx, ref, "session-a")
	require.NoError(t, err)
	assert.Equal(t, Released, state)

	require.NoError(t, sim.Reserve(ctx, ref, "session-a"))
	require.NoError(t, sim.Release(ctx, ref, "session-a"))
	state, err = sim.ReservationState(ctx, ref, "session-a")
	require.NoError(t, err)
	assert.Equal(t, Released, state)
}

// TestSimulator_Reserve_RejectsDistinctContendingSession covers the real
// two-session contention path (not ForceReservedByOther): once session-a
// holds the reservation, session-b's Reserve must be refused rather than
// silently taking over, and session-a must still see ReservedByYou
// afterward.
func TestSimulator_Reserve_RejectsDistinctContendingSession(t *testing.T) {
	sim := NewSimulator()
	ref := portRef()
	ctx := context.Background()

	require.NoError(t, sim.Reserve(ctx, ref, "session-a"))

	err := sim.Reserve(ctx, ref, "session-b")
	require.Error(t, err)
	var terr *TransportError
	require.ErrorAs(t, err, &terr)

	stateA, err := sim.ReservationState(ctx, ref, "session-a")
	require.NoError(t, err)
	assert.Equal(t, ReservedByYou, stateA)

	stateB, err := sim.ReservationState(ctx, ref, "session-b")
	require.NoError(t, err)
	assert.Equal(t, ReservedByOther, stateB)
}

func TestSimulator_SubscribeAndClose(t *testing.T) {
	sim := NewSimulator()
	ch, err := sim.Subscribe(context.Background(), EventReservedByChange)
	require.NoError(t, err)

	sim.publish(Event{Kind: EventReservedByChange, Target: portRef()})
	ev := <-ch
	assert.Equal(t, EventReservedByChange, ev.Kind)

	require.NoError(t, sim.Close())
	_, open := <-ch
	assert.False(t, open, "Close must close every subscriber channel")
}

func TestResourceRef_String(t *testing.T) {
	cases := []struct {
		ref  ResourceRef
		want string
	}{
		{ResourceRef{Kind: KindTester, TesterID: "t1"}, "tester:t1"},
		{ResourceRef{Kind: KindModule, TesterID: "t1", ModuleID: 2}, "tester:t1/module:2"},
		{ResourceRef{Kind: KindPort, TesterID: "t1", ModuleID: 2, PortID: 5}, "tester:t1/module:2/port:5"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, c.ref.String())
	}
}
