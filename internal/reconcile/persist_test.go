package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencall-dev/opencall-cli/internal/model"
)

type fakeGateway struct {
	committed []string
	failIDs   map[string]bool
	events    map[string]int
}

func (g *fakeGateway) CommitOpportunity(_ context.Context, o *model.Opportunity, events []model.ChangeEvent) error {
	if g.failIDs[o.ID] {
		return errors.New("connection reset")
	}
	g.committed = append(g.committed, o.ID)
	if g.events == nil {
		g.events = make(map[string]int)
	}
	g.events[o.ID] = len(events)
	return nil
}

func TestPersist_CommitsTouched(t *testing.T) {
	e := newEngine()
	res := e.Reconcile(run1, []model.RawRecord{cafeRecord()}, nil)

	gw := &fakeGateway{}
	require.NoError(t, Persist(context.Background(), gw, res))

	require.Len(t, gw.committed, 1)
	assert.Equal(t, res.Created[0], gw.committed[0])
	assert.Empty(t, res.Summary.Uncommitted)
}

func TestPersist_FailureMarksUncommitted(t *testing.T) {
	e := newEngine()

	other := model.RawRecord{
		Platform: model.PlatformArtCall,
		Title:    "Completely Different Show",
		URL:      "https://different.artcall.org",
	}
	res := e.Reconcile(run1, []model.RawRecord{cafeRecord(), other}, nil)
	require.Len(t, res.Created, 2)

	gw := &fakeGateway{failIDs: map[string]bool{res.Created[0]: true}}
	err := Persist(context.Background(), gw, res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 opportunities not committed")

	// The failure is isolated: the other commit still lands.
	assert.Len(t, gw.committed, 1)
	assert.Equal(t, []string{res.Created[0]}, res.Summary.Uncommitted)
}

func TestPersist_EventsTravelWithOpportunity(t *testing.T) {
	e := newEngine()

	res1 := e.Reconcile(run1, []model.RawRecord{cafeRecord()}, nil)

	revised := cafeRecord()
	revised.DeadlineRaw = "November 22, 2025"
	res2 := e.Reconcile(run2, []model.RawRecord{revised}, snapshot(res1))

	gw := &fakeGateway{}
	require.NoError(t, Persist(context.Background(), gw, res2))

	require.Len(t, gw.committed, 1)
	assert.Equal(t, 1, gw.events[gw.committed[0]])
}
