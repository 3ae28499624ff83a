package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencall-dev/opencall-cli/internal/match"
	"github.com/opencall-dev/opencall-cli/internal/model"
	"github.com/opencall-dev/opencall-cli/internal/normalize"
)

var (
	run1 = time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	run2 = time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC)
	run3 = time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)
)

func newEngine() *Engine {
	return New(normalize.New(), match.New(match.DefaultThreshold))
}

// snapshot converts a Result back into the existing set for the next run.
func snapshot(res *Result) []model.Opportunity {
	out := make([]model.Opportunity, 0, len(res.Opportunities))
	for _, o := range res.Opportunities {
		out = append(out, *o)
	}
	return out
}

func cafeRecord() model.RawRecord {
	return model.RawRecord{
		Platform:     model.PlatformCafe,
		PlatformID:   "12345",
		Title:        "Annual Juried Exhibition",
		Organization: "Riverside Arts Council",
		URL:          "https://artist.callforentry.org/festivals_unique_info.php?ID=12345",
		DeadlineRaw:  "November 15, 2025",
		LocationRaw:  "Portland, OR",
		FeeRaw:       "$35",
	}
}

func TestReconcile_CreatesNewOpportunity(t *testing.T) {
	e := newEngine()

	res := e.Reconcile(run1, []model.RawRecord{cafeRecord()}, nil)

	require.Len(t, res.Opportunities, 1)
	o := res.Opportunities[0]
	assert.Equal(t, "Annual Juried Exhibition", o.Title)
	assert.Equal(t, 1, o.TimesSeen)
	assert.True(t, o.IsActive)
	assert.Equal(t, []model.Platform{model.PlatformCafe}, o.Platforms)
	require.Len(t, o.Links, 1)
	assert.Equal(t, model.PlatformCafe, o.Links[0].Platform)
	require.NotNil(t, o.Links[0].Payload)

	assert.Len(t, res.Created, 1)
	assert.Empty(t, res.Updated)
	assert.Equal(t, 1, res.Summary.NewOpportunities)
	// Creation seeds fields; it records no change events.
	assert.Empty(t, res.Changes)
	assert.Equal(t, 0, res.Summary.ChangeEvents)
}

func TestReconcile_RefetchIsIdempotent(t *testing.T) {
	e := newEngine()

	res1 := e.Reconcile(run1, []model.RawRecord{cafeRecord()}, nil)
	res2 := e.Reconcile(run2, []model.RawRecord{cafeRecord()}, snapshot(res1))

	require.Len(t, res2.Opportunities, 1)
	o := res2.Opportunities[0]
	assert.Equal(t, res1.Opportunities[0].ID, o.ID)
	assert.Equal(t, 2, o.TimesSeen)
	assert.Equal(t, run2, o.LastChecked)
	assert.Equal(t, run1, o.FirstSeen)

	// Same values again: bookkeeping only, no change events.
	assert.Empty(t, res2.Changes)
	assert.Empty(t, res2.Created)
	assert.Len(t, res2.Updated, 1)
}

func TestReconcile_CrossPlatformDedup(t *testing.T) {
	e := newEngine()

	ss := model.RawRecord{
		Platform:     model.PlatformShowSubmit,
		Title:        "Annual Juried Exhibition",
		Organization: "Riverside Arts Council",
		URL:          "https://showsubmit.com/show/annual-juried",
		Email:        "director@riversidearts.org",
	}

	res1 := e.Reconcile(run1, []model.RawRecord{cafeRecord()}, nil)
	res2 := e.Reconcile(run2, []model.RawRecord{ss}, snapshot(res1))

	require.Len(t, res2.Opportunities, 1)
	o := res2.Opportunities[0]
	assert.ElementsMatch(t, []model.Platform{model.PlatformCafe, model.PlatformShowSubmit}, o.Platforms)
	assert.Len(t, o.Links, 2)
	assert.Len(t, o.URLs, 2)

	// The second platform fills fields the first left empty.
	assert.Equal(t, "director@riversidearts.org", o.Email)
	events := res2.Changes[o.ID]
	require.NotEmpty(t, events)
	var emailEvent *model.ChangeEvent
	for i := range events {
		if events[i].Field == "email" {
			emailEvent = &events[i]
		}
	}
	require.NotNil(t, emailEvent)
	assert.Equal(t, model.ChangeApplied, emailEvent.Kind)
	assert.Equal(t, model.PlatformShowSubmit, emailEvent.Platform)
}

func TestReconcile_SameRunDedup(t *testing.T) {
	e := newEngine()

	artcall := model.RawRecord{
		Platform:     model.PlatformArtCall,
		Title:        "Annual Juried Exhibition",
		Organization: "Riverside Arts Council",
		URL:          "https://riverside.artcall.org",
	}

	res := e.Reconcile(run1, []model.RawRecord{cafeRecord(), artcall}, nil)

	require.Len(t, res.Opportunities, 1)
	o := res.Opportunities[0]
	assert.Len(t, o.Links, 2)
	// One opportunity, one run: times_seen counts runs, not records.
	assert.Equal(t, 1, o.TimesSeen)
	assert.Len(t, res.Created, 1)
	assert.Empty(t, res.Updated)
}

func TestReconcile_ConflictKeepsBestRecordsProposal(t *testing.T) {
	e := newEngine()

	conflicting := model.RawRecord{
		Platform:     model.PlatformZapplication,
		PlatformID:   "777",
		Title:        "Annual Juried Exhibition",
		Organization: "Riverside Arts Council",
		URL:          "https://www.zapplication.org/event-info.php?ID=777",
		DeadlineRaw:  "December 1, 2025",
	}

	res1 := e.Reconcile(run1, []model.RawRecord{cafeRecord()}, nil)
	res2 := e.Reconcile(run2, []model.RawRecord{conflicting}, snapshot(res1))

	require.Len(t, res2.Opportunities, 1)
	o := res2.Opportunities[0]

	// The established deadline survives the conflicting report.
	require.NotNil(t, o.Deadline)
	assert.Equal(t, "2025-11-15", o.Deadline.Format("2006-01-02"))

	// The conflict is on the record as a proposal.
	events := res2.Changes[o.ID]
	require.Len(t, events, 1)
	assert.Equal(t, "deadline", events[0].Field)
	assert.Equal(t, model.ChangeProposed, events[0].Kind)
	assert.Equal(t, "2025-11-15", events[0].OldValue)
	assert.Equal(t, "2025-12-01", events[0].NewValue)

	// The losing value is retained in the platform's link payload.
	link := o.Link(model.PlatformZapplication)
	require.NotNil(t, link)
	require.NotNil(t, link.Payload)
	require.NotNil(t, link.Payload.Deadline.Date)
	assert.Equal(t, "2025-12-01", link.Payload.Deadline.Date.Format("2006-01-02"))
}

func TestReconcile_ConflictNotRerecordedOnReplay(t *testing.T) {
	e := newEngine()

	conflicting := model.RawRecord{
		Platform:     model.PlatformZapplication,
		PlatformID:   "777",
		Title:        "Annual Juried Exhibition",
		Organization: "Riverside Arts Council",
		URL:          "https://www.zapplication.org/event-info.php?ID=777",
		DeadlineRaw:  "December 1, 2025",
	}

	res1 := e.Reconcile(run1, []model.RawRecord{cafeRecord()}, nil)
	res2 := e.Reconcile(run2, []model.RawRecord{conflicting}, snapshot(res1))
	res3 := e.Reconcile(run3, []model.RawRecord{conflicting}, snapshot(res2))

	// The platform keeps reporting the same conflicting value: recorded
	// once, not every run.
	o := res3.Opportunities[0]
	assert.Empty(t, res3.Changes[o.ID])
	assert.Equal(t, 3, o.TimesSeen)
}

func TestReconcile_PlatformRevisesOwnValue(t *testing.T) {
	e := newEngine()

	res1 := e.Reconcile(run1, []model.RawRecord{cafeRecord()}, nil)

	revised := cafeRecord()
	revised.DeadlineRaw = "November 22, 2025"
	res2 := e.Reconcile(run2, []model.RawRecord{revised}, snapshot(res1))

	o := res2.Opportunities[0]
	require.NotNil(t, o.Deadline)
	assert.Equal(t, "2025-11-22", o.Deadline.Format("2006-01-02"))

	events := res2.Changes[o.ID]
	require.Len(t, events, 1)
	assert.Equal(t, "deadline", events[0].Field)
	assert.Equal(t, model.ChangeApplied, events[0].Kind)
	assert.Equal(t, "2025-11-15", events[0].OldValue)
	assert.Equal(t, "2025-11-22", events[0].NewValue)
}

func TestReconcile_RicherLocationWins(t *testing.T) {
	e := newEngine()

	vague := cafeRecord()
	vague.LocationRaw = "Pacific Northwest region"

	res1 := e.Reconcile(run1, []model.RawRecord{vague}, nil)
	assert.Empty(t, res1.Opportunities[0].City)

	resolved := model.RawRecord{
		Platform:     model.PlatformShowSubmit,
		Title:        "Annual Juried Exhibition",
		Organization: "Riverside Arts Council",
		URL:          "https://showsubmit.com/show/annual-juried",
		LocationRaw:  "Portland, OR",
	}
	res2 := e.Reconcile(run2, []model.RawRecord{resolved}, snapshot(res1))

	o := res2.Opportunities[0]
	assert.Equal(t, "Portland", o.City)
	assert.Equal(t, "OR", o.State)
}

func TestReconcile_TypedFeeBeatsUnknown(t *testing.T) {
	e := newEngine()

	vague := cafeRecord()
	vague.FeeRaw = "See prospectus"

	res1 := e.Reconcile(run1, []model.RawRecord{vague}, nil)
	assert.Equal(t, model.FeeUnknown, res1.Opportunities[0].Fee.Kind)

	typed := model.RawRecord{
		Platform:     model.PlatformShowSubmit,
		Title:        "Annual Juried Exhibition",
		Organization: "Riverside Arts Council",
		URL:          "https://showsubmit.com/show/annual-juried",
		FeeRaw:       "$35",
	}
	res2 := e.Reconcile(run2, []model.RawRecord{typed}, snapshot(res1))

	o := res2.Opportunities[0]
	assert.Equal(t, model.FeeAmount, o.Fee.Kind)
	assert.Equal(t, 35.0, o.Fee.Amount)
}

func TestReconcile_LongerDescriptionWins(t *testing.T) {
	e := newEngine()

	short := cafeRecord()
	short.Description = "Juried show."

	res1 := e.Reconcile(run1, []model.RawRecord{short}, nil)

	long := model.RawRecord{
		Platform:     model.PlatformShowSubmit,
		Title:        "Annual Juried Exhibition",
		Organization: "Riverside Arts Council",
		URL:          "https://showsubmit.com/show/annual-juried",
		Description:  "Juried exhibition open to all media; awards total $2,000 and the juror is the museum's curator of contemporary art.",
	}
	res2 := e.Reconcile(run2, []model.RawRecord{long}, snapshot(res1))

	assert.Contains(t, res2.Opportunities[0].Description, "awards total")

	// The shorter text does not displace it afterward.
	res3 := e.Reconcile(run3, []model.RawRecord{short}, snapshot(res2))
	assert.Contains(t, res3.Opportunities[0].Description, "awards total")
}

func TestReconcile_RejectsCorruptRecords(t *testing.T) {
	e := newEngine()

	batch := []model.RawRecord{
		{Platform: "myspace", Title: "Bad Platform", URL: "https://x.org"},
		{Platform: model.PlatformCafe, Title: "   ", URL: "https://y.org"},
		cafeRecord(),
	}

	res := e.Reconcile(run1, batch, nil)

	assert.Equal(t, 2, res.Summary.RejectedRecords)
	assert.Equal(t, 1, res.Summary.TotalProcessed())
	assert.Len(t, res.Opportunities, 1)
}

func TestReconcile_CountsUnparsedDeadlines(t *testing.T) {
	e := newEngine()

	rolling := cafeRecord()
	rolling.DeadlineRaw = "Rolling"

	res := e.Reconcile(run1, []model.RawRecord{rolling}, nil)
	assert.Equal(t, 1, res.Summary.UnparsedDeadlines)
	// Unparsed deadline is not corruption; the record still lands.
	assert.Len(t, res.Opportunities, 1)
	assert.True(t, res.Opportunities[0].IsActive)
}

func TestReconcile_PastDeadlineInactive(t *testing.T) {
	e := newEngine()

	expired := cafeRecord()
	expired.DeadlineRaw = "2025-08-15"

	res := e.Reconcile(run1, []model.RawRecord{expired}, nil)
	assert.False(t, res.Opportunities[0].IsActive)
}

func TestReconcile_UntouchedOpportunitiesSurvive(t *testing.T) {
	e := newEngine()

	res1 := e.Reconcile(run1, []model.RawRecord{cafeRecord()}, nil)

	other := model.RawRecord{
		Platform: model.PlatformArtCall,
		Title:    "Completely Different Show",
		URL:      "https://different.artcall.org",
	}
	res2 := e.Reconcile(run2, []model.RawRecord{other}, snapshot(res1))

	// Absence from a batch is not evidence of closure.
	assert.Len(t, res2.Opportunities, 2)
	first := res2.Opportunities[0]
	assert.Equal(t, 1, first.TimesSeen)
	assert.Equal(t, run1, first.LastChecked)
}
