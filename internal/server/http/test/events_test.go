package http

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/leshachaplin/medtrack/internal/tracker"
	appServer "github.com/leshachaplin/medtrack/internal/server/http"
)

func (i *IntegrationTestSuite) newTracker(ctx context.Context, path string) *tracker.Tracker {
	page, err := tracker.NewPage("https://clinic.example.com"+path, tracker.WithTitle("Clinic"))
	i.Require().NoError(err)

	sender := tracker.NewHTTPSender(tracker.SenderConfig{
		Endpoint: i.baseURL + appServer.AnalyticsPath,
		Timeout:  5 * time.Second,
	}, zerolog.Nop())

	return tracker.New(ctx, tracker.Config{}, sender, page, zerolog.Nop())
}

func (i *IntegrationTestSuite) TestTracker_EventsReachStorage() {
	ctx, cancel := context.WithTimeout(i.ctx, time.Minute)
	defer cancel()

	cases := map[string]struct {
		sessions int
		events   int
	}{
		"single session": {sessions: 1, events: 3},
		"many sessions":  {sessions: 20, events: 12},
	}

	for name, tc := range cases {
		i.Run(name, func() {
			trackers := make([]*tracker.Tracker, tc.sessions)
			wg := &sync.WaitGroup{}
			for s := range trackers {
				trackers[s] = i.newTracker(ctx, fmt.Sprintf("/services/%d", s))
				wg.Add(1)
				go func(t *tracker.Tracker) {
					defer wg.Done()
					for e := 0; e < tc.events; e++ {
						t.ButtonClick(fmt.Sprintf("cta-%d", e), "hero")
					}
					i.Assert().NoError(t.Close(ctx))
				}(trackers[s])
			}
			wg.Wait()

			// one automatic page view per session
			want := uint64(tc.events + 1)
			for _, t := range trackers {
				sessionID := t.SessionID()
				i.Require().Eventually(func() bool {
					n, err := i.storage.CountEvents(ctx, sessionID)
					return err == nil && n == want
				}, 30*time.Second, 200*time.Millisecond, sessionID)
			}
		})
	}
}

func (i *IntegrationTestSuite) TestTracker_OfflineThenOnline() {
	ctx, cancel := context.WithTimeout(i.ctx, time.Minute)
	defer cancel()

	t := i.newTracker(ctx, "/contact")
	t.OnOffline()
	for e := 0; e < 7; e++ {
		t.FormStart("contact")
	}
	i.Require().Len(t.Pending(), 8)

	t.OnOnline()
	i.Require().NoError(t.Close(ctx))

	i.Require().Eventually(func() bool {
		n, err := i.storage.CountEvents(ctx, t.SessionID())
		return err == nil && n == 8
	}, 30*time.Second, 200*time.Millisecond)
}
