package reporting

import (
	"sort"

	"leaguestats/internal/domain"
)

// mostActiveLimit caps the number of players listed as most active.
const mostActiveLimit = 10

type eventTally struct {
	id         string
	name       string
	eventCount int
	eventTypes map[string]int
}

// tallyIndex keys tallies by ID and keeps first-seen order.
type tallyIndex struct {
	byID  map[string]*eventTally
	order []*eventTally
}

func newTallyIndex() *tallyIndex {
	return &tallyIndex{byID: make(map[string]*eventTally)}
}

func (x *tallyIndex) add(id, name, fallback string, eventType string) {
	t, ok := x.byID[id]
	if !ok {
		if name == "" {
			name = fallback
		}
		t = &eventTally{id: id, name: name, eventTypes: make(map[string]int)}
		x.byID[id] = t
		x.order = append(x.order, t)
	}
	t.eventCount++
	t.eventTypes[eventType]++
}

// byCountDesc returns the tallies sorted by event count descending, ties in first-seen order.
func (x *tallyIndex) byCountDesc() []*eventTally {
	sorted := make([]*eventTally, len(x.order))
	copy(sorted, x.order)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].eventCount > sorted[j].eventCount
	})
	return sorted
}

// analyzeEvents walks every event of every match, whatever the match status.
func analyzeEvents(matches []domain.MatchRecord) domain.EventAnalysis {
	analysis := domain.NewEmptyEventAnalysis()
	byMinute := make(map[int]int)
	teams := newTallyIndex()
	players := newTallyIndex()

	for i := range matches {
		for _, ev := range matches[i].Events {
			eventType := string(ev.Type)

			analysis.TotalEvents++
			analysis.EventsByType[eventType]++

			if ev.Minute != nil {
				byMinute[*ev.Minute]++
			}
			if ev.TeamID != "" {
				teams.add(ev.TeamID, ev.TeamName, unknownTeam, eventType)
			}
			if ev.PlayerID != "" {
				players.add(ev.PlayerID, ev.PlayerName, unknownPlayer, eventType)
			}
		}
	}

	minutes := make([]int, 0, len(byMinute))
	for minute := range byMinute {
		minutes = append(minutes, minute)
	}
	sort.Ints(minutes)
	for _, minute := range minutes {
		count := byMinute[minute]
		analysis.EventsByMinute = append(analysis.EventsByMinute, domain.MinuteEvents{
			Minute:     minute,
			Count:      count,
			Percentage: percentage(count, analysis.TotalEvents),
		})
	}

	for _, t := range teams.byCountDesc() {
		analysis.EventsByTeam = append(analysis.EventsByTeam, domain.TeamEventStats{
			TeamID:     t.id,
			TeamName:   t.name,
			EventCount: t.eventCount,
			EventTypes: t.eventTypes,
		})
	}

	for i, p := range players.byCountDesc() {
		if i == mostActiveLimit {
			break
		}
		analysis.MostActivePlayers = append(analysis.MostActivePlayers, domain.PlayerEventStats{
			PlayerID:   p.id,
			PlayerName: p.name,
			EventCount: p.eventCount,
			EventTypes: p.eventTypes,
		})
	}

	return analysis
}
