package repository

import (
	"fmt"
	"sort"
	"strings"

	"leaguestats/internal/domain"
)

// placeholderFunc returns the bind placeholder for the n-th argument (1-based).
type placeholderFunc func(n int) string

func questionPlaceholder(int) string { return "?" }

func dollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

// whereBuilder accumulates AND-ed conditions with their bind arguments.
type whereBuilder struct {
	placeholder placeholderFunc
	conditions  []string
	args        []interface{}
}

func newWhereBuilder(placeholder placeholderFunc) *whereBuilder {
	return &whereBuilder{placeholder: placeholder}
}

// add appends a condition. Each %s in cond is replaced by the next placeholder, one per value.
func (w *whereBuilder) add(cond string, values ...interface{}) {
	marks := make([]interface{}, len(values))
	for i, v := range values {
		w.args = append(w.args, v)
		marks[i] = w.placeholder(len(w.args))
	}
	w.conditions = append(w.conditions, fmt.Sprintf(cond, marks...))
}

func (w *whereBuilder) clause() string {
	if len(w.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conditions, " AND ")
}

// matchColumns names the match table columns referenced by filters.
type matchColumns struct {
	id           string
	status       string
	homeTeamID   string
	awayTeamID   string
	startTime    string
	tournamentID string
	location     string
	// participants is the table joined for player filters.
	participants string
}

// buildMatchFilter translates report filters into a WHERE clause for the matches query.
func buildMatchFilter(filters domain.ReportFilters, cols matchColumns, placeholder placeholderFunc) (string, []interface{}) {
	w := newWhereBuilder(placeholder)

	if filters.From != nil {
		w.add(cols.startTime+" >= %s", filters.From.UTC())
	}
	if filters.To != nil {
		w.add(cols.startTime+" <= %s", filters.To.UTC())
	}
	if filters.TeamID != "" {
		w.add("("+cols.homeTeamID+" = %s OR "+cols.awayTeamID+" = %s)", filters.TeamID, filters.TeamID)
	}
	if filters.PlayerID != "" {
		w.add(cols.id+" IN (SELECT match_id FROM "+cols.participants+" WHERE user_id = %s)", filters.PlayerID)
	}
	if filters.TournamentID != "" {
		w.add(cols.tournamentID+" = %s", filters.TournamentID)
	}
	if filters.Status != "" {
		w.add(cols.status+" = %s", string(filters.Status))
	}
	if filters.Location != "" {
		w.add(cols.location+" = %s", filters.Location)
	}

	return w.clause(), w.args
}

// matchSet keeps loaded matches in query order and indexes them by ID
// so participants and events can be attached afterwards.
type matchSet struct {
	byID    map[string]int
	matches []domain.MatchRecord
}

func newMatchSet() *matchSet {
	return &matchSet{byID: make(map[string]int)}
}

func (s *matchSet) add(m domain.MatchRecord) {
	if _, ok := s.byID[m.ID]; ok {
		return
	}
	s.byID[m.ID] = len(s.matches)
	s.matches = append(s.matches, m)
}

func (s *matchSet) ids() []string {
	ids := make([]string, len(s.matches))
	for i := range s.matches {
		ids[i] = s.matches[i].ID
	}
	return ids
}

func (s *matchSet) addParticipant(matchID string, p domain.Participant) bool {
	i, ok := s.byID[matchID]
	if !ok {
		return false
	}
	s.matches[i].Participants = append(s.matches[i].Participants, p)
	return true
}

func (s *matchSet) addEvent(matchID string, ev domain.MatchEvent) bool {
	i, ok := s.byID[matchID]
	if !ok {
		return false
	}
	s.matches[i].Events = append(s.matches[i].Events, ev)
	return true
}

func (s *matchSet) records() []domain.MatchRecord {
	if s.matches == nil {
		return []domain.MatchRecord{}
	}
	for i := range s.matches {
		sortEventsByMinute(s.matches[i].Events)
	}
	return s.matches
}

// sortEventsByMinute orders events by minute, undated events last, keeping load order on ties.
func sortEventsByMinute(events []domain.MatchEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i].Minute, events[j].Minute
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return *a < *b
	})
}

// teamRef builds a team reference, or nil if the team is absent.
func teamRef(id, name, logo *string) *domain.TeamRef {
	if id == nil || *id == "" {
		return nil
	}
	return &domain.TeamRef{ID: *id, Name: deref(name), Logo: deref(logo)}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intFrom32(v *int32) *int {
	if v == nil {
		return nil
	}
	i := int(*v)
	return &i
}
