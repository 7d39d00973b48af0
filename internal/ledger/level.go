package ledger

// Level is the rank badge for a point total.
type Level struct {
	Level int    `json:"level"`
	Rank  string `json:"rank"`
	Icon  string `json:"icon"`
}

var levels = []struct {
	min int
	Level
}{
	{1000, Level{5, "Elite", "👑"}},
	{500, Level{4, "Advanced", "⭐"}},
	{200, Level{3, "Intermediate", "🚀"}},
	{50, Level{2, "Rookie", "🔥"}},
	{10, Level{1, "Starter", "🌟"}},
}

// LevelFor maps a total to its rank.
func LevelFor(points int) Level {
	for _, l := range levels {
		if points >= l.min {
			return l.Level
		}
	}
	return Level{0, "Beginner", "🌱"}
}

// Level returns the rank for the current total.
func (l *Ledger) Level() Level {
	return LevelFor(l.Points())
}

// Summary is a snapshot of the ledger for display.
type Summary struct {
	Points      int     `json:"points"`
	Level       Level   `json:"level"`
	TotalEarned int     `json:"total_earned"`
	IsNewUser   bool    `json:"is_new_user"`
	Recent      []Entry `json:"recent"`
}

// Summary returns the current snapshot with up to limit recent entries.
func (l *Ledger) Summary(limit int) Summary {
	points := l.Points()
	return Summary{
		Points:      points,
		Level:       LevelFor(points),
		TotalEarned: l.TotalEarned(),
		IsNewUser:   l.IsNewUser(),
		Recent:      l.RecentActivity(limit),
	}
}
