package cto

import (
	"time"

	"quill/internal/stage"
)

type calendarStats struct {
	total         int
	currentStreak int
	longestStreak int
	activeDays    int
	averageDaily  float64
	activityRate  float64
}

// analyzeCalendar derives streaks and activity from the daily calendar. The
// current streak counts back from the most recent day.
func analyzeCalendar(c stage.Contributions) calendarStats {
	stats := calendarStats{total: c.Total}
	days := c.Days
	for i := len(days) - 1; i >= 0 && days[i].Count > 0; i-- {
		stats.currentStreak++
	}
	run, sum := 0, 0
	for _, day := range days {
		sum += day.Count
		if day.Count > 0 {
			stats.activeDays++
			run++
			stats.longestStreak = max(stats.longestStreak, run)
		} else {
			run = 0
		}
	}
	if len(days) > 0 {
		stats.averageDaily = round2(float64(sum) / float64(len(days)))
		stats.activityRate = round2(float64(stats.activeDays) / float64(len(days)) * 100)
	}
	return stats
}

type grindLevel struct {
	below float64
	label string
	emoji string
}

var grindLevels = []grindLevel{
	{20, "Casual", "🌱"},
	{40, "Active", "🔥"},
	{60, "Consistent", "💪"},
}

// grindScore combines contribution rate, the current streak, and a
// consistency bonus for accounts active on more than half of their days.
func grindScore(stats calendarStats, createdAt, now time.Time) stage.GrindScore {
	days := 1
	if !createdAt.IsZero() {
		days = max(int(now.Sub(createdAt).Hours()/24), 1)
	}
	base := float64(stats.total) / float64(days) * 100
	streak := float64(stats.currentStreak) / 365 * 50
	bonus := 0
	if stats.activityRate > 50 {
		bonus = 20
	}
	score := base + streak + float64(bonus)

	label, emoji := "Grinder", "🚀"
	for _, level := range grindLevels {
		if score < level.below {
			label, emoji = level.label, level.emoji
			break
		}
	}
	return stage.GrindScore{
		Score:            round2(score),
		Label:            label,
		Emoji:            emoji,
		Base:             round2(base),
		StreakMultiplier: round2(streak),
		ConsistencyBonus: bonus,
		CurrentStreak:    stats.currentStreak,
		LongestStreak:    stats.longestStreak,
		ActivityRate:     stats.activityRate,
		DaysSinceCreated: days,
	}
}
