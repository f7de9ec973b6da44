package taxonomy

import "strings"

// Threat categories in tier precedence order.
const (
	CategoryNeutral  = "neutral"
	CategoryMedium   = "medium_threat"
	CategoryHigh     = "high_threat"
	CategoryCritical = "critical_threat"
)

// Topic categories. Precedence on tied sentence tallies is
// GBV > Cyberbullying > Scams.
const (
	TopicGBV           = "GBV"
	TopicCyberbullying = "Cyberbullying"
	TopicScams         = "Scams"
	TopicOther         = "Other"
)

// Base scores per tier and the location boost cap.
const (
	scoreCritical = 85
	scoreHigh     = 75
	scoreMedium   = 60
	boost         = 10
	boostCap      = 95
)

// ThreatScore is the result of scoring one text against the threat tiers.
type ThreatScore struct {
	Score           int
	Category        string
	LocationBoosted bool
}

// ScoreThreat scores text against the threat tiers. The first matching tier
// wins; tiers are never summed. A recognized place name adds +10 (capped at
// 95) but only when a non-neutral tier already matched.
func (t *Taxonomy) ScoreThreat(text string) ThreatScore {
	lower := strings.ToLower(text)

	result := ThreatScore{Category: CategoryNeutral}
	switch {
	case containsAny(lower, t.Tiers.Critical):
		result.Score, result.Category = scoreCritical, CategoryCritical
	case containsAny(lower, t.Tiers.High):
		result.Score, result.Category = scoreHigh, CategoryHigh
	case containsAny(lower, t.Tiers.Medium):
		result.Score, result.Category = scoreMedium, CategoryMedium
	}

	if result.Score > 0 && containsAny(lower, t.Locations) {
		result.Score = min(boostCap, result.Score+boost)
		result.LocationBoosted = true
	}
	return result
}

// Topic categorizes text by tallying sentence-level keyword hits per bucket
// and picking the highest non-zero tally. Ties go to the bucket checked
// first, so the precedence is GBV, then Cyberbullying, then Scams.
func (t *Taxonomy) Topic(text string) string {
	if strings.TrimSpace(text) == "" {
		return TopicOther
	}
	sentences := splitSentences(strings.ToLower(text))

	buckets := []struct {
		name     string
		keywords []string
	}{
		{TopicGBV, t.Topics.GBV},
		{TopicCyberbullying, t.Topics.Cyberbullying},
		{TopicScams, t.Topics.Scams},
	}

	best, bestTally := TopicOther, 0
	for _, b := range buckets {
		tally := 0
		for _, s := range sentences {
			if containsAny(s, b.keywords) {
				tally++
			}
		}
		if tally > bestTally {
			best, bestTally = b.name, tally
		}
	}
	return best
}

func containsAny(lower string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func splitSentences(text string) []string {
	var sentences []string
	for _, s := range strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}
