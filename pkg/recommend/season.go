package recommend

import (
	"time"

	"rfm-outreach/pkg/models"
)

// CurrentSeason : déc/jan/fév → winter, juin/juil/août → summer, sinon "" (aucune saison).
func CurrentSeason(today time.Time) string {
	switch today.Month() {
	case time.December, time.January, time.February:
		return models.SeasonWinter
	case time.June, time.July, time.August:
		return models.SeasonSummer
	}
	return ""
}

// InSeason : all_year passe toujours ; un autre tag doit égaler la saison courante.
// Hors été/hiver, seul all_year passe.
func InSeason(tag, season string) bool {
	if tag == models.SeasonAllYear {
		return true
	}
	return season != "" && tag == season
}
