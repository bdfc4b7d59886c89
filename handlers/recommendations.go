package handlers

import (
	"net/http"

	"finance-advisor/api/db"
	"finance-advisor/api/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Seed tips served when the catalog table is empty or unreachable.
var (
	defaultBadHabits = []string{
		"Overspending on non-essentials",
		"Not tracking expenses",
		"Ignoring debt repayment",
	}
	defaultGoodPractices = []string{
		"Create a monthly budget",
		"Save at least 20% of your income",
		"Invest in diversified assets",
	}
)

// ListBadHabits serves the static bad-habit recommendation catalog.
func ListBadHabits(c *gin.Context) {
	tips := catalogOrDefault(c, db.KindBadHabit, defaultBadHabits)
	c.JSON(http.StatusOK, gin.H{"bad_habits": tips})
}

// ListGoodPractices serves the static good-practice recommendation catalog.
func ListGoodPractices(c *gin.Context) {
	tips := catalogOrDefault(c, db.KindGoodPractice, defaultGoodPractices)
	c.JSON(http.StatusOK, gin.H{"good_practices": tips})
}

func catalogOrDefault(c *gin.Context, kind string, defaults []string) []string {
	tips, err := db.ListRecommendations(c, kind)
	if err != nil || len(tips) == 0 {
		if err != nil {
			logger.Get().Warn("recommendations catalog unavailable, serving defaults",
				zap.String("kind", kind),
				zap.Error(err))
		}
		return defaults
	}
	return tips
}
