package handlers

import (
	"net/http"

	"finance-advisor/api/analysis"
	"finance-advisor/api/logger"
	"finance-advisor/api/mongodb"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pipeline is the shared analysis orchestrator, wired in main.
var Pipeline *analysis.Orchestrator

// VerifyAndRunAnalysis is the trigger endpoint: it fetches the user record,
// runs the full five-stage pipeline, persists the merged derived fields and
// returns the updated record. Individual stage failures never surface here;
// each failed stage falls back to its previously stored value.
func VerifyAndRunAnalysis(c *gin.Context) {
	userID, err := mongodb.ParseUserID(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ObjectID format"})
		return
	}

	profile, err := mongodb.GetUserByID(c, userID)
	if err != nil {
		logger.Get().Error("error fetching user",
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if profile.Email == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "User email not found"})
		return
	}

	merged := Pipeline.Run(c.Request.Context(), profile)

	if err := mongodb.UpdateDerivedFields(c, userID, merged); err != nil {
		logger.Get().Error("error persisting derived fields",
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	updated, err := mongodb.GetUserByID(c, userID)
	if err != nil || updated == nil {
		logger.Get().Error("error re-fetching user after update",
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error reading updated user"})
		return
	}

	logger.Get().Info("analysis run completed",
		zap.String("user_id", userID.Hex()),
		zap.String("email", updated.Email))
	c.JSON(http.StatusOK, gin.H{
		"message": "Analysis completed and updated",
		"email":   updated.Email,
		"data":    updated,
	})
}

// AnalyzeUserFinances runs only the spending-rating stage against the
// user's financial subdocument and returns the result without persisting.
// With no stored value to fall back to, a stage failure is a 500 here.
func AnalyzeUserFinances(c *gin.Context) {
	userID, err := mongodb.ParseUserID(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ObjectID format"})
		return
	}

	profile, err := mongodb.GetUserFinancial(c, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if profile.Financial == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No financial data found for the user"})
		return
	}

	result, err := Pipeline.SpendingRating(c.Request.Context(), profile.Financial)
	if err != nil {
		logger.Get().Error("ad hoc spending analysis failed",
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error analyzing financial data: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":  userID.Hex(),
		"analysis": result,
	})
}

// IdealSpending suggests a 50/30/20 budget allocation for the user's income
// and spending, ad hoc, nothing persisted.
func IdealSpending(c *gin.Context) {
	userID, err := mongodb.ParseUserID(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ObjectID format"})
		return
	}

	profile, err := mongodb.GetUserFinancial(c, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if profile == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if profile.Financial == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No financial data found for the user"})
		return
	}

	suggestion, err := Pipeline.IdealSpending(c.Request.Context(), profile.Financial)
	if err != nil {
		logger.Get().Error("ideal spending suggestion failed",
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating ideal spending: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":        userID.Hex(),
		"ideal_spending": suggestion,
	})
}
