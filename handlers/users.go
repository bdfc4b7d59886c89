package handlers

import (
	"net/http"

	"finance-advisor/api/logger"
	"finance-advisor/api/mongodb"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DeleteUser removes a user record by identifier.
func DeleteUser(c *gin.Context) {
	userID, err := mongodb.ParseUserID(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ObjectID format"})
		return
	}

	deleted, err := mongodb.DeleteUser(c, userID)
	if err != nil {
		logger.Get().Error("error deleting user",
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if deleted == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	logger.Get().Info("user deleted successfully",
		zap.String("user_id", userID.Hex()))
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
