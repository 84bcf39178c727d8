package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error writes the error envelope used across the API.
func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// ErrorWithDetail writes an error envelope with a human-readable message
// alongside the machine-oriented error string.
func ErrorWithDetail(c *gin.Context, status int, errMsg, detail string) {
	c.JSON(status, gin.H{"error": errMsg, "message": detail})
}

// Message writes a success envelope carrying only a message.
func Message(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

// CreditsExhausted writes the 403 envelope for a user whose credit balance
// reached zero.
func CreditsExhausted(c *gin.Context, currentCredits int) {
	c.JSON(http.StatusForbidden, gin.H{
		"error":          "Insufficient credits",
		"message":        "You have used all your free credits. Please upgrade your plan to continue.",
		"currentCredits": currentCredits,
		"needsTopUp":     true,
	})
}
