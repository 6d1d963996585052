package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// corsMiddleware lets browser shells on other origins call the API
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, "+requesterHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requesterHeader may carry the wallet address instead of the "address" form field
const requesterHeader = "X-Wallet-Address"

// requesterAddress returns the submitting wallet address from the form or header
func requesterAddress(c *gin.Context) string {
	if addr := c.PostForm("address"); addr != "" {
		return addr
	}
	return c.GetHeader(requesterHeader)
}
