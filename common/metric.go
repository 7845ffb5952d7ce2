package common

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricHandler serves the default prometheus registry.
func MetricHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
