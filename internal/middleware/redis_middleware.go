package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RedisMiddleware(client *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client != nil {
			c.Set("redis", client)
		}
		c.Next()
	}
}

func GetRedisClient(c *gin.Context) *redis.Client {
	client, exists := c.Get("redis")
	if !exists {
		return nil
	}
	return client.(*redis.Client)
}
