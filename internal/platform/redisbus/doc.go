// Package redisbus delivers matching notifications to a Redis stream.
//
// Each formed group becomes one stream entry that the notification service
// consumes with XREADGROUP. The publisher implements events.EventHandler so
// it can be registered on any emitter.
package redisbus
