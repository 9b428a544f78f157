// Package broker carries commands and events over Kafka. Each bounded
// context owns one durable command queue and one broadcast event topic, both
// named after the context.
package broker

// QueueName returns the command queue topic for a bounded context.
func QueueName(contextName string) string {
	return contextName + ".commands"
}

// TopicName returns the broadcast event topic for a bounded context.
func TopicName(contextName string) string {
	return contextName + ".events"
}
