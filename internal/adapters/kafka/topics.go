package kafka

// Topic definitions for Kafka event streaming
const (
	// Risk events
	TopicRiskAlert = "risk.alerts"

	// Catalog events
	TopicSKUCreated = "catalog.skus.created"

	// Pipeline events
	TopicPipelineRunCompleted = "pipeline.runs.completed"
)
