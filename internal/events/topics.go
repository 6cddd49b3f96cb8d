package events

// Topic constants for domain events emitted by the store.
const (
	TopicSaleCompleted    = "sale.completed"
	TopicProductAdded     = "product.added"
	TopicProductRemoved   = "product.removed"
	TopicPolicyUpdated    = "policy.updated"
	TopicReportGenerated  = "report.generated"
	TopicRegisterAssigned = "register.assigned"
)

// DefaultTopics returns the canonical list of topics that support notifications.
func DefaultTopics() []string {
	return []string{
		TopicSaleCompleted,
		TopicProductAdded,
		TopicProductRemoved,
		TopicPolicyUpdated,
		TopicReportGenerated,
		TopicRegisterAssigned,
	}
}
