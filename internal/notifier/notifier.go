package notifier

// Notifier delivers run reports and alerts to a configured channel.
type Notifier interface {
	SendNotification(subject, message string) error
}
