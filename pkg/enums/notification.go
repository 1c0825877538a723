package enums

// NotificationType groups admin inbox entries. Maps to notification_type.
type NotificationType string

const (
	NotificationTypeOrderCreated   NotificationType = "order_created"
	NotificationTypeOrderStatus    NotificationType = "order_status"
	NotificationTypeContactMessage NotificationType = "contact_message"
	NotificationTypeSystem         NotificationType = "system"
)

var notificationTypes = newSet("notification type", lower,
	NotificationTypeOrderCreated,
	NotificationTypeOrderStatus,
	NotificationTypeContactMessage,
	NotificationTypeSystem,
)

func (n NotificationType) IsValid() bool { return notificationTypes.has(n) }
