package student

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/vishvavidya/traininghub/core"
)

const (
	registeredReason    = "Newly Registered, No Batch Assigned Yet"
	moveStatusReason    = "Status changed due to batch move"
	defaultRemoveReason = "Removed from batch"
)

type (
	batchMovedData struct {
		StudentName string
		OldBatch    string
		NewBatch    string
		Reason      string
		StatusNote  string
	}

	statusChangedData struct {
		StudentName string
		Status      string
		Reason      string
	}

	// statusNotice is the status specific text & email template of a status change
	statusNotice struct {
		notification string
		subject      string
		template     string
	}
)

var statusNotices = map[string]statusNotice{
	"placed": {
		notification: "🎉 Congratulations! You've been placed successfully.",
		subject:      "🎉 Congratulations! You Have Been Placed!",
		template:     "status_placed",
	},
	"absconding": {
		notification: "⚠️ Your status has been changed to Absconded.",
		subject:      "⚠️ Absconding Status Notice: Closure of Enrollment in the Training Program",
		template:     "status_absconding",
	},
	"training closed": {
		notification: "📢 Your status has been updated to Training Closed.",
		subject:      "📢 Important Update: Closure of Your Enrollment in the Training Program",
		template:     "status_training_closed",
	},
}

func lookupStatusNotice(status string) (statusNotice, bool) {
	n, ok := statusNotices[strings.ToLower(strings.TrimSpace(status))]
	return n, ok
}

func movedNotification(batch, reason string) string {
	return fmt.Sprintf("You have been moved to batch %s. Reason: %s", batch, reason)
}

func bulkMovedNotification(batch, reason string) string {
	return fmt.Sprintf("You have been moved to batch %s. Reason: %s. Training status updated to %s.", batch, reason, StatusInTraining)
}

func statusNotification(status string) string {
	if n, ok := lookupStatusNotice(status); ok {
		return n.notification
	}
	return fmt.Sprintf("Your training status has been updated to %q.", status)
}

func recipient(st Student) []mail.Address {
	return []mail.Address{{Name: st.Name, Address: st.Email}}
}

func batchMovedEmail(st Student, newBatch, reason, statusNote string) *core.EmailMessage {
	return &core.EmailMessage{
		To:           recipient(st),
		Subject:      "Batch Update Notification",
		TemplateName: "batch_moved",
		TemplateData: batchMovedData{
			StudentName: st.Name,
			OldBatch:    st.BatchName,
			NewBatch:    newBatch,
			Reason:      reason,
			StatusNote:  statusNote,
		},
	}
}

// statusChangedEmail returns nil when status has no dedicated notice.
func statusChangedEmail(st Student, status, reason string) *core.EmailMessage {
	n, ok := lookupStatusNotice(status)
	if !ok {
		return nil
	}
	return &core.EmailMessage{
		To:           recipient(st),
		Subject:      n.subject,
		TemplateName: n.template,
		TemplateData: statusChangedData{StudentName: st.Name, Status: status, Reason: reason},
	}
}
