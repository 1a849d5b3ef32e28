package alerts

import (
	"fmt"
	"strings"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
)

// DefaultGroupPrefix marks notification groups owned by the notifier.
const DefaultGroupPrefix = "DeadlineCloud"

const queueIDMarker = "queue-id:"

// GroupName is the group code for q, e.g.
// "DeadlineCloud queue:Comp queue-id:queue-0123456789".
func GroupName(prefix string, q model.Queue) string {
	return fmt.Sprintf("%s queue:%s %s%s", prefix, q.DisplayName, queueIDMarker, q.ID)
}

// QueueIDFromGroup extracts the queue ID from a group code created by GroupName.
func QueueIDFromGroup(prefix, code string) (string, bool) {
	if !strings.Contains(code, prefix) {
		return "", false
	}
	i := strings.LastIndex(code, queueIDMarker)
	if i < 0 {
		return "", false
	}
	id, _, _ := strings.Cut(code[i+len(queueIDMarker):], " ")
	if id == "" {
		return "", false
	}
	return id, true
}
