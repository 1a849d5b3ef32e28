package alerts_test

import (
	"testing"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/alerts"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestGroupName(t *testing.T) {
	q := model.Queue{ID: "queue-example1234567890", DisplayName: "Queue Name"}
	assert.Equal(t, "DeadlineCloud queue:Queue Name queue-id:queue-example1234567890", alerts.GroupName("DeadlineCloud", q))
}

func TestQueueIDFromGroup(t *testing.T) {
	tests := []struct {
		code string
		id   string
		ok   bool
	}{
		{"DeadlineCloud queue:Queue Name queue-id:queue-123", "queue-123", true},
		{"DeadlineCloud queue:Comp queue-id:queue-9 (legacy)", "queue-9", true},
		{"DeadlineCloud queue:Comp", "", false},
		{"Other queue:Comp queue-id:queue-1", "", false},
		{"DeadlineCloud queue:Comp queue-id:", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			id, ok := alerts.QueueIDFromGroup("DeadlineCloud", tt.code)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.id, id)
		})
	}
}

func TestGroupName_RoundTrip(t *testing.T) {
	q := model.Queue{ID: "queue-abc", DisplayName: "Lighting queue-id: weird"}
	id, ok := alerts.QueueIDFromGroup("DeadlineCloud", alerts.GroupName("DeadlineCloud", q))
	assert.True(t, ok)
	assert.Equal(t, "queue-abc", id)
}
