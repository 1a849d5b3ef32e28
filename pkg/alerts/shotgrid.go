package alerts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/shotgrid"
)

// ShotGridAPI is the subset of the ShotGrid client the notifier needs.
type ShotGridAPI interface {
	FindGroups(ctx context.Context, substr string) ([]model.Group, error)
	CreateGroup(ctx context.Context, code string) (model.Group, error)
	CreateNote(ctx context.Context, n shotgrid.NoteRequest) (model.Note, error)
}

// ShotGridNotifier posts alerts as Notes addressed to the queue's group.
type ShotGridNotifier struct {
	api    ShotGridAPI
	prefix string
	logger *slog.Logger
}

// NewShotGridNotifier creates a notifier. An empty prefix uses DefaultGroupPrefix.
func NewShotGridNotifier(api ShotGridAPI, prefix string, logger *slog.Logger) *ShotGridNotifier {
	if prefix == "" {
		prefix = DefaultGroupPrefix
	}
	return &ShotGridNotifier{api: api, prefix: prefix, logger: logger}
}

func (n *ShotGridNotifier) Name() string { return "shotgrid" }

// Send creates a Note on the project linked to the queue's group.
func (n *ShotGridNotifier) Send(ctx context.Context, alert Alert) error {
	group, err := n.QueueGroup(ctx, alert.QueueID)
	if err != nil {
		return err
	}
	if group.ProjectID == 0 {
		return fmt.Errorf("group %q: %w", group.Code, model.ErrGroupNoProject)
	}

	note, err := n.api.CreateNote(ctx, shotgrid.NoteRequest{
		Subject:      alert.Subject,
		Content:      alert.Message,
		AddressingTo: []shotgrid.EntityRef{{Type: "Group", ID: group.ID}},
		ProjectID:    group.ProjectID,
	})
	if err != nil {
		return err
	}

	n.logger.Debug("note created", "note_id", note.ID, "group", group.Code, "budget", alert.BudgetID)
	return nil
}

// QueueGroup finds the notification group for queueID.
func (n *ShotGridNotifier) QueueGroup(ctx context.Context, queueID string) (model.Group, error) {
	groups, err := n.api.FindGroups(ctx, n.prefix)
	if err != nil {
		return model.Group{}, err
	}
	for _, g := range groups {
		if id, ok := QueueIDFromGroup(n.prefix, g.Code); ok && id == queueID {
			return g, nil
		}
	}
	return model.Group{}, fmt.Errorf("queue %s: %w", queueID, model.ErrGroupNotFound)
}

// EnsureQueueGroups creates a group for every queue that has none and
// returns the groups created. A failure on one queue does not stop the rest.
func (n *ShotGridNotifier) EnsureQueueGroups(ctx context.Context, queues []model.Queue) ([]model.Group, error) {
	groups, err := n.api.FindGroups(ctx, n.prefix)
	if err != nil {
		return nil, fmt.Errorf("list notification groups: %w", err)
	}

	known := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		if id, ok := QueueIDFromGroup(n.prefix, g.Code); ok {
			known[id] = struct{}{}
		} else {
			n.logger.Warn("unrecognised notification group name", "group", g.Code)
		}
	}

	var created []model.Group
	var errs *multierror.Error
	for _, q := range queues {
		if _, ok := known[q.ID]; ok {
			continue
		}

		name := GroupName(n.prefix, q)
		existing, err := n.api.FindGroups(ctx, name)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("queue %s: %w", q.ID, err))
			continue
		}
		if len(existing) > 0 {
			n.logger.Error("group already exists", "group", name)
			continue
		}

		g, err := n.api.CreateGroup(ctx, name)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("queue %s: %w", q.ID, err))
			continue
		}
		known[q.ID] = struct{}{}
		created = append(created, g)
		n.logger.Info("group created", "group", g.Code, "queue", q.ID)
	}

	return created, errs.ErrorOrNil()
}
