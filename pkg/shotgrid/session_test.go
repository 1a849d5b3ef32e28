package shotgrid_test

import (
	"context"
	"testing"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/shotgrid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_RetriesFailedLogin(t *testing.T) {
	site, srv := newSite(t)
	site.groups = []map[string]any{groupEntity(1, "DeadlineCloud queue:Comp queue-id:queue-1", 7)}
	site.setReject(true)

	loads := 0
	s := shotgrid.NewSession(func() shotgrid.Credentials {
		loads++
		return shotgrid.Credentials{URL: srv.URL, ScriptName: "notifier", APIKey: "secret"}
	})

	_, err := s.FindGroups(context.Background(), "DeadlineCloud")
	require.Error(t, err)
	assert.Equal(t, model.KindTransient, model.KindOf(err))

	site.setReject(false)
	groups, err := s.FindGroups(context.Background(), "DeadlineCloud")
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	_, err = s.FindGroups(context.Background(), "DeadlineCloud")
	require.NoError(t, err)
	assert.Equal(t, 2, loads, "client is kept after the first successful login")
}

func TestSession_MissingCredentials(t *testing.T) {
	s := shotgrid.NewSession(func() shotgrid.Credentials { return shotgrid.Credentials{} })

	_, err := s.CreateNote(context.Background(), shotgrid.NoteRequest{Subject: "x"})
	require.ErrorIs(t, err, model.ErrInsufficientCredentials)
	assert.Equal(t, model.KindLocalState, model.KindOf(err))

	_, err = s.CreateGroup(context.Background(), "DeadlineCloud queue:Comp queue-id:queue-1")
	assert.ErrorIs(t, err, model.ErrInsufficientCredentials)
}
