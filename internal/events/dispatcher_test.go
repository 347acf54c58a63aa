package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskline/helpdesk/internal/domain"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(nil)

	var got []EventType
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return errors.New("handler failure is swallowed")
	})
	SubscribeAll(d, func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	})

	actor := domain.Actor{ID: "u1", Role: domain.RoleCustomer}
	require.NoError(t, d.Publish(context.Background(), NewEvent(EventTicketCreated, "t1", actor, nil)))
	require.NoError(t, d.Publish(context.Background(), NewEvent(EventCategoryDeleted, "", actor, nil)))

	assert.Equal(t, []EventType{EventTicketCreated, EventTicketCreated, EventCategoryDeleted}, got)
}

func TestEventJSONShape(t *testing.T) {
	event := NewEvent(EventTicketCommentAdded, "t1", domain.Actor{ID: "a1", Role: domain.RoleSupportAgent},
		TicketCommentAddedPayload{CommentID: "c1", Internal: true, BodyPreview: "checked logs"})

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "ticket_comment_added", decoded["type"])
	assert.Equal(t, "t1", decoded["ticket_id"])
	assert.Equal(t, map[string]any{"id": "a1", "role": "SUPPORT_AGENT"}, decoded["actor"])
	assert.Equal(t, true, decoded["payload"].(map[string]any)["internal"])
	assert.NotEmpty(t, decoded["id"])
}
