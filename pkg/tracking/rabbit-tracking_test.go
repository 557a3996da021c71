package tracking

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/motoshop/catalog/pkg/common"
	"github.com/motoshop/catalog/pkg/common/jsoncompat"
	"github.com/motoshop/catalog/pkg/types"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu        sync.Mutex
	exchanges []string
	bodies    [][]byte
}

func (p *recordingPublisher) PublishWithContext(_ context.Context, exchange, _ string, _, _ bool, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.exchanges = append(p.exchanges, exchange)
	p.bodies = append(p.bodies, msg.Body)
	return nil
}

var _ common.SessionTracker = (*RabbitTracking)(nil)
var _ Tracking = (*RabbitTracking)(nil)
var _ Tracking = NopTracking{}

func TestEventsArePublishedOnClose(t *testing.T) {
	pub := &recordingPublisher{}
	tr := newTracking(pub, "moto", nil, time.Hour)

	r := httptest.NewRequest("GET", "/api/catalog/helmets", nil)
	r.Header.Set("X-Real-Ip", "10.0.0.1")
	r.Header.Set("Referer", "https://shop.test/")
	tr.TrackSession("s1", r)
	tr.TrackCatalogView("s1", CatalogView{
		Category: "helmets",
		State:    types.NewFilterState(types.PriceBounds{Min: 0, Max: 1000}).WithQuery("agv"),
		Sort:     types.SortPriceAsc,
		Page:     1,
		Total:    3,
	}, r)
	tr.TrackAction("s1", Action{Action: "favorite", ProductId: "p1"})

	require.NoError(t, tr.Close())

	require.Len(t, pub.bodies, 3)
	assert.Equal(t, []string{"moto_tracking", "moto_tracking", "moto_tracking"}, pub.exchanges)

	var session map[string]any
	require.NoError(t, jsoncompat.Unmarshal(pub.bodies[0], &session))
	assert.Equal(t, "10.0.0.1", session["ip"])
	assert.Equal(t, "s1", session["session_id"])

	var view map[string]any
	require.NoError(t, jsoncompat.Unmarshal(pub.bodies[1], &view))
	assert.Equal(t, "helmets", view["category"])
	assert.Equal(t, "https://shop.test/", view["referer"])
	assert.EqualValues(t, EventCatalog, view["event"])

	var action map[string]any
	require.NoError(t, jsoncompat.Unmarshal(pub.bodies[2], &action))
	assert.Equal(t, "favorite", action["action"])
}
