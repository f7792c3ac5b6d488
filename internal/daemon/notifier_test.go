package daemon

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/toastui/internal/model"
)

type recordingHandler struct {
	requests []model.Request
}

func (r *recordingHandler) show(req model.Request) string {
	r.requests = append(r.requests, req)
	return "toast-id"
}

func TestInternalNotifier_Notify(t *testing.T) {
	n := NewInternalNotifier(nil)
	rec := &recordingHandler{}
	n.SetNotifyHandler(rec.show)

	id := n.Notify("k", "Title", "Message", NotificationLevelWarning)
	assert.Equal(t, "toast-id", id)

	require.Len(t, rec.requests, 1)
	assert.Equal(t, model.KindWarning, rec.requests[0].Kind)
	assert.Equal(t, "Title", rec.requests[0].Title)
	assert.Equal(t, "Message", rec.requests[0].Message)
	assert.Equal(t, internalDuration, rec.requests[0].Duration)
}

func TestInternalNotifier_RateLimit(t *testing.T) {
	n := NewInternalNotifier(nil)
	rec := &recordingHandler{}
	n.SetNotifyHandler(rec.show)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }

	assert.NotEmpty(t, n.NotifyConfigReloaded())
	assert.Empty(t, n.NotifyConfigReloaded())

	// Different keys are limited separately
	assert.NotEmpty(t, n.NotifyConfigError(errors.New("bad width")))

	now = now.Add(5 * time.Second)
	assert.NotEmpty(t, n.NotifyConfigReloaded())

	assert.Len(t, rec.requests, 3)
	assert.Equal(t, model.KindError, rec.requests[1].Kind)
	assert.Contains(t, rec.requests[1].Message, "bad width")
}

func TestInternalNotifier_DisabledOrNoHandler(t *testing.T) {
	n := NewInternalNotifier(nil)
	assert.Empty(t, n.Notify("k", "t", "m", NotificationLevelInfo))

	rec := &recordingHandler{}
	n.SetNotifyHandler(rec.show)
	n.SetEnabled(false)
	assert.Empty(t, n.Notify("k", "t", "m", NotificationLevelInfo))
	assert.Empty(t, rec.requests)

	n.SetEnabled(true)
	n.SetMinInterval(0)
	n.Notify("k", "t", "m", NotificationLevelInfo)
	n.Notify("k", "t", "m", NotificationLevelInfo)
	assert.Len(t, rec.requests, 2)
}

func TestNotificationLevelKind(t *testing.T) {
	assert.Equal(t, model.KindInfo, NotificationLevelInfo.Kind())
	assert.Equal(t, model.KindSuccess, NotificationLevelSuccess.Kind())
	assert.Equal(t, model.KindWarning, NotificationLevelWarning.Kind())
	assert.Equal(t, model.KindError, NotificationLevelError.Kind())
	assert.Equal(t, model.KindInfo, NotificationLevel(42).Kind())
}
