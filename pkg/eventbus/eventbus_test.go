package eventbus

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type ratesRevised struct {
	custno string
}

type otherEvent struct {
	custno string
}

func warnCapture() (*logrus.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(buf)
	log.SetLevel(logrus.WarnLevel)
	return log, buf
}

func TestPublisher_NoMatchingSubscriberLogs(t *testing.T) {
	log, buf := warnCapture()
	publisher := NewEventPublisher(log)
	publisher.Subscribe(func(e *ratesRevised) {
		t.Error("should not be called")
	})

	publisher.Publish(&otherEvent{custno: "12345"})

	require.Contains(t, buf.String(), "no matching subscribers")
}

func TestPublisher_DispatchesToMatchingSubscriber(t *testing.T) {
	log, _ := warnCapture()
	publisher := NewEventPublisher(log)

	var got string
	publisher.Subscribe(func(e *ratesRevised) {
		got = e.custno
	})
	publisher.Publish(&ratesRevised{custno: "44821"})

	require.Equal(t, "44821", got)
}

func TestPublisher_RecoversHandlerPanic(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logrus.New()
	log.SetOutput(buf)
	log.SetLevel(logrus.ErrorLevel)
	publisher := NewEventPublisher(log)

	publisher.Subscribe(func(e *ratesRevised) {
		panic("audit store down")
	})
	publisher.Publish(&ratesRevised{custno: "44821"})

	require.True(t, strings.Contains(buf.String(), "panicked"))
}

func TestPublisher_Unsubscribe(t *testing.T) {
	log, _ := warnCapture()
	publisher := NewEventPublisher(log)

	called := false
	handler := func(e *ratesRevised) { called = true }
	publisher.Subscribe(handler)
	require.Equal(t, 1, publisher.SubscribersCount())

	publisher.Unsubscribe(handler)
	require.Equal(t, 0, publisher.SubscribersCount())

	publisher.Publish(&ratesRevised{})
	require.False(t, called)
}
