package compose

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sablechat/sable/internal/domain"
	"github.com/sablechat/sable/internal/events"
)

func TestComposer_SendTextOnly(t *testing.T) {
	backend := &mockBackend{}
	c, _, recorder := newTestComposer(backend)

	c.Draft().SetText("hello")
	require.NoError(t, c.Send(context.Background()))

	sent := backend.sentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "hello", sent[0].Content)
	assert.Equal(t, domain.KindChat, sent[0].Kind)
	assert.Empty(t, sent[0].Attachments)

	// Group tag present, no reply tag.
	_, hasGroup := domain.FindTag(sent[0].Tags, "h")
	assert.True(t, hasGroup)
	_, hasReply := domain.FindTag(sent[0].Tags, "q")
	assert.False(t, hasReply)

	// Echo observed strictly before the confirmation.
	assert.Equal(t, []string{events.EventMessagePending, events.EventMessageSent}, recorder.events())
}

func TestComposer_EchoShape(t *testing.T) {
	backend := &mockBackend{}
	c, _, recorder := newTestComposer(backend)

	c.Draft().SetText("hello")
	require.NoError(t, c.Send(context.Background()))

	echoes := recorder.byEvent(events.EventMessagePending)
	require.Len(t, echoes, 1)
	echo := echoes[0]
	assert.True(t, echo.Pending)
	assert.True(t, strings.HasPrefix(echo.ID, "local:"))
	assert.Equal(t, "pk-alice", echo.Author)
	assert.Equal(t, "grp-1", echo.GroupID)
	assert.Equal(t, "hello", echo.Content)

	confirmed := recorder.byEvent(events.EventMessageSent)
	require.Len(t, confirmed, 1)
	assert.False(t, confirmed[0].Pending)
	assert.NotEqual(t, echo.ID, confirmed[0].ID)
}

func TestComposer_EchoObservedBeforeBackendCall(t *testing.T) {
	backend := &mockBackend{}
	c, _, recorder := newTestComposer(backend)

	var echoesAtSendTime int
	backend.sendFunc = func(_ context.Context, out domain.OutboundMessage) (*domain.Message, error) {
		echoesAtSendTime = len(recorder.byEvent(events.EventMessagePending))
		return &domain.Message{ID: "msg-1", GroupID: out.GroupID, Content: out.Content}, nil
	}

	c.Draft().SetText("hello")
	require.NoError(t, c.Send(context.Background()))
	assert.Equal(t, 1, echoesAtSendTime)
}

func TestComposer_EmptyDraftIsNoop(t *testing.T) {
	backend := &mockBackend{}
	c, notifier, recorder := newTestComposer(backend)

	err := c.Send(context.Background())
	assert.ErrorIs(t, err, ErrEmptyDraft)
	assert.Empty(t, backend.sentMessages())
	assert.Empty(t, recorder.events())
	assert.Empty(t, notifier.warnings())
	assert.Empty(t, notifier.errorNotices())
}

func TestComposer_AttachmentAloneIsSendable(t *testing.T) {
	backend := &mockBackend{}
	c, _, _ := newTestComposer(backend)

	att := c.Attachments().Add(domain.Attachment{Filename: "photo.png", Data: []byte("bytes")})
	c.Attachments().SetStatus(att.ID, domain.UploadStatusSuccess, "ref-1")

	require.NoError(t, c.Send(context.Background()))

	sent := backend.sentMessages()
	require.Len(t, sent, 1)
	assert.Empty(t, sent[0].Content)
	require.Len(t, sent[0].Attachments, 1)
	assert.Equal(t, "photo.png", sent[0].Attachments[0].Filename)
}

func TestComposer_RefusedWhileUploadsPending(t *testing.T) {
	backend := &mockBackend{}
	c, notifier, recorder := newTestComposer(backend)

	c.Draft().SetText("wait for it")
	c.Attachments().Add(domain.Attachment{Filename: "slow.bin"})
	c.Reply().Set(domain.ReplyRef{MessageID: "msg-0", Author: "pk-bob"})

	err := c.Send(context.Background())
	assert.ErrorIs(t, err, ErrUploadsPending)
	assert.Empty(t, backend.sentMessages())
	assert.Empty(t, recorder.events())
	require.Len(t, notifier.warnings(), 1)
	assert.Contains(t, notifier.warnings()[0], "progress")

	// A guarded refusal is not a send attempt: nothing is cleared.
	assert.Equal(t, "wait for it", c.Draft().Text())
	assert.Equal(t, 1, c.Attachments().Len())
	_, stillSet := c.Reply().Get()
	assert.True(t, stillSet)
}

func TestComposer_MixedAttachmentOutcomes(t *testing.T) {
	backend := &mockBackend{}
	c, _, _ := newTestComposer(backend)

	first := c.Attachments().Add(domain.Attachment{Filename: "good.png", Data: []byte("good")})
	second := c.Attachments().Add(domain.Attachment{Filename: "bad.png", Data: []byte("bad")})
	c.Attachments().SetStatus(first.ID, domain.UploadStatusSuccess, "ref-good")
	c.Attachments().SetStatus(second.ID, domain.UploadStatusError, "")
	c.Draft().SetText("photo")

	require.NoError(t, c.Send(context.Background()))

	sent := backend.sentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "photo", sent[0].Content)
	require.Len(t, sent[0].Attachments, 1)
	assert.Equal(t, "good.png", sent[0].Attachments[0].Filename)
	assert.Equal(t, "ref-good", sent[0].Attachments[0].Ref)
}

func TestComposer_SuccessClearsEverything(t *testing.T) {
	backend := &mockBackend{}
	c, _, _ := newTestComposer(backend)

	att := c.Attachments().Add(domain.Attachment{Filename: "a.png"})
	c.Attachments().SetStatus(att.ID, domain.UploadStatusSuccess, "ref-a")
	c.Draft().SetText("bye")
	c.Reply().Set(domain.ReplyRef{MessageID: "msg-0", Author: "pk-bob"})

	require.NoError(t, c.Send(context.Background()))

	assert.Empty(t, c.Draft().Text())
	assert.Equal(t, 0, c.Attachments().Len())
	_, hasReply := c.Reply().Get()
	assert.False(t, hasReply)
	assert.False(t, c.Sending())
}

func TestComposer_FailureClearsOnlyReply(t *testing.T) {
	backend := &mockBackend{sendErr: errors.New("relay unreachable")}
	c, notifier, recorder := newTestComposer(backend)

	att := c.Attachments().Add(domain.Attachment{Filename: "keep.png"})
	c.Attachments().SetStatus(att.ID, domain.UploadStatusError, "")
	c.Draft().SetText("try again later")
	c.Reply().Set(domain.ReplyRef{MessageID: "msg-M", Author: "pk-bob"})

	err := c.Send(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "relay unreachable")

	// Reply cleared; draft and attachments preserved for retry.
	_, hasReply := c.Reply().Get()
	assert.False(t, hasReply)
	assert.Equal(t, "try again later", c.Draft().Text())
	assert.Equal(t, 1, c.Attachments().Len())
	assert.False(t, c.Sending())

	// No confirmation was observed, only the echo.
	assert.Equal(t, []string{events.EventMessagePending}, recorder.events())
	require.Len(t, notifier.errorNotices(), 1)
}

func TestComposer_ReplyTagCarriesRelayHint(t *testing.T) {
	backend := &mockBackend{relays: []string{"wss://relay.one", "wss://relay.two"}}
	c, _, _ := newTestComposer(backend)

	c.Draft().SetText("replying")
	c.Reply().Set(domain.ReplyRef{MessageID: "msg-42", Author: "pk-bob", Content: "original"})

	require.NoError(t, c.Send(context.Background()))

	sent := backend.sentMessages()
	require.Len(t, sent, 1)
	tag, ok := domain.FindTag(sent[0].Tags, "q")
	require.True(t, ok)
	require.Len(t, tag, 4)
	assert.Equal(t, "msg-42", tag[1])
	assert.Equal(t, "wss://relay.one", tag[2])
	assert.Equal(t, "pk-bob", tag[3])

	assert.Equal(t, 1, backend.relayCallCount())
}

func TestComposer_NoReplyNoRelayResolution(t *testing.T) {
	backend := &mockBackend{relays: []string{"wss://relay.one"}}
	c, _, _ := newTestComposer(backend)

	c.Draft().SetText("plain")
	require.NoError(t, c.Send(context.Background()))

	assert.Equal(t, 0, backend.relayCallCount())
}

func TestComposer_RelayResolutionFailureDegradesHint(t *testing.T) {
	backend := &mockBackend{relaysErr: errors.New("no relays known")}
	c, _, _ := newTestComposer(backend)

	c.Draft().SetText("replying anyway")
	c.Reply().Set(domain.ReplyRef{MessageID: "msg-42", Author: "pk-bob"})

	require.NoError(t, c.Send(context.Background()))

	sent := backend.sentMessages()
	require.Len(t, sent, 1)
	tag, ok := domain.FindTag(sent[0].Tags, "q")
	require.True(t, ok)
	assert.Equal(t, "", tag[2]) // empty hint, send not aborted
}

func TestComposer_DeletedReplyTargetStillQuotable(t *testing.T) {
	backend := &mockBackend{}
	c, _, _ := newTestComposer(backend)

	c.Draft().SetText("quoting a ghost")
	c.Reply().Set(domain.ReplyRef{MessageID: "msg-9", Author: "pk-bob", Deleted: true})
	assert.True(t, c.Reply().TargetDeleted())

	require.NoError(t, c.Send(context.Background()))

	sent := backend.sentMessages()
	require.Len(t, sent, 1)
	_, ok := domain.FindTag(sent[0].Tags, "q")
	assert.True(t, ok)
}

func TestComposer_RejectsReentrantSend(t *testing.T) {
	backend := &mockBackend{}
	c, _, _ := newTestComposer(backend)

	release := make(chan struct{})
	entered := make(chan struct{})
	backend.sendFunc = func(_ context.Context, out domain.OutboundMessage) (*domain.Message, error) {
		close(entered)
		<-release
		return &domain.Message{ID: "msg-1", GroupID: out.GroupID, Content: out.Content}, nil
	}

	c.Draft().SetText("slow send")

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		firstErr = c.Send(context.Background())
	}()

	<-entered
	assert.True(t, c.Sending())
	err := c.Send(context.Background())
	assert.ErrorIs(t, err, ErrSendInFlight)

	close(release)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.False(t, c.Sending())

	// Only the first send reached the backend.
	assert.Len(t, backend.sentMessages(), 1)
}

func TestComposer_SendableAgainAfterFailure(t *testing.T) {
	backend := &mockBackend{sendErr: errors.New("flaky")}
	c, _, _ := newTestComposer(backend)

	c.Draft().SetText("retry me")
	require.Error(t, c.Send(context.Background()))

	backend.mu.Lock()
	backend.sendErr = nil
	backend.mu.Unlock()

	require.NoError(t, c.Send(context.Background()))
	sent := backend.sentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "retry me", sent[1].Content)
	assert.Empty(t, c.Draft().Text())
}

func TestComposer_AttachStartsUpload(t *testing.T) {
	backend := &mockBackend{}
	c, _, _ := newTestComposer(backend)

	att := c.Attach(context.Background(), domain.Attachment{Filename: "auto.png", Data: []byte("x")})
	require.NotEmpty(t, att.ID)

	require.Eventually(t, func() bool {
		got, ok := c.Attachments().Get(att.ID)
		return ok && got.Status == domain.UploadStatusSuccess
	}, 2*time.Second, 10*time.Millisecond)

	got, _ := c.Attachments().Get(att.ID)
	assert.Equal(t, "ref-auto.png", got.Ref)
	require.Len(t, backend.uploadedAttachments(), 1)
}

func TestComposer_Empty(t *testing.T) {
	backend := &mockBackend{}
	c, _, _ := newTestComposer(backend)

	assert.True(t, c.Empty())

	c.Draft().SetText("x")
	assert.False(t, c.Empty())

	c.Draft().Clear()
	c.Attachments().Add(domain.Attachment{Filename: "a"})
	assert.False(t, c.Empty())
}
