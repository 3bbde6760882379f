package queue

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEvent = FeedRequestDecidedEvent{
	RequestID:  7,
	ActorEmail: "alice@example.com",
	DogID:      1,
	FeedAmount: 3,
	Approved:   true,
	Award:      5,
	DecidedBy:  "admin@example.com",
	DecidedAt:  "2024-05-01T10:00:00Z",
}

func TestSignVerifyRoundTrip(t *testing.T) {
	secret := []byte("s3cret")
	raw, err := Sign(secret, testEvent)
	require.NoError(t, err)

	got, err := Verify(secret, raw)
	require.NoError(t, err)
	assert.Equal(t, testEvent, got)
}

func TestVerifyRejectsForeignMessages(t *testing.T) {
	raw, err := Sign([]byte("s3cret"), testEvent)
	require.NoError(t, err)

	_, err = Verify([]byte("other"), raw)
	assert.ErrorIs(t, err, ErrBadEnvelope)

	_, err = Verify([]byte("s3cret"), `{"request_id":7}`)
	assert.ErrorIs(t, err, ErrBadEnvelope)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, eventClaims{Event: testEvent,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: envelopeIssuer}}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = Verify([]byte("s3cret"), none)
	assert.ErrorIs(t, err, ErrBadEnvelope)

	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, eventClaims{Event: testEvent,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"}}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = Verify([]byte("s3cret"), wrongIssuer)
	assert.ErrorIs(t, err, ErrBadEnvelope)
}

func TestConsumerHandleAppendsAuditLine(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	c := &Consumer{Secret: []byte("s3cret"), LogDir: dir}

	raw, err := Sign(c.Secret, testEvent)
	require.NoError(t, err)
	require.NoError(t, c.Handle([]byte(raw)))

	declined := testEvent
	declined.Approved = false
	declined.Award = 0
	raw, err = Sign(c.Secret, declined)
	require.NoError(t, err)
	require.NoError(t, c.Handle([]byte(raw)))

	assert.Error(t, c.Handle([]byte("garbage")))

	b, err := os.ReadFile(filepath.Join(dir, AuditLogName))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Feed request approved | request_id=7 | actor=alice@example.com | dog_id=1 | feed_amount=3 | award=5")
	assert.Contains(t, lines[1], "Feed request declined")
}
