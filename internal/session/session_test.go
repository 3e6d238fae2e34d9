package session

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNewStampsSessionIDAndRole(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	sess := New("sender", logger)
	require.NotEmpty(t, sess.ID)
	require.Equal(t, "sender", sess.Role)

	sess.Log.Info("hello")
	require.Contains(t, buf.String(), sess.ID)
	require.Contains(t, buf.String(), `"role":"sender"`)
}

func TestNewGeneratesUniqueIDs(t *testing.T) {
	logger := logrus.New()
	a := New("sender", logger)
	b := New("sender", logger)
	require.NotEqual(t, a.ID, b.ID)
}
