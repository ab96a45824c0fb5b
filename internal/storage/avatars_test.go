package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAvatarWritesFileAndURL(t *testing.T) {
	dir := t.TempDir()
	st, err := NewDiskStore(dir, "http://localhost:8080/")
	require.NoError(t, err)
	assert.Equal(t, dir, st.Dir())

	url, err := st.SaveAvatar(42, "me.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/static/avatars/42/me.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "42", "me.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestSaveAvatarStripsPathComponents(t *testing.T) {
	dir := t.TempDir()
	st, err := NewDiskStore(dir, "http://localhost:8080")
	require.NoError(t, err)

	url, err := st.SaveAvatar(1, "../../etc/passwd", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/static/avatars/1/passwd", url)

	_, err = os.Stat(filepath.Join(dir, "1", "passwd"))
	assert.NoError(t, err, "upload lands inside the avatar directory")
}

func TestSaveAvatarRejectsEmptyName(t *testing.T) {
	st, err := NewDiskStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	_, err = st.SaveAvatar(1, "..", strings.NewReader("x"))
	assert.Error(t, err)
}
