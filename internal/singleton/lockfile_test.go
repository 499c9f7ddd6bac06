package singleton

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockAcquireRelease(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "bot.lock")

	lock, err := Acquire(path, &logger)
	require.NoError(t, err)
	require.NotNil(t, lock)

	// В файле лежит PID текущего процесса
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	lock.Release()
	assert.NoFileExists(t, path)
}

func TestLockAcquire_SecondBootBlocked(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "bot.lock")

	first, err := Acquire(path, &logger)
	require.NoError(t, err)
	defer first.Release()

	second, err := Acquire(path, &logger)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Nil(t, second)
}

func TestLockAcquire_AfterRelease(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "bot.lock")

	first, err := Acquire(path, &logger)
	require.NoError(t, err)
	first.Release()

	second, err := Acquire(path, &logger)
	require.NoError(t, err)
	second.Release()
}

func TestLockAcquire_CreatesDirectory(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "nested", "dir", "bot.lock")

	lock, err := Acquire(path, &logger)
	require.NoError(t, err)
	defer lock.Release()

	assert.FileExists(t, path)
}

func TestLockRelease_NilSafe(t *testing.T) {
	var lock *Lock
	lock.Release()
}

func TestLockRelease_MissingFile(t *testing.T) {
	logger := zerolog.Nop()
	path := filepath.Join(t.TempDir(), "bot.lock")

	lock, err := Acquire(path, &logger)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	lock.Release()
}
