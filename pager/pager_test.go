package pager

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.FatalLevel)
	return log
}

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

func TestOpenEmptyFile(t *testing.T) {
	p, err := Open(tempPath(t), testLogger())
	require.NoError(t, err)
	require.EqualValues(t, 0, p.NumPages())
	require.NoError(t, p.Close())
}

func TestOpenRejectsCorruptLength(t *testing.T) {
	path := tempPath(t)
	require.NoError(t, os.WriteFile(path, make([]byte, PageSize/2), 0600))

	_, err := Open(path, testLogger())
	require.Error(t, err)
}

func TestGetPageGrowsExtent(t *testing.T) {
	p, err := Open(tempPath(t), testLogger())
	require.NoError(t, err)
	defer p.Close()

	page, err := p.GetPage(0)
	require.NoError(t, err)
	require.NotNil(t, page)
	require.EqualValues(t, 1, p.NumPages())

	page.Data[0] = 0x42

	same, err := p.GetPage(0)
	require.NoError(t, err)
	require.Equal(t, byte(0x42), same.Data[0])
}

func TestGetPageOutOfBounds(t *testing.T) {
	p, err := Open(tempPath(t), testLogger())
	require.NoError(t, err)
	defer p.Close()

	_, err = p.GetPage(TableMaxPages)
	require.Error(t, err)
}

func TestFlushAndReopenRoundTrips(t *testing.T) {
	path := tempPath(t)
	log := testLogger()

	p, err := Open(path, log)
	require.NoError(t, err)
	page, err := p.GetPage(0)
	require.NoError(t, err)
	page.Data[10] = 0x7

	require.NoError(t, p.Close())

	p2, err := Open(path, log)
	require.NoError(t, err)
	defer p2.Close()

	require.EqualValues(t, 1, p2.NumPages())
	reopened, err := p2.GetPage(0)
	require.NoError(t, err)
	require.Equal(t, byte(0x7), reopened.Data[10])
}

func TestGetUnusedPageNum(t *testing.T) {
	p, err := Open(tempPath(t), testLogger())
	require.NoError(t, err)
	defer p.Close()

	require.EqualValues(t, 0, p.GetUnusedPageNum())
	_, err = p.GetPage(0)
	require.NoError(t, err)
	require.EqualValues(t, 1, p.GetUnusedPageNum())
}
