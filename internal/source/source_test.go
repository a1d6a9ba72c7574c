package source

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ignite/customer-match/internal/config"
	"github.com/ignite/customer-match/internal/upload"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, src upload.Source) []string {
	t.Helper()
	var out []string
	ctx := context.Background()
	for {
		v, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, v)
	}
}

func TestSlice(t *testing.T) {
	src := NewSlice([]string{"a", "b"})
	assert.Equal(t, []string{"a", "b"}, drain(t, src))
	_, err := src.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, src.Close())
}

func TestSlice_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSlice([]string{"a"}).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSynthetic(t *testing.T) {
	got := drain(t, NewSynthetic(3, "customer%d@example.com"))
	assert.Equal(t, []string{"customer0@example.com", "customer1@example.com", "customer2@example.com"}, got)

	assert.Empty(t, drain(t, NewSynthetic(0, "x%d")))
}

func TestCSV_HeaderByName(t *testing.T) {
	data := "\ufeffName, Email ,City\nAnn,ann@example.com,Paris\nBob, BOB@example.com ,Rome\n"
	src := NewCSV(io.NopCloser(strings.NewReader(data)), "email", true)
	assert.Equal(t, []string{"ann@example.com", "BOB@example.com "}, drain(t, src))
}

func TestCSV_NoHeaderByIndex(t *testing.T) {
	data := "x,a@example.com\ny,b@example.com\n"
	src := NewCSV(io.NopCloser(strings.NewReader(data)), "1", false)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, drain(t, src))
}

func TestCSV_NoHeaderStripsBOM(t *testing.T) {
	data := "\ufeffcustomer0@example.com\ncustomer1@example.com\n"
	src := NewCSV(io.NopCloser(strings.NewReader(data)), "0", false)
	assert.Equal(t, []string{"customer0@example.com", "customer1@example.com"}, drain(t, src))
}

func TestCSV_NoHeaderNeedsIndex(t *testing.T) {
	src := NewCSV(io.NopCloser(strings.NewReader("a@example.com\n")), "email", false)
	_, err := src.Next(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zero-based index")
}

func TestCSV_MissingColumn(t *testing.T) {
	src := NewCSV(io.NopCloser(strings.NewReader("name,city\nAnn,Paris\n")), "email", true)
	_, err := src.Next(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in header")
}

func TestCSV_ShortRow(t *testing.T) {
	src := NewCSV(io.NopCloser(strings.NewReader("name,email\nAnn\n")), "email", true)
	_, err := src.Next(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestCSV_EmptyFile(t *testing.T) {
	src := NewCSV(io.NopCloser(strings.NewReader("")), "email", true)
	_, err := src.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpenCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "customers.csv")
	require.NoError(t, os.WriteFile(path, []byte("email\nc@example.com\n"), 0644))

	src, err := OpenCSVFile(path, "email", true)
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, []string{"c@example.com"}, drain(t, src))

	_, err = OpenCSVFile(filepath.Join(t.TempDir(), "missing.csv"), "email", true)
	assert.Error(t, err)
}

type fakeGetter struct {
	body   string
	err    error
	bucket string
	key    string
}

func (f *fakeGetter) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.bucket = *in.Bucket
	f.key = *in.Key
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func TestOpenS3(t *testing.T) {
	getter := &fakeGetter{body: "email\none@example.com\ntwo@example.com\n"}
	src, err := OpenS3(context.Background(), getter, "audiences", "exports/today.csv", "email", true)
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, "audiences", getter.bucket)
	assert.Equal(t, "exports/today.csv", getter.key)
	assert.Equal(t, []string{"one@example.com", "two@example.com"}, drain(t, src))
}

func TestOpenS3_Error(t *testing.T) {
	_, err := OpenS3(context.Background(), &fakeGetter{err: errors.New("NoSuchKey")}, "b", "k", "email", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3 GetObject b/k")
}

func TestSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT email FROM subscribers").
		WithArgs("active").
		WillReturnRows(sqlmock.NewRows([]string{"email"}).
			AddRow("a@example.com").
			AddRow(nil).
			AddRow("c@example.com"))

	src := NewSQL(db, "SELECT email FROM subscribers WHERE status = $1", "active")
	assert.Equal(t, []string{"a@example.com", "", "c@example.com"}, drain(t, src))
	require.NoError(t, src.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQL_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("relation does not exist"))

	src := NewSQL(db, "SELECT email FROM missing")
	_, err = src.Next(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "querying identifiers")
	assert.NoError(t, src.Close())
}

func TestRedisSet(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	_, err = mr.SAdd("audience:vip", "a@example.com", "b@example.com", "c@example.com")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	src := NewRedisSet(client, "audience:vip", 2)
	got := drain(t, src)
	sort.Strings(got)
	assert.Equal(t, []string{"a@example.com", "b@example.com", "c@example.com"}, got)
	assert.NoError(t, src.Close())
}

func TestRedisSet_MissingKey(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	src, err := OpenRedisSet(context.Background(), "redis://"+mr.Addr(), "audience:none", 0)
	require.NoError(t, err)
	assert.Empty(t, drain(t, src))
	assert.NoError(t, src.Close())
}

func TestOpen(t *testing.T) {
	src, err := Open(context.Background(), config.SourceConfig{
		Type:      "synthetic",
		Synthetic: config.SyntheticSourceConfig{Count: 2, Template: "u%d@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"u0@example.com", "u1@example.com"}, drain(t, src))

	path := filepath.Join(t.TempDir(), "ids.csv")
	require.NoError(t, os.WriteFile(path, []byte("phone\n+15555550100\n"), 0644))
	src, err = Open(context.Background(), config.SourceConfig{
		Type: "csv",
		CSV:  config.CSVSourceConfig{Path: path, Column: "phone", HasHeader: true},
	})
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, []string{"+15555550100"}, drain(t, src))
}

func TestOpen_InvalidConfig(t *testing.T) {
	_, err := Open(context.Background(), config.SourceConfig{Type: "ftp"})
	var cfgErr *config.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
}
