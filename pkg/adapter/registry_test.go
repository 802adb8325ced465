package adapter

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alaiia/mcp-dbquery/pkg/query"
)

type stubAdapter struct {
	conn query.Connection
}

func (s *stubAdapter) Connect(context.Context) error       { return nil }
func (s *stubAdapter) Disconnect(context.Context)          {}
func (s *stubAdapter) TestConnection(context.Context) bool { return true }
func (s *stubAdapter) ValidateQuery(q string) *query.ValidationResult {
	return query.DefaultRuleset().Validate(q)
}
func (s *stubAdapter) ExecuteQuery(context.Context, string, time.Duration, int) (*query.Result, error) {
	return &query.Result{}, nil
}
func (s *stubAdapter) ConnectionInfo() Info {
	return Info{Engine: s.conn.Engine.String()}
}

func stubConstructor(conn query.Connection) (Adapter, error) {
	return &stubAdapter{conn: conn}, nil
}

func TestRegistryRegisterAndNew(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(query.EnginePostgres, stubConstructor))

	ad, err := r.New(query.Connection{Engine: query.EnginePostgres, Host: "h", Database: "d"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", ad.ConnectionInfo().Engine)
	assert.True(t, r.Supported(query.EnginePostgres))
	assert.False(t, r.Supported(query.EngineMySQL))
}

func TestRegistryUnsupportedEngine(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(query.EnginePostgres, stubConstructor))
	require.NoError(t, r.Register(query.EngineSQLite, stubConstructor))

	_, err := r.New(query.Connection{Engine: query.EngineMySQL})
	require.Error(t, err)

	var unsupported *query.UnsupportedEngineError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, query.EngineMySQL, unsupported.Engine)
	assert.Equal(t, []string{"postgres", "sqlite"}, unsupported.Supported)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(query.EnginePostgres, stubConstructor))
	assert.Error(t, r.Register(query.EnginePostgres, stubConstructor))
}

func TestRegistryRejectsNilConstructor(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(query.EnginePostgres, nil))
}

func TestRegistryConcurrentReads(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(query.EnginePostgres, stubConstructor))

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.New(query.Connection{Engine: query.EnginePostgres})
			assert.NoError(t, err)
			_ = r.SupportedEngines()
			_ = r.Supported(query.EngineMySQL)
		}()
	}
	wg.Wait()
}

func TestRegistrySupportedEnginesSorted(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(query.EngineSQLite, stubConstructor))
	require.NoError(t, r.Register(query.EngineMySQL, stubConstructor))
	require.NoError(t, r.Register(query.EnginePostgres, stubConstructor))

	assert.Equal(t, []string{"mysql", "postgres", "sqlite"}, r.SupportedEngines())
}
