//go:build !integration

package main

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FutingLiang/dmv-routes-frontend/internal/route"
	"github.com/FutingLiang/dmv-routes-frontend/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// getFreePort returns a free TCP port on localhost.
func getFreePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return port
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

// fakeStore serves canned rows for command helpers.
type fakeStore struct {
	table  string
	exists bool
	count  int64
	rows   []store.RouteRow
	groups []route.Group
	err    error
}

func (f *fakeStore) Table() string { return f.table }

func (f *fakeStore) Ping(context.Context) error { return f.err }

func (f *fakeStore) TableExists(context.Context) (bool, error) { return f.exists, f.err }

func (f *fakeStore) CountRows(context.Context) (int64, error) { return f.count, f.err }

func (f *fakeStore) ListRoutes(context.Context, int) ([]store.RouteRow, error) { return f.rows, f.err }

func (f *fakeStore) AllRoutes(context.Context) ([]store.RouteRow, error) { return f.rows, f.err }

func (f *fakeStore) TableStats(context.Context) (store.TableStats, error) {
	return store.TableStats{Total: int64(len(f.rows))}, f.err
}

func (f *fakeStore) SearchRoutes(context.Context, store.SearchParams) ([]store.RouteRow, int64, error) {
	return f.rows, int64(len(f.rows)), f.err
}

func (f *fakeStore) RouteGroups(context.Context) ([]route.Group, error) { return f.groups, f.err }

func fixtureGroups() []route.Group {
	return []route.Group{
		{District: strPtr("taipei"), SourceFile: "114年臺北區監理所國道.xlsx", Company: strPtr("X客運"), RouteType: route.Highway, Routes: 5, Le24: 3, Ge25: 2},
		{District: strPtr("taipei"), SourceFile: "114年臺北市區監理所一般.xlsx", Company: strPtr("Y客運"), RouteType: route.Local, Routes: 2, Le24: 2},
		{District: strPtr("kaohsiung"), SourceFile: "114年高雄一般.xlsx", Company: strPtr("Z客運"), RouteType: route.Local, Routes: 4, Ge25: 4},
		{District: nil, SourceFile: "", Company: nil, RouteType: route.Local, Routes: 1, Le24: 1},
	}
}
